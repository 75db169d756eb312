package service

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/loretexai/internal/domain"
)

// ScoreConfig controls keyword scoring weights. Title and tag matches count
// for more than body matches so that well-labeled material surfaces first.
type ScoreConfig struct {
	TitleWeight   float64
	TagWeight     float64
	ContentWeight float64
}

// DefaultScoreConfig provides the default scoring weights.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		TitleWeight:   3,
		TagWeight:     4,
		ContentWeight: 1,
	}
}

// TokenizeQuery normalizes a free-text query into keyword tokens: lower-cased,
// punctuation treated as a separator, split on whitespace, single-character
// tokens dropped, de-duplicated in first-seen order. An empty or
// whitespace-only query yields no tokens.
func TokenizeQuery(query string) []string {
	var tokens []string
	seen := make(map[string]struct{})

	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if utf8.RuneCountInString(tok) <= 1 {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// countTokenMatches counts case-insensitive substring occurrences of every
// token in text.
func countTokenMatches(text string, tokens []string) float64 {
	if text == "" || len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	var count float64
	for _, tok := range tokens {
		count += float64(strings.Count(lower, tok))
	}
	return count
}

// ScoreFields scores a (title, content, tags) triple against query tokens
// using the configured weights. Returns 0 when tokens is empty.
func ScoreFields(title, content string, tags, tokens []string, cfg ScoreConfig) float64 {
	if len(tokens) == 0 {
		return 0
	}
	score := countTokenMatches(title, tokens) * cfg.TitleWeight
	score += countTokenMatches(content, tokens) * cfg.ContentWeight
	if len(tags) > 0 {
		score += countTokenMatches(strings.Join(tags, " "), tokens) * cfg.TagWeight
	}
	return score
}

// RankEntries orders entries by descending keyword relevance against the
// query. Without a query the input order is preserved; entries with equal
// scores keep their original relative order. The returned slice is fresh but
// references the same entries.
func RankEntries(entries []*domain.Entry, query string, cfg ScoreConfig) []*domain.Entry {
	out := make([]*domain.Entry, len(entries))
	copy(out, entries)

	tokens := TokenizeQuery(query)
	if len(tokens) == 0 {
		return out
	}

	scores := make([]float64, len(out))
	for i, e := range out {
		scores[i] = ScoreFields(e.Title, e.Content, e.Tags, tokens, cfg)
	}

	indices := make([]int, len(out))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return scores[indices[i]] > scores[indices[j]]
	})

	ranked := make([]*domain.Entry, len(out))
	for i, idx := range indices {
		ranked[i] = out[idx]
	}
	return ranked
}
