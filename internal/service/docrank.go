package service

import (
	"sort"

	"github.com/cloo-solutions/loretexai/internal/domain"
)

// RankConfig controls document-group relevance weights. A strong title match
// should beat a single buried chunk match, but one highly relevant chunk must
// keep its document discoverable, so a best-chunk term and a breadth term
// both contribute.
type RankConfig struct {
	TitleWeight     float64
	SummaryWeight   float64
	BestChunkWeight float64
	TopChunksWeight float64
	TopChunkCount   int
}

// DefaultRankConfig provides the default document ranking weights.
func DefaultRankConfig() RankConfig {
	return RankConfig{
		TitleWeight:     3,
		SummaryWeight:   2,
		BestChunkWeight: 1,
		TopChunksWeight: 0.5,
		TopChunkCount:   3,
	}
}

// ScoreDocumentGroup blends title, summary and chunk-level keyword scores for
// a whole document group. Returns 0 when tokens is empty.
func ScoreDocumentGroup(group *domain.DocumentGroup, tokens []string, cfg RankConfig) float64 {
	if group == nil || group.Parent == nil || len(tokens) == 0 {
		return 0
	}

	score := countTokenMatches(group.Parent.Title, tokens) * cfg.TitleWeight
	if group.Parent.HasSummary() {
		score += countTokenMatches(group.Parent.Summary, tokens) * cfg.SummaryWeight
	}

	chunkScores := make([]float64, 0, 1+len(group.Children))
	chunkScores = append(chunkScores, countTokenMatches(group.Parent.Content, tokens))
	for _, child := range group.Children {
		chunkScores = append(chunkScores, countTokenMatches(child.Content, tokens))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(chunkScores)))

	score += chunkScores[0] * cfg.BestChunkWeight

	top := cfg.TopChunkCount
	if top <= 0 {
		top = 3
	}
	if top > len(chunkScores) {
		top = len(chunkScores)
	}
	var sum float64
	for _, s := range chunkScores[:top] {
		sum += s
	}
	score += sum / float64(top) * cfg.TopChunksWeight

	return score
}

// RankDocumentGroups orders groups by descending relevance against the query
// with the same stability rules as RankEntries: no query keeps the input
// order, equal scores keep their original relative order.
func RankDocumentGroups(groups []*domain.DocumentGroup, query string, cfg RankConfig) []*domain.DocumentGroup {
	out := make([]*domain.DocumentGroup, len(groups))
	copy(out, groups)

	tokens := TokenizeQuery(query)
	if len(tokens) == 0 {
		return out
	}

	scores := make([]float64, len(out))
	for i, g := range out {
		scores[i] = ScoreDocumentGroup(g, tokens, cfg)
	}

	indices := make([]int, len(out))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return scores[indices[i]] > scores[indices[j]]
	})

	ranked := make([]*domain.DocumentGroup, len(out))
	for i, idx := range indices {
		ranked[i] = out[idx]
	}
	return ranked
}
