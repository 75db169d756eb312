package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/loretexai/internal/domain"
)

const (
	contextHeader = "--- Workspace Knowledge Bank ---"
	contextFooter = "--- End Knowledge Bank ---"

	sectionCatalog          = "DOCUMENT CATALOG"
	sectionDocumentSummary  = "DOCUMENT SUMMARIES"
	sectionChapterSummaries = "CHAPTER SUMMARIES"
	sectionRawContent       = "RAW CONTENT"

	// blockSeparatorLen is the blank line between top-level blocks.
	blockSeparatorLen = 2
)

// ContextBuilderConfig bundles the tunables for context assembly.
type ContextBuilderConfig struct {
	Score  ScoreConfig
	Rank   RankConfig
	Budget BudgetConfig
	Policy BudgetPolicy
}

// DefaultContextBuilderConfig provides the default assembly configuration.
func DefaultContextBuilderConfig() ContextBuilderConfig {
	return ContextBuilderConfig{
		Score:  DefaultScoreConfig(),
		Rank:   DefaultRankConfig(),
		Budget: DefaultBudgetConfig(),
		Policy: DefaultBudgetPolicy(),
	}
}

// ContextBuilder assembles a workspace's knowledge bank entries into one
// size-bounded text block for an LLM prompt. It is a pure function of its
// inputs: nothing is cached or mutated between calls, so a single builder is
// safe for concurrent use. It never fails; degenerate inputs produce an
// empty string.
type ContextBuilder struct {
	cfg ContextBuilderConfig
}

// NewContextBuilder creates a ContextBuilder with default configuration.
func NewContextBuilder() *ContextBuilder {
	return NewContextBuilderWithConfig(DefaultContextBuilderConfig())
}

// NewContextBuilderWithConfig creates a ContextBuilder with custom tunables.
func NewContextBuilderWithConfig(cfg ContextBuilderConfig) *ContextBuilder {
	return &ContextBuilder{cfg: cfg}
}

// Build assembles the context block for one request. Entries are the enabled
// snapshot for a single workspace; the query biases ordering; the generation
// type selects the budget. Blocks are included whole or not at all: pinned
// entries first, then ranked standalone entries, then document groups
// rendered through up to four detail levels while budget remains. Returns ""
// when nothing fits.
func (b *ContextBuilder) Build(entries []*domain.Entry, query string, generationType GenerationType) string {
	if len(entries) == 0 {
		return ""
	}

	var pinned, unpinned []*domain.Entry
	for _, e := range entries {
		if e.Pinned {
			pinned = append(pinned, e)
		} else {
			unpinned = append(unpinned, e)
		}
	}

	// Pinned entries keep their place at the front; only the rest compete
	// on relevance.
	ordered := make([]*domain.Entry, 0, len(entries))
	ordered = append(ordered, pinned...)
	ordered = append(ordered, RankEntries(unpinned, query, b.cfg.Score)...)

	grouped := GroupEntriesByDocument(ordered)

	budget := ResolveBudget(generationType, b.cfg.Budget)
	remaining := budget

	var blocks []string
	appendBlock := func(block string) bool {
		if block == "" {
			return false
		}
		cost := utf8.RuneCountInString(block) + blockSeparatorLen
		if cost > remaining {
			return false
		}
		blocks = append(blocks, block)
		remaining -= cost
		return true
	}

	for _, e := range grouped.Standalone {
		if !appendBlock(renderEntryBlock(e)) {
			break
		}
	}

	if len(grouped.Documents) > 0 && remaining > 0 {
		docOrder := b.orderGroups(grouped.Documents, query)
		split := b.cfg.Policy.Split(len(docOrder))
		docBudget := remaining

		subBudget := func(share float64) int {
			sb := int(float64(docBudget) * share)
			if limit := remaining - blockSeparatorLen; sb > limit {
				sb = limit
			}
			return sb
		}

		if len(docOrder) >= 2 {
			appendBlock(buildCatalogSection(docOrder, subBudget(split.Catalog)))
		}
		appendBlock(buildDocumentSummariesSection(docOrder, subBudget(split.Summaries)))
		appendBlock(buildChapterSummariesSection(docOrder, subBudget(split.Chapters)))
		appendBlock(buildRawContentSection(docOrder, subBudget(split.Raw)))
	}

	if len(blocks) == 0 {
		return ""
	}

	return contextHeader + "\n\n" + strings.Join(blocks, "\n\n") + "\n\n" + contextFooter
}

// orderGroups ranks document groups by relevance, with groups whose parent is
// pinned always first, in input order, never re-ranked.
func (b *ContextBuilder) orderGroups(groups []*domain.DocumentGroup, query string) []*domain.DocumentGroup {
	var pinned, rest []*domain.DocumentGroup
	for _, g := range groups {
		if g.Parent.Pinned {
			pinned = append(pinned, g)
		} else {
			rest = append(rest, g)
		}
	}
	if len(pinned) == 0 {
		return RankDocumentGroups(groups, query, b.cfg.Rank)
	}
	return append(pinned, RankDocumentGroups(rest, query, b.cfg.Rank)...)
}

// renderEntryBlock renders one standalone entry, preferring the summary over
// full content when one is present. That preference is the main lever for
// fitting more distinct entries per token.
func renderEntryBlock(e *domain.Entry) string {
	body := e.Content
	if e.HasSummary() {
		body = e.Summary
	}
	return "[Knowledge: " + e.Title + "]\n" + body
}

// buildCatalogSection lists every document group on one line so the model
// sees what exists before the detail levels spend the budget. Empty when the
// sub-budget fits nothing.
func buildCatalogSection(groups []*domain.DocumentGroup, budget int) string {
	if budget <= 0 {
		return ""
	}

	used := utf8.RuneCountInString(sectionCatalog) + 1
	var lines []string
	for _, g := range groups {
		line := fmt.Sprintf("- %s (%d sections)", DisplayTitle(g.Parent), g.TotalParts())
		cost := utf8.RuneCountInString(line) + 1
		if used+cost > budget {
			break
		}
		lines = append(lines, line)
		used += cost
	}

	if len(lines) == 0 {
		return ""
	}
	return sectionCatalog + "\n" + strings.Join(lines, "\n")
}

// buildDocumentSummariesSection renders one paragraph per group from the
// parent's summary. Groups without a usable summary are skipped; a summary
// still marked pending is not usable yet.
func buildDocumentSummariesSection(groups []*domain.DocumentGroup, budget int) string {
	if budget <= 0 {
		return ""
	}

	used := utf8.RuneCountInString(sectionDocumentSummary) + 1
	var items []string
	for _, g := range groups {
		if !g.Parent.HasSummary() || g.Parent.SummaryStatus == domain.SummaryStatusPending {
			continue
		}
		item := "[Document: " + DisplayTitle(g.Parent) + "]\n" + strings.TrimSpace(g.Parent.Summary)
		cost := utf8.RuneCountInString(item)
		if len(items) > 0 {
			cost += blockSeparatorLen
		}
		if used+cost > budget {
			break
		}
		items = append(items, item)
		used += cost
	}

	if len(items) == 0 {
		return ""
	}
	return sectionDocumentSummary + "\n" + strings.Join(items, "\n\n")
}

// buildChapterSummariesSection renders chunk-level summaries drawn from the
// top-ranked groups until the sub-budget is spent.
func buildChapterSummariesSection(groups []*domain.DocumentGroup, budget int) string {
	if budget <= 0 {
		return ""
	}

	used := utf8.RuneCountInString(sectionChapterSummaries) + 1
	var items []string
scan:
	for _, g := range groups {
		for _, child := range g.Children {
			if !child.HasSummary() {
				continue
			}
			item := "[Chapter: " + child.Title + "]\n" + strings.TrimSpace(child.Summary)
			cost := utf8.RuneCountInString(item)
			if len(items) > 0 {
				cost += blockSeparatorLen
			}
			if used+cost > budget {
				break scan
			}
			items = append(items, item)
			used += cost
		}
	}

	if len(items) == 0 {
		return ""
	}
	return sectionChapterSummaries + "\n" + strings.Join(items, "\n\n")
}

// buildRawContentSection renders full section content from the top-ranked
// groups, parent first then children in chunk order. This is the most
// expensive detail level and the last to render.
func buildRawContentSection(groups []*domain.DocumentGroup, budget int) string {
	if budget <= 0 {
		return ""
	}

	used := utf8.RuneCountInString(sectionRawContent) + 1
	var items []string
scan:
	for _, g := range groups {
		parts := make([]*domain.Entry, 0, 1+len(g.Children))
		parts = append(parts, g.Parent)
		parts = append(parts, g.Children...)
		for _, part := range parts {
			item := "[Section: " + part.Title + "]\n" + part.Content
			cost := utf8.RuneCountInString(item)
			if len(items) > 0 {
				cost += blockSeparatorLen
			}
			if used+cost > budget {
				break scan
			}
			items = append(items, item)
			used += cost
		}
	}

	if len(items) == 0 {
		return ""
	}
	return sectionRawContent + "\n" + strings.Join(items, "\n\n")
}
