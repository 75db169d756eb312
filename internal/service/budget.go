package service

// GenerationType hints how much context budget the current LLM call affords.
// Single-shot generations can absorb more context than chains, where the
// context cost is paid again on every step.
type GenerationType string

const (
	GenerationTypeSingle    GenerationType = "single"
	GenerationTypeChain     GenerationType = "chain"
	GenerationTypeTransform GenerationType = "transform"
)

// BudgetConfig maps generation types to token budgets and fixes the
// token-to-character conversion ratio.
type BudgetConfig struct {
	SingleTokens    int
	DefaultTokens   int
	ChainTokens     int
	TransformTokens int
	CharsPerToken   int
}

// DefaultBudgetConfig provides the default context budgets.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		SingleTokens:    12000,
		DefaultTokens:   8000,
		ChainTokens:     6000,
		TransformTokens: 4000,
		CharsPerToken:   4,
	}
}

// ResolveBudget converts a generation type to a character budget. Unknown or
// unset types get the default budget.
func ResolveBudget(generationType GenerationType, cfg BudgetConfig) int {
	tokens := cfg.DefaultTokens
	switch generationType {
	case GenerationTypeSingle:
		tokens = cfg.SingleTokens
	case GenerationTypeChain:
		tokens = cfg.ChainTokens
	case GenerationTypeTransform:
		tokens = cfg.TransformTokens
	}
	return tokens * cfg.CharsPerToken
}

// BudgetPolicy divides the document-section budget across the four detail
// levels. The raw-content share shrinks as more groups compete for space:
// with a single document the budget goes deep, with many it goes broad.
type BudgetPolicy struct {
	CatalogWeight float64
	SummaryWeight float64
	ChapterWeight float64
	// RawShareSingle is the raw-content share with exactly one group;
	// RawShareFloor is the floor it decays to as groups multiply.
	RawShareSingle float64
	RawShareFloor  float64
}

// DefaultBudgetPolicy provides the default level split.
func DefaultBudgetPolicy() BudgetPolicy {
	return BudgetPolicy{
		CatalogWeight:  1,
		SummaryWeight:  5,
		ChapterWeight:  6,
		RawShareSingle: 0.7,
		RawShareFloor:  0.4,
	}
}

// LevelSplit holds normalized budget shares for the four document detail
// levels. The shares sum to 1.
type LevelSplit struct {
	Catalog   float64
	Summaries float64
	Chapters  float64
	Raw       float64
}

// Split computes the level shares for a given document-group count. The raw
// share decreases monotonically from RawShareSingle toward RawShareFloor as
// the count grows; the remainder is divided among the other levels in
// proportion to their weights.
func (p BudgetPolicy) Split(groupCount int) LevelSplit {
	if groupCount < 1 {
		groupCount = 1
	}

	raw := p.RawShareSingle / float64(groupCount)
	if raw < p.RawShareFloor {
		raw = p.RawShareFloor
	}

	rest := 1 - raw
	total := p.CatalogWeight + p.SummaryWeight + p.ChapterWeight
	if total <= 0 || rest <= 0 {
		return LevelSplit{Raw: 1}
	}

	return LevelSplit{
		Catalog:   rest * p.CatalogWeight / total,
		Summaries: rest * p.SummaryWeight / total,
		Chapters:  rest * p.ChapterWeight / total,
		Raw:       raw,
	}
}
