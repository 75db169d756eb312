package service

import (
	"context"
	"unicode/utf8"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/telemetry"
	"github.com/cloo-solutions/loretexai/internal/tokencount"
)

// ContextRepositoryInterface defines the repository interface for context assembly
type ContextRepositoryInterface interface {
	ListEnabledByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Entry, error)
}

// AssembleInput represents input for the Assemble operation
type AssembleInput struct {
	WorkspaceID    string
	Query          string
	GenerationType GenerationType
}

// AssembleOutput represents the assembled context plus sizing stats.
// EntryCount is the number of enabled entries considered, not the number
// that fit; CharCount and TokenEstimate describe the rendered context.
type AssembleOutput struct {
	Context       string
	EntryCount    int
	CharCount     int
	TokenEstimate int
	BudgetChars   int
}

// ContextService assembles knowledge bank context for generation requests
type ContextService struct {
	repo    ContextRepositoryInterface
	builder *ContextBuilder
	counter tokencount.Counter
	cfg     ContextBuilderConfig
}

// NewContextService creates a new ContextService instance
func NewContextService(repo ContextRepositoryInterface, counter tokencount.Counter) *ContextService {
	return NewContextServiceWithConfig(repo, counter, DefaultContextBuilderConfig())
}

// NewContextServiceWithConfig creates a new ContextService with explicit configuration.
// A nil counter falls back to the character-ratio estimate.
func NewContextServiceWithConfig(
	repo ContextRepositoryInterface,
	counter tokencount.Counter,
	cfg ContextBuilderConfig,
) *ContextService {
	if counter == nil {
		counter = tokencount.NewEstimatedCounter()
	}
	return &ContextService{
		repo:    repo,
		builder: NewContextBuilderWithConfig(cfg),
		counter: counter,
		cfg:     cfg,
	}
}

// Assemble loads the workspace's enabled entries and renders them into a
// single context block sized for the given generation type.
func (s *ContextService) Assemble(ctx context.Context, input AssembleInput) (*AssembleOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContextService.Assemble", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "assemble",
	})
	defer span.End()

	entries, err := s.repo.ListEnabledByWorkspace(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}

	rendered := s.builder.Build(entries, input.Query, input.GenerationType)

	return &AssembleOutput{
		Context:       rendered,
		EntryCount:    len(entries),
		CharCount:     utf8.RuneCountInString(rendered),
		TokenEstimate: s.counter.Count(rendered),
		BudgetChars:   ResolveBudget(input.GenerationType, s.cfg.Budget),
	}, nil
}
