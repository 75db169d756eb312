package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/pagination"
	"github.com/cloo-solutions/loretexai/internal/telemetry"
	"github.com/google/uuid"
)

// EntryRepositoryInterface defines the repository interface for entry persistence
type EntryRepositoryInterface interface {
	Create(ctx context.Context, e *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	ListEnabledByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Entry, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Entry, error)
	ListByWorkspaceWithCursor(ctx context.Context, workspaceID string, cursor *pagination.Cursor, limit int) (*EntryPageResult, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.Entry, error)
	CountByWorkspace(ctx context.Context, workspaceID string) (*domain.EntryCounts, error)
	Update(ctx context.Context, e *domain.Entry) error
	UpdateSummary(ctx context.Context, id, summary string, status domain.SummaryStatus) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
	DeleteChildren(ctx context.Context, parentID string) error
}

type EntryPageResult struct {
	Items      []*domain.Entry
	NextCursor string
	HasMore    bool
}

// SummaryJobRepositoryInterface defines the repository interface for queueing summary jobs
type SummaryJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.SummaryJob) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// EntryService handles business logic for knowledge bank entries. Documents
// longer than the chunk threshold are split on write: the parent keeps the
// first part's content and the remaining parts become child entries, so the
// read path always works with prompt-sized pieces.
type EntryService struct {
	entryRepo EntryRepositoryInterface
	txRunner  TxRunner
	uuidGen   UUIDGenerator
	chunkCfg  ChunkConfig
}

// NewEntryService creates a new EntryService instance
func NewEntryService(entryRepo EntryRepositoryInterface, txRunner TxRunner) *EntryService {
	return &EntryService{
		entryRepo: entryRepo,
		txRunner:  txRunner,
		uuidGen:   &DefaultUUIDGenerator{},
		chunkCfg:  DefaultChunkConfig(),
	}
}

// NewEntryServiceWithConfig creates a new EntryService with custom chunking
// and UUID generation (for testing and tuning).
func NewEntryServiceWithConfig(entryRepo EntryRepositoryInterface, txRunner TxRunner, uuidGen UUIDGenerator, chunkCfg ChunkConfig) *EntryService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &EntryService{
		entryRepo: entryRepo,
		txRunner:  txRunner,
		uuidGen:   uuidGen,
		chunkCfg:  chunkCfg,
	}
}

// CreateEntryInput represents the input for creating an entry
type CreateEntryInput struct {
	WorkspaceID string
	Kind        domain.EntryKind
	Title       string
	Content     string
	Summary     string
	Tags        []string
	Pinned      bool
}

// UpdateEntryInput represents the input for updating an entry
type UpdateEntryInput struct {
	EntryID string
	Title   string
	Content string
	Summary string
	Tags    []string
}

type ListEntriesInput struct {
	WorkspaceID string
	Cursor      string
	Limit       int
}

type ListEntriesOutput struct {
	Items   []*domain.Entry
	Cursor  string
	HasMore bool
}

// entryGraph is one entry with its derived chunk children and the summary
// jobs to queue for them, built before anything is persisted.
type entryGraph struct {
	parent   *domain.Entry
	children []*domain.Entry
	jobs     []*domain.SummaryJob
}

// Create persists a new entry, splitting oversized content into chunk
// children and queueing summary jobs, all in one transaction.
func (s *EntryService) Create(ctx context.Context, input CreateEntryInput) (*domain.Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.Create", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "create",
	})
	defer span.End()

	graph, err := buildEntryGraph(input, s.uuidGen, s.chunkCfg)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return persistEntryGraph(ctx, repos, graph)
	})
	if err != nil {
		return nil, err
	}

	return graph.parent, nil
}

// CreateBatch persists several entries atomically: either the whole batch
// lands or none of it does.
func (s *EntryService) CreateBatch(ctx context.Context, workspaceID string, inputs []CreateEntryInput) ([]*domain.Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.CreateBatch", telemetry.SpanAttributes{
		WorkspaceID: workspaceID,
		Operation:   "create_batch",
	})
	defer span.End()

	graphs := make([]*entryGraph, 0, len(inputs))
	for _, input := range inputs {
		input.WorkspaceID = workspaceID
		graph, err := buildEntryGraph(input, s.uuidGen, s.chunkCfg)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, graph)
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		for _, graph := range graphs {
			if err := persistEntryGraph(ctx, repos, graph); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	parents := make([]*domain.Entry, 0, len(graphs))
	for _, graph := range graphs {
		parents = append(parents, graph.parent)
	}
	return parents, nil
}

// buildEntryGraph is shared with SourceService, which creates entries from
// parsed uploads through the same splitting rules.
func buildEntryGraph(input CreateEntryInput, uuidGen UUIDGenerator, chunkCfg ChunkConfig) (*entryGraph, error) {
	kind := input.Kind
	if kind == "" {
		kind = domain.EntryKindText
	}

	now := time.Now().UTC()
	parent := domain.NewEntry(uuidGen.NewString(), input.WorkspaceID, kind, input.Title, input.Content, input.Summary, input.Tags, now, now)
	parent.Pinned = input.Pinned

	graph := &entryGraph{parent: parent}

	if kind != domain.EntryKindImage {
		if chunks := ChunkDocument(input.Content, input.Title, chunkCfg); len(chunks) > 0 {
			parent.Content = chunks[0].Content
			for _, chunk := range chunks[1:] {
				child := domain.NewEntry(uuidGen.NewString(), input.WorkspaceID, kind, chunk.Title, chunk.Content, "", nil, now, now)
				child.ParentEntryID = parent.ID
				child.ChunkIndex = int32(chunk.Index)
				child.SummaryStatus = domain.SummaryStatusPending
				graph.children = append(graph.children, child)
				graph.jobs = append(graph.jobs, newSummaryJob(uuidGen, child.ID, domain.SummaryJobKindChunk))
			}
		}
	}

	// A caller-provided summary is taken as-is; otherwise one is generated
	// asynchronously.
	if parent.HasSummary() {
		parent.SummaryStatus = domain.SummaryStatusReady
	} else {
		parent.SummaryStatus = domain.SummaryStatusPending
		jobKind := domain.SummaryJobKindDocument
		if kind == domain.EntryKindImage {
			jobKind = domain.SummaryJobKindImage
		}
		graph.jobs = append(graph.jobs, newSummaryJob(uuidGen, parent.ID, jobKind))
	}

	if err := domain.ValidateEntry(parent); err != nil {
		return nil, err
	}
	for _, child := range graph.children {
		if err := domain.ValidateEntry(child); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

func newSummaryJob(uuidGen UUIDGenerator, entryID string, kind domain.SummaryJobKind) *domain.SummaryJob {
	return domain.NewSummaryJob(uuidGen.NewString(), entryID, kind, time.Now().UTC())
}

func persistEntryGraph(ctx context.Context, repos TxRepositories, graph *entryGraph) error {
	if err := repos.Entries().Create(ctx, graph.parent); err != nil {
		return err
	}
	for _, child := range graph.children {
		if err := repos.Entries().Create(ctx, child); err != nil {
			return err
		}
	}
	for _, job := range graph.jobs {
		if err := repos.SummaryJobs().Create(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves an entry by ID
func (s *EntryService) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.GetByID", telemetry.SpanAttributes{
		EntryID:   id,
		Operation: "get",
	})
	defer span.End()

	return s.entryRepo.GetByID(ctx, id)
}

// GetWithChildren retrieves an entry together with its chunk children in
// part order.
func (s *EntryService) GetWithChildren(ctx context.Context, id string) (*domain.Entry, []*domain.Entry, error) {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	children, err := s.entryRepo.ListChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return entry, children, nil
}

// Update replaces an entry's content, re-deriving chunk children when the
// content changes and queueing fresh summary jobs. Chunk children cannot be
// edited directly.
func (s *EntryService) Update(ctx context.Context, input UpdateEntryInput) (*domain.Entry, error) {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.Update", telemetry.SpanAttributes{
		EntryID:   input.EntryID,
		Operation: "update",
	})
	defer span.End()

	entry, err := s.entryRepo.GetByID(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	if entry.IsChunk() {
		return nil, domain.ErrCannotEditChunk
	}

	contentChanged := entry.Content != input.Content && entry.Kind != domain.EntryKindImage

	now := time.Now().UTC()
	entry.Title = input.Title
	entry.Content = input.Content
	entry.Summary = input.Summary
	entry.Tags = input.Tags
	entry.UpdatedAt = now

	var children []*domain.Entry
	var jobs []*domain.SummaryJob

	if contentChanged {
		if chunks := ChunkDocument(input.Content, input.Title, s.chunkCfg); len(chunks) > 0 {
			entry.Content = chunks[0].Content
			for _, chunk := range chunks[1:] {
				child := domain.NewEntry(s.uuidGen.NewString(), entry.WorkspaceID, entry.Kind, chunk.Title, chunk.Content, "", nil, now, now)
				child.ParentEntryID = entry.ID
				child.ChunkIndex = int32(chunk.Index)
				child.SummaryStatus = domain.SummaryStatusPending
				children = append(children, child)
				jobs = append(jobs, newSummaryJob(s.uuidGen, child.ID, domain.SummaryJobKindChunk))
			}
		}
	}

	if input.Summary != "" {
		entry.SummaryStatus = domain.SummaryStatusReady
	} else if contentChanged {
		entry.Summary = ""
		entry.SummaryStatus = domain.SummaryStatusPending
		jobs = append(jobs, newSummaryJob(s.uuidGen, entry.ID, domain.SummaryJobKindDocument))
	} else {
		entry.SummaryStatus = ""
	}

	if err := domain.ValidateEntry(entry); err != nil {
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if contentChanged {
			// Old parts are superseded wholesale; partial re-use is not
			// worth the bookkeeping.
			if err := repos.Entries().DeleteChildren(ctx, entry.ID); err != nil {
				return err
			}
		}
		if err := repos.Entries().Update(ctx, entry); err != nil {
			return err
		}
		for _, child := range children {
			if err := repos.Entries().Create(ctx, child); err != nil {
				return err
			}
		}
		for _, job := range jobs {
			if err := repos.SummaryJobs().Create(ctx, job); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// SetPinned pins or unpins an entry. Pinning applies to whole documents;
// individual chunks follow their parent.
func (s *EntryService) SetPinned(ctx context.Context, id string, pinned bool) error {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.IsChunk() {
		return domain.ErrCannotPinChunk
	}
	return s.entryRepo.SetPinned(ctx, id, pinned)
}

// SetEnabled includes or excludes an entry (and through grouping, its
// children) from context assembly without deleting it.
func (s *EntryService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.entryRepo.SetEnabled(ctx, id, enabled)
}

// Delete removes an entry; chunk children are removed with their parent.
func (s *EntryService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.Delete", telemetry.SpanAttributes{
		EntryID:   id,
		Operation: "delete",
	})
	defer span.End()

	return s.entryRepo.Delete(ctx, id)
}

// List returns a page of the workspace's entries, newest first.
func (s *EntryService) List(ctx context.Context, input ListEntriesInput) (*ListEntriesOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.List", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "list",
	})
	defer span.End()

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.entryRepo.ListByWorkspaceWithCursor(ctx, input.WorkspaceID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListEntriesOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Counts reports how many entries of each shape the workspace holds.
func (s *EntryService) Counts(ctx context.Context, workspaceID string) (*domain.EntryCounts, error) {
	ctx, span := telemetry.StartSpan(ctx, "EntryService.Counts", telemetry.SpanAttributes{
		WorkspaceID: workspaceID,
		Operation:   "counts",
	})
	defer span.End()

	if workspaceID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "workspace ID is required")
	}

	return s.entryRepo.CountByWorkspace(ctx, workspaceID)
}
