package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
)

// SummaryClient defines the interface for generating summaries and image
// descriptions
type SummaryClient interface {
	SummarizeDocument(ctx context.Context, title, content string) (string, error)
	SummarizeChunk(ctx context.Context, title, content string) (string, error)
	DescribeImage(ctx context.Context, imageURL string) (string, error)
}

// SummaryEntryRepository defines the repository interface for summary operations
type SummaryEntryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	Update(ctx context.Context, e *domain.Entry) error
	UpdateSummary(ctx context.Context, id, summary string, status domain.SummaryStatus) error
}

// SummarySourceRepository locates the stored object behind an image entry
type SummarySourceRepository interface {
	GetByEntryID(ctx context.Context, entryID string) (*domain.Source, error)
}

// SummaryStorageClient presigns stored objects so the vision model can fetch
// them
type SummaryStorageClient interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// SummaryService fills in entry summaries and image descriptions.
// Its methods are called by the background worker, one job at a time.
type SummaryService struct {
	client     SummaryClient
	entryRepo  SummaryEntryRepository
	sourceRepo SummarySourceRepository
	storage    SummaryStorageClient
}

// NewSummaryService creates a SummaryService without image support
func NewSummaryService(client SummaryClient, entryRepo SummaryEntryRepository) *SummaryService {
	return NewSummaryServiceWithImages(client, entryRepo, nil, nil)
}

// NewSummaryServiceWithImages creates a SummaryService that can also describe
// stored images
func NewSummaryServiceWithImages(
	client SummaryClient,
	entryRepo SummaryEntryRepository,
	sourceRepo SummarySourceRepository,
	storage SummaryStorageClient,
) *SummaryService {
	return &SummaryService{
		client:     client,
		entryRepo:  entryRepo,
		sourceRepo: sourceRepo,
		storage:    storage,
	}
}

// GenerateDocumentSummary summarizes a whole entry and stores the result
func (s *SummaryService) GenerateDocumentSummary(ctx context.Context, entryID string) error {
	return s.generate(ctx, entryID, false)
}

// GenerateChunkSummary writes the chapter summary for one chunk child
func (s *SummaryService) GenerateChunkSummary(ctx context.Context, entryID string) error {
	return s.generate(ctx, entryID, true)
}

func (s *SummaryService) generate(ctx context.Context, entryID string, chunk bool) error {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}

	// A summary supplied by the user after the job was queued wins.
	if entry.SummaryStatus == domain.SummaryStatusReady && entry.HasSummary() {
		return nil
	}

	var summary string
	if chunk {
		summary, err = s.client.SummarizeChunk(ctx, entry.Title, entry.Content)
	} else {
		summary, err = s.client.SummarizeDocument(ctx, entry.Title, entry.Content)
	}
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	if err := s.entryRepo.UpdateSummary(ctx, entryID, summary, domain.SummaryStatusReady); err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}

	return nil
}

// DescribeImage fills an image entry's content and summary from the stored
// object it was ingested from.
func (s *SummaryService) DescribeImage(ctx context.Context, entryID string) error {
	if s.sourceRepo == nil || s.storage == nil {
		return fmt.Errorf("image description not configured: storage required")
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Kind != domain.EntryKindImage {
		return fmt.Errorf("entry %s is not an image", entryID)
	}

	source, err := s.sourceRepo.GetByEntryID(ctx, entryID)
	if err != nil {
		return err
	}

	imageURL, err := s.storage.GenerateDownloadURL(ctx, source.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to presign image: %w", err)
	}

	description, err := s.client.DescribeImage(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("failed to describe image: %w", err)
	}

	entry.Content = description
	entry.Summary = description
	entry.SummaryStatus = domain.SummaryStatusReady
	entry.UpdatedAt = time.Now().UTC()
	return s.entryRepo.Update(ctx, entry)
}

// MarkFailed records a permanently failed summarization on the entry. The
// worker calls it once a job runs out of retries.
func (s *SummaryService) MarkFailed(ctx context.Context, entryID string) error {
	return s.entryRepo.UpdateSummary(ctx, entryID, "", domain.SummaryStatusFailed)
}
