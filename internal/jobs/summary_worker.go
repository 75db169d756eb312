package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/loretexai/internal/domain"
)

const (
	// MaxRetries is the maximum number of attempts for a failing job
	MaxRetries = 3

	// claimBatchSize caps how many jobs a single poll claims
	claimBatchSize = 50
)

// SummaryJobRepository defines the interface for summary job persistence
type SummaryJobRepository interface {
	// ClaimPending atomically claims a batch of pending jobs for processing
	ClaimPending(ctx context.Context, limit int) ([]*domain.SummaryJob, error)

	// UpdateStatus updates the status of a summary job
	UpdateStatus(ctx context.Context, jobID string, status domain.SummaryJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error

	// Requeue returns a claimed job to pending so a later poll retries it
	Requeue(ctx context.Context, jobID string, errMsg string) error
}

// Summarizer defines the service interface the worker drives
type Summarizer interface {
	GenerateDocumentSummary(ctx context.Context, entryID string) error
	GenerateChunkSummary(ctx context.Context, entryID string) error
	DescribeImage(ctx context.Context, entryID string) error
	MarkFailed(ctx context.Context, entryID string) error
}

// SummaryWorker processes summarization jobs
type SummaryWorker struct {
	repo    SummaryJobRepository
	service Summarizer
}

// NewSummaryWorker creates a new SummaryWorker instance
func NewSummaryWorker(repo SummaryJobRepository, service Summarizer) *SummaryWorker {
	return &SummaryWorker{
		repo:    repo,
		service: service,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *SummaryWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending summary jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *SummaryWorker) processJob(ctx context.Context, job *domain.SummaryJob) error {
	log.Printf("Processing job %s (%s) for entry %s", job.ID, job.Kind, job.EntryID)

	var err error
	switch job.Kind {
	case domain.SummaryJobKindDocument:
		err = w.service.GenerateDocumentSummary(ctx, job.EntryID)
	case domain.SummaryJobKindChunk:
		err = w.service.GenerateChunkSummary(ctx, job.EntryID)
	case domain.SummaryJobKindImage:
		err = w.service.DescribeImage(ctx, job.EntryID)
	default:
		// Kind is validated at insert; anything else is unprocessable.
		return w.failJob(ctx, job.ID, fmt.Sprintf("unknown job kind: %s", job.Kind))
	}

	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.SummaryJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *SummaryWorker) handleJobFailure(ctx context.Context, job *domain.SummaryJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	// Entries can be deleted while their jobs wait in the queue. Retrying
	// cannot bring them back, so fail the job on the spot.
	if errors.Is(jobErr, domain.ErrEntryNotFound) {
		return w.failJob(ctx, job.ID, jobErr.Error())
	}

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		if err := w.service.MarkFailed(ctx, job.EntryID); err != nil {
			log.Printf("Failed to mark entry %s summary as failed: %v", job.EntryID, err)
		}
		return w.failJob(ctx, job.ID, fmt.Sprintf("max retries exceeded: %v", jobErr))
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.Requeue(ctx, job.ID, errMsg); err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}

	return nil
}

func (w *SummaryWorker) failJob(ctx context.Context, jobID, msg string) error {
	if err := w.repo.UpdateStatus(ctx, jobID, domain.SummaryJobStatusFailed, msg); err != nil {
		return fmt.Errorf("failed to update job status to failed: %w", err)
	}
	return nil
}
