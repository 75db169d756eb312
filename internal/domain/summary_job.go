package domain

import (
	"fmt"
	"time"
)

// SummaryJobKind represents what the summarization worker should produce
type SummaryJobKind string

const (
	// SummaryJobKindDocument produces a whole-document summary on a parent entry
	SummaryJobKindDocument SummaryJobKind = "document_summary"
	// SummaryJobKindChunk produces a chapter-level summary on a child chunk
	SummaryJobKindChunk SummaryJobKind = "chunk_summary"
	// SummaryJobKindImage produces a text description for an image entry
	SummaryJobKindImage SummaryJobKind = "image_description"
)

// SummaryJobStatus represents the status of a summarization job
type SummaryJobStatus string

const (
	SummaryJobStatusPending    SummaryJobStatus = "pending"
	SummaryJobStatusProcessing SummaryJobStatus = "processing"
	SummaryJobStatusCompleted  SummaryJobStatus = "completed"
	SummaryJobStatusFailed     SummaryJobStatus = "failed"
)

// SummaryJob represents an async summarization job for one entry
type SummaryJob struct {
	ID          string
	EntryID     string
	Kind        SummaryJobKind
	Status      SummaryJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewSummaryJob creates a new SummaryJob instance
func NewSummaryJob(id, entryID string, kind SummaryJobKind, createdAt time.Time) *SummaryJob {
	return &SummaryJob{
		ID:        id,
		EntryID:   entryID,
		Kind:      kind,
		Status:    SummaryJobStatusPending,
		CreatedAt: createdAt,
	}
}

// ValidateSummaryJob validates a SummaryJob instance
func ValidateSummaryJob(j *SummaryJob) error {
	if j == nil {
		return fmt.Errorf("summary job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("summary job ID is required")
	}

	if j.EntryID == "" {
		return fmt.Errorf("summary job EntryID is required")
	}

	if !isValidSummaryJobKind(j.Kind) {
		return fmt.Errorf("summary job Kind is invalid: %s", j.Kind)
	}

	if !isValidSummaryJobStatus(j.Status) {
		return fmt.Errorf("summary job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("summary job Retries cannot be negative")
	}

	return nil
}

// isValidSummaryJobKind checks if a SummaryJobKind is valid
func isValidSummaryJobKind(k SummaryJobKind) bool {
	switch k {
	case SummaryJobKindDocument, SummaryJobKindChunk, SummaryJobKindImage:
		return true
	}
	return false
}

// isValidSummaryJobStatus checks if a SummaryJobStatus is valid
func isValidSummaryJobStatus(s SummaryJobStatus) bool {
	switch s {
	case SummaryJobStatusPending, SummaryJobStatusProcessing,
		SummaryJobStatusCompleted, SummaryJobStatusFailed:
		return true
	}
	return false
}
