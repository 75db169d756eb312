package domain

import (
	"fmt"
	"time"
)

// SourceStatus represents the lifecycle state of an uploaded source file
type SourceStatus string

const (
	SourceStatusPendingUpload SourceStatus = "pending_upload"
	SourceStatusUploaded      SourceStatus = "uploaded"
	SourceStatusIngested      SourceStatus = "ingested"
	SourceStatusFailed        SourceStatus = "failed"
)

// Source represents an uploaded file that gets parsed and ingested into
// knowledge bank entries
type Source struct {
	ID          string
	WorkspaceID string
	Filename    string
	MimeType    string
	SHA256      string
	StorageKey  string
	SizeBytes   int64
	Status      SourceStatus
	EntryID     string // Parent entry created at ingestion
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSource creates a new Source instance
func NewSource(
	id, workspaceID string,
	filename, mimeType, sha256, storageKey string,
	sizeBytes int64,
	createdAt time.Time,
) *Source {
	return &Source{
		ID:          id,
		WorkspaceID: workspaceID,
		Filename:    filename,
		MimeType:    mimeType,
		SHA256:      sha256,
		StorageKey:  storageKey,
		SizeBytes:   sizeBytes,
		Status:      SourceStatusPendingUpload,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// ValidateSource validates a Source instance
func ValidateSource(s *Source) error {
	if s == nil {
		return fmt.Errorf("source cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("source ID is required")
	}

	if s.WorkspaceID == "" {
		return fmt.Errorf("source WorkspaceID is required")
	}

	if s.Filename == "" {
		return fmt.Errorf("source Filename is required")
	}

	if s.MimeType == "" {
		return fmt.Errorf("source MimeType is required")
	}

	if s.SHA256 == "" {
		return fmt.Errorf("source SHA256 is required")
	}

	if s.StorageKey == "" {
		return fmt.Errorf("source StorageKey is required")
	}

	if !isValidSourceStatus(s.Status) {
		return fmt.Errorf("source Status is invalid: %s", s.Status)
	}

	return nil
}

// isValidSourceStatus checks if a SourceStatus is valid
func isValidSourceStatus(s SourceStatus) bool {
	switch s {
	case SourceStatusPendingUpload, SourceStatusUploaded,
		SourceStatusIngested, SourceStatusFailed:
		return true
	}
	return false
}
