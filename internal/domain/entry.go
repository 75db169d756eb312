package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntryKind represents the kind of knowledge bank entry
type EntryKind string

const (
	EntryKindText     EntryKind = "text"
	EntryKindImage    EntryKind = "image"
	EntryKindDocument EntryKind = "document"
)

// SummaryStatus represents the state of the out-of-band summarization
// pipeline for an entry. The zero value means no summarization was requested;
// a user-supplied summary is usable immediately.
type SummaryStatus string

const (
	SummaryStatusPending SummaryStatus = "pending"
	SummaryStatusReady   SummaryStatus = "ready"
	SummaryStatusFailed  SummaryStatus = "failed"
)

// Entry represents one unit of reference material in a workspace's knowledge
// bank. An entry with ParentEntryID set is a child chunk of a longer
// document; being a chunk is orthogonal to Kind.
type Entry struct {
	ID            string
	WorkspaceID   string
	Kind          EntryKind
	Title         string
	Content       string // For images, an AI-derived description
	Summary       string // Empty means absent
	SummaryStatus SummaryStatus
	Tags          []string
	Pinned        bool
	ParentEntryID string // Non-empty marks a child chunk
	ChunkIndex    int32  // Position among siblings; meaningful only for chunks
	Enabled       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewEntry creates a new Entry instance
func NewEntry(
	id, workspaceID string,
	kind EntryKind,
	title, content, summary string,
	tags []string,
	createdAt, updatedAt time.Time,
) *Entry {
	return &Entry{
		ID:          id,
		WorkspaceID: workspaceID,
		Kind:        kind,
		Title:       title,
		Content:     content,
		Summary:     summary,
		Tags:        tags,
		Enabled:     true,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EntryCounts summarizes a workspace's knowledge bank. Documents counts
// top-level entries only; Chunks counts their derived children.
type EntryCounts struct {
	Total     int64
	Documents int64
	Chunks    int64
	Pinned    int64
}

// IsChunk returns true if the entry is a child chunk of another entry
func (e *Entry) IsChunk() bool {
	return e.ParentEntryID != ""
}

// HasSummary returns true when the entry carries a non-blank summary.
// An empty or whitespace-only summary is treated as absent.
func (e *Entry) HasSummary() bool {
	return strings.TrimSpace(e.Summary) != ""
}

// ValidateEntry validates an Entry instance
func ValidateEntry(e *Entry) error {
	if e == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("entry ID is required")
	}

	if e.WorkspaceID == "" {
		return fmt.Errorf("entry WorkspaceID is required")
	}

	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("entry Title is required")
	}

	// Image entries start without content; the description pipeline fills it.
	if e.Kind != EntryKindImage && e.Content == "" {
		return fmt.Errorf("entry Content is required")
	}

	if !isValidEntryKind(e.Kind) {
		return fmt.Errorf("entry Kind is invalid: %s", e.Kind)
	}

	if !isValidSummaryStatus(e.SummaryStatus) {
		return fmt.Errorf("entry SummaryStatus is invalid: %s", e.SummaryStatus)
	}

	if e.IsChunk() && e.ChunkIndex < 0 {
		return fmt.Errorf("entry ChunkIndex cannot be negative")
	}

	return nil
}

// isValidEntryKind checks if an EntryKind is valid
func isValidEntryKind(k EntryKind) bool {
	switch k {
	case EntryKindText, EntryKindImage, EntryKindDocument:
		return true
	}
	return false
}

// isValidSummaryStatus checks if a SummaryStatus is valid.
// The empty value is allowed: it means no summarization was requested.
func isValidSummaryStatus(s SummaryStatus) bool {
	switch s {
	case "", SummaryStatusPending, SummaryStatusReady, SummaryStatusFailed:
		return true
	}
	return false
}
