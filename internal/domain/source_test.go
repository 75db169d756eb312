package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource(t *testing.T) {
	now := time.Now()
	source := NewSource(
		"src1",
		"ws1",
		"handbook.pdf",
		"application/pdf",
		"abc123",
		"ws1/sources/src1/handbook.pdf",
		2048,
		now,
	)

	assert.Equal(t, "src1", source.ID)
	assert.Equal(t, "ws1", source.WorkspaceID)
	assert.Equal(t, "handbook.pdf", source.Filename)
	assert.Equal(t, "application/pdf", source.MimeType)
	assert.Equal(t, "abc123", source.SHA256)
	assert.Equal(t, "ws1/sources/src1/handbook.pdf", source.StorageKey)
	assert.Equal(t, int64(2048), source.SizeBytes)
	assert.Equal(t, SourceStatusPendingUpload, source.Status)
	assert.Empty(t, source.EntryID)
	assert.Equal(t, now, source.CreatedAt)
	assert.Equal(t, now, source.UpdatedAt)
}

func TestSourceStatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		status   SourceStatus
		expected string
	}{
		{"PendingUpload", SourceStatusPendingUpload, "pending_upload"},
		{"Uploaded", SourceStatusUploaded, "uploaded"},
		{"Ingested", SourceStatusIngested, "ingested"},
		{"Failed", SourceStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestValidateSource(t *testing.T) {
	now := time.Now()

	valid := func() *Source {
		return &Source{
			ID:          "src1",
			WorkspaceID: "ws1",
			Filename:    "notes.md",
			MimeType:    "text/markdown",
			SHA256:      "abc123",
			StorageKey:  "ws1/sources/src1/notes.md",
			SizeBytes:   100,
			Status:      SourceStatusPendingUpload,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Source)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid source",
			mutate:  func(s *Source) {},
			wantErr: false,
		},
		{
			name:    "missing ID",
			mutate:  func(s *Source) { s.ID = "" },
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name:    "missing WorkspaceID",
			mutate:  func(s *Source) { s.WorkspaceID = "" },
			wantErr: true,
			errMsg:  "WorkspaceID",
		},
		{
			name:    "missing Filename",
			mutate:  func(s *Source) { s.Filename = "" },
			wantErr: true,
			errMsg:  "Filename",
		},
		{
			name:    "missing MimeType",
			mutate:  func(s *Source) { s.MimeType = "" },
			wantErr: true,
			errMsg:  "MimeType",
		},
		{
			name:    "missing SHA256",
			mutate:  func(s *Source) { s.SHA256 = "" },
			wantErr: true,
			errMsg:  "SHA256",
		},
		{
			name:    "missing StorageKey",
			mutate:  func(s *Source) { s.StorageKey = "" },
			wantErr: true,
			errMsg:  "StorageKey",
		},
		{
			name:    "invalid Status",
			mutate:  func(s *Source) { s.Status = SourceStatus("done") },
			wantErr: true,
			errMsg:  "Status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := valid()
			tt.mutate(source)
			err := ValidateSource(source)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
