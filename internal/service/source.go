package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/parser"
	"github.com/cloo-solutions/loretexai/internal/telemetry"
)

// StorageClientInterface is what SourceService needs from object storage.
type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DownloadObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
}

// ObjectMetadata contains metadata about a stored object
type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

// SourceRepositoryInterface defines the repository interface for source persistence
type SourceRepositoryInterface interface {
	Create(ctx context.Context, s *domain.Source) error
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Source, error)
	UpdateStatus(ctx context.Context, id string, status domain.SourceStatus, errMsg string) error
	MarkUploaded(ctx context.Context, id string, sizeBytes int64, sha256 string) error
	LinkEntry(ctx context.Context, id, entryID string) error
	Delete(ctx context.Context, id string) error
}

// DefaultMaxSourceBytes caps uploaded source files at 20 MiB.
const DefaultMaxSourceBytes = 20 << 20

// SourceService handles file ingestion: clients upload directly to object
// storage through presigned URLs, then the service downloads, parses and
// turns the file into knowledge bank entries.
type SourceService struct {
	sourceRepo    SourceRepositoryInterface
	storageClient StorageClientInterface
	txRunner      TxRunner
	uuidGen       UUIDGenerator
	chunkCfg      ChunkConfig
	maxBytes      int64
}

// NewSourceService creates a new SourceService instance
func NewSourceService(sourceRepo SourceRepositoryInterface, storageClient StorageClientInterface, txRunner TxRunner) *SourceService {
	return &SourceService{
		sourceRepo:    sourceRepo,
		storageClient: storageClient,
		txRunner:      txRunner,
		uuidGen:       &DefaultUUIDGenerator{},
		chunkCfg:      DefaultChunkConfig(),
		maxBytes:      DefaultMaxSourceBytes,
	}
}

// NewSourceServiceWithConfig creates a new SourceService with custom chunking,
// UUID generation and size limits (for testing and tuning).
func NewSourceServiceWithConfig(
	sourceRepo SourceRepositoryInterface,
	storageClient StorageClientInterface,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
	chunkCfg ChunkConfig,
	maxBytes int64,
) *SourceService {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	return &SourceService{
		sourceRepo:    sourceRepo,
		storageClient: storageClient,
		txRunner:      txRunner,
		uuidGen:       uuidGen,
		chunkCfg:      chunkCfg,
		maxBytes:      maxBytes,
	}
}

// InitUploadInput carries what the client declares before uploading. The
// SHA256 is computed client-side and verified against the object after the
// upload completes.
type InitUploadInput struct {
	WorkspaceID string
	Filename    string
	ContentType string
	SizeBytes   int64
	SHA256      string
}

// InitUploadResult is the pending source record plus the presigned URL the
// client PUTs the file to.
type InitUploadResult struct {
	Source    *domain.Source
	UploadURL string
}

// InitUpload registers a pending source and hands back a presigned upload URL.
func (s *SourceService) InitUpload(ctx context.Context, input InitUploadInput) (*InitUploadResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.InitUpload", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "init_upload",
	})
	defer span.End()

	if !parser.IsSupportedExtension(input.Filename) && !parser.IsImageExtension(input.Filename) {
		return nil, domain.ErrUnsupportedFileType
	}
	if input.SizeBytes > s.maxBytes {
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("source file exceeds the %d byte limit", s.maxBytes))
	}

	sourceID := s.uuidGen.NewString()
	storageKey := buildStorageKey(input.WorkspaceID, sourceID, input.Filename)

	source := domain.NewSource(sourceID, input.WorkspaceID, input.Filename, input.ContentType,
		strings.ToLower(input.SHA256), storageKey, input.SizeBytes, time.Now().UTC())
	if err := domain.ValidateSource(source); err != nil {
		return nil, err
	}

	uploadURL, err := s.storageClient.GenerateUploadURL(ctx, storageKey, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, err
	}

	return &InitUploadResult{
		Source:    source,
		UploadURL: uploadURL,
	}, nil
}

// CompleteUpload verifies the uploaded object, parses it and creates the
// knowledge bank entries in one transaction. Re-completing an already
// ingested source is a no-op; a failed source can be retried.
func (s *SourceService) CompleteUpload(ctx context.Context, sourceID string) (*domain.Source, error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.CompleteUpload", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: "complete_upload",
	})
	defer span.End()

	source, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.Status == domain.SourceStatusIngested {
		return source, nil
	}

	meta, err := s.storageClient.HeadObject(ctx, source.StorageKey)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInvalidOperation,
			domain.ErrSourceNotUploaded.Message, err)
	}
	if meta.ContentLength > s.maxBytes {
		s.markFailed(ctx, source.ID, fmt.Sprintf("uploaded file exceeds the %d byte limit", s.maxBytes))
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("uploaded file exceeds the %d byte limit", s.maxBytes))
	}

	data, err := s.storageClient.DownloadObject(ctx, source.StorageKey)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError,
			domain.ErrStorageOperationFail.Message, err)
	}

	sum := sha256.Sum256(data)
	actualSHA := hex.EncodeToString(sum[:])
	if actualSHA != source.SHA256 {
		s.markFailed(ctx, source.ID, "sha256 verification failed")
		return nil, domain.ErrSHA256Mismatch
	}

	entryInput, err := s.entryInputFor(ctx, source, data)
	if err != nil {
		return nil, err
	}

	graph, err := buildEntryGraph(entryInput, s.uuidGen, s.chunkCfg)
	if err != nil {
		s.markFailed(ctx, source.ID, err.Error())
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Sources().MarkUploaded(ctx, source.ID, int64(len(data)), actualSHA); err != nil {
			return err
		}
		if err := persistEntryGraph(ctx, repos, graph); err != nil {
			return err
		}
		return repos.Sources().LinkEntry(ctx, source.ID, graph.parent.ID)
	})
	if err != nil {
		return nil, err
	}

	source.Status = domain.SourceStatusIngested
	source.EntryID = graph.parent.ID
	source.SizeBytes = int64(len(data))
	source.Error = ""
	return source, nil
}

// GetByID retrieves a source by ID
func (s *SourceService) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceRepo.GetByID(ctx, id)
}

// List returns all sources in a workspace, newest first.
func (s *SourceService) List(ctx context.Context, workspaceID string) ([]*domain.Source, error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.List", telemetry.SpanAttributes{
		WorkspaceID: workspaceID,
		Operation:   "list",
	})
	defer span.End()

	return s.sourceRepo.ListByWorkspace(ctx, workspaceID)
}

// GetDownloadURL returns a presigned URL for fetching the original file.
func (s *SourceService) GetDownloadURL(ctx context.Context, sourceID string) (string, error) {
	source, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return "", err
	}

	url, err := s.storageClient.GenerateDownloadURL(ctx, source.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return url, nil
}

// Delete removes the stored object and the source record. Entries created
// from the source stay in the knowledge bank.
func (s *SourceService) Delete(ctx context.Context, sourceID string) error {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.Delete", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: "delete",
	})
	defer span.End()

	source, err := s.sourceRepo.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}

	if err := s.storageClient.DeleteObject(ctx, source.StorageKey); err != nil {
		return fmt.Errorf("failed to delete from storage: %w", err)
	}

	return s.sourceRepo.Delete(ctx, sourceID)
}

// entryInputFor turns verified upload bytes into the entry to create. Images
// are stored as-is with empty content; a vision job fills the description
// later. Everything else goes through the text parsers.
func (s *SourceService) entryInputFor(ctx context.Context, source *domain.Source, data []byte) (CreateEntryInput, error) {
	if parser.IsImageExtension(source.Filename) {
		title := strings.TrimSuffix(source.Filename, filepath.Ext(source.Filename))
		return CreateEntryInput{
			WorkspaceID: source.WorkspaceID,
			Kind:        domain.EntryKindImage,
			Title:       title,
		}, nil
	}

	parsed, err := parser.Parse(bytes.NewReader(data), source.Filename)
	if err != nil {
		s.markFailed(ctx, source.ID, err.Error())
		return CreateEntryInput{}, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to parse source file", err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		s.markFailed(ctx, source.ID, "no text content could be extracted")
		return CreateEntryInput{}, domain.NewDomainError(domain.ErrCodeValidation, "no text content could be extracted")
	}

	return CreateEntryInput{
		WorkspaceID: source.WorkspaceID,
		Kind:        domain.EntryKindDocument,
		Title:       parsed.Title,
		Content:     parsed.Text,
	}, nil
}

// markFailed records an ingestion failure; the original error stays primary,
// so a status write failure is dropped.
func (s *SourceService) markFailed(ctx context.Context, id, msg string) {
	_ = s.sourceRepo.UpdateStatus(ctx, id, domain.SourceStatusFailed, msg)
}

func buildStorageKey(workspaceID, sourceID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", workspaceID, sourceID, filename)
}
