//go:build integration

package service_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/repository"
	svc "github.com/cloo-solutions/loretexai/internal/service"
	"github.com/cloo-solutions/loretexai/internal/storage"
	"github.com/cloo-solutions/loretexai/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s3TestAdapter bridges storage.S3Client to StorageClientInterface.
type s3TestAdapter struct {
	client *storage.S3Client
}

func (a *s3TestAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *s3TestAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *s3TestAdapter) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	return a.client.DownloadObject(ctx, key)
}

func (a *s3TestAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.client.DeleteObject(ctx, key)
}

func (a *s3TestAdapter) HeadObject(ctx context.Context, key string) (*svc.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &svc.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

func uploadViaPresignedURL(ctx context.Context, t *testing.T, url string, content []byte, contentType string) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(content))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.True(t, resp.StatusCode >= 200 && resp.StatusCode < 300, "upload should succeed, got %d", resp.StatusCode)
}

func TestSourceServiceIntegration_FullWorkflow(t *testing.T) {
	ctx := context.Background()

	pgContainer := testutil.NewPostgresContainer(ctx, t)
	defer pgContainer.Terminate(ctx)

	s3Container := testutil.NewRustFSContainer(ctx, t)
	defer s3Container.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pgContainer, "../../migrations")
	defer pool.Close()

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-sources",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	require.NoError(t, s3Client.EnsureBucket(ctx))

	wsRepo := repository.NewWorkspaceRepository(pool)
	entryRepo := repository.NewEntryRepository(pool)
	sourceRepo := repository.NewSourceRepository(pool)
	jobRepo := repository.NewSummaryJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	ws := setupTestWorkspace(ctx, t, wsRepo)

	sourceService := svc.NewSourceService(sourceRepo, &s3TestAdapter{client: s3Client}, txRunner)

	t.Run("InitUpload returns presigned URL", func(t *testing.T) {
		content := []byte("placeholder")
		sum := sha256.Sum256(content)

		result, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "notes.txt",
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			SHA256:      hex.EncodeToString(sum[:]),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.Source.ID)
		assert.NotEmpty(t, result.Source.StorageKey)
		assert.Equal(t, domain.SourceStatusPendingUpload, result.Source.Status)
		assert.Contains(t, result.UploadURL, s3Container.Endpoint())

		persisted, err := sourceRepo.GetByID(ctx, result.Source.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceStatusPendingUpload, persisted.Status)
	})

	t.Run("InitUpload rejects unsupported file types", func(t *testing.T) {
		_, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "binary.exe",
			ContentType: "application/octet-stream",
			SizeBytes:   10,
			SHA256:      "abc",
		})
		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	})

	t.Run("CompleteUpload parses the file into entries", func(t *testing.T) {
		content := []byte("The deploy pipeline runs integration tests before promoting builds.")
		sum := sha256.Sum256(content)

		initResult, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "deploy-pipeline.txt",
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			SHA256:      hex.EncodeToString(sum[:]),
		})
		require.NoError(t, err)

		uploadViaPresignedURL(ctx, t, initResult.UploadURL, content, "text/plain")

		source, err := sourceService.CompleteUpload(ctx, initResult.Source.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.SourceStatusIngested, source.Status)
		require.NotEmpty(t, source.EntryID)

		entry, err := entryRepo.GetByID(ctx, source.EntryID)
		require.NoError(t, err)
		assert.Equal(t, "deploy-pipeline", entry.Title)
		assert.Contains(t, entry.Content, "deploy pipeline")
		assert.Equal(t, domain.EntryKindDocument, entry.Kind)

		// The new entry gets a summary job like any other.
		jobs, err := jobRepo.GetPending(ctx, 50)
		require.NoError(t, err)
		var foundJob bool
		for _, job := range jobs {
			if job.EntryID == entry.ID {
				foundJob = true
				break
			}
		}
		assert.True(t, foundJob, "summary job should be queued for the ingested entry")

		// Re-completing an ingested source is a no-op.
		again, err := sourceService.CompleteUpload(ctx, initResult.Source.ID)
		require.NoError(t, err)
		assert.Equal(t, source.EntryID, again.EntryID)

		children, err := entryRepo.ListChildren(ctx, source.EntryID)
		require.NoError(t, err)
		assert.Empty(t, children, "short file should not be chunked")
	})

	t.Run("CompleteUpload rejects a hash mismatch", func(t *testing.T) {
		content := []byte("actual uploaded bytes")

		initResult, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "tampered.txt",
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			SHA256:      "0000000000000000000000000000000000000000000000000000000000000000",
		})
		require.NoError(t, err)

		uploadViaPresignedURL(ctx, t, initResult.UploadURL, content, "text/plain")

		_, err = sourceService.CompleteUpload(ctx, initResult.Source.ID)
		assert.ErrorIs(t, err, domain.ErrSHA256Mismatch)

		failed, err := sourceRepo.GetByID(ctx, initResult.Source.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceStatusFailed, failed.Status)
		assert.NotEmpty(t, failed.Error)
	})

	t.Run("CompleteUpload fails if file not uploaded", func(t *testing.T) {
		content := []byte("never sent")
		sum := sha256.Sum256(content)

		initResult, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "never-uploaded.txt",
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			SHA256:      hex.EncodeToString(sum[:]),
		})
		require.NoError(t, err)

		_, err = sourceService.CompleteUpload(ctx, initResult.Source.ID)
		require.Error(t, err)

		// The source stays pending so the client can retry the upload.
		pending, err := sourceRepo.GetByID(ctx, initResult.Source.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceStatusPendingUpload, pending.Status)
	})

	t.Run("GetDownloadURL returns working presigned URL", func(t *testing.T) {
		content := []byte("Download test content")
		sum := sha256.Sum256(content)

		initResult, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "download-test.txt",
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			SHA256:      hex.EncodeToString(sum[:]),
		})
		require.NoError(t, err)

		uploadViaPresignedURL(ctx, t, initResult.UploadURL, content, "text/plain")

		_, err = sourceService.CompleteUpload(ctx, initResult.Source.ID)
		require.NoError(t, err)

		downloadURL, err := sourceService.GetDownloadURL(ctx, initResult.Source.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, downloadURL)

		downloadResp, err := http.Get(downloadURL)
		require.NoError(t, err)
		defer downloadResp.Body.Close()
		assert.Equal(t, http.StatusOK, downloadResp.StatusCode)

		downloadedContent, err := io.ReadAll(downloadResp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, downloadedContent)
	})

	t.Run("Delete removes the source but keeps its entries", func(t *testing.T) {
		content := []byte("Delete test content")
		sum := sha256.Sum256(content)

		initResult, err := sourceService.InitUpload(ctx, svc.InitUploadInput{
			WorkspaceID: ws.ID,
			Filename:    "delete-test.txt",
			ContentType: "text/plain",
			SizeBytes:   int64(len(content)),
			SHA256:      hex.EncodeToString(sum[:]),
		})
		require.NoError(t, err)

		uploadViaPresignedURL(ctx, t, initResult.UploadURL, content, "text/plain")

		source, err := sourceService.CompleteUpload(ctx, initResult.Source.ID)
		require.NoError(t, err)

		err = sourceService.Delete(ctx, initResult.Source.ID)
		require.NoError(t, err)

		_, err = sourceRepo.GetByID(ctx, initResult.Source.ID)
		assert.ErrorIs(t, err, domain.ErrSourceNotFound)

		// The knowledge bank entry created from the file survives.
		_, err = entryRepo.GetByID(ctx, source.EntryID)
		require.NoError(t, err)
	})
}
