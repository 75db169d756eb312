package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sourceColumns = `id, workspace_id, filename, mime_type, sha256, storage_key, size_bytes, status, entry_id, error, created_at, updated_at`

type SourceRepository struct {
	db dbtx
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{db: pool}
}

func NewSourceRepositoryWithTx(tx pgx.Tx) *SourceRepository {
	return &SourceRepository{db: tx}
}

func (r *SourceRepository) Create(ctx context.Context, s *domain.Source) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sources (`+sourceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.WorkspaceID, s.Filename, s.MimeType, s.SHA256, s.StorageKey, s.SizeBytes,
		s.Status, nullableString(s.EntryID), s.Error, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = $1`,
		id,
	)
	s, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByEntryID finds the source a given entry was ingested from. The image
// description pipeline uses it to locate the stored object.
func (r *SourceRepository) GetByEntryID(ctx context.Context, entryID string) (*domain.Source, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE entry_id = $1`,
		entryID,
	)
	s, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SourceRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Source, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sourceColumns+` FROM sources
		 WHERE workspace_id = $1 ORDER BY created_at DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *SourceRepository) UpdateStatus(ctx context.Context, id string, status domain.SourceStatus, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sources SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		status, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

// MarkUploaded records the verified object metadata once the client has
// finished its direct upload.
func (r *SourceRepository) MarkUploaded(ctx context.Context, id string, sizeBytes int64, sha256 string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sources SET status = $1, size_bytes = $2, sha256 = $3, updated_at = $4 WHERE id = $5`,
		domain.SourceStatusUploaded, sizeBytes, sha256, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

// LinkEntry points the source at the entry produced from it and marks the
// ingestion complete.
func (r *SourceRepository) LinkEntry(ctx context.Context, id, entryID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sources SET entry_id = $1, status = $2, error = '', updated_at = $3 WHERE id = $4`,
		entryID, domain.SourceStatusIngested, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM sources WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func scanSource(row pgx.Row) (*domain.Source, error) {
	var s domain.Source
	var entryID, errMsg pgtype.Text
	err := row.Scan(&s.ID, &s.WorkspaceID, &s.Filename, &s.MimeType, &s.SHA256, &s.StorageKey,
		&s.SizeBytes, &s.Status, &entryID, &errMsg, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if entryID.Valid {
		s.EntryID = entryID.String
	}
	if errMsg.Valid {
		s.Error = errMsg.String
	}
	return &s, nil
}
