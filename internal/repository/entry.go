package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/cloo-solutions/loretexai/internal/pagination"
	"github.com/cloo-solutions/loretexai/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, workspace_id, kind, title, content, summary, summary_status, tags, pinned, parent_entry_id, chunk_index, enabled, created_at, updated_at`

type EntryRepository struct {
	db dbtx
}

func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: pool}
}

func NewEntryRepositoryWithTx(tx pgx.Tx) *EntryRepository {
	return &EntryRepository{db: tx}
}

func (r *EntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO entries (`+entryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.WorkspaceID, e.Kind, e.Title, e.Content, e.Summary, e.SummaryStatus, e.Tags,
		e.Pinned, nullableString(e.ParentEntryID), e.ChunkIndex, e.Enabled, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1`,
		id,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListEnabledByWorkspace returns the context-assembly working set: every
// enabled entry in the workspace, in insertion order. Downstream ranking
// relies on this order being stable.
func (r *EntryRepository) ListEnabledByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE workspace_id = $1 AND enabled
		 ORDER BY created_at ASC, id ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntryRows(rows)
}

func (r *EntryRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE workspace_id = $1 ORDER BY updated_at DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntryRows(rows)
}

func (r *EntryRepository) ListByWorkspaceWithCursor(ctx context.Context, workspaceID string, cursor *pagination.Cursor, limit int) (*service.EntryPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+entryColumns+` FROM entries
			 WHERE workspace_id = $1 AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			workspaceID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+entryColumns+` FROM entries
			 WHERE workspace_id = $1
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			workspaceID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanEntryRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &service.EntryPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *EntryRepository) CountByWorkspace(ctx context.Context, workspaceID string) (*domain.EntryCounts, error) {
	var counts domain.EntryCounts
	err := r.db.QueryRow(ctx,
		`SELECT
		     COUNT(*),
		     COUNT(*) FILTER (WHERE parent_entry_id IS NULL),
		     COUNT(*) FILTER (WHERE parent_entry_id IS NOT NULL),
		     COUNT(*) FILTER (WHERE pinned)
		 FROM entries WHERE workspace_id = $1`,
		workspaceID,
	).Scan(&counts.Total, &counts.Documents, &counts.Chunks, &counts.Pinned)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *EntryRepository) ListChildren(ctx context.Context, parentID string) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE parent_entry_id = $1 ORDER BY chunk_index ASC`,
		parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntryRows(rows)
}

func (r *EntryRepository) Update(ctx context.Context, e *domain.Entry) error {
	e.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE entries
		 SET kind = $1, title = $2, content = $3, summary = $4, summary_status = $5,
		     tags = $6, pinned = $7, enabled = $8, updated_at = $9
		 WHERE id = $10`,
		e.Kind, e.Title, e.Content, e.Summary, e.SummaryStatus, e.Tags, e.Pinned, e.Enabled, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *EntryRepository) UpdateSummary(ctx context.Context, id, summary string, status domain.SummaryStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE entries SET summary = $1, summary_status = $2, updated_at = $3 WHERE id = $4`,
		summary, status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *EntryRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE entries SET pinned = $1, updated_at = $2 WHERE id = $3`,
		pinned, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *EntryRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE entries SET enabled = $1, updated_at = $2 WHERE id = $3`,
		enabled, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// Delete removes an entry; chunk children go with it through the FK cascade.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM entries WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *EntryRepository) DeleteChildren(ctx context.Context, parentID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM entries WHERE parent_entry_id = $1`,
		parentID,
	)
	return err
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var e domain.Entry
	var parentID *string
	err := row.Scan(&e.ID, &e.WorkspaceID, &e.Kind, &e.Title, &e.Content, &e.Summary, &e.SummaryStatus,
		&e.Tags, &e.Pinned, &parentID, &e.ChunkIndex, &e.Enabled, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		e.ParentEntryID = *parentID
	}
	return &e, nil
}

func scanEntryRows(rows pgx.Rows) ([]*domain.Entry, error) {
	var results []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
