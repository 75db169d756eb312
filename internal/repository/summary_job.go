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

var ErrSummaryJobNotFound = errors.New("summary job not found")

type SummaryJobRepository struct {
	db dbtx
}

func NewSummaryJobRepository(pool *pgxpool.Pool) *SummaryJobRepository {
	return &SummaryJobRepository{db: pool}
}

func NewSummaryJobRepositoryWithTx(tx pgx.Tx) *SummaryJobRepository {
	return &SummaryJobRepository{db: tx}
}

func (r *SummaryJobRepository) Create(ctx context.Context, job *domain.SummaryJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO summary_jobs (id, entry_id, kind, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.EntryID, job.Kind, job.Status, job.Retries, job.Error, job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *SummaryJobRepository) GetByID(ctx context.Context, id string) (*domain.SummaryJob, error) {
	var job domain.SummaryJob
	var errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, entry_id, kind, status, retries, error, created_at, processed_at
		 FROM summary_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.EntryID, &job.Kind, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSummaryJobNotFound
		}
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

func (r *SummaryJobRepository) GetPending(ctx context.Context, limit int) ([]*domain.SummaryJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, entry_id, kind, status, retries, error, created_at, processed_at
		 FROM summary_jobs
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		domain.SummaryJobStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryJobRows(rows)
}

// ClaimPending atomically flips a batch of pending jobs to processing and
// returns them. SKIP LOCKED keeps concurrent workers from claiming the same
// job twice.
func (r *SummaryJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.SummaryJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM summary_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE summary_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE summary_jobs.id = cte.id
		 RETURNING summary_jobs.id, summary_jobs.entry_id, summary_jobs.kind, summary_jobs.status,
		           summary_jobs.retries, summary_jobs.error, summary_jobs.created_at, summary_jobs.processed_at`,
		domain.SummaryJobStatusPending, limit, domain.SummaryJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryJobRows(rows)
}

func (r *SummaryJobRepository) UpdateStatus(ctx context.Context, id string, status domain.SummaryJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.SummaryJobStatusCompleted || status == domain.SummaryJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE summary_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, errPtr, processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrSummaryJobNotFound
	}
	return nil
}

func (r *SummaryJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE summary_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrSummaryJobNotFound
	}
	return nil
}

// Requeue returns a claimed job to the pending state so a later poll can
// retry it.
func (r *SummaryJobRepository) Requeue(ctx context.Context, id string, errMsg string) error {
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE summary_jobs SET status = $1, error = $2 WHERE id = $3`,
		domain.SummaryJobStatusPending, errPtr, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrSummaryJobNotFound
	}
	return nil
}

func scanSummaryJobRows(rows pgx.Rows) ([]*domain.SummaryJob, error) {
	var jobs []*domain.SummaryJob
	for rows.Next() {
		var job domain.SummaryJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.EntryID, &job.Kind, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}
