package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/fees-api/internal/models"
)

// StatementRepository persists dues statement export jobs.
type StatementRepository struct {
	db *sqlx.DB
}

// NewStatementRepository constructs the repository.
func NewStatementRepository(db *sqlx.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

const statementColumns = `id, grade, format, status, file_path, download_url, expires_at, error, requested_by, created_at, updated_at`

// Create inserts a new statement job.
func (r *StatementRepository) Create(ctx context.Context, job *models.StatementJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	const query = `INSERT INTO statement_jobs (id, grade, format, status, file_path, download_url, expires_at, error, requested_by, created_at, updated_at)
        VALUES (:id, :grade, :format, :status, :file_path, :download_url, :expires_at, :error, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create statement job: %w", err)
	}
	return nil
}

// FindByID fetches a statement job.
func (r *StatementRepository) FindByID(ctx context.Context, id string) (*models.StatementJob, error) {
	query := fmt.Sprintf("SELECT %s FROM statement_jobs WHERE id = $1 LIMIT 1", statementColumns)
	var job models.StatementJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByRequester returns the most recent jobs requested by a user.
func (r *StatementRepository) ListByRequester(ctx context.Context, userID string, limit int) ([]models.StatementJob, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM statement_jobs WHERE requested_by = $1 ORDER BY created_at DESC LIMIT %d", statementColumns, limit)
	var jobs []models.StatementJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list statement jobs: %w", err)
	}
	return jobs, nil
}

// UpdateStatus transitions a job's status and optional error message.
func (r *StatementRepository) UpdateStatus(ctx context.Context, id string, status models.StatementStatus, jobErr *string) error {
	const query = `UPDATE statement_jobs SET status = $2, error = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, jobErr, time.Now().UTC()); err != nil {
		return fmt.Errorf("update statement status: %w", err)
	}
	return nil
}

// MarkCompleted records the produced file and its signed download link.
func (r *StatementRepository) MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error {
	const query = `UPDATE statement_jobs SET status = $2, file_path = $3, download_url = $4, expires_at = $5, error = NULL, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.StatementStatusCompleted, filePath, downloadURL, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark statement completed: %w", err)
	}
	return nil
}

// ListExpired returns completed jobs whose download window has lapsed.
func (r *StatementRepository) ListExpired(ctx context.Context, now time.Time) ([]models.StatementJob, error) {
	query := fmt.Sprintf("SELECT %s FROM statement_jobs WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2", statementColumns)
	var jobs []models.StatementJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.StatementStatusCompleted, now); err != nil {
		return nil, fmt.Errorf("list expired statements: %w", err)
	}
	return jobs, nil
}

// Delete removes a statement job row.
func (r *StatementRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM statement_jobs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete statement job: %w", err)
	}
	return nil
}
