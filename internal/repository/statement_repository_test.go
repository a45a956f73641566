package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/fees-api/internal/models"
)

func newStatementMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStatementRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStatementMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	mock.ExpectExec("INSERT INTO statement_jobs").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.StatementJob{Format: models.StatementFormatCSV, Status: models.StatementStatusPending, RequestedBy: "user-1"}
	err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newStatementMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	mock.ExpectExec("UPDATE statement_jobs").
		WithArgs("job-1", models.StatementStatusCompleted, "statements/job-1.csv", "/api/v1/statements/job-1/download?token=abc", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkCompleted(context.Background(), "job-1", "statements/job-1.csv", "/api/v1/statements/job-1/download?token=abc", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementRepositoryListExpired(t *testing.T) {
	db, mock, cleanup := newStatementMock(t)
	defer cleanup()
	repo := NewStatementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "grade", "format", "status", "file_path", "download_url", "expires_at", "error", "requested_by", "created_at", "updated_at"}).
		AddRow("job-1", nil, "csv", "COMPLETED", "statements/job-1.csv", nil, time.Now().Add(-time.Hour), nil, "user-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .* FROM statement_jobs WHERE status").
		WithArgs(models.StatementStatusCompleted, sqlmock.AnyArg()).
		WillReturnRows(rows)

	jobs, err := repo.ListExpired(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
