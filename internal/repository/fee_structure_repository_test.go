package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/fees-api/internal/models"
)

func newFeeStructureMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFeeStructureRepositoryGet(t *testing.T) {
	db, mock, cleanup := newFeeStructureMock(t)
	defer cleanup()
	repo := NewFeeStructureRepository(db)

	doc := []byte(`{"set1":{"heads":[{"id":"adm","name":"Admission Fee","amount":2000,"type":"one-time"}]},"set2":{"heads":[]},"set3":{"heads":[]},"grade_map":{"set1":["Class I"]}}`)
	rows := sqlmock.NewRows([]string{"document", "version"}).AddRow(doc, int64(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document, version FROM fee_structures WHERE id = $1")).
		WithArgs(structureDocID).
		WillReturnRows(rows)

	structure, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), structure.Version)
	require.Len(t, structure.Set1.Heads, 1)
	assert.Equal(t, "Admission Fee", structure.Set1.Heads[0].Name)
	assert.Equal(t, []models.Grade{models.GradeClassI}, structure.GradeMap[models.ScheduleSet1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeStructureRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newFeeStructureMock(t)
	defer cleanup()
	repo := NewFeeStructureRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT document, version FROM fee_structures WHERE id = $1")).
		WithArgs(structureDocID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeStructureRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newFeeStructureMock(t)
	defer cleanup()
	repo := NewFeeStructureRepository(db)

	mock.ExpectQuery("INSERT INTO fee_structures").
		WithArgs(structureDocID, sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	structure := models.DefaultFeeStructure()
	version, err := repo.Replace(context.Background(), &structure, 4, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeStructureRepositoryReplaceVersionConflict(t *testing.T) {
	db, mock, cleanup := newFeeStructureMock(t)
	defer cleanup()
	repo := NewFeeStructureRepository(db)

	mock.ExpectQuery("INSERT INTO fee_structures").
		WithArgs(structureDocID, sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), int64(2)).
		WillReturnError(sql.ErrNoRows)

	structure := models.DefaultFeeStructure()
	_, err := repo.Replace(context.Background(), &structure, 2, "user-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
