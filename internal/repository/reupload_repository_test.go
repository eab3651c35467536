package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paper-track-api/internal/models"
)

func newReuploadRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestReuploadRepositoryCreateBatchSupersedesPerEntry(t *testing.T) {
	db, mock, cleanup := newReuploadRepoMock(t)
	defer cleanup()

	repo := NewReuploadRepository(db)
	deadline := time.Now().AddDate(0, 0, 7)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE reupload_requests SET cancelled_at").
		WithArgs(sqlmock.AnyArg(), "paper-1", "paper").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO reupload_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE reupload_requests SET cancelled_at").
		WithArgs(sqlmock.AnyArg(), "paper-1", "language_certificate").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO reupload_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	requests := []models.ReuploadRequest{
		{PaperID: "paper-1", DocumentName: "paper", Deadline: deadline, Comment: "missing signature"},
		{PaperID: "paper-1", DocumentName: "language_certificate", Deadline: deadline},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), requests))
	assert.NotEmpty(t, requests[0].ID)
	assert.NotEmpty(t, requests[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReuploadRepositoryCreateBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newReuploadRepoMock(t)
	defer cleanup()

	repo := NewReuploadRepository(db)
	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReuploadRepositoryCancelNotFound(t *testing.T) {
	db, mock, cleanup := newReuploadRepoMock(t)
	defer cleanup()

	repo := NewReuploadRepository(db)
	mock.ExpectExec("UPDATE reupload_requests SET cancelled_at").
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), "missing", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReuploadRepositoryFindOpen(t *testing.T) {
	db, mock, cleanup := newReuploadRepoMock(t)
	defer cleanup()

	repo := NewReuploadRepository(db)
	deadline := time.Now().AddDate(0, 0, 3)
	rows := sqlmock.NewRows([]string{"id", "paper_id", "document_name", "deadline", "comment", "created_at", "cancelled_at"}).
		AddRow("req-1", "paper-1", "paper", deadline, "redo scan", time.Now(), nil)
	mock.ExpectQuery("SELECT .+ FROM reupload_requests").
		WithArgs("paper-1", "paper").
		WillReturnRows(rows)

	request, err := repo.FindOpen(context.Background(), "paper-1", "paper")
	require.NoError(t, err)
	assert.Equal(t, "req-1", request.ID)
	assert.True(t, request.ActiveOn(time.Now()))
}
