package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// ReuploadRepository persists reupload requests.
type ReuploadRepository struct {
	db *sqlx.DB
}

// NewReuploadRepository creates a new reupload repository.
func NewReuploadRepository(db *sqlx.DB) *ReuploadRepository {
	return &ReuploadRepository{db: db}
}

const reuploadColumns = `id, paper_id, document_name, deadline, comment, created_at, cancelled_at`

// CreateBatch inserts the requests atomically. Each insert first retires any
// still-open request for the same (paper, document) pair, so a grant never
// leaves two overlapping exceptions. All entries commit or none do.
func (r *ReuploadRepository) CreateBatch(ctx context.Context, requests []models.ReuploadRequest) error {
	if len(requests) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reupload batch: %w", err)
	}

	now := time.Now().UTC()
	for i := range requests {
		if requests[i].ID == "" {
			requests[i].ID = uuid.NewString()
		}
		if requests[i].CreatedAt.IsZero() {
			requests[i].CreatedAt = now
		}

		const supersede = `UPDATE reupload_requests SET cancelled_at = $1
            WHERE paper_id = $2 AND document_name = $3 AND cancelled_at IS NULL`
		if _, err := tx.ExecContext(ctx, supersede, now, requests[i].PaperID, requests[i].DocumentName); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("supersede reupload request: %w", err)
		}

		const insert = `INSERT INTO reupload_requests (id, paper_id, document_name, deadline, comment, created_at)
            VALUES (:id, :paper_id, :document_name, :deadline, :comment, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insert, requests[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert reupload request: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reupload batch: %w", err)
	}
	return nil
}

// Cancel retires a request by id.
func (r *ReuploadRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE reupload_requests SET cancelled_at = $2 WHERE id = $1 AND cancelled_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("cancel reupload request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel reupload result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindOpen returns the non-cancelled request for a (paper, document) pair,
// if any. Deadline evaluation happens in the caller at day granularity.
func (r *ReuploadRepository) FindOpen(ctx context.Context, paperID, documentName string) (*models.ReuploadRequest, error) {
	query := `SELECT ` + reuploadColumns + ` FROM reupload_requests
        WHERE paper_id = $1 AND document_name = $2 AND cancelled_at IS NULL
        ORDER BY created_at DESC LIMIT 1`
	var request models.ReuploadRequest
	if err := r.db.GetContext(ctx, &request, query, paperID, documentName); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open reupload request: %w", err)
	}
	return &request, nil
}

// ListByPaper returns every request for a paper, newest first.
func (r *ReuploadRepository) ListByPaper(ctx context.Context, paperID string) ([]models.ReuploadRequest, error) {
	query := `SELECT ` + reuploadColumns + ` FROM reupload_requests
        WHERE paper_id = $1 ORDER BY created_at DESC`
	var requests []models.ReuploadRequest
	if err := r.db.SelectContext(ctx, &requests, query, paperID); err != nil {
		return nil, fmt.Errorf("list reupload requests: %w", err)
	}
	return requests, nil
}
