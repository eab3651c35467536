package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// SessionRepository reads and writes the session settings singleton row.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the current session settings, or sql.ErrNoRows when unset.
func (r *SessionRepository) Get(ctx context.Context) (*models.SessionSettings, error) {
	const query = `SELECT id, session_name, current_promotion, apply_start_date, apply_end_date,
        file_submission_start, file_submission_end, paper_submission_end, allow_grading, updated_at
        FROM session_settings ORDER BY id LIMIT 1`
	var settings models.SessionSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get session settings: %w", err)
	}
	return &settings, nil
}

// Upsert writes the singleton row.
func (r *SessionRepository) Upsert(ctx context.Context, settings *models.SessionSettings) error {
	if settings.ID == 0 {
		settings.ID = 1
	}
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO session_settings (id, session_name, current_promotion, apply_start_date, apply_end_date,
        file_submission_start, file_submission_end, paper_submission_end, allow_grading, updated_at)
        VALUES (:id, :session_name, :current_promotion, :apply_start_date, :apply_end_date,
        :file_submission_start, :file_submission_end, :paper_submission_end, :allow_grading, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET session_name = EXCLUDED.session_name, current_promotion = EXCLUDED.current_promotion,
        apply_start_date = EXCLUDED.apply_start_date, apply_end_date = EXCLUDED.apply_end_date,
        file_submission_start = EXCLUDED.file_submission_start, file_submission_end = EXCLUDED.file_submission_end,
        paper_submission_end = EXCLUDED.paper_submission_end, allow_grading = EXCLUDED.allow_grading,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert session settings: %w", err)
	}
	return nil
}
