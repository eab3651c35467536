package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// PaperRepository handles paper persistence.
type PaperRepository struct {
	db *sqlx.DB
}

// NewPaperRepository creates a new paper repository.
func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

const paperColumns = `id, student_id, teacher_id, committee_id, title, type, description, submitted, is_valid, grade, created_at, updated_at`

// FindByID returns a paper by identifier.
func (r *PaperRepository) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE id = $1 LIMIT 1`
	var paper models.Paper
	if err := r.db.GetContext(ctx, &paper, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find paper by id: %w", err)
	}
	return &paper, nil
}

// FindByStudent returns the paper owned by a student, if any.
func (r *PaperRepository) FindByStudent(ctx context.Context, studentID string) (*models.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE student_id = $1 LIMIT 1`
	var paper models.Paper
	if err := r.db.GetContext(ctx, &paper, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find paper by student: %w", err)
	}
	return &paper, nil
}

// Create inserts a new paper.
func (r *PaperRepository) Create(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	paper.CreatedAt = now
	paper.UpdatedAt = now
	const query = `INSERT INTO papers (id, student_id, teacher_id, committee_id, title, type, description, submitted, is_valid, grade, created_at, updated_at)
        VALUES (:id, :student_id, :teacher_id, :committee_id, :title, :type, :description, :submitted, :is_valid, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, paper); err != nil {
		return fmt.Errorf("create paper: %w", err)
	}
	return nil
}

// UpdateTitle updates the paper title and description.
func (r *PaperRepository) UpdateTitle(ctx context.Context, id, title, description string) error {
	const query = `UPDATE papers SET title = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, title, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update paper title: %w", err)
	}
	return requireAffected(res)
}

// SetSubmitted flags the paper as submitted.
func (r *PaperRepository) SetSubmitted(ctx context.Context, id string, submitted bool) error {
	const query = `UPDATE papers SET submitted = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, submitted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set paper submitted: %w", err)
	}
	return requireAffected(res)
}

// SetValidity records the committee's ruling.
func (r *PaperRepository) SetValidity(ctx context.Context, id string, isValid bool) error {
	const query = `UPDATE papers SET is_valid = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, isValid, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set paper validity: %w", err)
	}
	return requireAffected(res)
}

// SetGrade records the final grade.
func (r *PaperRepository) SetGrade(ctx context.Context, id string, grade float64) error {
	const query = `UPDATE papers SET grade = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, grade, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set paper grade: %w", err)
	}
	return requireAffected(res)
}

// AssignCommittee links the paper to a committee.
func (r *PaperRepository) AssignCommittee(ctx context.Context, id, committeeID string) error {
	const query = `UPDATE papers SET committee_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, committeeID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign committee: %w", err)
	}
	return requireAffected(res)
}

// List returns papers matching the filter.
func (r *PaperRepository) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.CommitteeID != "" {
		conditions = append(conditions, fmt.Sprintf("committee_id = $%d", len(args)+1))
		args = append(args, filter.CommitteeID)
	}
	if filter.Submitted != nil {
		conditions = append(conditions, fmt.Sprintf("submitted = $%d", len(args)+1))
		args = append(args, *filter.Submitted)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var papers []models.Paper
	if err := r.db.SelectContext(ctx, &papers, query, args...); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

// ListIDsByPromotion returns paper ids of students in the given promotion.
// Used to fan out regeneration when session settings change.
func (r *PaperRepository) ListIDsByPromotion(ctx context.Context, promotion string) ([]string, error) {
	const query = `SELECT p.id FROM papers p
        JOIN student_profiles sp ON sp.user_id = p.student_id
        WHERE sp.promotion = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, promotion); err != nil {
		return nil, fmt.Errorf("list papers by promotion: %w", err)
	}
	return ids, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
