package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// CommitteeRepository reads defense committees and their membership.
type CommitteeRepository struct {
	db *sqlx.DB
}

// NewCommitteeRepository creates a new committee repository.
func NewCommitteeRepository(db *sqlx.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

// FindByID returns a committee with its members.
func (r *CommitteeRepository) FindByID(ctx context.Context, id string) (*models.Committee, error) {
	const query = `SELECT id, name, created_at FROM committees WHERE id = $1 LIMIT 1`
	var committee models.Committee
	if err := r.db.GetContext(ctx, &committee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find committee: %w", err)
	}

	const membersQuery = `SELECT committee_id, teacher_id, role FROM committee_members WHERE committee_id = $1`
	if err := r.db.SelectContext(ctx, &committee.Members, membersQuery, id); err != nil {
		return nil, fmt.Errorf("find committee members: %w", err)
	}
	return &committee, nil
}

// IsMember reports whether the teacher currently sits on the committee.
func (r *CommitteeRepository) IsMember(ctx context.Context, committeeID, teacherID string) (bool, error) {
	const query = `SELECT COUNT(1) FROM committee_members WHERE committee_id = $1 AND teacher_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, committeeID, teacherID); err != nil {
		return false, fmt.Errorf("check committee membership: %w", err)
	}
	return count > 0, nil
}
