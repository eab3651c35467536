package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// StudentRepository loads student profiles and their optional extra data.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindProfile returns the profile with extra data attached when present.
// Absent extra data is not an error; the document rules default it.
func (r *StudentRepository) FindProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT user_id, full_name, promotion, study_form, student_group, domain_name, domain_type,
        specialization_name, matriculation_year, created_at, updated_at
        FROM student_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student profile: %w", err)
	}

	const extraQuery = `SELECT student_id, birth_last_name, parent_initial, father_name, mother_name, civil_state,
        date_of_birth, place_of_birth, personal_number, address, phone, updated_at
        FROM student_extra_data WHERE student_id = $1 LIMIT 1`
	var extra models.StudentExtraData
	switch err := r.db.GetContext(ctx, &extra, extraQuery, userID); err {
	case nil:
		profile.ExtraData = &extra
	case sql.ErrNoRows:
	default:
		return nil, fmt.Errorf("find student extra data: %w", err)
	}

	return &profile, nil
}

// UpsertExtraData writes the student's personal fields.
func (r *StudentRepository) UpsertExtraData(ctx context.Context, extra *models.StudentExtraData) error {
	extra.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO student_extra_data (student_id, birth_last_name, parent_initial, father_name, mother_name,
        civil_state, date_of_birth, place_of_birth, personal_number, address, phone, updated_at)
        VALUES (:student_id, :birth_last_name, :parent_initial, :father_name, :mother_name,
        :civil_state, :date_of_birth, :place_of_birth, :personal_number, :address, :phone, :updated_at)
        ON CONFLICT (student_id)
        DO UPDATE SET birth_last_name = EXCLUDED.birth_last_name, parent_initial = EXCLUDED.parent_initial,
        father_name = EXCLUDED.father_name, mother_name = EXCLUDED.mother_name, civil_state = EXCLUDED.civil_state,
        date_of_birth = EXCLUDED.date_of_birth, place_of_birth = EXCLUDED.place_of_birth,
        personal_number = EXCLUDED.personal_number, address = EXCLUDED.address, phone = EXCLUDED.phone,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, extra); err != nil {
		return fmt.Errorf("upsert student extra data: %w", err)
	}
	return nil
}
