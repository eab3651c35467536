package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

type studentStore interface {
	FindProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	UpsertExtraData(ctx context.Context, extra *models.StudentExtraData) error
}

type studentPaperReader interface {
	FindByStudent(ctx context.Context, studentID string) (*models.Paper, error)
}

// ExtraDataInput carries the personal fields of the enrollment form.
type ExtraDataInput struct {
	BirthLastName  string            `json:"birth_last_name" validate:"required"`
	ParentInitial  string            `json:"parent_initial" validate:"required,max=10"`
	FatherName     string            `json:"father_name" validate:"required"`
	MotherName     string            `json:"mother_name" validate:"required"`
	CivilState     models.CivilState `json:"civil_state" validate:"required,oneof=NOT_MARRIED MARRIED DIVORCED WIDOW RE_MARRIED"`
	DateOfBirth    time.Time         `json:"date_of_birth" validate:"required"`
	PlaceOfBirth   string            `json:"place_of_birth" validate:"required"`
	PersonalNumber string            `json:"personal_number" validate:"required,len=13,numeric"`
	Address        string            `json:"address" validate:"required"`
	Phone          string            `json:"phone" validate:"required"`
}

// StudentService manages student profiles and the enrollment extra data the
// generated documents render from.
type StudentService struct {
	students   studentStore
	papers     studentPaperReader
	resolver   resolverInvalidator
	generation regenerationTrigger
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(students studentStore, papers studentPaperReader, resolver resolverInvalidator, generation regenerationTrigger, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:   students,
		papers:     papers,
		resolver:   resolver,
		generation: generation,
		validate:   validator.New(),
		logger:     logger,
	}
}

// GetProfile returns the profile of a student. Students see their own,
// staff and teachers see any.
func (s *StudentService) GetProfile(ctx context.Context, actor Actor, studentID string) (*models.StudentProfile, error) {
	if actor.Role == models.RoleStudent && actor.ID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this profile")
	}
	profile, err := s.students.FindProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile, nil
}

// UpdateExtraData saves the enrollment form. The data feeds the catalog
// predicates and the generated documents, so the student's paper gets its
// cache invalidated and a regeneration pass scheduled.
func (s *StudentService) UpdateExtraData(ctx context.Context, actor Actor, studentID string, input ExtraDataInput) error {
	if !actor.Role.IsPrivileged() {
		if actor.Role != models.RoleStudent || actor.ID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students may only edit their own data")
		}
	}
	if err := s.validate.Struct(&input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment data")
	}

	extra := &models.StudentExtraData{
		StudentID:      studentID,
		BirthLastName:  input.BirthLastName,
		ParentInitial:  input.ParentInitial,
		FatherName:     input.FatherName,
		MotherName:     input.MotherName,
		CivilState:     input.CivilState,
		DateOfBirth:    input.DateOfBirth,
		PlaceOfBirth:   input.PlaceOfBirth,
		PersonalNumber: input.PersonalNumber,
		Address:        input.Address,
		Phone:          input.Phone,
		UpdatedAt:      time.Now().In(catalog.ReferenceZone).UTC(),
	}
	if err := s.students.UpsertExtraData(ctx, extra); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollment data")
	}

	paper, err := s.papers.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		s.logger.Warn("failed to load paper after extra data change", zap.String("student_id", studentID), zap.Error(err))
		return nil
	}
	s.resolver.Invalidate(ctx, paper.ID)
	s.generation.EnqueueRegenerate(ctx, paper.ID)
	return nil
}
