package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

type studentStoreStub struct {
	profiles map[string]*models.StudentProfile
	saved    []*models.StudentExtraData
}

func (s *studentStoreStub) FindProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return profile, nil
}

func (s *studentStoreStub) UpsertExtraData(ctx context.Context, extra *models.StudentExtraData) error {
	s.saved = append(s.saved, extra)
	return nil
}

type studentPaperReaderStub struct {
	papers map[string]*models.Paper
}

func (s *studentPaperReaderStub) FindByStudent(ctx context.Context, studentID string) (*models.Paper, error) {
	paper, ok := s.papers[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return paper, nil
}

func validExtraData() ExtraDataInput {
	return ExtraDataInput{
		BirthLastName:  "Pop",
		ParentInitial:  "I.",
		FatherName:     "Ion",
		MotherName:     "Maria",
		CivilState:     models.CivilStateNotMarried,
		DateOfBirth:    time.Date(2003, time.April, 12, 0, 0, 0, 0, time.UTC),
		PlaceOfBirth:   "Cluj-Napoca",
		PersonalNumber: "5030412123456",
		Address:        "Str. Principala 1",
		Phone:          "0740000000",
	}
}

func newStudentFixture() (*StudentService, *studentStoreStub, *regenerationRecorder, *invalidationRecorder) {
	students := &studentStoreStub{profiles: map[string]*models.StudentProfile{
		"student-1": {UserID: "student-1", FullName: "Ana Pop", Promotion: "2026"},
	}}
	papers := &studentPaperReaderStub{papers: map[string]*models.Paper{
		"student-1": {ID: "paper-1", StudentID: "student-1"},
	}}
	regen := &regenerationRecorder{}
	invalidations := &invalidationRecorder{}
	svc := NewStudentService(students, papers, invalidations, regen, nil)
	return svc, students, regen, invalidations
}

func TestGetProfileStudentSelfOnly(t *testing.T) {
	svc, _, _, _ := newStudentFixture()

	_, err := svc.GetProfile(context.Background(), Actor{ID: "student-2", Role: models.RoleStudent}, "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	profile, err := svc.GetProfile(context.Background(), Actor{ID: "student-1", Role: models.RoleStudent}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pop", profile.FullName)

	profile, err = svc.GetProfile(context.Background(), Actor{ID: "secretary-1", Role: models.RoleSecretary}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", profile.UserID)
}

func TestUpdateExtraDataTriggersRegeneration(t *testing.T) {
	svc, students, regen, invalidations := newStudentFixture()

	err := svc.UpdateExtraData(context.Background(), Actor{ID: "student-1", Role: models.RoleStudent}, "student-1", validExtraData())
	require.NoError(t, err)
	require.Len(t, students.saved, 1)
	assert.Equal(t, "student-1", students.saved[0].StudentID)
	assert.Equal(t, []string{"paper-1"}, invalidations.paperIDs)
	assert.Equal(t, []string{"paper-1"}, regen.enqueued)
}

func TestUpdateExtraDataValidation(t *testing.T) {
	svc, students, _, _ := newStudentFixture()

	input := validExtraData()
	input.PersonalNumber = "123"
	err := svc.UpdateExtraData(context.Background(), Actor{ID: "student-1", Role: models.RoleStudent}, "student-1", input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, students.saved)
}

func TestUpdateExtraDataForbiddenForOtherStudent(t *testing.T) {
	svc, students, _, _ := newStudentFixture()

	err := svc.UpdateExtraData(context.Background(), Actor{ID: "student-2", Role: models.RoleStudent}, "student-1", validExtraData())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, students.saved)
}

func TestUpdateExtraDataWithoutPaperStillSaves(t *testing.T) {
	students := &studentStoreStub{profiles: map[string]*models.StudentProfile{}}
	papers := &studentPaperReaderStub{papers: map[string]*models.Paper{}}
	regen := &regenerationRecorder{}
	invalidations := &invalidationRecorder{}
	svc := NewStudentService(students, papers, invalidations, regen, nil)

	err := svc.UpdateExtraData(context.Background(), Actor{ID: "secretary-1", Role: models.RoleSecretary}, "student-9", validExtraData())
	require.NoError(t, err)
	require.Len(t, students.saved, 1)
	assert.Empty(t, regen.enqueued)
}
