package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

type paperStoreStub struct {
	papers map[string]*models.Paper
}

func (s *paperStoreStub) FindByID(ctx context.Context, id string) (*models.Paper, error) {
	if paper, ok := s.papers[id]; ok {
		return paper, nil
	}
	return nil, sql.ErrNoRows
}

func (s *paperStoreStub) FindByStudent(ctx context.Context, studentID string) (*models.Paper, error) {
	for _, paper := range s.papers {
		if paper.StudentID == studentID {
			return paper, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *paperStoreStub) Create(ctx context.Context, paper *models.Paper) error {
	s.papers[paper.ID] = paper
	return nil
}

func (s *paperStoreStub) UpdateTitle(ctx context.Context, id, title, description string) error {
	paper, ok := s.papers[id]
	if !ok {
		return sql.ErrNoRows
	}
	paper.Title = title
	paper.Description = description
	return nil
}

func (s *paperStoreStub) SetSubmitted(ctx context.Context, id string, submitted bool) error {
	s.papers[id].Submitted = submitted
	return nil
}

func (s *paperStoreStub) SetValidity(ctx context.Context, id string, isValid bool) error {
	s.papers[id].IsValid = &isValid
	return nil
}

func (s *paperStoreStub) SetGrade(ctx context.Context, id string, grade float64) error {
	s.papers[id].Grade = &grade
	return nil
}

func (s *paperStoreStub) AssignCommittee(ctx context.Context, id, committeeID string) error {
	paper, ok := s.papers[id]
	if !ok {
		return sql.ErrNoRows
	}
	paper.CommitteeID = &committeeID
	return nil
}

func (s *paperStoreStub) List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, error) {
	var out []models.Paper
	for _, paper := range s.papers {
		if filter.TeacherID != "" && paper.TeacherID != filter.TeacherID {
			continue
		}
		out = append(out, *paper)
	}
	return out, nil
}

type committeeReaderStub struct {
	committees map[string]*models.Committee
	members    map[string]bool
}

func (s committeeReaderStub) FindByID(ctx context.Context, id string) (*models.Committee, error) {
	if committee, ok := s.committees[id]; ok {
		return committee, nil
	}
	return nil, sql.ErrNoRows
}

func (s committeeReaderStub) IsMember(ctx context.Context, committeeID, teacherID string) (bool, error) {
	return s.members[committeeID+"/"+teacherID], nil
}

type regenerationRecorder struct {
	enqueued []string
}

func (r *regenerationRecorder) EnqueueRegenerate(ctx context.Context, paperID string) {
	r.enqueued = append(r.enqueued, paperID)
}

type invalidationRecorder struct {
	paperIDs []string
	all      int
}

func (r *invalidationRecorder) Invalidate(ctx context.Context, paperID string) {
	r.paperIDs = append(r.paperIDs, paperID)
}

func (r *invalidationRecorder) InvalidateAll(ctx context.Context) {
	r.all++
}

func newPaperFixture(t *testing.T) (*PaperService, *paperStoreStub, *regenerationRecorder, *invalidationRecorder) {
	t.Helper()
	committeeID := "committee-1"
	papers := &paperStoreStub{papers: map[string]*models.Paper{
		"paper-1": {ID: "paper-1", StudentID: "student-1", TeacherID: "teacher-1", CommitteeID: &committeeID, Title: "Graph algorithms", Type: models.PaperTypeBachelor},
	}}
	committees := committeeReaderStub{
		committees: map[string]*models.Committee{"committee-1": {ID: "committee-1", Name: "CS-1"}},
		members:    map[string]bool{"committee-1/teacher-2": true},
	}
	regen := &regenerationRecorder{}
	invalidations := &invalidationRecorder{}
	sessions := sessionReaderStub{settings: openWindowSettings()}
	svc := NewPaperService(papers, committees, sessions, invalidations, regen, nil, zap.NewNop())
	return svc, papers, regen, invalidations
}

func TestUpdateTitleTriggersRegeneration(t *testing.T) {
	svc, papers, regen, invalidations := newPaperFixture(t)
	student := Actor{ID: "student-1", Role: models.RoleStudent}

	require.NoError(t, svc.UpdateTitle(context.Background(), student, "paper-1", "Shortest paths in practice", ""))
	assert.Equal(t, "Shortest paths in practice", papers.papers["paper-1"].Title)
	assert.Equal(t, []string{"paper-1"}, regen.enqueued)
	assert.Equal(t, []string{"paper-1"}, invalidations.paperIDs)
}

func TestUpdateTitleFrozenAfterValidation(t *testing.T) {
	svc, papers, _, _ := newPaperFixture(t)
	valid := true
	papers.papers["paper-1"].IsValid = &valid

	err := svc.UpdateTitle(context.Background(), Actor{ID: "student-1", Role: models.RoleStudent}, "paper-1", "New title", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrPaperFrozen))

	// Staff can still correct a validated paper.
	require.NoError(t, svc.UpdateTitle(context.Background(), Actor{ID: "staff-1", Role: models.RoleAdmin}, "paper-1", "New title", ""))
}

func TestValidateRequiresCommitteeMembership(t *testing.T) {
	svc, papers, _, _ := newPaperFixture(t)

	err := svc.Validate(context.Background(), Actor{ID: "teacher-1", Role: models.RoleTeacher}, "paper-1", true)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden), "supervisor is not a committee member")

	require.NoError(t, svc.Validate(context.Background(), Actor{ID: "teacher-2", Role: models.RoleTeacher}, "paper-1", true))
	require.NotNil(t, papers.papers["paper-1"].IsValid)
	assert.True(t, *papers.papers["paper-1"].IsValid)

	err = svc.Validate(context.Background(), Actor{ID: "teacher-2", Role: models.RoleTeacher}, "paper-1", false)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict), "ruling is decided once")
}

func TestSetGradeRules(t *testing.T) {
	svc, papers, _, _ := newPaperFixture(t)
	member := Actor{ID: "teacher-2", Role: models.RoleTeacher}

	err := svc.SetGrade(context.Background(), member, "paper-1", 9.5)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden), "grading not open yet")

	svc.sessions = sessionReaderStub{settings: &models.SessionSettings{AllowGrading: true}}
	err = svc.SetGrade(context.Background(), member, "paper-1", 9.5)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict), "paper must be validated first")

	valid := true
	papers.papers["paper-1"].IsValid = &valid
	require.NoError(t, svc.SetGrade(context.Background(), member, "paper-1", 9.5))
	require.NotNil(t, papers.papers["paper-1"].Grade)
	assert.Equal(t, 9.5, *papers.papers["paper-1"].Grade)
}

func TestSubmitOutsideWindow(t *testing.T) {
	svc, _, _, _ := newPaperFixture(t)
	svc.sessions = sessionReaderStub{settings: nil}

	err := svc.Submit(context.Background(), Actor{ID: "student-1", Role: models.RoleStudent}, "paper-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrOutsideSubmissionWindow))
}

func TestCreatePaperRejectsDuplicate(t *testing.T) {
	svc, _, regen, _ := newPaperFixture(t)
	admin := Actor{ID: "staff-1", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, CreatePaperInput{
		StudentID: "11111111-1111-1111-1111-111111111111",
		TeacherID: "22222222-2222-2222-2222-222222222222",
		Title:     "Distributed tracing",
		Type:      models.PaperTypeMaster,
	})
	require.NoError(t, err)
	assert.Len(t, regen.enqueued, 1)

	_, err = svc.Create(context.Background(), admin, CreatePaperInput{
		StudentID: "11111111-1111-1111-1111-111111111111",
		TeacherID: "22222222-2222-2222-2222-222222222222",
		Title:     "Distributed tracing again",
		Type:      models.PaperTypeMaster,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}
