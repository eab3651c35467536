package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/mail"
)

type reuploadStoreStub struct {
	requests  []models.ReuploadRequest
	createErr error
	cancelErr error
}

func (s *reuploadStoreStub) CreateBatch(ctx context.Context, requests []models.ReuploadRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, req := range requests {
		at := req.CreatedAt
		for i := range s.requests {
			open := &s.requests[i]
			if open.PaperID == req.PaperID && open.DocumentName == req.DocumentName && open.CancelledAt == nil {
				open.CancelledAt = &at
			}
		}
		s.requests = append(s.requests, req)
	}
	return nil
}

func (s *reuploadStoreStub) Cancel(ctx context.Context, id string, at time.Time) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	for i := range s.requests {
		if s.requests[i].ID == id && s.requests[i].CancelledAt == nil {
			s.requests[i].CancelledAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *reuploadStoreStub) FindOpen(ctx context.Context, paperID, documentName string) (*models.ReuploadRequest, error) {
	for i := len(s.requests) - 1; i >= 0; i-- {
		req := s.requests[i]
		if req.PaperID == paperID && req.DocumentName == documentName && req.CancelledAt == nil {
			return &req, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *reuploadStoreStub) ListByPaper(ctx context.Context, paperID string) ([]models.ReuploadRequest, error) {
	var out []models.ReuploadRequest
	for _, req := range s.requests {
		if req.PaperID == paperID {
			out = append(out, req)
		}
	}
	return out, nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type mailRecorder struct {
	sent []mail.Message
}

func (m *mailRecorder) Send(msg mail.Message) {
	m.sent = append(m.sent, msg)
}

func newReuploadFixture(t *testing.T) (*ReuploadService, *reuploadStoreStub, *mailRecorder) {
	t.Helper()
	papers, students, sessions := bachelorFixture()
	users := userReaderStub{users: map[string]*models.User{
		"student-1": {ID: "student-1", Email: "ana.pop@example.edu", FullName: "Ana Pop"},
	}}
	store := &reuploadStoreStub{}
	mailer := &mailRecorder{}
	resolver := NewResolverService(papers, students, sessions, versionReaderStub{}, nil, catalog.Default(), time.Minute, zap.NewNop())
	svc := NewReuploadService(store, papers, users, resolver, mailer, nil, zap.NewNop())
	return svc, store, mailer
}

func TestCreateBatchNotifiesOnce(t *testing.T) {
	svc, store, mailer := newReuploadFixture(t)
	secretary := Actor{ID: "staff-1", Role: models.RoleSecretary}
	deadline := time.Now().AddDate(0, 0, 7)

	batch, err := svc.Create(context.Background(), secretary, "paper-1", []ReuploadEntry{
		{DocumentName: "identity_card", Deadline: deadline, Comment: "scan is unreadable"},
		{DocumentName: "sign_up_form", Deadline: deadline, Comment: "missing last page"},
	})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Len(t, store.requests, 2)

	// One notification covers the whole batch.
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ana.pop@example.edu", mailer.sent[0].ToEmail)
	assert.Contains(t, mailer.sent[0].Body, "identity_card")
	assert.Contains(t, mailer.sent[0].Body, "sign_up_form")
}

func TestCreateSupersedesOpenRequest(t *testing.T) {
	svc, store, _ := newReuploadFixture(t)
	secretary := Actor{ID: "staff-1", Role: models.RoleSecretary}

	first, err := svc.Create(context.Background(), secretary, "paper-1", []ReuploadEntry{
		{DocumentName: "identity_card", Deadline: time.Now().AddDate(0, 0, 3), Comment: "blurry"},
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), secretary, "paper-1", []ReuploadEntry{
		{DocumentName: "identity_card", Deadline: time.Now().AddDate(0, 0, 10), Comment: "extended"},
	})
	require.NoError(t, err)

	open, err := store.FindOpen(context.Background(), "paper-1", "identity_card")
	require.NoError(t, err)
	assert.Equal(t, "extended", open.Comment)

	for _, req := range store.requests {
		if req.ID == first[0].ID {
			assert.NotNil(t, req.CancelledAt, "prior request must be superseded")
		}
	}
}

func TestCreateRejectsUnknownSlotAndNonStaff(t *testing.T) {
	svc, _, _ := newReuploadFixture(t)
	deadline := time.Now().AddDate(0, 0, 7)

	_, err := svc.Create(context.Background(), Actor{ID: "teacher-1", Role: models.RoleTeacher}, "paper-1", []ReuploadEntry{
		{DocumentName: "identity_card", Deadline: deadline, Comment: "x"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Create(context.Background(), Actor{ID: "staff-1", Role: models.RoleSecretary}, "paper-1", []ReuploadEntry{
		{DocumentName: "marriage_certificate", Deadline: deadline, Comment: "x"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownDocument))
}

func TestIsActiveHonorsDeadlineDay(t *testing.T) {
	svc, store, _ := newReuploadFixture(t)
	today := time.Now().In(catalog.ReferenceZone)

	store.requests = append(store.requests, models.ReuploadRequest{
		ID: "req-1", PaperID: "paper-1", DocumentName: "identity_card",
		Deadline: today, // deadline day itself still counts
	})
	active, err := svc.IsActive(context.Background(), "paper-1", "identity_card")
	require.NoError(t, err)
	assert.True(t, active)

	store.requests[0].Deadline = today.AddDate(0, 0, -1)
	active, err = svc.IsActive(context.Background(), "paper-1", "identity_card")
	require.NoError(t, err)
	assert.False(t, active, "expired request is inactive without mutation")
	assert.Nil(t, store.requests[0].CancelledAt)
}

func TestCancelNotFound(t *testing.T) {
	svc, _, _ := newReuploadFixture(t)
	err := svc.Cancel(context.Background(), Actor{ID: "staff-1", Role: models.RoleAdmin}, "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
