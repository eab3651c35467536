package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/mail"
)

type reuploadStore interface {
	CreateBatch(ctx context.Context, requests []models.ReuploadRequest) error
	Cancel(ctx context.Context, id string, at time.Time) error
	FindOpen(ctx context.Context, paperID, documentName string) (*models.ReuploadRequest, error)
	ListByPaper(ctx context.Context, paperID string) ([]models.ReuploadRequest, error)
}

type studentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ReuploadEntry is one slot re-opened by a batch request.
type ReuploadEntry struct {
	DocumentName string    `json:"document_name" validate:"required"`
	Deadline     time.Time `json:"deadline" validate:"required"`
	Comment      string    `json:"comment" validate:"required"`
}

// ReuploadService manages the exceptions that re-open closed document slots.
// A new request for a slot supersedes any open one, so at most one request
// per (paper, document) is ever open.
type ReuploadService struct {
	requests reuploadStore
	papers   resolverPaperReader
	users    studentUserReader
	resolver slotResolver
	mailer   mail.Sender
	audits   auditWriter
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewReuploadService constructs the manager.
func NewReuploadService(requests reuploadStore, papers resolverPaperReader, users studentUserReader, resolver slotResolver, mailer mail.Sender, audits auditWriter, logger *zap.Logger) *ReuploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReuploadService{
		requests: requests,
		papers:   papers,
		users:    users,
		resolver: resolver,
		mailer:   mailer,
		audits:   audits,
		validate: validator.New(),
		logger:   logger,
		now:      func() time.Time { return time.Now().In(catalog.ReferenceZone) },
	}
}

// Create opens a batch of reupload requests for one paper and notifies the
// student once, regardless of how many slots the batch covers.
func (s *ReuploadService) Create(ctx context.Context, actor Actor, paperID string, entries []ReuploadEntry) ([]models.ReuploadRequest, error) {
	if !actor.Role.IsPrivileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may request reuploads")
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one document entry is required")
	}
	for i := range entries {
		if err := s.validate.Struct(&entries[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reupload entry")
		}
	}

	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}

	// Requests only make sense for slots the paper actually requires.
	slots, err := s.resolver.Resolve(ctx, paperID)
	if err != nil {
		return nil, err
	}
	required := make(map[string]bool, len(slots))
	for _, slot := range slots {
		required[slot.Spec.Name] = true
	}

	now := s.now()
	batch := make([]models.ReuploadRequest, 0, len(entries))
	for _, entry := range entries {
		if !required[entry.DocumentName] {
			return nil, appErrors.Clone(appErrors.ErrUnknownDocument, fmt.Sprintf("document %q is not required for this paper", entry.DocumentName))
		}
		batch = append(batch, models.ReuploadRequest{
			ID:           uuid.NewString(),
			PaperID:      paperID,
			DocumentName: entry.DocumentName,
			Deadline:     entry.Deadline,
			Comment:      entry.Comment,
			CreatedAt:    now.UTC(),
		})
	}

	if err := s.requests.CreateBatch(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reupload requests")
	}

	s.notify(ctx, paper, batch)
	s.auditBatch(ctx, actor, paperID, batch)
	s.logger.Info("reupload requests created",
		zap.String("paper_id", paperID),
		zap.Int("count", len(batch)),
		zap.String("requested_by", actor.ID))
	return batch, nil
}

// Cancel retires an open request ahead of its deadline.
func (s *ReuploadService) Cancel(ctx context.Context, actor Actor, requestID string) error {
	if !actor.Role.IsPrivileged() {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff may cancel reuploads")
	}
	if err := s.requests.Cancel(ctx, requestID, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no open reupload request with this id")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reupload request")
	}
	if s.audits != nil {
		id := requestID
		entry := &models.AuditLog{
			ID:         uuid.NewString(),
			UserID:     &actor.ID,
			Action:     models.AuditActionReuploadCancel,
			Resource:   "reupload_request",
			ResourceID: &id,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}
	return nil
}

// IsActive reports whether an open, unexpired request covers the slot today.
// Expired requests are treated as inactive without being mutated.
func (s *ReuploadService) IsActive(ctx context.Context, paperID, documentName string) (bool, error) {
	req, err := s.requests.FindOpen(ctx, paperID, documentName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return req.ActiveOn(s.now()), nil
}

// ListByPaper returns all requests for a paper, open and retired.
func (s *ReuploadService) ListByPaper(ctx context.Context, paperID string) ([]models.ReuploadRequest, error) {
	requests, err := s.requests.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reupload requests")
	}
	return requests, nil
}

func (s *ReuploadService) notify(ctx context.Context, paper *models.Paper, batch []models.ReuploadRequest) {
	if s.mailer == nil {
		return
	}
	student, err := s.users.FindByID(ctx, paper.StudentID)
	if err != nil {
		s.logger.Warn("failed to load student for reupload notification",
			zap.String("paper_id", paper.ID), zap.Error(err))
		return
	}

	var body strings.Builder
	body.WriteString("The following documents have been re-opened for upload:\n\n")
	for _, req := range batch {
		fmt.Fprintf(&body, "- %s (deadline %s): %s\n",
			req.DocumentName, req.Deadline.Format("2006-01-02"), req.Comment)
	}
	body.WriteString("\nPlease upload the corrected documents before the deadline.")

	s.mailer.Send(mail.Message{
		ToName:  student.FullName,
		ToEmail: student.Email,
		Subject: "Documents requested for reupload",
		Body:    body.String(),
	})
}

func (s *ReuploadService) auditBatch(ctx context.Context, actor Actor, paperID string, batch []models.ReuploadRequest) {
	if s.audits == nil {
		return
	}
	for i := range batch {
		id := batch[i].ID
		entry := &models.AuditLog{
			ID:         uuid.NewString(),
			UserID:     &actor.ID,
			Action:     models.AuditActionReuploadCreate,
			Resource:   "reupload_request:" + batch[i].DocumentName,
			ResourceID: &id,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("paper_id", paperID), zap.Error(err))
			return
		}
	}
}
