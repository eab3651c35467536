package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

type sessionStore interface {
	Get(ctx context.Context) (*models.SessionSettings, error)
	Upsert(ctx context.Context, settings *models.SessionSettings) error
}

type promotionPaperLister interface {
	ListIDsByPromotion(ctx context.Context, promotion string) ([]string, error)
}

type allResolverInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// UpdateSessionInput carries the writable session fields.
type UpdateSessionInput struct {
	SessionName         string    `json:"session_name" validate:"required"`
	CurrentPromotion    string    `json:"current_promotion" validate:"required"`
	ApplyStartDate      time.Time `json:"apply_start_date" validate:"required"`
	ApplyEndDate        time.Time `json:"apply_end_date" validate:"required"`
	FileSubmissionStart time.Time `json:"file_submission_start" validate:"required"`
	FileSubmissionEnd   time.Time `json:"file_submission_end" validate:"required"`
	PaperSubmissionEnd  time.Time `json:"paper_submission_end" validate:"required"`
	AllowGrading        bool      `json:"allow_grading"`
}

// SessionService reads and writes the singleton session settings. Session
// data feeds both the eligibility predicates and the generated documents,
// so an update invalidates the resolver cache and fans a regeneration pass
// out over the current promotion.
type SessionService struct {
	sessions   sessionStore
	papers     promotionPaperLister
	resolver   allResolverInvalidator
	generation regenerationTrigger
	audits     auditWriter
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewSessionService constructs the service.
func NewSessionService(sessions sessionStore, papers promotionPaperLister, resolver allResolverInvalidator, generation regenerationTrigger, audits auditWriter, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:   sessions,
		papers:     papers,
		resolver:   resolver,
		generation: generation,
		audits:     audits,
		validate:   validator.New(),
		logger:     logger,
		now:        func() time.Time { return time.Now().In(catalog.ReferenceZone) },
	}
}

// Get returns the current session settings.
func (s *SessionService) Get(ctx context.Context) (*models.SessionSettings, error) {
	settings, err := s.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session settings not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session settings")
	}
	return settings, nil
}

// Update replaces the session settings and propagates the change: the
// resolver cache is flushed and every paper of the new current promotion
// gets a regeneration pass scheduled.
func (s *SessionService) Update(ctx context.Context, actor Actor, input UpdateSessionInput) (*models.SessionSettings, error) {
	if !actor.Role.IsPrivileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may change session settings")
	}
	if err := s.validate.Struct(&input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session settings")
	}
	if input.FileSubmissionEnd.Before(input.FileSubmissionStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file submission window ends before it starts")
	}

	settings := &models.SessionSettings{
		SessionName:         input.SessionName,
		CurrentPromotion:    input.CurrentPromotion,
		ApplyStartDate:      input.ApplyStartDate,
		ApplyEndDate:        input.ApplyEndDate,
		FileSubmissionStart: input.FileSubmissionStart,
		FileSubmissionEnd:   input.FileSubmissionEnd,
		PaperSubmissionEnd:  input.PaperSubmissionEnd,
		AllowGrading:        input.AllowGrading,
		UpdatedAt:           s.now().UTC(),
	}
	if err := s.sessions.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save session settings")
	}

	s.resolver.InvalidateAll(ctx)
	s.fanOutRegeneration(ctx, settings.CurrentPromotion)

	if s.audits != nil {
		entry := &models.AuditLog{
			ID:        uuid.NewString(),
			UserID:    &actor.ID,
			Action:    models.AuditActionSessionUpdate,
			Resource:  "session_settings",
			CreatedAt: s.now().UTC(),
		}
		if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}
	s.logger.Info("session settings updated", zap.String("session", settings.SessionName), zap.String("current_promotion", settings.CurrentPromotion))
	return settings, nil
}

func (s *SessionService) fanOutRegeneration(ctx context.Context, promotion string) {
	ids, err := s.papers.ListIDsByPromotion(ctx, promotion)
	if err != nil {
		s.logger.Error("failed to list papers for regeneration fan-out",
			zap.String("promotion", promotion), zap.Error(err))
		return
	}
	for _, id := range ids {
		s.generation.EnqueueRegenerate(ctx, id)
	}
	s.logger.Info("regeneration fan-out scheduled", zap.String("promotion", promotion), zap.Int("papers", len(ids)))
}
