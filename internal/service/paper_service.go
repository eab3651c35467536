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

type paperStore interface {
	FindByID(ctx context.Context, id string) (*models.Paper, error)
	FindByStudent(ctx context.Context, studentID string) (*models.Paper, error)
	Create(ctx context.Context, paper *models.Paper) error
	UpdateTitle(ctx context.Context, id, title, description string) error
	SetSubmitted(ctx context.Context, id string, submitted bool) error
	SetValidity(ctx context.Context, id string, isValid bool) error
	SetGrade(ctx context.Context, id string, grade float64) error
	AssignCommittee(ctx context.Context, id, committeeID string) error
	List(ctx context.Context, filter models.PaperFilter) ([]models.Paper, error)
}

type committeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Committee, error)
	IsMember(ctx context.Context, committeeID, teacherID string) (bool, error)
}

type regenerationTrigger interface {
	EnqueueRegenerate(ctx context.Context, paperID string)
}

type resolverInvalidator interface {
	Invalidate(ctx context.Context, paperID string)
}

// CreatePaperInput carries the fields for registering a paper.
type CreatePaperInput struct {
	StudentID   string           `json:"student_id" validate:"required,uuid"`
	TeacherID   string           `json:"teacher_id" validate:"required,uuid"`
	Title       string           `json:"title" validate:"required,min=3,max=300"`
	Type        models.PaperType `json:"type" validate:"required,oneof=BACHELOR DIPLOMA MASTER"`
	Description string           `json:"description" validate:"max=2000"`
}

// PaperService manages the paper lifecycle around the document engine:
// registration, title edits, submission, committee assignment, validation
// and grading.
type PaperService struct {
	papers     paperStore
	committees committeeReader
	sessions   resolverSessionReader
	resolver   resolverInvalidator
	generation regenerationTrigger
	audits     auditWriter
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewPaperService constructs the service.
func NewPaperService(papers paperStore, committees committeeReader, sessions resolverSessionReader, resolver resolverInvalidator, generation regenerationTrigger, audits auditWriter, logger *zap.Logger) *PaperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaperService{
		papers:     papers,
		committees: committees,
		sessions:   sessions,
		resolver:   resolver,
		generation: generation,
		audits:     audits,
		validate:   validator.New(),
		logger:     logger,
		now:        func() time.Time { return time.Now().In(catalog.ReferenceZone) },
	}
}

// Get returns a paper the actor may see.
func (s *PaperService) Get(ctx context.Context, actor Actor, paperID string) (*models.Paper, error) {
	paper, err := s.load(ctx, paperID)
	if err != nil {
		return nil, err
	}
	ok, err := canReadPaper(ctx, s.committees, actor, paper)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee membership")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this paper")
	}
	return paper, nil
}

// GetOwn returns the paper of the authenticated student.
func (s *PaperService) GetOwn(ctx context.Context, actor Actor) (*models.Paper, error) {
	paper, err := s.papers.FindByStudent(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no paper registered for this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	return paper, nil
}

// List returns papers matching the filter. Staff only.
func (s *PaperService) List(ctx context.Context, actor Actor, filter models.PaperFilter) ([]models.Paper, error) {
	if !actor.Role.IsPrivileged() {
		// Teachers see the papers they supervise.
		if actor.Role != models.RoleTeacher {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to the paper list")
		}
		filter.TeacherID = actor.ID
	}
	papers, err := s.papers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list papers")
	}
	return papers, nil
}

// Create registers a paper and triggers the first generation pass.
func (s *PaperService) Create(ctx context.Context, actor Actor, input CreatePaperInput) (*models.Paper, error) {
	if !actor.Role.IsPrivileged() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may register papers")
	}
	if err := s.validate.Struct(&input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid paper")
	}
	if _, err := s.papers.FindByStudent(ctx, input.StudentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a registered paper")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing paper")
	}

	now := s.now().UTC()
	paper := &models.Paper{
		ID:          uuid.NewString(),
		StudentID:   input.StudentID,
		TeacherID:   input.TeacherID,
		Title:       input.Title,
		Type:        input.Type,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create paper")
	}

	s.generation.EnqueueRegenerate(ctx, paper.ID)
	s.logger.Info("paper registered", zap.String("paper_id", paper.ID), zap.String("student_id", paper.StudentID))
	return paper, nil
}

// UpdateTitle changes the title and description. The title feeds generated
// documents, so a regeneration pass is scheduled.
func (s *PaperService) UpdateTitle(ctx context.Context, actor Actor, paperID, title, description string) error {
	paper, err := s.load(ctx, paperID)
	if err != nil {
		return err
	}
	if !actor.Role.IsPrivileged() {
		owner := actor.Role == models.RoleStudent && actor.ID == paper.StudentID
		supervisor := actor.Role == models.RoleTeacher && actor.ID == paper.TeacherID
		if !owner && !supervisor {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this paper")
		}
		if paper.ValidityDecided() {
			return appErrors.ErrPaperFrozen
		}
	}
	if title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
	}

	if err := s.papers.UpdateTitle(ctx, paperID, title, description); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update paper")
	}

	s.resolver.Invalidate(ctx, paperID)
	s.generation.EnqueueRegenerate(ctx, paperID)
	return nil
}

// Submit marks the paper as handed in. Student only, inside the paper
// submission window.
func (s *PaperService) Submit(ctx context.Context, actor Actor, paperID string) error {
	paper, err := s.load(ctx, paperID)
	if err != nil {
		return err
	}
	if !actor.Role.IsPrivileged() {
		if actor.Role != models.RoleStudent || actor.ID != paper.StudentID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the owning student may submit")
		}
		settings, err := s.sessions.Get(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session settings")
		}
		if !catalog.WindowOpen(models.CategoryPaper, settings, s.now()) {
			return appErrors.ErrOutsideSubmissionWindow
		}
	}
	if paper.Submitted {
		return appErrors.Clone(appErrors.ErrConflict, "paper already submitted")
	}
	if err := s.papers.SetSubmitted(ctx, paperID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit paper")
	}
	return nil
}

// AssignCommittee attaches a defense committee to the paper. Staff only.
func (s *PaperService) AssignCommittee(ctx context.Context, actor Actor, paperID, committeeID string) error {
	if !actor.Role.IsPrivileged() {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff may assign committees")
	}
	if _, err := s.committees.FindByID(ctx, committeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "committee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee")
	}
	if err := s.papers.AssignCommittee(ctx, paperID, committeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign committee")
	}
	return nil
}

// Validate records the committee's ruling. Once set the paper's document
// slots freeze for non-privileged writers.
func (s *PaperService) Validate(ctx context.Context, actor Actor, paperID string, isValid bool) error {
	paper, err := s.load(ctx, paperID)
	if err != nil {
		return err
	}
	if !actor.Role.IsPrivileged() {
		if actor.Role != models.RoleTeacher || paper.CommitteeID == nil {
			return appErrors.Clone(appErrors.ErrForbidden, "only the assigned committee may validate")
		}
		member, err := s.committees.IsMember(ctx, *paper.CommitteeID, actor.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee membership")
		}
		if !member {
			return appErrors.Clone(appErrors.ErrForbidden, "only the assigned committee may validate")
		}
		if paper.ValidityDecided() {
			return appErrors.Clone(appErrors.ErrConflict, "paper validity already decided")
		}
	}

	if err := s.papers.SetValidity(ctx, paperID, isValid); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set paper validity")
	}

	if s.audits != nil {
		id := paperID
		entry := &models.AuditLog{
			ID:         uuid.NewString(),
			UserID:     &actor.ID,
			Action:     models.AuditActionPaperValidate,
			Resource:   "paper",
			ResourceID: &id,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}
	s.logger.Info("paper validity set", zap.String("paper_id", paperID), zap.Bool("is_valid", isValid))
	return nil
}

// SetGrade records the final grade. Committee members only, and only while
// the session allows grading.
func (s *PaperService) SetGrade(ctx context.Context, actor Actor, paperID string, grade float64) error {
	paper, err := s.load(ctx, paperID)
	if err != nil {
		return err
	}
	if grade < 1 || grade > 10 {
		return appErrors.Clone(appErrors.ErrValidation, "grade must be between 1 and 10")
	}

	settings, err := s.sessions.Get(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session settings")
	}
	if settings == nil || !settings.AllowGrading {
		return appErrors.Clone(appErrors.ErrForbidden, "grading is not open")
	}

	if !actor.Role.IsPrivileged() {
		if actor.Role != models.RoleTeacher || paper.CommitteeID == nil {
			return appErrors.Clone(appErrors.ErrForbidden, "only the assigned committee may grade")
		}
		member, err := s.committees.IsMember(ctx, *paper.CommitteeID, actor.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee membership")
		}
		if !member {
			return appErrors.Clone(appErrors.ErrForbidden, "only the assigned committee may grade")
		}
	}
	if !paper.ValidityDecided() || paper.IsValid == nil || !*paper.IsValid {
		return appErrors.Clone(appErrors.ErrConflict, "paper must be validated before grading")
	}

	if err := s.papers.SetGrade(ctx, paperID, grade); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set grade")
	}
	return nil
}

func (s *PaperService) load(ctx context.Context, paperID string) (*models.Paper, error) {
	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	return paper, nil
}
