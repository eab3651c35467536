package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/storage"
)

type slotResolver interface {
	Resolve(ctx context.Context, paperID string) ([]ResolvedSlot, error)
	RequiredDocuments(ctx context.Context, paperID string) ([]models.RequiredDocument, error)
	Snapshot(ctx context.Context, paperID string) (*catalog.EligibilitySnapshot, error)
}

type versionStore interface {
	CreateVersion(ctx context.Context, version *models.DocumentVersion, payload []byte, supersede bool) error
	Retire(ctx context.Context, versionID string, at time.Time) error
	FindByID(ctx context.Context, id string) (*models.DocumentVersion, error)
	GetHistory(ctx context.Context, paperID, name string) ([]models.DocumentVersion, error)
}

type reuploadChecker interface {
	IsActive(ctx context.Context, paperID, documentName string) (bool, error)
}

type committeeChecker interface {
	IsMember(ctx context.Context, committeeID, teacherID string) (bool, error)
}

type payloadReader interface {
	Read(key string) ([]byte, error)
}

type templateRenderer interface {
	Render(template string, data map[string]string) ([]byte, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// DocumentService orchestrates document reads and writes: it assembles the
// guard input, applies the decision and records the outcome.
type DocumentService struct {
	resolver   slotResolver
	versions   versionStore
	papers     resolverPaperReader
	sessions   resolverSessionReader
	reuploads  reuploadChecker
	committees committeeChecker
	guard      *UploadGuard
	payloads   payloadReader
	signer     *storage.SignedURLSigner
	renderer   templateRenderer
	audits     auditWriter
	metrics    uploadRecorder
	logger     *zap.Logger
	now        func() time.Time
}

type uploadRecorder interface {
	RecordUpload(variant string)
	RecordDenial(code string)
}

// SetMetrics wires the optional metrics recorder. Called once at startup.
func (s *DocumentService) SetMetrics(m uploadRecorder) {
	s.metrics = m
}

// NewDocumentService constructs the document service.
func NewDocumentService(
	resolver slotResolver,
	versions versionStore,
	papers resolverPaperReader,
	sessions resolverSessionReader,
	reuploads reuploadChecker,
	committees committeeChecker,
	payloads payloadReader,
	signer *storage.SignedURLSigner,
	renderer templateRenderer,
	audits auditWriter,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		resolver:   resolver,
		versions:   versions,
		papers:     papers,
		sessions:   sessions,
		reuploads:  reuploads,
		committees: committees,
		guard:      NewUploadGuard(),
		payloads:   payloads,
		signer:     signer,
		renderer:   renderer,
		audits:     audits,
		logger:     logger,
		now:        func() time.Time { return time.Now().In(catalog.ReferenceZone) },
	}
}

// ListRequirements returns the annotated slot list for a paper the actor is
// allowed to see.
func (s *DocumentService) ListRequirements(ctx context.Context, actor Actor, paperID string) ([]models.RequiredDocument, error) {
	paper, err := s.loadPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, actor, paper); err != nil {
		return nil, err
	}
	return s.resolver.RequiredDocuments(ctx, paperID)
}

// Upload stores a new version of an uploadable variant after the guard
// allows it.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, paperID, name string, variant models.DocumentVariant, mimeType string, payload []byte) (*models.DocumentVersion, error) {
	in, err := s.buildGuardInput(ctx, actor, paperID, name, variant, mimeType)
	if err != nil {
		return nil, err
	}

	decision, err := s.guard.CheckUpload(*in)
	if err != nil {
		s.recordDenial(err)
		return nil, err
	}

	version := &models.DocumentVersion{
		ID:         uuid.NewString(),
		PaperID:    paperID,
		Name:       name,
		Category:   decision.Category,
		Variant:    variant,
		MimeType:   mimeType,
		UploaderID: &actor.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.versions.CreateVersion(ctx, version, payload, decision.Supersede); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, "failed to store document")
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(string(variant))
	}
	s.audit(ctx, actor, models.AuditActionDocumentUpload, version.ID, name)
	s.logger.Info("document uploaded",
		zap.String("paper_id", paperID),
		zap.String("document", name),
		zap.String("variant", string(variant)),
		zap.Bool("superseded", decision.Supersede))
	return version, nil
}

// Sign produces the signed variant of a generated document. The bytes are
// rendered from the same data as the generated version, with the signature
// block filled in.
func (s *DocumentService) Sign(ctx context.Context, actor Actor, paperID, name string) (*models.DocumentVersion, error) {
	const mimeType = "application/pdf"

	in, err := s.buildGuardInput(ctx, actor, paperID, name, models.VariantSigned, mimeType)
	if err != nil {
		return nil, err
	}

	decision, err := s.guard.CheckUpload(*in)
	if err != nil {
		s.recordDenial(err)
		return nil, err
	}

	snap, err := s.resolver.Snapshot(ctx, paperID)
	if err != nil {
		return nil, err
	}
	data := renderData(snap)
	data["signed_by"] = snap.Student.FullName
	data["signed_at"] = s.now().Format("2006-01-02")

	payload, err := s.renderer.Render(in.Slot.Spec.Template, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render signed document")
	}

	version := &models.DocumentVersion{
		ID:         uuid.NewString(),
		PaperID:    paperID,
		Name:       name,
		Category:   decision.Category,
		Variant:    models.VariantSigned,
		MimeType:   mimeType,
		UploaderID: &actor.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.versions.CreateVersion(ctx, version, payload, decision.Supersede); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, "failed to store signed document")
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(string(models.VariantSigned))
	}
	s.audit(ctx, actor, models.AuditActionDocumentSign, version.ID, name)
	s.logger.Info("document signed", zap.String("paper_id", paperID), zap.String("document", name))
	return version, nil
}

// Delete retires a version. The payload stays on disk for the audit trail.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, versionID string) error {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document version not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document version")
	}
	if !version.Active() {
		return appErrors.Clone(appErrors.ErrConflict, "document version already retired")
	}

	in, err := s.buildGuardInput(ctx, actor, version.PaperID, version.Name, version.Variant, "")
	if err != nil {
		// A retired catalog entry must not strand the version: privileged
		// actors may still clean up unknown slots.
		if appErrors.Is(err, appErrors.ErrUnknownDocument) && actor.Role.IsPrivileged() {
			in = &GuardInput{Actor: actor, Variant: version.Variant}
		} else {
			return err
		}
	}

	if err := s.guard.CheckDelete(*in); err != nil {
		return err
	}

	if err := s.versions.Retire(ctx, versionID, s.now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to retire document version")
	}

	s.audit(ctx, actor, models.AuditActionDocumentDelete, versionID, version.Name)
	return nil
}

// History returns the full version log of a slot, newest first, including
// retired versions.
func (s *DocumentService) History(ctx context.Context, actor Actor, paperID, name string) ([]models.DocumentVersion, error) {
	paper, err := s.loadPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, actor, paper); err != nil {
		return nil, err
	}
	history, err := s.versions.GetHistory(ctx, paperID, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document history")
	}
	return history, nil
}

// DownloadURL issues a short-lived signed token for a version the actor may
// read.
func (s *DocumentService) DownloadURL(ctx context.Context, actor Actor, versionID string) (string, time.Time, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "document version not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document version")
	}
	paper, err := s.loadPaper(ctx, version.PaperID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.checkRead(ctx, actor, paper); err != nil {
		return "", time.Time{}, err
	}
	return s.signer.Generate(version.ID, storage.KeyFor(version.ID, version.MimeType))
}

// Download resolves a signed token and returns the payload with metadata.
func (s *DocumentService) Download(ctx context.Context, token string) (*models.DocumentVersion, []byte, error) {
	versionID, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document version not found")
	}
	payload, err := s.payloads.Read(key)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorageFailure.Code, appErrors.ErrStorageFailure.Status, "failed to read document payload")
	}
	return version, payload, nil
}

func (s *DocumentService) buildGuardInput(ctx context.Context, actor Actor, paperID, name string, variant models.DocumentVariant, mimeType string) (*GuardInput, error) {
	paper, err := s.loadPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	slots, err := s.resolver.Resolve(ctx, paperID)
	if err != nil {
		return nil, err
	}
	var slot *ResolvedSlot
	for i := range slots {
		if slots[i].Spec.Name == name {
			slot = &slots[i]
			break
		}
	}

	in := &GuardInput{
		Actor:    actor,
		Name:     name,
		Variant:  variant,
		MimeType: mimeType,
		Paper:    *paper,
		Slot:     slot,
	}
	if slot == nil {
		return in, nil
	}

	settings, err := s.sessions.Get(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session settings")
	}
	in.WindowOpen = catalog.WindowOpen(slot.Spec.Category, settings, s.now())
	if settings != nil {
		in.GradingEnabled = settings.AllowGrading
	}

	active, err := s.reuploads.IsActive(ctx, paperID, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check reupload state")
	}
	in.ReuploadActive = active

	if actor.Role == models.RoleTeacher && paper.CommitteeID != nil {
		member, err := s.committees.IsMember(ctx, *paper.CommitteeID, actor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee membership")
		}
		in.CommitteeMember = member
	}
	return in, nil
}

func (s *DocumentService) loadPaper(ctx context.Context, paperID string) (*models.Paper, error) {
	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paper not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paper")
	}
	return paper, nil
}

func (s *DocumentService) checkRead(ctx context.Context, actor Actor, paper *models.Paper) error {
	ok, err := canReadPaper(ctx, s.committees, actor, paper)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee membership")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no access to this paper")
	}
	return nil
}

func (s *DocumentService) recordDenial(err error) {
	if s.metrics == nil {
		return
	}
	if appErr := appErrors.FromError(err); appErr != nil {
		s.metrics.RecordDenial(appErr.Code)
	}
}

func (s *DocumentService) audit(ctx context.Context, actor Actor, action, resourceID, resource string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     &actor.ID,
		Action:     action,
		Resource:   fmt.Sprintf("document:%s", resource),
		ResourceID: &resourceID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
