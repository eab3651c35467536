package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/paper-track-api/internal/catalog"
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/jobs"
)

type generatedVersionStore interface {
	SupersedeGenerated(ctx context.Context, version *models.DocumentVersion, payload []byte) error
}

type regenerationEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RegenerationReport summarizes one regeneration pass over a paper. Slot
// failures are isolated: one broken template never blocks the others.
type RegenerationReport struct {
	PaperID   string            `json:"paper_id"`
	Generated []string          `json:"generated"`
	Unchanged []string          `json:"unchanged"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// GenerationService keeps the generated variants of a paper's slots in sync
// with the data they are rendered from. Regeneration is idempotent: a slot
// whose fingerprint has not moved is left alone, so its signed scan stays
// valid.
type GenerationService struct {
	resolver slotResolver
	versions generatedVersionStore
	renderer templateRenderer
	queue    regenerationEnqueuer
	metrics  generationRecorder
	logger   *zap.Logger
}

type generationRecorder interface {
	RecordGenerationRun(result string)
}

// NewGenerationService constructs the orchestrator. The queue may be nil
// when asynchronous triggering is not wired (tests, one-shot tools).
func NewGenerationService(resolver slotResolver, versions generatedVersionStore, renderer templateRenderer, metrics generationRecorder, logger *zap.Logger) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		resolver: resolver,
		versions: versions,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetQueue wires the background queue used by the async triggers. Called
// once during startup, before any enqueue.
func (s *GenerationService) SetQueue(queue regenerationEnqueuer) {
	s.queue = queue
}

// JobTypeRegenerate is the queue job type carrying a paper ID payload.
const JobTypeRegenerate = "regenerate_documents"

// EnqueueRegenerate schedules an asynchronous regeneration pass. Falls back
// to a synchronous pass when no queue is wired.
func (s *GenerationService) EnqueueRegenerate(ctx context.Context, paperID string) {
	if s.queue == nil {
		if _, err := s.Regenerate(ctx, paperID); err != nil {
			s.logger.Error("synchronous regeneration failed", zap.String("paper_id", paperID), zap.Error(err))
		}
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeRegenerate, Payload: paperID}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue regeneration", zap.String("paper_id", paperID), zap.Error(err))
	}
}

// HandleJob is the queue handler for regeneration jobs.
func (s *GenerationService) HandleJob(ctx context.Context, job jobs.Job) error {
	paperID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("regeneration job %s: payload is not a paper id", job.ID)
	}
	report, err := s.Regenerate(ctx, paperID)
	if err != nil {
		return err
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("regeneration of paper %s: %d slot(s) failed", paperID, len(report.Failures))
	}
	return nil
}

// Regenerate renders every generated slot of the paper whose source data
// fingerprint has moved, superseding the previous generated and signed
// versions atomically per slot.
func (s *GenerationService) Regenerate(ctx context.Context, paperID string) (*RegenerationReport, error) {
	snap, err := s.resolver.Snapshot(ctx, paperID)
	if err != nil {
		return nil, err
	}
	slots, err := s.resolver.Resolve(ctx, paperID)
	if err != nil {
		return nil, err
	}

	report := &RegenerationReport{PaperID: paperID}
	data := renderData(snap)
	fingerprint := fingerprintOf(snap)

	for _, slot := range slots {
		if !slot.Spec.HasGenerated() {
			continue
		}
		name := slot.Spec.Name

		if current := activeGenerated(slot); current != nil &&
			current.Fingerprint != nil && *current.Fingerprint == fingerprint {
			report.Unchanged = append(report.Unchanged, name)
			continue
		}

		payload, err := s.renderer.Render(slot.Spec.Template, data)
		if err != nil {
			s.recordFailure(report, name, err)
			continue
		}

		fp := fingerprint
		version := &models.DocumentVersion{
			ID:          uuid.NewString(),
			PaperID:     paperID,
			Name:        name,
			Category:    slot.Spec.Category,
			Variant:     models.VariantGenerated,
			MimeType:    "application/pdf",
			Fingerprint: &fp,
		}
		if err := s.versions.SupersedeGenerated(ctx, version, payload); err != nil {
			s.recordFailure(report, name, err)
			continue
		}
		report.Generated = append(report.Generated, name)
	}

	result := "ok"
	if len(report.Failures) > 0 {
		result = "partial_failure"
	}
	if s.metrics != nil {
		s.metrics.RecordGenerationRun(result)
	}
	s.logger.Info("regeneration pass finished",
		zap.String("paper_id", paperID),
		zap.Strings("generated", report.Generated),
		zap.Strings("unchanged", report.Unchanged),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// Preview renders a generated slot without persisting anything. Used by the
// document preview endpoint.
func (s *GenerationService) Preview(ctx context.Context, paperID, name string) ([]byte, error) {
	snap, err := s.resolver.Snapshot(ctx, paperID)
	if err != nil {
		return nil, err
	}
	slots, err := s.resolver.Resolve(ctx, paperID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.Spec.Name != name {
			continue
		}
		if !slot.Spec.HasGenerated() {
			return nil, appErrors.Clone(appErrors.ErrVariantNotAllowed, "document has no generated variant")
		}
		payload, err := s.renderer.Render(slot.Spec.Template, renderData(snap))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
		}
		return payload, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnknownDocument, fmt.Sprintf("document %q is not required for this paper", name))
}

func (s *GenerationService) recordFailure(report *RegenerationReport, name string, err error) {
	if report.Failures == nil {
		report.Failures = make(map[string]string)
	}
	report.Failures[name] = err.Error()
	s.logger.Error("slot regeneration failed",
		zap.String("paper_id", report.PaperID),
		zap.String("document", name),
		zap.Error(err))
}

func activeGenerated(slot ResolvedSlot) *models.DocumentVersion {
	for i := range slot.Active {
		if slot.Active[i].Variant == models.VariantGenerated && slot.Active[i].Active() {
			return &slot.Active[i]
		}
	}
	return nil
}

// fingerprintSource is the deterministic projection of everything a
// generated document renders. Field order is fixed; changing it changes
// every fingerprint and forces a one-time global regeneration.
type fingerprintSource struct {
	FullName           string `json:"full_name"`
	BirthLastName      string `json:"birth_last_name"`
	ParentInitial      string `json:"parent_initial"`
	FatherName         string `json:"father_name"`
	MotherName         string `json:"mother_name"`
	PersonalNumber     string `json:"personal_number"`
	DateOfBirth        string `json:"date_of_birth"`
	PlaceOfBirth       string `json:"place_of_birth"`
	Address            string `json:"address"`
	CivilState         string `json:"civil_state"`
	Promotion          string `json:"promotion"`
	StudyForm          string `json:"study_form"`
	Group              string `json:"group"`
	DomainName         string `json:"domain_name"`
	DomainType         string `json:"domain_type"`
	SpecializationName string `json:"specialization_name"`
	PaperTitle         string `json:"paper_title"`
	PaperType          string `json:"paper_type"`
	SessionName        string `json:"session_name"`
	CurrentPromotion   string `json:"current_promotion"`
}

func projectionOf(snap *catalog.EligibilitySnapshot) fingerprintSource {
	src := fingerprintSource{
		FullName:           snap.Student.FullName,
		Promotion:          snap.Student.Promotion,
		StudyForm:          snap.Student.StudyForm,
		Group:              snap.Student.Group,
		DomainName:         snap.Student.DomainName,
		DomainType:         string(snap.Student.DomainType),
		SpecializationName: snap.Student.SpecializationName,
		PaperTitle:         snap.Paper.Title,
		PaperType:          string(snap.Paper.Type),
	}
	if extra := snap.Student.ExtraData; extra != nil {
		src.BirthLastName = extra.BirthLastName
		src.ParentInitial = extra.ParentInitial
		src.FatherName = extra.FatherName
		src.MotherName = extra.MotherName
		src.PersonalNumber = extra.PersonalNumber
		src.DateOfBirth = extra.DateOfBirth.Format("2006-01-02")
		src.PlaceOfBirth = extra.PlaceOfBirth
		src.Address = extra.Address
		src.CivilState = string(extra.CivilState)
	}
	if snap.Settings != nil {
		src.SessionName = snap.Settings.SessionName
		src.CurrentPromotion = snap.Settings.CurrentPromotion
	}
	return src
}

func fingerprintOf(snap *catalog.EligibilitySnapshot) string {
	raw, _ := json.Marshal(projectionOf(snap))
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func renderData(snap *catalog.EligibilitySnapshot) map[string]string {
	src := projectionOf(snap)
	return map[string]string{
		"full_name":           src.FullName,
		"birth_last_name":     src.BirthLastName,
		"parent_initial":      src.ParentInitial,
		"father_name":         src.FatherName,
		"mother_name":         src.MotherName,
		"personal_number":     src.PersonalNumber,
		"date_of_birth":       src.DateOfBirth,
		"place_of_birth":      src.PlaceOfBirth,
		"address":             src.Address,
		"civil_state":         src.CivilState,
		"promotion":           src.Promotion,
		"study_form":          src.StudyForm,
		"group":               src.Group,
		"domain_name":         src.DomainName,
		"domain_type":         src.DomainType,
		"specialization":      src.SpecializationName,
		"paper_title":         src.PaperTitle,
		"paper_type":          src.PaperType,
		"session_name":        src.SessionName,
	}
}
