package service

import (
	"github.com/noah-isme/paper-track-api/internal/models"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
)

// Actor is the authenticated principal attempting a document operation.
type Actor struct {
	ID   string
	Role models.UserRole
}

// GuardInput carries everything the authorization decision depends on.
// Callers assemble it from the resolver, the submission window and the
// reupload state so the decision itself stays a pure function.
type GuardInput struct {
	Actor    Actor
	Name     string
	Variant  models.DocumentVariant
	MimeType string
	Paper    models.Paper

	// Slot is nil when the resolver did not produce the named document
	// for this paper.
	Slot *ResolvedSlot

	WindowOpen      bool
	ReuploadActive  bool
	CommitteeMember bool
	GradingEnabled  bool
}

// GuardDecision is returned on an allowed write.
type GuardDecision struct {
	Category models.DocumentCategory
	// Supersede is set when an active version of the same slot and
	// variant must be retired in the same transaction as the insert.
	Supersede bool
}

// UploadGuard gates every document write. The checks run in a fixed order
// so callers get a stable, most-specific denial for a given state.
type UploadGuard struct{}

// NewUploadGuard constructs the guard.
func NewUploadGuard() *UploadGuard {
	return &UploadGuard{}
}

// CheckUpload decides whether the actor may write the given variant into
// the given slot.
func (g *UploadGuard) CheckUpload(in GuardInput) (GuardDecision, error) {
	// Generated documents are produced by the system only.
	if in.Variant == models.VariantGenerated {
		return GuardDecision{}, appErrors.Clone(appErrors.ErrInvalidVariantForUpload, "generated documents cannot be uploaded")
	}

	if in.Slot == nil {
		return GuardDecision{}, appErrors.ErrUnknownDocument
	}
	spec := in.Slot.Spec

	if !spec.AllowsVariant(in.Variant) {
		return GuardDecision{}, appErrors.ErrVariantNotAllowed
	}
	// The allow-list holds for every upload; a missing content type is not
	// an exemption.
	if !spec.AcceptsMimeType(in.MimeType) {
		return GuardDecision{}, appErrors.ErrContentTypeNotAccepted
	}

	privileged := in.Actor.Role.IsPrivileged()

	if !privileged {
		if err := g.checkOwnership(in); err != nil {
			return GuardDecision{}, err
		}
		if spec.ResponsibleRole == models.ResponsibleStudent && !in.WindowOpen && !in.ReuploadActive {
			return GuardDecision{}, appErrors.ErrOutsideSubmissionWindow
		}
	}

	decision := GuardDecision{Category: spec.Category}

	switch in.Variant {
	case models.VariantSigned:
		if activeVersion(in.Slot, models.VariantGenerated) == nil {
			return GuardDecision{}, appErrors.ErrMissingGeneratedDocument
		}
		if activeVersion(in.Slot, models.VariantSigned) != nil {
			if !privileged {
				return GuardDecision{}, appErrors.ErrAlreadySigned
			}
			decision.Supersede = true
		}
	case models.VariantCopy:
		if activeVersion(in.Slot, models.VariantCopy) != nil {
			if !privileged && !in.ReuploadActive {
				return GuardDecision{}, appErrors.ErrAlreadyUploaded
			}
			decision.Supersede = true
		}
	}

	if !privileged && in.Paper.ValidityDecided() {
		switch spec.ResponsibleRole {
		case models.ResponsibleTeacher:
			if in.GradingEnabled {
				return GuardDecision{}, appErrors.ErrPaperFrozen
			}
		case models.ResponsibleCommittee:
			// Committee documents stay writable after validation.
		default:
			return GuardDecision{}, appErrors.ErrPaperFrozen
		}
	}

	return decision, nil
}

// CheckDelete decides whether the actor may retire an existing version.
func (g *UploadGuard) CheckDelete(in GuardInput) error {
	privileged := in.Actor.Role.IsPrivileged()
	if privileged {
		return nil
	}

	if in.Variant == models.VariantGenerated {
		return appErrors.Clone(appErrors.ErrForbidden, "generated documents are system managed")
	}
	if in.Slot == nil {
		return appErrors.ErrUnknownDocument
	}
	if err := g.checkOwnership(in); err != nil {
		return err
	}
	if in.Slot.Spec.ResponsibleRole == models.ResponsibleStudent && !in.WindowOpen && !in.ReuploadActive {
		return appErrors.ErrOutsideSubmissionWindow
	}
	if in.Paper.ValidityDecided() && in.Slot.Spec.ResponsibleRole != models.ResponsibleCommittee {
		return appErrors.ErrPaperFrozen
	}
	return nil
}

func (g *UploadGuard) checkOwnership(in GuardInput) error {
	switch in.Slot.Spec.ResponsibleRole {
	case models.ResponsibleStudent:
		if in.Actor.Role != models.RoleStudent || in.Actor.ID != in.Paper.StudentID {
			return appErrors.Clone(appErrors.ErrForbidden, "document belongs to the paper's student")
		}
	case models.ResponsibleTeacher:
		if in.Actor.Role != models.RoleTeacher || in.Actor.ID != in.Paper.TeacherID {
			return appErrors.Clone(appErrors.ErrForbidden, "document belongs to the supervising teacher")
		}
	case models.ResponsibleCommittee:
		if in.Actor.Role != models.RoleTeacher || !in.CommitteeMember {
			return appErrors.Clone(appErrors.ErrForbidden, "document belongs to the assigned committee")
		}
	}
	return nil
}

func activeVersion(slot *ResolvedSlot, variant models.DocumentVariant) *models.DocumentVersion {
	for i := range slot.Active {
		if slot.Active[i].Variant == variant && slot.Active[i].Active() {
			return &slot.Active[i]
		}
	}
	return nil
}
