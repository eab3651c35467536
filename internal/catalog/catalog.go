package catalog

import (
	"github.com/noah-isme/paper-track-api/internal/models"
)

// EligibilitySnapshot is the immutable view the catalog predicates evaluate
// against. It is assembled once per resolution; predicates never reach back
// into the database.
type EligibilitySnapshot struct {
	Paper    models.Paper
	Student  models.StudentProfile
	Settings *models.SessionSettings
}

// IsCurrentPromotion reports whether the student belongs to the session's
// current promotion. Missing settings count as current.
func (s EligibilitySnapshot) IsCurrentPromotion() bool {
	if s.Settings == nil || s.Settings.CurrentPromotion == "" {
		return true
	}
	return s.Student.Promotion == s.Settings.CurrentPromotion
}

// IsMarried mirrors the extra-data default: absent data means not married.
func (s EligibilitySnapshot) IsMarried() bool {
	return s.Student.ExtraData.IsMarried()
}

// Predicate decides whether a catalog entry applies to a snapshot.
type Predicate func(EligibilitySnapshot) bool

// DocumentSpec is one entry in the static document catalog: a slot the
// process may require, with its accepted variants, content types and the
// role expected to fill it. Entries are pure data; OnlyFor is a pure
// function. A nil OnlyFor always applies.
type DocumentSpec struct {
	Name            string
	Category        models.DocumentCategory
	Variants        []models.DocumentVariant
	MimeTypes       []string
	ResponsibleRole models.ResponsibleRole
	Template        string
	OnlyFor         Predicate
}

// AllowsVariant reports whether the variant is accepted for this slot.
func (d DocumentSpec) AllowsVariant(variant models.DocumentVariant) bool {
	for _, v := range d.Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// AcceptsMimeType reports whether the content type is on the allow-list.
func (d DocumentSpec) AcceptsMimeType(mimeType string) bool {
	for _, mt := range d.MimeTypes {
		if mt == mimeType {
			return true
		}
	}
	return false
}

// Applies evaluates the eligibility predicate.
func (d DocumentSpec) Applies(snap EligibilitySnapshot) bool {
	if d.OnlyFor == nil {
		return true
	}
	return d.OnlyFor(snap)
}

// HasGenerated reports whether the slot carries a system-generated variant.
func (d DocumentSpec) HasGenerated() bool {
	return d.AllowsVariant(models.VariantGenerated)
}

// Catalog is the ordered, process-wide list of document specifications.
// Loaded once, immutable afterwards.
type Catalog []DocumentSpec

var (
	pdfOnly  = []string{"application/pdf"}
	scanLike = []string{"application/pdf", "image/png", "image/jpeg"}

	generatedAndSigned = []models.DocumentVariant{models.VariantGenerated, models.VariantSigned}
	copyOnly           = []models.DocumentVariant{models.VariantCopy}
)

func paperOfType(t models.PaperType) Predicate {
	return func(snap EligibilitySnapshot) bool {
		return snap.Paper.Type == t
	}
}

// Default returns the catalog in declaration order. Three entries share the
// name "paper": they are mutually exclusive by paper type and exactly one
// must match any given paper.
func Default() Catalog {
	return Catalog{
		{
			Name:            "sign_up_form",
			Category:        models.CategorySecretary,
			Variants:        generatedAndSigned,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			Template:        "sign_up_form",
		},
		{
			Name:            "statutory_declaration",
			Category:        models.CategorySecretary,
			Variants:        generatedAndSigned,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			Template:        "statutory_declaration",
		},
		{
			Name:            "liquidation_form",
			Category:        models.CategorySecretary,
			Variants:        generatedAndSigned,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			Template:        "liquidation_form",
		},
		{
			Name:            "identity_card",
			Category:        models.CategorySecretary,
			Variants:        copyOnly,
			MimeTypes:       scanLike,
			ResponsibleRole: models.ResponsibleStudent,
		},
		{
			Name:            "marriage_certificate",
			Category:        models.CategorySecretary,
			Variants:        copyOnly,
			MimeTypes:       scanLike,
			ResponsibleRole: models.ResponsibleStudent,
			OnlyFor: func(snap EligibilitySnapshot) bool {
				return snap.IsMarried()
			},
		},
		{
			Name:            "bachelor_diploma",
			Category:        models.CategorySecretary,
			Variants:        copyOnly,
			MimeTypes:       scanLike,
			ResponsibleRole: models.ResponsibleStudent,
			OnlyFor: func(snap EligibilitySnapshot) bool {
				return snap.Student.DomainType == models.DomainTypeMaster
			},
		},
		{
			Name:            "language_certificate",
			Category:        models.CategorySecretary,
			Variants:        copyOnly,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			OnlyFor: func(snap EligibilitySnapshot) bool {
				return snap.Student.DomainType == models.DomainTypeBachelor && !snap.IsCurrentPromotion()
			},
		},
		{
			Name:            "paper",
			Category:        models.CategoryPaper,
			Variants:        copyOnly,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			OnlyFor:         paperOfType(models.PaperTypeBachelor),
		},
		{
			Name:            "paper",
			Category:        models.CategoryPaper,
			Variants:        copyOnly,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			OnlyFor:         paperOfType(models.PaperTypeDiploma),
		},
		{
			Name:            "paper",
			Category:        models.CategoryPaper,
			Variants:        copyOnly,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleStudent,
			OnlyFor:         paperOfType(models.PaperTypeMaster),
		},
		{
			Name:            "supervisor_review",
			Category:        models.CategoryPaper,
			Variants:        copyOnly,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleTeacher,
		},
		{
			Name:            "committee_report",
			Category:        models.CategoryPaper,
			Variants:        copyOnly,
			MimeTypes:       pdfOnly,
			ResponsibleRole: models.ResponsibleCommittee,
		},
	}
}
