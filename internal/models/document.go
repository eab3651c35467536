package models

import "time"

// DocumentVariant discriminates how a document slot is filled. The write
// rules differ per variant, so the authorization rules match exhaustively
// on this type rather than on raw strings.
type DocumentVariant string

const (
	// VariantGenerated is produced by the system renderer, never uploaded.
	VariantGenerated DocumentVariant = "GENERATED"
	// VariantSigned is the printed-and-signed scan of a generated document.
	VariantSigned DocumentVariant = "SIGNED"
	// VariantCopy is a plain upload (scan or photo) with no generated source.
	VariantCopy DocumentVariant = "COPY"
)

// DocumentCategory splits slots by which submission window governs them.
type DocumentCategory string

const (
	CategorySecretary DocumentCategory = "SECRETARY"
	CategoryPaper     DocumentCategory = "PAPER"
)

// ResponsibleRole names who is expected to fill a slot.
type ResponsibleRole string

const (
	ResponsibleStudent   ResponsibleRole = "STUDENT"
	ResponsibleTeacher   ResponsibleRole = "TEACHER"
	ResponsibleCommittee ResponsibleRole = "COMMITTEE"
)

// DocumentVersion is one stored artifact in the append-only version log of a
// (paper, slot, variant) cell. Versions are retired, never hard-deleted.
type DocumentVersion struct {
	ID          string           `db:"id" json:"id"`
	PaperID     string           `db:"paper_id" json:"paper_id"`
	Name        string           `db:"name" json:"name"`
	Category    DocumentCategory `db:"category" json:"category"`
	Variant     DocumentVariant  `db:"variant" json:"variant"`
	MimeType    string           `db:"mime_type" json:"mime_type"`
	UploaderID  *string          `db:"uploader_id" json:"uploader_id,omitempty"`
	Fingerprint *string          `db:"fingerprint" json:"-"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	RetiredAt   *time.Time       `db:"retired_at" json:"retired_at,omitempty"`
}

// Active reports whether the version is the live one for its cell.
func (v *DocumentVersion) Active() bool {
	return v.RetiredAt == nil
}

// RequiredDocument is a resolved catalog slot annotated with the variants
// currently on file for a particular paper.
type RequiredDocument struct {
	Name            string            `json:"name"`
	Category        DocumentCategory  `json:"category"`
	Variants        []DocumentVariant `json:"variants"`
	MimeTypes       []string          `json:"mime_types"`
	ResponsibleRole ResponsibleRole   `json:"responsible_role"`
	Uploaded        []DocumentVersion `json:"uploaded"`
}

// HasActive reports whether an active version of the given variant is on file.
func (d *RequiredDocument) HasActive(variant DocumentVariant) bool {
	for i := range d.Uploaded {
		if d.Uploaded[i].Variant == variant && d.Uploaded[i].Active() {
			return true
		}
	}
	return false
}
