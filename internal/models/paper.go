package models

import "time"

// PaperType enumerates the kinds of final papers a student can defend.
type PaperType string

const (
	PaperTypeBachelor PaperType = "BACHELOR"
	PaperTypeDiploma  PaperType = "DIPLOMA"
	PaperTypeMaster   PaperType = "MASTER"
)

// Paper is a student-supervisor work item moving through the defense process.
// Validity is a tri-state: nil while undecided, then true/false once the
// committee has ruled. Once set, document slots freeze for non-privileged
// actors except teacher- and committee-responsible ones.
type Paper struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	CommitteeID *string   `db:"committee_id" json:"committee_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	Type        PaperType `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	Submitted   bool      `db:"submitted" json:"submitted"`
	IsValid     *bool     `db:"is_valid" json:"is_valid,omitempty"`
	Grade       *float64  `db:"grade" json:"grade,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ValidityDecided reports whether the committee has ruled on the paper.
func (p *Paper) ValidityDecided() bool {
	return p.IsValid != nil
}

// PaperFilter captures filtering criteria for listing papers.
type PaperFilter struct {
	StudentID   string
	TeacherID   string
	CommitteeID string
	Submitted   *bool
	Page        int
	PageSize    int
}
