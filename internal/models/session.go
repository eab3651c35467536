package models

import "time"

// SessionSettings is the singleton row describing the current academic
// session. It is read frequently and written rarely; the document rules read
// it as an immutable snapshot.
type SessionSettings struct {
	ID                  int       `db:"id" json:"id"`
	SessionName         string    `db:"session_name" json:"session_name"`
	CurrentPromotion    string    `db:"current_promotion" json:"current_promotion"`
	ApplyStartDate      time.Time `db:"apply_start_date" json:"apply_start_date"`
	ApplyEndDate        time.Time `db:"apply_end_date" json:"apply_end_date"`
	FileSubmissionStart time.Time `db:"file_submission_start" json:"file_submission_start"`
	FileSubmissionEnd   time.Time `db:"file_submission_end" json:"file_submission_end"`
	PaperSubmissionEnd  time.Time `db:"paper_submission_end" json:"paper_submission_end"`
	AllowGrading        bool      `db:"allow_grading" json:"allow_grading"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
