package models

import "time"

// ReuploadRequest is a time-boxed exception re-opening a document slot after
// its normal submission window has closed. Requests are retired by explicit
// cancellation or by being superseded, never hard-deleted.
type ReuploadRequest struct {
	ID           string     `db:"id" json:"id"`
	PaperID      string     `db:"paper_id" json:"paper_id"`
	DocumentName string     `db:"document_name" json:"document_name"`
	Deadline     time.Time  `db:"deadline" json:"deadline"`
	Comment      string     `db:"comment" json:"comment"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// ActiveOn reports whether the request still holds on the given day.
// The deadline is inclusive and compared at day granularity.
func (r *ReuploadRequest) ActiveOn(day time.Time) bool {
	if r.CancelledAt != nil {
		return false
	}
	y1, m1, d1 := day.Date()
	y2, m2, d2 := r.Deadline.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 <= d2
}
