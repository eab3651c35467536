package models

import "time"

// Committee is a defense committee papers get assigned to.
type Committee struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Members []CommitteeMember `db:"-" json:"members,omitempty"`
}

// CommitteeMember links a teacher to a committee with a role.
type CommitteeMember struct {
	CommitteeID string `db:"committee_id" json:"committee_id"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	Role        string `db:"role" json:"role"`
}
