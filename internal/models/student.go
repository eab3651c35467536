package models

import "time"

// DomainType distinguishes bachelor-level from master-level study domains.
type DomainType string

const (
	DomainTypeBachelor DomainType = "BACHELOR"
	DomainTypeMaster   DomainType = "MASTER"
)

// CivilState enumerates the civil states carried on student extra data.
type CivilState string

const (
	CivilStateNotMarried CivilState = "NOT_MARRIED"
	CivilStateMarried    CivilState = "MARRIED"
	CivilStateDivorced   CivilState = "DIVORCED"
	CivilStateWidow      CivilState = "WIDOW"
	CivilStateReMarried  CivilState = "RE_MARRIED"
)

// StudentProfile holds the academic identity of a student.
type StudentProfile struct {
	UserID             string     `db:"user_id" json:"user_id"`
	FullName           string     `db:"full_name" json:"full_name"`
	Promotion          string     `db:"promotion" json:"promotion"`
	StudyForm          string     `db:"study_form" json:"study_form"`
	Group              string     `db:"student_group" json:"group"`
	DomainName         string     `db:"domain_name" json:"domain_name"`
	DomainType         DomainType `db:"domain_type" json:"domain_type"`
	SpecializationName string     `db:"specialization_name" json:"specialization_name"`
	MatriculationYear  int        `db:"matriculation_year" json:"matriculation_year"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`

	ExtraData *StudentExtraData `db:"-" json:"extra_data,omitempty"`
}

// StudentExtraData carries the personal fields rendered into generated
// documents. It may be absent until the student fills the enrollment form.
type StudentExtraData struct {
	StudentID      string     `db:"student_id" json:"student_id"`
	BirthLastName  string     `db:"birth_last_name" json:"birth_last_name"`
	ParentInitial  string     `db:"parent_initial" json:"parent_initial"`
	FatherName     string     `db:"father_name" json:"father_name"`
	MotherName     string     `db:"mother_name" json:"mother_name"`
	CivilState     CivilState `db:"civil_state" json:"civil_state"`
	DateOfBirth    time.Time  `db:"date_of_birth" json:"date_of_birth"`
	PlaceOfBirth   string     `db:"place_of_birth" json:"place_of_birth"`
	PersonalNumber string     `db:"personal_number" json:"personal_number"`
	Address        string     `db:"address" json:"address"`
	Phone          string     `db:"phone" json:"phone"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsMarried reports whether the extra data indicates a name-changing civil
// state. Absent extra data defaults to not married; this default decides
// which documents are required and is intentional.
func (e *StudentExtraData) IsMarried() bool {
	if e == nil {
		return false
	}
	switch e.CivilState {
	case CivilStateMarried, CivilStateReMarried, CivilStateWidow, CivilStateDivorced:
		return true
	}
	return false
}
