package dto

// UpdatePaperTitleRequest changes the paper's title and description.
type UpdatePaperTitleRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// ValidatePaperRequest records the committee ruling.
type ValidatePaperRequest struct {
	IsValid *bool `json:"is_valid" binding:"required"`
}

// GradePaperRequest records the final grade.
type GradePaperRequest struct {
	Grade float64 `json:"grade" binding:"required"`
}

// AssignCommitteeRequest attaches a committee to a paper.
type AssignCommitteeRequest struct {
	CommitteeID string `json:"committee_id" binding:"required"`
}
