package dto

import "time"

// ReuploadEntryRequest is one slot in a reupload batch.
type ReuploadEntryRequest struct {
	DocumentName string    `json:"document_name" binding:"required"`
	Deadline     time.Time `json:"deadline" binding:"required"`
	Comment      string    `json:"comment" binding:"required"`
}

// CreateReuploadBatchRequest opens reupload requests for several slots of
// one paper at once.
type CreateReuploadBatchRequest struct {
	Entries []ReuploadEntryRequest `json:"entries" binding:"required,min=1,dive"`
}
