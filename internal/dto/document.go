package dto

import "time"

// UploadDocumentRequest carries the multipart form fields accompanying a
// document upload. The payload arrives as the "file" form part.
type UploadDocumentRequest struct {
	Name    string `form:"name" binding:"required"`
	Variant string `form:"variant" binding:"required"`
}

// DownloadURLResponse returns a short-lived signed download token.
type DownloadURLResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
