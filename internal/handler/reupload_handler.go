package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/paper-track-api/internal/dto"
	"github.com/noah-isme/paper-track-api/internal/service"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/response"
)

// ReuploadHandler manages reupload request endpoints.
type ReuploadHandler struct {
	reuploads *service.ReuploadService
}

// NewReuploadHandler constructs the handler.
func NewReuploadHandler(reuploads *service.ReuploadService) *ReuploadHandler {
	return &ReuploadHandler{reuploads: reuploads}
}

// Create godoc
// @Summary Open reupload requests for a paper
// @Tags Reuploads
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body dto.CreateReuploadBatchRequest true "Batch"
// @Success 201 {object} response.Envelope
// @Router /papers/{id}/reuploads [post]
func (h *ReuploadHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateReuploadBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reupload payload"))
		return
	}
	entries := make([]service.ReuploadEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, service.ReuploadEntry{
			DocumentName: e.DocumentName,
			Deadline:     e.Deadline,
			Comment:      e.Comment,
		})
	}
	batch, err := h.reuploads.Create(c.Request.Context(), actor, c.Param("id"), entries)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// List godoc
// @Summary List reupload requests of a paper
// @Tags Reuploads
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/reuploads [get]
func (h *ReuploadHandler) List(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requests, err := h.reuploads.ListByPaper(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Cancel godoc
// @Summary Cancel an open reupload request
// @Tags Reuploads
// @Param requestId path string true "Request ID"
// @Success 204 {object} response.Envelope
// @Router /reuploads/{requestId} [delete]
func (h *ReuploadHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.reuploads.Cancel(c.Request.Context(), actor, c.Param("requestId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
