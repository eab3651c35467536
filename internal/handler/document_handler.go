package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/paper-track-api/internal/dto"
	"github.com/noah-isme/paper-track-api/internal/models"
	"github.com/noah-isme/paper-track-api/internal/service"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/response"
)

// DocumentHandler manages the document endpoints of a paper.
type DocumentHandler struct {
	documents  *service.DocumentService
	generation *service.GenerationService
	maxBytes   int64
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(documents *service.DocumentService, generation *service.GenerationService, maxBytes int64) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &DocumentHandler{documents: documents, generation: generation, maxBytes: maxBytes}
}

// List godoc
// @Summary List required documents for a paper
// @Tags Documents
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	docs, err := h.documents.ListRequirements(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Upload godoc
// @Summary Upload a document version
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Paper ID"
// @Param name formData string true "Document name"
// @Param variant formData string true "Variant (SIGNED or COPY)"
// @Param file formData file true "Document payload"
// @Success 201 {object} response.Envelope
// @Router /papers/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UploadDocumentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "name and variant are required"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()
	payload, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file"))
		return
	}
	if int64(len(payload)) > h.maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	variant := models.DocumentVariant(strings.ToUpper(req.Variant))
	mimeType := fileHeader.Header.Get("Content-Type")

	version, err := h.documents.Upload(c.Request.Context(), actor, c.Param("id"), req.Name, variant, mimeType, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// Sign godoc
// @Summary Produce the signed variant of a generated document
// @Tags Documents
// @Produce json
// @Param id path string true "Paper ID"
// @Param name path string true "Document name"
// @Success 201 {object} response.Envelope
// @Router /papers/{id}/documents/{name}/sign [post]
func (h *DocumentHandler) Sign(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	version, err := h.documents.Sign(c.Request.Context(), actor, c.Param("id"), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// History godoc
// @Summary Full version history of a document slot
// @Tags Documents
// @Produce json
// @Param id path string true "Paper ID"
// @Param name path string true "Document name"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/documents/{name}/history [get]
func (h *DocumentHandler) History(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	history, err := h.documents.History(c.Request.Context(), actor, c.Param("id"), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Preview godoc
// @Summary Render a generated document without persisting it
// @Tags Documents
// @Produce application/pdf
// @Param id path string true "Paper ID"
// @Param name path string true "Document name"
// @Success 200 {file} binary
// @Router /papers/{id}/documents/{name}/preview [get]
func (h *DocumentHandler) Preview(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payload, err := h.generation.Preview(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", payload)
}

// Regenerate godoc
// @Summary Run a regeneration pass over a paper's generated documents
// @Tags Documents
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/regenerate [post]
func (h *DocumentHandler) Regenerate(c *gin.Context) {
	report, err := h.generation.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Retire a document version
// @Tags Documents
// @Param versionId path string true "Version ID"
// @Success 204 {object} response.Envelope
// @Router /documents/{versionId} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.documents.Delete(c.Request.Context(), actor, c.Param("versionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadURL godoc
// @Summary Issue a signed download token for a version
// @Tags Documents
// @Produce json
// @Param versionId path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{versionId}/url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token, expiresAt, err := h.documents.DownloadURL(c.Request.Context(), actor, c.Param("versionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DownloadURLResponse{Token: token, ExpiresAt: expiresAt}, nil)
}

// Download godoc
// @Summary Download a version payload with a signed token
// @Tags Documents
// @Produce application/octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /downloads [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	version, payload, err := h.documents.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+version.Name+`"`)
	c.Data(http.StatusOK, version.MimeType, payload)
}
