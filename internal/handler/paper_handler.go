package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/paper-track-api/internal/dto"
	"github.com/noah-isme/paper-track-api/internal/models"
	"github.com/noah-isme/paper-track-api/internal/service"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/response"
)

// PaperHandler manages the paper lifecycle endpoints.
type PaperHandler struct {
	papers *service.PaperService
}

// NewPaperHandler constructs the handler.
func NewPaperHandler(papers *service.PaperService) *PaperHandler {
	return &PaperHandler{papers: papers}
}

// Get godoc
// @Summary Get a paper
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id} [get]
func (h *PaperHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	paper, err := h.papers.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// GetOwn godoc
// @Summary Get the authenticated student's paper
// @Tags Papers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/paper [get]
func (h *PaperHandler) GetOwn(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	paper, err := h.papers.GetOwn(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// List godoc
// @Summary List papers
// @Tags Papers
// @Produce json
// @Param submitted query bool false "Filter by submitted"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.PaperFilter{
		StudentID:   c.Query("studentId"),
		CommitteeID: c.Query("committeeId"),
	}
	if raw := c.Query("submitted"); raw != "" {
		submitted, err := strconv.ParseBool(raw)
		if err == nil {
			filter.Submitted = &submitted
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	papers, err := h.papers.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, papers, nil)
}

// Create godoc
// @Summary Register a paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param payload body service.CreatePaperInput true "Paper"
// @Success 201 {object} response.Envelope
// @Router /papers [post]
func (h *PaperHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.CreatePaperInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid paper payload"))
		return
	}
	paper, err := h.papers.Create(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}

// UpdateTitle godoc
// @Summary Update a paper's title
// @Tags Papers
// @Accept json
// @Param id path string true "Paper ID"
// @Param payload body dto.UpdatePaperTitleRequest true "Title"
// @Success 204 {object} response.Envelope
// @Router /papers/{id} [patch]
func (h *PaperHandler) UpdateTitle(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdatePaperTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "title is required"))
		return
	}
	if err := h.papers.UpdateTitle(c.Request.Context(), actor, c.Param("id"), req.Title, req.Description); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Mark a paper as handed in
// @Tags Papers
// @Param id path string true "Paper ID"
// @Success 204 {object} response.Envelope
// @Router /papers/{id}/submit [post]
func (h *PaperHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.papers.Submit(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Record the committee's validity ruling
// @Tags Papers
// @Accept json
// @Param id path string true "Paper ID"
// @Param payload body dto.ValidatePaperRequest true "Ruling"
// @Success 204 {object} response.Envelope
// @Router /papers/{id}/validate [post]
func (h *PaperHandler) Validate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ValidatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsValid == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "is_valid is required"))
		return
	}
	if err := h.papers.Validate(c.Request.Context(), actor, c.Param("id"), *req.IsValid); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Grade godoc
// @Summary Record the final grade
// @Tags Papers
// @Accept json
// @Param id path string true "Paper ID"
// @Param payload body dto.GradePaperRequest true "Grade"
// @Success 204 {object} response.Envelope
// @Router /papers/{id}/grade [post]
func (h *PaperHandler) Grade(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.GradePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "grade is required"))
		return
	}
	if err := h.papers.SetGrade(c.Request.Context(), actor, c.Param("id"), req.Grade); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignCommittee godoc
// @Summary Attach a defense committee
// @Tags Papers
// @Accept json
// @Param id path string true "Paper ID"
// @Param payload body dto.AssignCommitteeRequest true "Committee"
// @Success 204 {object} response.Envelope
// @Router /papers/{id}/committee [post]
func (h *PaperHandler) AssignCommittee(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AssignCommitteeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "committee_id is required"))
		return
	}
	if err := h.papers.AssignCommittee(c.Request.Context(), actor, c.Param("id"), req.CommitteeID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
