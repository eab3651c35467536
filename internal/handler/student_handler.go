package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/paper-track-api/internal/service"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/response"
)

// StudentHandler manages student profile endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// GetProfile godoc
// @Summary Get a student profile
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) GetProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.students.GetProfile(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateExtraData godoc
// @Summary Save the enrollment form of a student
// @Tags Students
// @Accept json
// @Param id path string true "Student ID"
// @Param payload body service.ExtraDataInput true "Enrollment data"
// @Success 204 {object} response.Envelope
// @Router /students/{id}/extra-data [put]
func (h *StudentHandler) UpdateExtraData(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.ExtraDataInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment payload"))
		return
	}
	if err := h.students.UpdateExtraData(c.Request.Context(), actor, c.Param("id"), input); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
