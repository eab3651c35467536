package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/paper-track-api/internal/service"
	appErrors "github.com/noah-isme/paper-track-api/pkg/errors"
	"github.com/noah-isme/paper-track-api/pkg/response"
)

// SessionHandler reads and writes the session settings.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get godoc
// @Summary Current session settings
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	settings, err := h.sessions.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Replace the session settings
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body service.UpdateSessionInput true "Settings"
// @Success 200 {object} response.Envelope
// @Router /session [put]
func (h *SessionHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.UpdateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
		return
	}
	settings, err := h.sessions.Update(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
