package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paper-track-api/internal/middleware"
	"github.com/noah-isme/paper-track-api/internal/models"
)

func staffContext(w *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "secretary-1", Role: models.RoleSecretary})
	return c, r
}

func TestPaperHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(nil)
	w := httptest.NewRecorder()
	c, _ := staffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/papers", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaperHandlerValidateRequiresDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(nil)
	w := httptest.NewRecorder()
	c, _ := staffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/validate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	handler.Validate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaperHandlerGradeInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(nil)
	w := httptest.NewRecorder()
	c, _ := staffContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/grade", bytes.NewReader([]byte(`{"grade":"ten"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	handler.Grade(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaperHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaperHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/submit", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "paper-1"}}

	handler.Submit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
