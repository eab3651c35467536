package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/paper-track-api/internal/middleware"
	"github.com/noah-isme/paper-track-api/internal/models"
)

func multipartUpload(t *testing.T, fields map[string]string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile("file", "scan.pdf")
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestDocumentHandlerUploadRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, 1024)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, contentType := multipartUpload(t, map[string]string{"name": "paper", "variant": "COPY"}, []byte("pdf"))
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Upload(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentHandlerUploadMissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, 1024)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, contentType := multipartUpload(t, map[string]string{"name": "paper"}, []byte("pdf"))
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandlerUploadMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, 1024)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, contentType := multipartUpload(t, map[string]string{"name": "paper", "variant": "COPY"}, nil)
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandlerUploadRejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, 8)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, contentType := multipartUpload(t, map[string]string{"name": "paper", "variant": "COPY"}, bytes.Repeat([]byte("x"), 64))
	req, _ := http.NewRequest(http.MethodPost, "/papers/paper-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Upload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, 1024)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/downloads", nil)
	c.Request = req

	handler.Download(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
