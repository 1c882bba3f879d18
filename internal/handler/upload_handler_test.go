package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/internal/service"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type uploadServiceMock struct {
	kind     models.UploadKind
	received []byte
	file     string
}

func (m *uploadServiceMock) Store(ctx context.Context, kind models.UploadKind, size int64, r io.Reader) (*models.StoredUpload, error) {
	m.kind = kind
	m.received, _ = io.ReadAll(r)
	return &models.StoredUpload{File: "cv/abc.pdf", Kind: kind, Size: size}, nil
}

func (m *uploadServiceMock) Resolve(ctx context.Context, token string) (*service.UploadDownload, error) {
	if token != "valid" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired file token")
	}
	f, err := os.Open(m.file)
	if err != nil {
		return nil, err
	}
	return &service.UploadDownload{File: f, Filename: "abc.pdf", ContentType: "application/pdf"}, nil
}

func multipartRequest(t *testing.T, kind string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("kind", kind))
	if content != nil {
		part, err := writer.CreateFormFile("file", "cv.pdf")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadHandlerStoresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &uploadServiceMock{}
	handler := NewUploadHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "cv", []byte("%PDF-1.4 body"))

	handler.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.UploadKindCV, svc.kind)
	assert.Equal(t, []byte("%PDF-1.4 body"), svc.received)
}

func TestUploadHandlerRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUploadHandler(&uploadServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "cv", nil)

	handler.Upload(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUploadHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "abc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stored"), 0o600))
	handler := NewUploadHandler(&uploadServiceMock{file: path})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/files/valid", nil)
	c.Params = gin.Params{{Key: "token", Value: "valid"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "abc.pdf")
	assert.Equal(t, "%PDF-1.4 stored", w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/files/forged", nil)
	c.Params = gin.Params{{Key: "token", Value: "forged"}}
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
