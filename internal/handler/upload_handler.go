package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/internal/service"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/response"
)

type uploadService interface {
	Store(ctx context.Context, kind models.UploadKind, size int64, r io.Reader) (*models.StoredUpload, error)
	Resolve(ctx context.Context, token string) (*service.UploadDownload, error)
}

// UploadHandler accepts applicant documents and serves them back via signed links.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(svc uploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Upload godoc
// @Summary Upload applicant document
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param kind formData string true "cv, toefl, 360 or photo"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "file", Message: "file is required"}))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	stored, err := h.service.Store(c.Request.Context(), models.UploadKind(c.PostForm("kind")), header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// Download godoc
// @Summary Download applicant document
// @Tags Uploads
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	download, err := h.service.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamFile(c, download.File, download.Filename, download.ContentType)
}
