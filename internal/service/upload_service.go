package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/storage"
)

const sniffLength = 512

type uploadStorage interface {
	SaveStream(relPath string, r io.Reader, limit int64) (int64, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
}

// UploadConfig bounds accepted applicant documents.
type UploadConfig struct {
	APIPrefix    string
	MaxSize      int64
	AllowedMIMEs []string
}

// UploadDownload is an opened applicant document ready to stream.
type UploadDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// UploadService stores applicant documents and issues signed links to them.
type UploadService struct {
	storage uploadStorage
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     UploadConfig
	allowed map[string]struct{}
}

// NewUploadService constructs an UploadService.
func NewUploadService(store uploadStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, cfg UploadConfig) *UploadService {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &UploadService{
		storage: store,
		signer:  signer,
		metrics: metrics,
		logger:  defaultLogger(logger),
		cfg:     cfg,
		allowed: allowed,
	}
}

// Store validates and persists one document of the given kind. size is the
// client-declared length; the stream itself is also capped.
func (s *UploadService) Store(ctx context.Context, kind models.UploadKind, size int64, r io.Reader) (*models.StoredUpload, error) {
	if !kind.Valid() {
		return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "kind", Message: "kind must be one of [cv, toefl, 360, photo]"})
	}
	if size > s.cfg.MaxSize {
		return nil, s.tooLarge()
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, persistence(s.logger, err, "adding", "upload")
	}
	head = head[:n]
	if n == 0 {
		return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "file", Message: "file is required"})
	}
	mimeType := detectMIME(head)
	if _, ok := s.allowed[mimeType]; !ok {
		return nil, appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{Field: "file", Message: fmt.Sprintf("file type %s is not allowed", mimeType)})
	}

	relPath := path.Join(string(kind), uuid.NewString()+extensionFor(mimeType))
	written, err := s.storage.SaveStream(relPath, io.MultiReader(bytes.NewReader(head), r), s.cfg.MaxSize+1)
	if err != nil {
		return nil, persistence(s.logger, err, "adding", "upload")
	}
	if written > s.cfg.MaxSize {
		if err := s.storage.Delete(relPath); err != nil {
			s.logger.Warn("failed to remove oversized upload", zap.String("path", relPath), zap.Error(err))
		}
		return nil, s.tooLarge()
	}

	token, expiresAt, err := s.signer.Generate(string(kind), relPath)
	if err != nil {
		return nil, persistence(s.logger, err, "adding", "upload")
	}
	s.metrics.UploadStored(string(kind))
	s.logger.Info("upload stored", zap.String("kind", string(kind)), zap.String("path", relPath), zap.Int64("size", written))
	return &models.StoredUpload{
		File:      relPath,
		Kind:      kind,
		MIMEType:  mimeType,
		Size:      written,
		URL:       s.fileURL(token),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates token and opens the document it grants.
func (s *UploadService) Resolve(ctx context.Context, token string) (*UploadDownload, error) {
	signed, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired file token")
	}
	if !models.UploadKind(signed.Subject).Valid() || !strings.HasPrefix(signed.Path, signed.Subject+"/") {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired file token")
	}
	file, err := s.storage.Open(signed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.NotFound("File")
		}
		return nil, persistence(s.logger, err, "retrieving", "file")
	}
	contentType := mime.TypeByExtension(path.Ext(signed.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &UploadDownload{File: file, Filename: path.Base(signed.Path), ContentType: contentType}, nil
}

func (s *UploadService) tooLarge() error {
	return appErrors.Validation(appErrors.ErrValidation.Message, appErrors.FieldError{
		Field:   "file",
		Message: fmt.Sprintf("file must be at most %d bytes", s.cfg.MaxSize),
	})
}

func (s *UploadService) fileURL(token string) string {
	return fmt.Sprintf("%s/files/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
}

func detectMIME(head []byte) string {
	detected := http.DetectContentType(head)
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = detected[:idx]
	}
	return strings.ToLower(strings.TrimSpace(detected))
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
