package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
	"github.com/noah-isme/rekrut-api/pkg/storage"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newUploadFixture(t *testing.T, maxSize int64) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("upload-secret", time.Hour)
	return NewUploadService(store, signer, NewMetricsService(), zap.NewNop(), UploadConfig{APIPrefix: "/api/v1", MaxSize: maxSize})
}

func TestUploadServiceStoreAndResolve(t *testing.T) {
	svc := newUploadFixture(t, 1024)
	ctx := context.Background()

	stored, err := svc.Store(ctx, models.UploadKindCV, int64(len(samplePDF)), bytes.NewReader(samplePDF))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", stored.MIMEType)
	assert.True(t, strings.HasPrefix(stored.File, "cv/"))
	assert.True(t, strings.HasSuffix(stored.File, ".pdf"))
	assert.Equal(t, int64(len(samplePDF)), stored.Size)
	require.True(t, strings.HasPrefix(stored.URL, "/api/v1/files/"))

	token := strings.TrimPrefix(stored.URL, "/api/v1/files/")
	download, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)

	_, err = svc.Resolve(ctx, token+"0")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUploadServiceRejections(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		kind  models.UploadKind
		size  int64
		body  []byte
		field string
	}{
		{"unknown kind", "passport", 10, samplePDF, "kind"},
		{"declared too large", models.UploadKindCV, 4096, samplePDF, "file"},
		{"disallowed type", models.UploadKindPhoto, 20, []byte("plain text, not a document"), "file"},
		{"empty body", models.UploadKindCV, 0, nil, "file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newUploadFixture(t, 1024)
			_, err := svc.Store(ctx, tc.kind, tc.size, bytes.NewReader(tc.body))
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, 422, appErr.Status)
			require.Len(t, appErr.Fields, 1)
			assert.Equal(t, tc.field, appErr.Fields[0].Field)
		})
	}
}

func TestUploadServiceStreamLargerThanDeclared(t *testing.T) {
	svc := newUploadFixture(t, 64)
	body := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 128)...)

	_, err := svc.Store(context.Background(), models.UploadKindToefl, 10, bytes.NewReader(body))
	require.Error(t, err)
	assert.Equal(t, "file", appErrors.FromError(err).Fields[0].Field)
}
