package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/models"
)

type auditWriterStub struct {
	entries []*models.AuditLog
}

func (s *auditWriterStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	writer := &auditWriterStub{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", NIP: "100"})
		c.Next()
	})
	group := router.Group("/positions", Audit(writer, "positions", nil))
	group.GET("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	group.PUT("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	group.DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/positions/p1", nil))
	}

	require.Len(t, writer.entries, 1)
	entry := writer.entries[0]
	assert.Equal(t, "UPDATE", entry.Action)
	assert.Equal(t, "positions", entry.Resource)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "p1", *entry.ResourceID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u1", *entry.UserID)
	assert.Contains(t, string(entry.NewValues), `"nip":"100"`)
}
