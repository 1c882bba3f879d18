package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/models"
)

// AuditWriter persists audit trail rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records one audit row for every successful mutation on resource. The
// action is derived from the HTTP method; the :id route parameter, when
// present, becomes the resource id.
func Audit(writer AuditWriter, resource string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		action := auditAction(c.Request.Method)
		if writer == nil || action == "" || c.Writer.Status() >= 400 {
			return
		}

		actor := Actor(c)
		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: actor.IP,
			UserAgent: actor.UserAgent,
			CreatedAt: start,
		}
		if actor.UserID != "" {
			entry.UserID = &actor.UserID
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"nip":     actor.NIP,
			"latency": time.Since(start).Milliseconds(),
		})

		if err := writer.CreateAuditLog(c.Request.Context(), entry); err != nil {
			log.Warn("audit log write failed", zap.String("resource", resource), zap.Error(err))
		}
	}
}

func auditAction(method string) string {
	switch method {
	case "POST":
		return "CREATE"
	case "PUT", "PATCH":
		return "UPDATE"
	case "DELETE":
		return "DELETE"
	}
	return ""
}
