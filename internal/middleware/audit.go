package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

var auditActions = map[string]string{
	http.MethodPost:   models.AuditActionCreate,
	http.MethodPut:    models.AuditActionUpdate,
	http.MethodPatch:  models.AuditActionUpdate,
	http.MethodDelete: models.AuditActionDelete,
}

// resourceIDParams are the route parameters that identify a resource instance.
var resourceIDParams = []string{"id", "code", "lecturerId"}

// Audit records one entry per successful mutating request. resource is
// derived from the first path segment after prefix.
func Audit(writer AuditWriter, prefix string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		action, mutating := auditActions[c.Request.Method]
		start := time.Now()
		c.Next()

		if !mutating || writer == nil || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  auditResource(c.FullPath(), prefix),
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims, ok := ClaimsFromContext(c); ok {
			userID := claims.UserID
			entry.UserID = &userID
		}
		for _, name := range resourceIDParams {
			if value := c.Param(name); value != "" {
				entry.ResourceID = &value
				break
			}
		}
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})

		if err := writer.Create(c.Request.Context(), entry); err != nil {
			log.Warn("failed to record audit log", zap.String("resource", entry.Resource), zap.Error(err))
		}
	}
}

func auditResource(fullPath, prefix string) string {
	trimmed := strings.Trim(strings.TrimPrefix(fullPath, prefix), "/")
	if trimmed == "" {
		return "unknown"
	}
	segment, _, _ := strings.Cut(trimmed, "/")
	return segment
}
