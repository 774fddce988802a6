package middleware

import (
	"time"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditMiddleware records mutating HTTP requests to the audit log.
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{auditService: auditService}
}

// AuditRequest logs POST/PUT/PATCH/DELETE requests and any request that
// errored. Reads are not recorded.
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			method := c.Request().Method
			if !shouldAudit(method, err) {
				return err
			}

			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			var actorPtr *uuid.UUID
			if ok {
				actorPtr = &userID
			}

			detail := map[string]interface{}{
				"method":     method,
				"path":       c.Path(),
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
				"timestamp":  time.Now().Format(time.RFC3339),
			}
			if err != nil {
				detail["error"] = err.Error()
			}

			m.auditService.Record(ctx, actorPtr, method+" "+c.Path(), "http_request", nil, detail)
			return err
		}
	}
}

func shouldAudit(method string, reqErr error) bool {
	if reqErr != nil {
		return true
	}
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}
