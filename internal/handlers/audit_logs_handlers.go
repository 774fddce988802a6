package handlers

import (
	"net/http"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers exposes the audit trail to the owner.
type AuditLogsHandlers struct {
	auditService services.AuditLogsService
}

func NewAuditLogsHandlers(auditService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditService: auditService}
}

// List handles GET /v1/audit-logs
func (h *AuditLogsHandlers) List(c echo.Context) error {
	limit, offset := paginationFromQuery(c)

	var err error
	if entity := c.QueryParam("entity"); entity != "" {
		entityID, idErr := common.ValidateUUID(c.QueryParam("entity_id"), "entity_id")
		if idErr != nil {
			return common.SendError(c, idErr)
		}
		entries, listErr := h.auditService.ListByEntity(c.Request().Context(), entity, entityID, limit, offset)
		if listErr != nil {
			return common.SendError(c, listErr)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"audit_logs": entries,
			"limit":      limit,
			"offset":     offset,
		})
	}

	entries, err := h.auditService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": entries,
		"limit":      limit,
		"offset":     offset,
	})
}
