package handlers

import (
	"net/http"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/labstack/echo/v4"
)

// MaintenanceHandlers handles maintenance requests from both portals.
type MaintenanceHandlers struct {
	maintenanceService services.MaintenanceService
}

func NewMaintenanceHandlers(maintenanceService services.MaintenanceService) *MaintenanceHandlers {
	return &MaintenanceHandlers{maintenanceService: maintenanceService}
}

// Create handles POST /v1/portal/maintenance for tenant accounts.
func (h *MaintenanceHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendForbiddenError(c)
	}

	var req services.CreateMaintenanceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}
	req.TenantID = tenantID

	mr, err := h.maintenanceService.Create(ctx, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, mr)
}

// ListMine handles GET /v1/portal/maintenance for tenant accounts.
func (h *MaintenanceHandlers) ListMine(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c)
	}
	limit, offset := paginationFromQuery(c)

	reqs, err := h.maintenanceService.ListForTenant(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"limit":    limit,
		"offset":   offset,
	})
}

// ListForTenant handles GET /v1/tenants/:id/maintenance for the owner.
func (h *MaintenanceHandlers) ListForTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset := paginationFromQuery(c)

	reqs, err := h.maintenanceService.ListForTenant(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"limit":    limit,
		"offset":   offset,
	})
}

// ListByStatus handles GET /v1/maintenance?status=open for the owner.
func (h *MaintenanceHandlers) ListByStatus(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "open"
	}
	limit, offset := paginationFromQuery(c)

	reqs, err := h.maintenanceService.ListByStatus(c.Request().Context(), status, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"limit":    limit,
		"offset":   offset,
	})
}

type updateMaintenanceStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /v1/maintenance/:id/status for the owner.
func (h *MaintenanceHandlers) UpdateStatus(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req updateMaintenanceStatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}

	if err := h.maintenanceService.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}
