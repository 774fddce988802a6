package handlers

import (
	"net/http"
	"strconv"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles the owner's tenant management endpoints.
type TenantHandlers struct {
	tenantService services.TenantService
	auditService  services.AuditLogsService
}

func NewTenantHandlers(tenantService services.TenantService, auditService services.AuditLogsService) *TenantHandlers {
	return &TenantHandlers{
		tenantService: tenantService,
		auditService:  auditService,
	}
}

// Provision handles POST /v1/tenants
func (h *TenantHandlers) Provision(c echo.Context) error {
	var req services.ProvisionTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}

	ctx := c.Request().Context()
	result, err := h.tenantService.Provision(ctx, &req)
	if err != nil {
		return common.SendError(c, err)
	}

	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		h.auditService.Record(ctx, &actorID, "tenant.provision", "tenant", &result.Tenant.ID, map[string]string{
			"email": result.Tenant.Email,
		})
	}

	return c.JSON(http.StatusCreated, result)
}

// Get handles GET /v1/tenants/:id
func (h *TenantHandlers) Get(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// Update handles PUT /v1/tenants/:id
func (h *TenantHandlers) Update(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}
	req.ID = id

	if err := h.tenantService.Update(c.Request().Context(), &req); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

// Delete handles DELETE /v1/tenants/:id
func (h *TenantHandlers) Delete(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	ctx := c.Request().Context()
	if err := h.tenantService.Delete(ctx, id); err != nil {
		return common.SendError(c, err)
	}

	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		h.auditService.Record(ctx, &actorID, "tenant.delete", "tenant", &id, nil)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// List handles GET /v1/tenants
func (h *TenantHandlers) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	tenants, err := h.tenantService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"limit":   limit,
		"offset":  offset,
	})
}

// Summaries handles GET /v1/tenants/summaries
func (h *TenantHandlers) Summaries(c echo.Context) error {
	summaries, err := h.tenantService.Summaries(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"summaries": summaries})
}

// Me handles GET /v1/me for tenant accounts.
func (h *TenantHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendForbiddenError(c)
	}

	tenant, err := h.tenantService.GetByID(ctx, tenantID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}
