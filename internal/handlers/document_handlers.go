package handlers

import (
	"net/http"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DocumentHandlers handles tenant document uploads and listings.
type DocumentHandlers struct {
	documentService services.DocumentService
}

func NewDocumentHandlers(documentService services.DocumentService) *DocumentHandlers {
	return &DocumentHandlers{documentService: documentService}
}

// Upload handles POST /v1/tenants/:id/documents (owner) and
// POST /v1/portal/documents (tenant).
func (h *DocumentHandlers) Upload(c echo.Context) error {
	tenantID, err := h.resolveTenantID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "A file is required")
	}
	category := c.FormValue("category")

	src, err := fileHeader.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	doc, err := h.documentService.Upload(
		c.Request().Context(),
		tenantID,
		fileHeader.Filename,
		category,
		fileHeader.Header.Get("Content-Type"),
		src,
		fileHeader.Size,
	)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// List handles GET /v1/tenants/:id/documents and GET /v1/portal/documents.
func (h *DocumentHandlers) List(c echo.Context) error {
	tenantID, err := h.resolveTenantID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	docs, err := h.documentService.List(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documents": docs})
}

// Delete handles DELETE /v1/tenants/:id/documents/:docID.
func (h *DocumentHandlers) Delete(c echo.Context) error {
	tenantID, err := h.resolveTenantID(c)
	if err != nil {
		return common.SendError(c, err)
	}
	docID, err := common.ValidateUUID(c.Param("docID"), "docID")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.documentService.Delete(c.Request().Context(), tenantID, docID); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// resolveTenantID uses the path param on owner routes and the token on portal
// routes.
func (h *DocumentHandlers) resolveTenantID(c echo.Context) (uuid.UUID, error) {
	if idStr := c.Param("id"); idStr != "" {
		return common.ValidateUUID(idStr, "id")
	}
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, common.ValidationErrorf("no tenant in request context")
	}
	return tenantID, nil
}
