package handlers

import (
	"net/http"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/labstack/echo/v4"
)

// OnboardingHandlers drives the Section 8 onboarding checklist.
type OnboardingHandlers struct {
	onboardingService services.OnboardingService
}

func NewOnboardingHandlers(onboardingService services.OnboardingService) *OnboardingHandlers {
	return &OnboardingHandlers{onboardingService: onboardingService}
}

// MyChecklist handles GET /v1/portal/onboarding for tenant accounts.
func (h *OnboardingHandlers) MyChecklist(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c)
	}

	items, err := h.onboardingService.Checklist(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// SubmitStep handles POST /v1/portal/onboarding/:stepID/submit. Steps that
// require an upload take a multipart file field.
func (h *OnboardingHandlers) SubmitStep(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendForbiddenError(c)
	}
	stepID, err := common.ValidateUUID(c.Param("stepID"), "stepID")
	if err != nil {
		return common.SendError(c, err)
	}

	var upload *services.StepUpload
	if fileHeader, err := c.FormFile("file"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			return common.SendServerError(c, "Failed to read uploaded file")
		}
		defer src.Close()
		upload = &services.StepUpload{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Reader:      src,
			Size:        fileHeader.Size,
		}
	}

	if err := h.onboardingService.SubmitStep(ctx, tenantID, stepID, upload); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "submitted"})
}

type reviewStepRequest struct {
	Approve bool `json:"approve"`
}

// Checklist handles GET /v1/tenants/:id/onboarding for the owner.
func (h *OnboardingHandlers) Checklist(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	items, err := h.onboardingService.Checklist(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// ReviewStep handles POST /v1/tenants/:id/onboarding/:stepID/review.
func (h *OnboardingHandlers) ReviewStep(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	stepID, err := common.ValidateUUID(c.Param("stepID"), "stepID")
	if err != nil {
		return common.SendError(c, err)
	}

	var req reviewStepRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}

	if err := h.onboardingService.ReviewStep(c.Request().Context(), tenantID, stepID, req.Approve); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "reviewed"})
}
