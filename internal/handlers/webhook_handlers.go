package handlers

import (
	"io"
	"net/http"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// WebhookHandlers receives payment notifications from the checkout provider.
type WebhookHandlers struct {
	checkoutService services.CheckoutService
	ledgerService   services.LedgerServiceInterface
}

func NewWebhookHandlers(checkoutService services.CheckoutService, ledgerService services.LedgerServiceInterface) *WebhookHandlers {
	return &WebhookHandlers{
		checkoutService: checkoutService,
		ledgerService:   ledgerService,
	}
}

// PaymentWebhook handles POST /v1/webhooks/payments. The signature is checked
// before anything is parsed; unverified payloads never reach the ledger.
func (h *WebhookHandlers) PaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("X-Webhook-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing webhook signature")
	}

	event, err := h.checkoutService.VerifyWebhook(body, signature)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	if event.Type != "payment.succeeded" {
		// Acknowledge unknown events so the provider stops retrying
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ignored",
			"event":  event.Type,
		})
	}

	tenantIDStr, ok := event.Metadata["tenant_id"]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing tenant_id in event metadata")
	}
	tenantID, err := uuid.Parse(tenantIDStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid tenant_id in event metadata")
	}

	var chargeID *uuid.UUID
	if chargeIDStr, ok := event.Metadata["charge_id"]; ok && chargeIDStr != "" {
		id, err := uuid.Parse(chargeIDStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid charge_id in event metadata")
		}
		chargeID = &id
	}

	allocation, err := h.ledgerService.ApplyExternalPayment(c.Request().Context(), services.ExternalPaymentEvent{
		TenantID:    tenantID,
		ChargeID:    chargeID,
		AmountCents: event.Amount,
		Reference:   event.ID,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "processed",
		"event":      event.Type,
		"allocation": allocation,
	})
}
