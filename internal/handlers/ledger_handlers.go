package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rentledger/internal/common"
	"rentledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LedgerHandlers exposes the charge/payment ledger. Owner routes take the
// tenant id from the path; tenant routes take it from the token.
type LedgerHandlers struct {
	ledgerService    services.LedgerServiceInterface
	statementService services.StatementService
	checkoutService  services.CheckoutService
	auditService     services.AuditLogsService
}

func NewLedgerHandlers(
	ledgerService services.LedgerServiceInterface,
	statementService services.StatementService,
	checkoutService services.CheckoutService,
	auditService services.AuditLogsService,
) *LedgerHandlers {
	return &LedgerHandlers{
		ledgerService:    ledgerService,
		statementService: statementService,
		checkoutService:  checkoutService,
		auditService:     auditService,
	}
}

type addChargeRequest struct {
	AmountCents int64   `json:"amount_cents"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

type recordPaymentRequest struct {
	AmountCents int64   `json:"amount_cents"`
	Method      string  `json:"method"`
	Note        *string `json:"note"`
	Reference   *string `json:"reference"`
}

type checkoutRequest struct {
	ChargeID    *string `json:"charge_id"`
	AmountCents int64   `json:"amount_cents"`
	Description string  `json:"description"`
}

// AddCharge handles POST /v1/tenants/:id/charges
func (h *LedgerHandlers) AddCharge(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req addChargeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}
	if err := common.ValidateOptionalString(req.Description, "description", 500); err != nil {
		return common.SendError(c, err)
	}

	ctx := c.Request().Context()

	var chargeDue *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		chargeDue, err = common.ValidateDateFormat(*req.DueDate, "due_date")
		if err != nil {
			return common.SendError(c, err)
		}
	}

	charge, err := h.ledgerService.AddCharge(ctx, tenantID, req.AmountCents, req.Description, chargeDue)
	if err != nil {
		return common.SendError(c, err)
	}

	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		h.auditService.Record(ctx, &actorID, "charge.create", "charge", &charge.ID, map[string]interface{}{
			"tenant_id":    tenantID,
			"amount_cents": charge.AmountCents,
		})
	}

	return c.JSON(http.StatusCreated, charge)
}

// ListCharges handles GET /v1/tenants/:id/charges
func (h *LedgerHandlers) ListCharges(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset := paginationFromQuery(c)

	charges, err := h.ledgerService.ListCharges(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"charges": charges,
		"limit":   limit,
		"offset":  offset,
	})
}

// RecordPayment handles POST /v1/tenants/:id/payments
func (h *LedgerHandlers) RecordPayment(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}
	return h.recordPayment(c, tenantID, &req)
}

// MyRecordPayment handles POST /v1/portal/payments for tenant accounts. The
// tenant id comes from the token, never from the request body.
func (h *LedgerHandlers) MyRecordPayment(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c)
	}

	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}
	return h.recordPayment(c, tenantID, &req)
}

func (h *LedgerHandlers) recordPayment(c echo.Context, tenantID uuid.UUID, req *recordPaymentRequest) error {
	if err := common.ValidateOptionalString(req.Note, "note", 500); err != nil {
		return common.SendError(c, err)
	}

	ctx := c.Request().Context()
	payment, allocation, err := h.ledgerService.RecordPayment(ctx, services.RecordPaymentInput{
		TenantID:    tenantID,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Note:        req.Note,
		Reference:   req.Reference,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		h.auditService.Record(ctx, &actorID, "payment.record", "payment", &payment.ID, map[string]interface{}{
			"tenant_id":    tenantID,
			"amount_cents": payment.AmountCents,
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"payment":    payment,
		"allocation": allocation,
	})
}

// ListPayments handles GET /v1/tenants/:id/payments
func (h *LedgerHandlers) ListPayments(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset := paginationFromQuery(c)

	payments, err := h.ledgerService.ListPayments(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

// Balance handles GET /v1/tenants/:id/balance
func (h *LedgerHandlers) Balance(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	return h.respondBalance(c, tenantID)
}

// MarkChargePaid handles POST /v1/tenants/:id/charges/:chargeID/mark-paid
func (h *LedgerHandlers) MarkChargePaid(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	chargeID, err := common.ValidateUUID(c.Param("chargeID"), "chargeID")
	if err != nil {
		return common.SendError(c, err)
	}

	ctx := c.Request().Context()
	if err := h.ledgerService.MarkChargePaid(ctx, tenantID, chargeID); err != nil {
		return common.SendError(c, err)
	}

	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		h.auditService.Record(ctx, &actorID, "charge.mark_paid", "charge", &chargeID, map[string]interface{}{
			"tenant_id": tenantID,
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "paid"})
}

// Ledger handles GET /v1/tenants/:id/ledger
func (h *LedgerHandlers) Ledger(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	return h.respondLedger(c, tenantID)
}

// Statement handles GET /v1/tenants/:id/statement
func (h *LedgerHandlers) Statement(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	return h.respondStatement(c, tenantID)
}

// MyLedger handles GET /v1/portal/ledger for tenant accounts.
func (h *LedgerHandlers) MyLedger(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c)
	}
	return h.respondLedger(c, tenantID)
}

// MyBalance handles GET /v1/portal/balance for tenant accounts.
func (h *LedgerHandlers) MyBalance(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c)
	}
	return h.respondBalance(c, tenantID)
}

// MyStatement handles GET /v1/portal/statement for tenant accounts.
func (h *LedgerHandlers) MyStatement(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendForbiddenError(c)
	}
	return h.respondStatement(c, tenantID)
}

// CreateCheckoutSession handles POST /v1/portal/checkout for tenant accounts.
func (h *LedgerHandlers) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendForbiddenError(c)
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request body")
	}

	var chargeID *uuid.UUID
	if req.ChargeID != nil && *req.ChargeID != "" {
		id, err := common.ValidateUUID(*req.ChargeID, "charge_id")
		if err != nil {
			return common.SendError(c, err)
		}
		chargeID = &id
	}

	session, err := h.checkoutService.CreateSession(ctx, &services.CheckoutSessionRequest{
		TenantID:    tenantID,
		ChargeID:    chargeID,
		AmountCents: req.AmountCents,
		Description: req.Description,
	})
	if err != nil {
		return common.SendServerError(c, "Failed to create checkout session")
	}

	return c.JSON(http.StatusCreated, session)
}

func (h *LedgerHandlers) respondBalance(c echo.Context, tenantID uuid.UUID) error {
	balance, err := h.ledgerService.Balance(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendError(c, err)
	}

	// Cents only on the wire; dollar formatting is the PDF statement's job.
	amountDue := balance
	if amountDue < 0 {
		amountDue = 0
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant_id":        tenantID,
		"balance_cents":    balance,
		"amount_due_cents": amountDue,
	})
}

func (h *LedgerHandlers) respondLedger(c echo.Context, tenantID uuid.UUID) error {
	limit, offset := paginationFromQuery(c)
	entries, err := h.ledgerService.Ledger(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *LedgerHandlers) respondStatement(c echo.Context, tenantID uuid.UUID) error {
	pdf, err := h.statementService.GenerateStatement(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendError(c, err)
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%s.pdf"`, tenantID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func paginationFromQuery(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return common.ValidatePaginationParams(limit, offset)
}
