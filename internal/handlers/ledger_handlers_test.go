package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) AddCharge(ctx context.Context, tenantID uuid.UUID, amountCents int64, description *string, dueDate *time.Time) (*models.Charge, error) {
	args := m.Called(ctx, tenantID, amountCents, description, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Charge), args.Error(1)
}

func (m *MockLedgerService) RecordPayment(ctx context.Context, input services.RecordPaymentInput) (*models.Payment, *services.AllocationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Payment), args.Get(1).(*services.AllocationResult), args.Error(2)
}

func (m *MockLedgerService) ApplyExternalPayment(ctx context.Context, event services.ExternalPaymentEvent) (*services.AllocationResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AllocationResult), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) RefreshBalance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) MarkChargePaid(ctx context.Context, tenantID, chargeID uuid.UUID) error {
	args := m.Called(ctx, tenantID, chargeID)
	return args.Error(0)
}

func (m *MockLedgerService) Ledger(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]services.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) ListCharges(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Charge, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Charge), args.Error(1)
}

func (m *MockLedgerService) ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func portalPaymentContext(t *testing.T, body string, tenantID *uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/portal/payments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tenantID != nil {
		req = req.WithContext(context.WithValue(req.Context(), common.TenantIDKey, *tenantID))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestMyRecordPayment_TenantComesFromToken(t *testing.T) {
	ledgerSvc := new(MockLedgerService)
	h := NewLedgerHandlers(ledgerSvc, nil, nil, nil)
	tenantID := uuid.New()

	// The body has no tenant id; the one in the token must be used.
	c, rec := portalPaymentContext(t, `{"amount_cents":50000,"method":"manual"}`, &tenantID)

	payment := &models.Payment{ID: uuid.New(), TenantID: tenantID, AmountCents: 50000, Method: "manual", Status: models.PaymentStatusPaid}
	ledgerSvc.On("RecordPayment", mock.Anything, services.RecordPaymentInput{
		TenantID:    tenantID,
		AmountCents: 50000,
		Method:      "manual",
	}).Return(payment, &services.AllocationResult{RemainderCents: 0}, nil)

	err := h.MyRecordPayment(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	ledgerSvc.AssertExpectations(t)
}

func TestMyRecordPayment_MissingTenantScope(t *testing.T) {
	ledgerSvc := new(MockLedgerService)
	h := NewLedgerHandlers(ledgerSvc, nil, nil, nil)

	c, rec := portalPaymentContext(t, `{"amount_cents":50000}`, nil)

	err := h.MyRecordPayment(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	ledgerSvc.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything)
}
