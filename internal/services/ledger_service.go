package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"rentledger/internal/caching"
	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	balanceCacheTTL   = 5 * time.Minute
	allocationLockTTL = 30 * time.Second
)

// AllocationResult describes what happened to a payment after it was recorded.
// PaidChargeIDs are the charges the payment fully covered, in the order they
// were settled. RemainderCents is whatever was left after the walk stopped.
type AllocationResult struct {
	PaidChargeIDs  []uuid.UUID `json:"paid_charge_ids"`
	RemainderCents int64       `json:"remainder_cents"`
	Warning        string      `json:"warning,omitempty"`
}

// RecordPaymentInput carries everything needed to record a manual payment.
type RecordPaymentInput struct {
	TenantID    uuid.UUID
	AmountCents int64
	Method      string
	Note        *string
	Reference   *string
}

// ExternalPaymentEvent is a verified payment notification from the checkout
// provider. ChargeID is set when the checkout session was opened for a single
// charge; otherwise the payment is allocated across the tenant's unpaid charges.
type ExternalPaymentEvent struct {
	TenantID    uuid.UUID
	ChargeID    *uuid.UUID
	AmountCents int64
	Reference   string
}

// LedgerEntry is a charge or payment flattened onto one timeline row.
type LedgerEntry struct {
	Kind        string     `json:"kind"` // "charge" or "payment"
	ID          uuid.UUID  `json:"id"`
	AmountCents int64      `json:"amount_cents"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsPaid      *bool      `json:"is_paid,omitempty"`
	Method      string     `json:"method,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type LedgerServiceInterface interface {
	AddCharge(ctx context.Context, tenantID uuid.UUID, amountCents int64, description *string, dueDate *time.Time) (*models.Charge, error)
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, *AllocationResult, error)
	ApplyExternalPayment(ctx context.Context, event ExternalPaymentEvent) (*AllocationResult, error)
	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	RefreshBalance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	MarkChargePaid(ctx context.Context, tenantID, chargeID uuid.UUID) error
	Ledger(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]LedgerEntry, error)
	ListCharges(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Charge, error)
	ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Payment, error)
}

type ledgerService struct {
	chargeRepo  repositories.ChargeRepository
	paymentRepo repositories.PaymentRepository
	tenantRepo  repositories.TenantRepository
	cache       caching.CacheService
}

func NewLedgerService(chargeRepo repositories.ChargeRepository, paymentRepo repositories.PaymentRepository, tenantRepo repositories.TenantRepository, cache caching.CacheService) LedgerServiceInterface {
	return &ledgerService{
		chargeRepo:  chargeRepo,
		paymentRepo: paymentRepo,
		tenantRepo:  tenantRepo,
		cache:       cache,
	}
}

func (s *ledgerService) AddCharge(ctx context.Context, tenantID uuid.UUID, amountCents int64, description *string, dueDate *time.Time) (*models.Charge, error) {
	if err := common.ValidateAmountCents(amountCents, "amount_cents"); err != nil {
		return nil, err
	}
	if _, err := s.tenantRepo.GetByID(ctx, tenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundErrorf("tenant %s", tenantID)
		}
		return nil, common.StoreError("fetch tenant", tenantID, err)
	}

	charge := &models.Charge{
		ID:          uuid.New(),
		TenantID:    tenantID,
		AmountCents: amountCents,
		Description: description,
		DueDate:     dueDate,
	}
	if err := s.chargeRepo.Create(ctx, charge); err != nil {
		return nil, common.StoreError("create charge", tenantID, err)
	}

	s.invalidateBalance(ctx, tenantID)
	return charge, nil
}

// RecordPayment persists the payment first and only then tries to allocate it.
// A failed allocation never loses the payment: the row stays and the caller
// gets a warning instead of an error.
func (s *ledgerService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, *AllocationResult, error) {
	if err := common.ValidateAmountCents(input.AmountCents, "amount_cents"); err != nil {
		return nil, nil, err
	}
	if _, err := s.tenantRepo.GetByID(ctx, input.TenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, common.NotFoundErrorf("tenant %s", input.TenantID)
		}
		return nil, nil, common.StoreError("fetch tenant", input.TenantID, err)
	}

	method := input.Method
	if method == "" {
		method = "manual"
	}
	payment := &models.Payment{
		ID:          uuid.New(),
		TenantID:    input.TenantID,
		AmountCents: input.AmountCents,
		Method:      method,
		Note:        input.Note,
		Reference:   input.Reference,
		Status:      models.PaymentStatusPaid,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, nil, common.StoreError("create payment", input.TenantID, err)
	}

	result := s.allocate(ctx, input.TenantID, input.AmountCents)
	s.invalidateBalance(ctx, input.TenantID)
	return payment, result, nil
}

// allocate walks the tenant's unpaid charges oldest-due-first and marks each
// one paid while the remaining amount covers it in full. The walk stops at the
// first charge it cannot fully cover; the remainder stays unapplied as credit.
// Any failure is reported as a warning, never as an error.
func (s *ledgerService) allocate(ctx context.Context, tenantID uuid.UUID, amountCents int64) *AllocationResult {
	result := &AllocationResult{RemainderCents: amountCents}

	acquired, err := s.cache.AcquireAllocationLock(ctx, tenantID, allocationLockTTL)
	if err != nil {
		log.Printf("WARN: allocation lock error for tenant %s: %v", tenantID, err)
		result.Warning = "payment recorded but not allocated: allocation lock unavailable"
		return result
	}
	if !acquired {
		result.Warning = "payment recorded but not allocated: another allocation is in progress"
		return result
	}
	defer func() {
		if relErr := s.cache.ReleaseAllocationLock(ctx, tenantID); relErr != nil {
			log.Printf("WARN: failed to release allocation lock for tenant %s: %v", tenantID, relErr)
		}
	}()

	unpaid, err := s.chargeRepo.ListUnpaid(ctx, tenantID)
	if err != nil {
		log.Printf("WARN: payment recorded for tenant %s but unpaid charges could not be fetched: %v", tenantID, err)
		result.Warning = "payment recorded but not allocated: failed to fetch unpaid charges"
		return result
	}

	remaining := amountCents
	for _, charge := range unpaid {
		// A charge with a non-positive amount is corrupt data. Skipping it keeps
		// the walk from marking it paid and from inflating the remainder.
		if charge.AmountCents <= 0 {
			log.Printf("WARN: skipping charge %s with non-positive amount %d during allocation for tenant %s", charge.ID, charge.AmountCents, tenantID)
			continue
		}
		if remaining < charge.AmountCents {
			break
		}
		if err := s.chargeRepo.MarkPaid(ctx, charge.ID); err != nil {
			log.Printf("WARN: failed to mark charge %s paid during allocation for tenant %s: %v", charge.ID, tenantID, err)
			result.Warning = fmt.Sprintf("payment recorded but allocation stopped at charge %s", charge.ID)
			result.RemainderCents = remaining
			return result
		}
		remaining -= charge.AmountCents
		result.PaidChargeIDs = append(result.PaidChargeIDs, charge.ID)
	}

	result.RemainderCents = remaining
	return result
}

// ApplyExternalPayment handles a verified provider notification. Events are
// deduplicated on the provider reference so webhook retries are no-ops. When
// the event names a charge, only that charge is settled; otherwise the amount
// runs through the normal allocation walk.
func (s *ledgerService) ApplyExternalPayment(ctx context.Context, event ExternalPaymentEvent) (*AllocationResult, error) {
	if err := common.ValidateAmountCents(event.AmountCents, "amount"); err != nil {
		return nil, err
	}
	if event.Reference == "" {
		return nil, common.ValidationErrorf("external payment reference is required")
	}

	seen, err := s.paymentRepo.ExistsByReference(ctx, event.Reference)
	if err != nil {
		return nil, common.StoreError("check payment reference", event.TenantID, err)
	}
	if seen {
		log.Printf("INFO: duplicate external payment %s for tenant %s ignored", event.Reference, event.TenantID)
		return &AllocationResult{}, nil
	}

	ref := event.Reference
	payment := &models.Payment{
		ID:          uuid.New(),
		TenantID:    event.TenantID,
		AmountCents: event.AmountCents,
		Method:      "checkout",
		Reference:   &ref,
		Status:      models.PaymentStatusPaid,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, common.StoreError("create external payment", event.TenantID, err)
	}

	var result *AllocationResult
	if event.ChargeID != nil {
		result = &AllocationResult{RemainderCents: event.AmountCents}
		charge, err := s.chargeRepo.GetByID(ctx, *event.ChargeID)
		if err != nil || charge.TenantID != event.TenantID {
			log.Printf("WARN: external payment %s names unknown charge %s", event.Reference, *event.ChargeID)
			result.Warning = "payment recorded but referenced charge was not found"
		} else if err := s.chargeRepo.MarkPaid(ctx, *event.ChargeID); err != nil {
			log.Printf("WARN: failed to mark charge %s paid for external payment %s: %v", *event.ChargeID, event.Reference, err)
			result.Warning = "payment recorded but charge could not be marked paid"
		} else {
			result.PaidChargeIDs = []uuid.UUID{*event.ChargeID}
			if event.AmountCents >= charge.AmountCents {
				result.RemainderCents = event.AmountCents - charge.AmountCents
			} else {
				result.RemainderCents = 0
			}
		}
	} else {
		result = s.allocate(ctx, event.TenantID, event.AmountCents)
	}

	s.invalidateBalance(ctx, event.TenantID)
	return result, nil
}

// Balance is the tenant's lifetime position: total charged minus total paid.
// Positive means the tenant owes money, negative means they carry credit.
func (s *ledgerService) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if cached, ok, err := s.cache.GetBalance(ctx, tenantID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("WARN: balance cache read failed for tenant %s: %v", tenantID, err)
	}
	return s.RefreshBalance(ctx, tenantID)
}

// RefreshBalance recomputes the balance from the ledger tables and repopulates
// the cache.
func (s *ledgerService) RefreshBalance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	charged, err := s.chargeRepo.SumAmounts(ctx, tenantID)
	if err != nil {
		return 0, common.StoreError("sum charges", tenantID, err)
	}
	paid, err := s.paymentRepo.SumPaid(ctx, tenantID)
	if err != nil {
		return 0, common.StoreError("sum payments", tenantID, err)
	}

	balance := charged - paid
	if err := s.cache.SetBalance(ctx, tenantID, balance, balanceCacheTTL); err != nil {
		log.Printf("WARN: balance cache write failed for tenant %s: %v", tenantID, err)
	}
	return balance, nil
}

func (s *ledgerService) MarkChargePaid(ctx context.Context, tenantID, chargeID uuid.UUID) error {
	charge, err := s.chargeRepo.GetByID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundErrorf("charge %s", chargeID)
		}
		return common.StoreError("fetch charge", tenantID, err)
	}
	if charge.TenantID != tenantID {
		return common.NotFoundErrorf("charge %s", chargeID)
	}

	if err := s.chargeRepo.MarkPaid(ctx, chargeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundErrorf("charge %s", chargeID)
		}
		return common.StoreError("mark charge paid", tenantID, err)
	}

	s.invalidateBalance(ctx, tenantID)
	return nil
}

// Ledger merges charges and payments into one reverse-chronological timeline.
func (s *ledgerService) Ledger(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]LedgerEntry, error) {
	charges, err := s.chargeRepo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, common.StoreError("list charges", tenantID, err)
	}
	payments, err := s.paymentRepo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, common.StoreError("list payments", tenantID, err)
	}

	entries := make([]LedgerEntry, 0, len(charges)+len(payments))
	for _, c := range charges {
		entry := LedgerEntry{
			Kind:        "charge",
			ID:          c.ID,
			AmountCents: c.AmountCents,
			DueDate:     c.DueDate,
			CreatedAt:   c.CreatedAt,
		}
		paid := c.IsPaid
		entry.IsPaid = &paid
		entry.Description = common.SafeString(c.Description)
		entries = append(entries, entry)
	}
	for _, p := range payments {
		entry := LedgerEntry{
			Kind:        "payment",
			ID:          p.ID,
			AmountCents: p.AmountCents,
			Method:      p.Method,
			CreatedAt:   p.CreatedAt,
		}
		entry.Description = common.SafeString(p.Note)
		entries = append(entries, entry)
	}

	// Newest first, matching the per-table ordering
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *ledgerService) ListCharges(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Charge, error) {
	charges, err := s.chargeRepo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, common.StoreError("list charges", tenantID, err)
	}
	return charges, nil
}

func (s *ledgerService) ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	payments, err := s.paymentRepo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, common.StoreError("list payments", tenantID, err)
	}
	return payments, nil
}

func (s *ledgerService) invalidateBalance(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cache.InvalidateBalance(ctx, tenantID); err != nil {
		log.Printf("WARN: balance cache invalidation failed for tenant %s: %v", tenantID, err)
	}
	if err := s.cache.InvalidateTenantSummaries(ctx); err != nil {
		log.Printf("WARN: summaries cache invalidation failed: %v", err)
	}
}
