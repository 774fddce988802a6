package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a resident being billed. UserID links to the portal login created at
// provisioning time; it is set once and never patched in by email lookup.
type Tenant struct {
	ID               uuid.UUID `json:"id" db:"id"`
	FullName         string    `json:"full_name" db:"full_name"`
	Email            string    `json:"email" db:"email"`
	UnitLabel        string    `json:"unit_label" db:"unit_label"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	MonthlyRentCents int64     `json:"monthly_rent_cents" db:"monthly_rent_cents"`
	OnboardingStatus string    `json:"onboarding_status" db:"onboarding_status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TenantSummary is the owner-dashboard row: identity plus the derived balance and
// last payment date.
type TenantSummary struct {
	ID            uuid.UUID  `json:"id"`
	FullName      string     `json:"full_name"`
	UnitLabel     string     `json:"unit_label"`
	BalanceCents  int64      `json:"balance_cents"`
	LastPaymentAt *time.Time `json:"last_payment_at"`
}
