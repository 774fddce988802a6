package models

import (
	"time"

	"github.com/google/uuid"
)

// Charge is a billable obligation. AmountCents is fixed at creation; only the paid
// flag ever changes afterwards.
type Charge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	AmountCents int64      `json:"amount_cents" db:"amount_cents"`
	Description *string    `json:"description" db:"description"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	IsPaid      bool       `json:"is_paid" db:"is_paid"`
	PaidAt      *time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
