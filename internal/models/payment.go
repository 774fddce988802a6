package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses. Only "paid" payments count toward the balance.
const (
	PaymentStatusPaid = "paid"
)

// Payment is a record of funds received. Immutable after creation; the payment row
// is the durable source of truth regardless of how allocation against charges goes.
type Payment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	Method      string    `json:"method" db:"method"`
	Note        *string   `json:"note" db:"note"`
	Reference   *string   `json:"reference" db:"reference"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
