package models

import (
	"time"

	"github.com/google/uuid"
)

// Document categories used by the portals.
const (
	DocCategoryLease      = "lease"
	DocCategoryVoucher    = "voucher"
	DocCategoryID         = "id"
	DocCategoryOnboarding = "onboarding"
)

// TenantDocument is the metadata row for a file stored in the document bucket.
type TenantDocument struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	ObjectPath string    `json:"object_path" db:"object_path"`
	Category   string    `json:"category" db:"category"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
