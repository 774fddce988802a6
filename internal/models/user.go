package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a portal login. Owners have no tenant scope; tenant logins carry the id
// of the tenant row they belong to.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	Role         string     `json:"role" db:"role"`
	TenantID     *uuid.UUID `json:"tenant_id" db:"tenant_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
