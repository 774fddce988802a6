package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records an owner-portal mutation for accountability. Detail carries the
// request-specific fields as JSON.
type AuditLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ActorID   *uuid.UUID `json:"actor_id" db:"actor_id"`
	Action    string     `json:"action" db:"action"`
	Entity    string     `json:"entity" db:"entity"`
	EntityID  *uuid.UUID `json:"entity_id" db:"entity_id"`
	Detail    []byte     `json:"detail" db:"detail"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
