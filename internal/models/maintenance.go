package models

import (
	"time"

	"github.com/google/uuid"
)

// Maintenance request priorities and statuses.
const (
	MaintenancePriorityLow    = "low"
	MaintenancePriorityNormal = "normal"
	MaintenancePriorityUrgent = "urgent"

	MaintenanceStatusOpen       = "open"
	MaintenanceStatusInProgress = "in_progress"
	MaintenanceStatusResolved   = "resolved"
)

// MaintenanceRequest is a tenant-filed issue for their unit.
type MaintenanceRequest struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Priority    string    `json:"priority" db:"priority"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
