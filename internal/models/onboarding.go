package models

import (
	"time"

	"github.com/google/uuid"
)

// Onboarding item statuses.
const (
	OnboardingPending   = "pending"
	OnboardingSubmitted = "submitted"
	OnboardingComplete  = "complete"
)

// OnboardingStep is a step in the Section 8 onboarding checklist. Steps with
// RequiresUpload expect a document before they can move past pending.
type OnboardingStep struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Code           string    `json:"code" db:"code"`
	Title          string    `json:"title" db:"title"`
	RequiresUpload bool      `json:"requires_upload" db:"requires_upload"`
	SortOrder      int       `json:"sort_order" db:"sort_order"`
}

// TenantOnboarding tracks one tenant's progress through one step.
type TenantOnboarding struct {
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	StepID    uuid.UUID `json:"step_id" db:"step_id"`
	Status    string    `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OnboardingItem joins a step with the tenant's status for display.
type OnboardingItem struct {
	Step   OnboardingStep `json:"step"`
	Status string         `json:"status"`
}
