package repositories

import (
	"context"

	"rentledger/internal/models"

	"github.com/google/uuid"
)

type OnboardingRepository interface {
	ListSteps(ctx context.Context) ([]*models.OnboardingStep, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.OnboardingItem, error)
	SeedTenant(ctx context.Context, tenantID uuid.UUID) error
	UpdateStatus(ctx context.Context, tenantID, stepID uuid.UUID, status string) error
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
}

type onboardingRepo struct {
	db Database
}

func NewOnboardingRepo(db Database) OnboardingRepository {
	return &onboardingRepo{db: db}
}

func (r *onboardingRepo) ListSteps(ctx context.Context) ([]*models.OnboardingStep, error) {
	query := `
		SELECT id, code, title, requires_upload, sort_order
		FROM onboarding_steps
		ORDER BY sort_order ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*models.OnboardingStep
	for rows.Next() {
		step := &models.OnboardingStep{}
		if err := rows.Scan(&step.ID, &step.Code, &step.Title, &step.RequiresUpload, &step.SortOrder); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func (r *onboardingRepo) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.OnboardingItem, error) {
	query := `
		SELECT s.id, s.code, s.title, s.requires_upload, s.sort_order, o.status
		FROM tenant_onboarding o
		JOIN onboarding_steps s ON s.id = o.step_id
		WHERE o.tenant_id = $1
		ORDER BY s.sort_order ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.OnboardingItem
	for rows.Next() {
		item := &models.OnboardingItem{}
		if err := rows.Scan(&item.Step.ID, &item.Step.Code, &item.Step.Title, &item.Step.RequiresUpload, &item.Step.SortOrder, &item.Status); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SeedTenant creates a pending row per checklist step for a freshly provisioned
// tenant. Rerunning is harmless.
func (r *onboardingRepo) SeedTenant(ctx context.Context, tenantID uuid.UUID) error {
	query := `
		INSERT INTO tenant_onboarding (tenant_id, step_id, status, updated_at)
		SELECT $1, id, 'pending', NOW() FROM onboarding_steps
		ON CONFLICT (tenant_id, step_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, tenantID)
	return err
}

func (r *onboardingRepo) UpdateStatus(ctx context.Context, tenantID, stepID uuid.UUID, status string) error {
	query := `
		UPDATE tenant_onboarding
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND step_id = $3
	`
	_, err := r.db.Exec(ctx, query, status, tenantID, stepID)
	return err
}

func (r *onboardingRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	query := `DELETE FROM tenant_onboarding WHERE tenant_id = $1`
	_, err := r.db.Exec(ctx, query, tenantID)
	return err
}
