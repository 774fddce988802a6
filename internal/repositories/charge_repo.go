package repositories

import (
	"context"

	"rentledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ChargeRepository interface {
	Create(ctx context.Context, charge *models.Charge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Charge, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Charge, error)
	ListUnpaid(ctx context.Context, tenantID uuid.UUID) ([]*models.Charge, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
	SumAmounts(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ExistsForMonth(ctx context.Context, tenantID uuid.UUID, description string) (bool, error)
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
}

type chargeRepo struct {
	db Database
}

func NewChargeRepo(db Database) ChargeRepository {
	return &chargeRepo{db: db}
}

func (r *chargeRepo) Create(ctx context.Context, charge *models.Charge) error {
	query := `
		INSERT INTO charges (id, tenant_id, amount_cents, description, due_date, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
	`
	_, err := r.db.Exec(ctx, query, charge.ID, charge.TenantID, charge.AmountCents, charge.Description, charge.DueDate)
	return err
}

func (r *chargeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Charge, error) {
	charge := &models.Charge{}
	query := `
		SELECT id, tenant_id, amount_cents, description, due_date, is_paid, paid_at, created_at
		FROM charges
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&charge.ID, &charge.TenantID, &charge.AmountCents, &charge.Description, &charge.DueDate, &charge.IsPaid, &charge.PaidAt, &charge.CreatedAt)
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (r *chargeRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Charge, error) {
	query := `
		SELECT id, tenant_id, amount_cents, description, due_date, is_paid, paid_at, created_at
		FROM charges
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*models.Charge
	for rows.Next() {
		charge := &models.Charge{}
		if err := rows.Scan(&charge.ID, &charge.TenantID, &charge.AmountCents, &charge.Description, &charge.DueDate, &charge.IsPaid, &charge.PaidAt, &charge.CreatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, charge)
	}
	return charges, rows.Err()
}

// ListUnpaid returns open charges in allocation order: oldest due date first,
// charges without a due date last, creation order as the tie-break. The ordering is
// what makes allocation deterministic.
func (r *chargeRepo) ListUnpaid(ctx context.Context, tenantID uuid.UUID) ([]*models.Charge, error) {
	query := `
		SELECT id, tenant_id, amount_cents, description, due_date, is_paid, paid_at, created_at
		FROM charges
		WHERE tenant_id = $1 AND is_paid = FALSE
		ORDER BY due_date ASC NULLS LAST, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*models.Charge
	for rows.Next() {
		charge := &models.Charge{}
		if err := rows.Scan(&charge.ID, &charge.TenantID, &charge.AmountCents, &charge.Description, &charge.DueDate, &charge.IsPaid, &charge.PaidAt, &charge.CreatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, charge)
	}
	return charges, rows.Err()
}

// MarkPaid flips the paid flag. Idempotent: a second call leaves paid_at untouched.
// Returns pgx.ErrNoRows when the charge does not exist.
func (r *chargeRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE charges
		SET is_paid = TRUE, paid_at = COALESCE(paid_at, NOW())
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *chargeRepo) SumAmounts(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM charges WHERE tenant_id = $1`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&total)
	return total, err
}

// ExistsForMonth reports whether a charge with the given description already exists.
// The rent generator uses this to stay safe under reruns.
func (r *chargeRepo) ExistsForMonth(ctx context.Context, tenantID uuid.UUID, description string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM charges WHERE tenant_id = $1 AND description = $2)`
	err := r.db.QueryRow(ctx, query, tenantID, description).Scan(&exists)
	return exists, err
}

func (r *chargeRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	query := `DELETE FROM charges WHERE tenant_id = $1`
	_, err := r.db.Exec(ctx, query, tenantID)
	return err
}
