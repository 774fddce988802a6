package repositories

import (
	"context"
	"time"

	"rentledger/internal/models"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	SumPaid(ctx context.Context, tenantID uuid.UUID) (int64, error)
	LastPaymentAt(ctx context.Context, tenantID uuid.UUID) (*time.Time, error)
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
}

type paymentRepo struct {
	db Database
}

func NewPaymentRepo(db Database) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, tenant_id, amount_cents, method, note, reference, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query, payment.ID, payment.TenantID, payment.AmountCents, payment.Method, payment.Note, payment.Reference, payment.Status)
	return err
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, tenant_id, amount_cents, method, note, reference, status, created_at
		FROM payments
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&payment.ID, &payment.TenantID, &payment.AmountCents, &payment.Method, &payment.Note, &payment.Reference, &payment.Status, &payment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	query := `
		SELECT id, tenant_id, amount_cents, method, note, reference, status, created_at
		FROM payments
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		if err := rows.Scan(&payment.ID, &payment.TenantID, &payment.AmountCents, &payment.Method, &payment.Note, &payment.Reference, &payment.Status, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// SumPaid totals settled payments only; pending or failed rows never reduce the
// balance.
func (r *paymentRepo) SumPaid(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE tenant_id = $1 AND status = 'paid'`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&total)
	return total, err
}

func (r *paymentRepo) LastPaymentAt(ctx context.Context, tenantID uuid.UUID) (*time.Time, error) {
	var last *time.Time
	query := `SELECT MAX(created_at) FROM payments WHERE tenant_id = $1`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

// ExistsByReference guards against webhook redelivery inserting the same external
// payment twice.
func (r *paymentRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM payments WHERE reference = $1)`
	err := r.db.QueryRow(ctx, query, reference).Scan(&exists)
	return exists, err
}

func (r *paymentRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	query := `DELETE FROM payments WHERE tenant_id = $1`
	_, err := r.db.Exec(ctx, query, tenantID)
	return err
}
