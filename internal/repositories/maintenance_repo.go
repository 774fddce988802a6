package repositories

import (
	"context"

	"rentledger/internal/models"

	"github.com/google/uuid"
)

type MaintenanceRepository interface {
	Create(ctx context.Context, req *models.MaintenanceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.MaintenanceRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
}

type maintenanceRepo struct {
	db Database
}

func NewMaintenanceRepo(db Database) MaintenanceRepository {
	return &maintenanceRepo{db: db}
}

func (r *maintenanceRepo) Create(ctx context.Context, req *models.MaintenanceRequest) error {
	query := `
		INSERT INTO maintenance_requests (id, tenant_id, title, description, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, req.ID, req.TenantID, req.Title, req.Description, req.Priority, req.Status)
	return err
}

func (r *maintenanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	req := &models.MaintenanceRequest{}
	query := `
		SELECT id, tenant_id, title, description, priority, status, created_at, updated_at
		FROM maintenance_requests
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&req.ID, &req.TenantID, &req.Title, &req.Description, &req.Priority, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *maintenanceRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, error) {
	query := `
		SELECT id, tenant_id, title, description, priority, status, created_at, updated_at
		FROM maintenance_requests
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.MaintenanceRequest
	for rows.Next() {
		req := &models.MaintenanceRequest{}
		if err := rows.Scan(&req.ID, &req.TenantID, &req.Title, &req.Description, &req.Priority, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *maintenanceRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.MaintenanceRequest, error) {
	query := `
		SELECT id, tenant_id, title, description, priority, status, created_at, updated_at
		FROM maintenance_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.MaintenanceRequest
	for rows.Next() {
		req := &models.MaintenanceRequest{}
		if err := rows.Scan(&req.ID, &req.TenantID, &req.Title, &req.Description, &req.Priority, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *maintenanceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE maintenance_requests SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *maintenanceRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	query := `DELETE FROM maintenance_requests WHERE tenant_id = $1`
	_, err := r.db.Exec(ctx, query, tenantID)
	return err
}
