package services

import (
	"context"
	"errors"
	"strings"

	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MaintenanceService interface {
	Create(ctx context.Context, req *CreateMaintenanceRequest) (*models.MaintenanceRequest, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.MaintenanceRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type CreateMaintenanceRequest struct {
	TenantID    uuid.UUID
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type maintenanceService struct {
	maintenanceRepo repositories.MaintenanceRepository
}

func NewMaintenanceService(maintenanceRepo repositories.MaintenanceRepository) MaintenanceService {
	return &maintenanceService{maintenanceRepo: maintenanceRepo}
}

func validPriority(p string) bool {
	switch p {
	case models.MaintenancePriorityLow, models.MaintenancePriorityNormal, models.MaintenancePriorityUrgent:
		return true
	}
	return false
}

func validMaintenanceStatus(s string) bool {
	switch s {
	case models.MaintenanceStatusOpen, models.MaintenanceStatusInProgress, models.MaintenanceStatusResolved:
		return true
	}
	return false
}

func (s *maintenanceService) Create(ctx context.Context, req *CreateMaintenanceRequest) (*models.MaintenanceRequest, error) {
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = models.MaintenancePriorityNormal
	}
	if !validPriority(priority) {
		return nil, common.ValidationErrorf("unknown priority %q", req.Priority)
	}

	mr := &models.MaintenanceRequest{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		Status:      models.MaintenanceStatusOpen,
	}
	if err := s.maintenanceRepo.Create(ctx, mr); err != nil {
		return nil, common.StoreError("create maintenance request", req.TenantID, err)
	}
	return mr, nil
}

func (s *maintenanceService) ListForTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, error) {
	reqs, err := s.maintenanceRepo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, common.StoreError("list maintenance requests", tenantID, err)
	}
	return reqs, nil
}

func (s *maintenanceService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.MaintenanceRequest, error) {
	if !validMaintenanceStatus(status) {
		return nil, common.ValidationErrorf("unknown status %q", status)
	}
	reqs, err := s.maintenanceRepo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, common.StoreError("list maintenance requests", uuid.Nil, err)
	}
	return reqs, nil
}

func (s *maintenanceService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !validMaintenanceStatus(status) {
		return common.ValidationErrorf("unknown status %q", status)
	}
	if _, err := s.maintenanceRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundErrorf("maintenance request %s", id)
		}
		return common.StoreError("fetch maintenance request", uuid.Nil, err)
	}
	if err := s.maintenanceRepo.UpdateStatus(ctx, id, status); err != nil {
		return common.StoreError("update maintenance request", uuid.Nil, err)
	}
	return nil
}
