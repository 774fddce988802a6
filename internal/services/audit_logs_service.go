package services

import (
	"context"
	"encoding/json"
	"log"

	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/repositories"

	"github.com/google/uuid"
)

// AuditLogsService records who did what to which entity. Recording is best
// effort: a failed audit write is logged but never fails the operation.
type AuditLogsService interface {
	Record(ctx context.Context, actorID *uuid.UUID, action, entity string, entityID *uuid.UUID, detail interface{})
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditRepo: auditRepo}
}

func (s *auditLogsService) Record(ctx context.Context, actorID *uuid.UUID, action, entity string, entityID *uuid.UUID, detail interface{}) {
	var detailJSON []byte
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			log.Printf("WARN: failed to marshal audit detail for %s %s: %v", action, entity, err)
		} else {
			detailJSON = data
		}
	}

	entry := &models.AuditLog{
		ID:       uuid.New(),
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detailJSON,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to record audit log for %s %s: %v", action, entity, err)
	}
}

func (s *auditLogsService) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	entries, err := s.auditRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, common.StoreError("list audit logs", uuid.Nil, err)
	}
	return entries, nil
}

func (s *auditLogsService) ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	entries, err := s.auditRepo.ListByEntity(ctx, entity, entityID, limit, offset)
	if err != nil {
		return nil, common.StoreError("list audit logs", uuid.Nil, err)
	}
	return entries, nil
}
