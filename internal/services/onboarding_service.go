package services

import (
	"context"
	"io"
	"log"

	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/repositories"

	"github.com/google/uuid"
)

type OnboardingService interface {
	Checklist(ctx context.Context, tenantID uuid.UUID) ([]*models.OnboardingItem, error)
	SubmitStep(ctx context.Context, tenantID, stepID uuid.UUID, upload *StepUpload) error
	ReviewStep(ctx context.Context, tenantID, stepID uuid.UUID, approve bool) error
}

// StepUpload is the optional document attached when a step requires one.
type StepUpload struct {
	FileName    string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type onboardingService struct {
	onboardingRepo repositories.OnboardingRepository
	tenantRepo     repositories.TenantRepository
	documents      DocumentService
}

func NewOnboardingService(onboardingRepo repositories.OnboardingRepository, tenantRepo repositories.TenantRepository, documents DocumentService) OnboardingService {
	return &onboardingService{
		onboardingRepo: onboardingRepo,
		tenantRepo:     tenantRepo,
		documents:      documents,
	}
}

func (s *onboardingService) Checklist(ctx context.Context, tenantID uuid.UUID) ([]*models.OnboardingItem, error) {
	items, err := s.onboardingRepo.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, common.StoreError("list onboarding", tenantID, err)
	}
	return items, nil
}

// SubmitStep moves a step to submitted. Steps that require an upload reject
// submissions without one; the document lands in the tenant's file store under
// the onboarding category.
func (s *onboardingService) SubmitStep(ctx context.Context, tenantID, stepID uuid.UUID, upload *StepUpload) error {
	items, err := s.onboardingRepo.ListForTenant(ctx, tenantID)
	if err != nil {
		return common.StoreError("list onboarding", tenantID, err)
	}

	var item *models.OnboardingItem
	for _, it := range items {
		if it.Step.ID == stepID {
			item = it
			break
		}
	}
	if item == nil {
		return common.NotFoundErrorf("onboarding step %s", stepID)
	}
	if item.Status == models.OnboardingComplete {
		return common.ValidationErrorf("step %s is already complete", item.Step.Code)
	}
	if item.Step.RequiresUpload && upload == nil {
		return common.ValidationErrorf("step %s requires a document upload", item.Step.Code)
	}

	if upload != nil {
		if _, err := s.documents.Upload(ctx, tenantID, upload.FileName, models.DocCategoryOnboarding, upload.ContentType, upload.Reader, upload.Size); err != nil {
			return err
		}
	}

	if err := s.onboardingRepo.UpdateStatus(ctx, tenantID, stepID, models.OnboardingSubmitted); err != nil {
		return common.StoreError("update onboarding step", tenantID, err)
	}
	return nil
}

// ReviewStep is the owner's decision on a submitted step. Approval marks the
// step complete; rejection sends it back to pending. When every step is
// complete the tenant's overall onboarding status flips to complete.
func (s *onboardingService) ReviewStep(ctx context.Context, tenantID, stepID uuid.UUID, approve bool) error {
	status := models.OnboardingPending
	if approve {
		status = models.OnboardingComplete
	}
	if err := s.onboardingRepo.UpdateStatus(ctx, tenantID, stepID, status); err != nil {
		return common.StoreError("update onboarding step", tenantID, err)
	}

	items, err := s.onboardingRepo.ListForTenant(ctx, tenantID)
	if err != nil {
		return common.StoreError("list onboarding", tenantID, err)
	}
	overall := models.OnboardingComplete
	for _, it := range items {
		if it.Status != models.OnboardingComplete {
			overall = models.OnboardingPending
			break
		}
	}
	if err := s.tenantRepo.UpdateOnboardingStatus(ctx, tenantID, overall); err != nil {
		log.Printf("WARN: failed to update onboarding status for tenant %s: %v", tenantID, err)
	}
	return nil
}
