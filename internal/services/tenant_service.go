package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"rentledger/internal/caching"
	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const summariesCacheTTL = 2 * time.Minute

type TenantService interface {
	Provision(ctx context.Context, req *ProvisionTenantRequest) (*ProvisionTenantResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	Summaries(ctx context.Context) ([]*models.TenantSummary, error)
}

type tenantService struct {
	tenantRepo      repositories.TenantRepository
	userRepo        repositories.UserRepository
	chargeRepo      repositories.ChargeRepository
	paymentRepo     repositories.PaymentRepository
	documents       DocumentService
	onboardingRepo  repositories.OnboardingRepository
	maintenanceRepo repositories.MaintenanceRepository
	ledger          LedgerServiceInterface
	cache           caching.CacheService
}

func NewTenantService(
	tenantRepo repositories.TenantRepository,
	userRepo repositories.UserRepository,
	chargeRepo repositories.ChargeRepository,
	paymentRepo repositories.PaymentRepository,
	documents DocumentService,
	onboardingRepo repositories.OnboardingRepository,
	maintenanceRepo repositories.MaintenanceRepository,
	ledger LedgerServiceInterface,
	cache caching.CacheService,
) TenantService {
	return &tenantService{
		tenantRepo:      tenantRepo,
		userRepo:        userRepo,
		chargeRepo:      chargeRepo,
		paymentRepo:     paymentRepo,
		documents:       documents,
		onboardingRepo:  onboardingRepo,
		maintenanceRepo: maintenanceRepo,
		ledger:          ledger,
		cache:           cache,
	}
}

type ProvisionTenantRequest struct {
	FullName         string `json:"full_name" validate:"required"`
	Email            string `json:"email" validate:"required"`
	UnitLabel        string `json:"unit_label"`
	MonthlyRentCents int64  `json:"monthly_rent_cents"`
}

type UpdateTenantRequest struct {
	ID               uuid.UUID
	FullName         string `json:"full_name" validate:"required"`
	UnitLabel        string `json:"unit_label"`
	MonthlyRentCents int64  `json:"monthly_rent_cents"`
}

// ProvisionTenantResult carries the one-time password back to the owner so it
// can be handed to the tenant out of band. It is never stored in plaintext.
type ProvisionTenantResult struct {
	Tenant            *models.Tenant `json:"tenant"`
	TemporaryPassword string         `json:"temporary_password"`
}

// Provision creates the login user first, then the tenant row pointing at it.
// A tenant row is never written without a user to own it.
func (s *tenantService) Provision(ctx context.Context, req *ProvisionTenantRequest) (*ProvisionTenantResult, error) {
	if err := common.ValidateRequiredString(req.FullName, "full_name"); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, common.ValidationErrorf("a valid email is required")
	}
	if req.MonthlyRentCents < 0 {
		return nil, common.ValidationErrorf("monthly rent cannot be negative")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, common.ValidationErrorf("email %s is already in use", email)
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, common.StoreError("check email", uuid.Nil, err)
	}

	password, err := generatePassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tenantID := uuid.New()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         common.RoleTenant,
		TenantID:     &tenantID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, common.StoreError("create user", tenantID, err)
	}

	tenant := &models.Tenant{
		ID:               tenantID,
		FullName:         strings.TrimSpace(req.FullName),
		Email:            email,
		UnitLabel:        strings.TrimSpace(req.UnitLabel),
		UserID:           user.ID,
		MonthlyRentCents: req.MonthlyRentCents,
		OnboardingStatus: models.OnboardingPending,
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		// Remove the orphaned user so the email can be reused
		if delErr := s.userRepo.DeleteByTenant(ctx, tenantID); delErr != nil {
			log.Printf("WARN: failed to remove orphaned user for tenant %s: %v", tenantID, delErr)
		}
		return nil, common.StoreError("create tenant", tenantID, err)
	}

	if err := s.onboardingRepo.SeedTenant(ctx, tenantID); err != nil {
		log.Printf("WARN: failed to seed onboarding checklist for tenant %s: %v", tenantID, err)
	}

	s.invalidateSummaries(ctx)
	return &ProvisionTenantResult{Tenant: tenant, TemporaryPassword: password}, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundErrorf("tenant %s", id)
		}
		return nil, common.StoreError("fetch tenant", id, err)
	}
	return tenant, nil
}

func (s *tenantService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundErrorf("tenant for user %s", userID)
		}
		return nil, common.StoreError("fetch tenant by user", uuid.Nil, err)
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) error {
	if err := common.ValidateRequiredString(req.FullName, "full_name"); err != nil {
		return err
	}
	if req.MonthlyRentCents < 0 {
		return common.ValidationErrorf("monthly rent cannot be negative")
	}

	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundErrorf("tenant %s", req.ID)
		}
		return common.StoreError("fetch tenant", req.ID, err)
	}

	existing.FullName = strings.TrimSpace(req.FullName)
	existing.UnitLabel = strings.TrimSpace(req.UnitLabel)
	existing.MonthlyRentCents = req.MonthlyRentCents

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return common.StoreError("update tenant", req.ID, err)
	}
	s.invalidateSummaries(ctx)
	return nil
}

// Delete removes a tenant and everything attached to it, children before
// parents. The error names the table that failed so a partial delete can be
// diagnosed and rerun.
func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.tenantRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundErrorf("tenant %s", id)
		}
		return common.StoreError("fetch tenant", id, err)
	}

	steps := []struct {
		table string
		fn    func(context.Context, uuid.UUID) error
	}{
		{"tenant_onboarding", s.onboardingRepo.DeleteByTenant},
		// Goes through the document service so the stored objects come out
		// of the bucket with the rows.
		{"tenant_documents", s.documents.DeleteAllForTenant},
		{"maintenance_requests", s.maintenanceRepo.DeleteByTenant},
		{"payments", s.paymentRepo.DeleteByTenant},
		{"charges", s.chargeRepo.DeleteByTenant},
		{"users", s.userRepo.DeleteByTenant},
	}
	for _, step := range steps {
		if err := step.fn(ctx, id); err != nil {
			return fmt.Errorf("delete tenant %s: failed at table %s: %w", id, step.table, err)
		}
	}
	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tenant %s: failed at table tenants: %w", id, err)
	}

	if err := s.cache.InvalidateTenantCache(ctx, id); err != nil {
		log.Printf("WARN: cache invalidation failed after deleting tenant %s: %v", id, err)
	}
	s.invalidateSummaries(ctx)
	return nil
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	tenants, err := s.tenantRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, common.StoreError("list tenants", uuid.Nil, err)
	}
	return tenants, nil
}

// Summaries builds the owner dashboard rows: every tenant with their current
// balance and last payment date. Served from cache when fresh.
func (s *tenantService) Summaries(ctx context.Context) ([]*models.TenantSummary, error) {
	if data, err := s.cache.GetTenantSummaries(ctx); err == nil && data != nil {
		var cached []*models.TenantSummary
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	tenants, err := s.tenantRepo.List(ctx, 1000, 0)
	if err != nil {
		return nil, common.StoreError("list tenants", uuid.Nil, err)
	}

	summaries := make([]*models.TenantSummary, 0, len(tenants))
	for _, t := range tenants {
		balance, err := s.ledger.Balance(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		lastPayment, err := s.paymentRepo.LastPaymentAt(ctx, t.ID)
		if err != nil {
			return nil, common.StoreError("fetch last payment", t.ID, err)
		}
		summaries = append(summaries, &models.TenantSummary{
			ID:            t.ID,
			FullName:      t.FullName,
			UnitLabel:     t.UnitLabel,
			BalanceCents:  balance,
			LastPaymentAt: lastPayment,
		})
	}

	if data, err := json.Marshal(summaries); err == nil {
		if err := s.cache.SetTenantSummaries(ctx, data, summariesCacheTTL); err != nil {
			log.Printf("WARN: summaries cache write failed: %v", err)
		}
	}
	return summaries, nil
}

func (s *tenantService) invalidateSummaries(ctx context.Context) {
	if err := s.cache.InvalidateTenantSummaries(ctx); err != nil {
		log.Printf("WARN: summaries cache invalidation failed: %v", err)
	}
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
