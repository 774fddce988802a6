package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"rentledger/internal/common"
	"rentledger/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, tenantID uuid.UUID, fileName, category, contentType string, reader io.Reader, size int64) (*models.TenantDocument, error) {
	args := m.Called(ctx, tenantID, fileName, category, contentType, reader, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantDocument), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, tenantID uuid.UUID) ([]*DocumentWithURL, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*DocumentWithURL), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, tenantID, documentID uuid.UUID) error {
	args := m.Called(ctx, tenantID, documentID)
	return args.Error(0)
}

func (m *MockDocumentService) DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockOnboardingRepository struct {
	mock.Mock
}

func (m *MockOnboardingRepository) ListSteps(ctx context.Context) ([]*models.OnboardingStep, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OnboardingStep), args.Error(1)
}

func (m *MockOnboardingRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.OnboardingItem, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OnboardingItem), args.Error(1)
}

func (m *MockOnboardingRepository) SeedTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockOnboardingRepository) UpdateStatus(ctx context.Context, tenantID, stepID uuid.UUID, status string) error {
	args := m.Called(ctx, tenantID, stepID, status)
	return args.Error(0)
}

func (m *MockOnboardingRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockMaintenanceRepository struct {
	mock.Mock
}

func (m *MockMaintenanceRepository) Create(ctx context.Context, req *models.MaintenanceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockMaintenanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRequest), args.Error(1)
}

func (m *MockMaintenanceRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceRequest, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MaintenanceRequest), args.Error(1)
}

func (m *MockMaintenanceRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.MaintenanceRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MaintenanceRequest), args.Error(1)
}

func (m *MockMaintenanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockMaintenanceRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) AddCharge(ctx context.Context, tenantID uuid.UUID, amountCents int64, description *string, dueDate *time.Time) (*models.Charge, error) {
	args := m.Called(ctx, tenantID, amountCents, description, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Charge), args.Error(1)
}

func (m *MockLedgerService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Payment, *AllocationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Payment), args.Get(1).(*AllocationResult), args.Error(2)
}

func (m *MockLedgerService) ApplyExternalPayment(ctx context.Context, event ExternalPaymentEvent) (*AllocationResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AllocationResult), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) RefreshBalance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) MarkChargePaid(ctx context.Context, tenantID, chargeID uuid.UUID) error {
	args := m.Called(ctx, tenantID, chargeID)
	return args.Error(0)
}

func (m *MockLedgerService) Ledger(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]LedgerEntry, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) ListCharges(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Charge, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Charge), args.Error(1)
}

func (m *MockLedgerService) ListPayments(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

type TenantServiceTestSuite struct {
	suite.Suite
	tenantRepo      *MockTenantRepository
	userRepo        *MockUserRepository
	chargeRepo      *MockChargeRepository
	paymentRepo     *MockPaymentRepository
	documents       *MockDocumentService
	onboardingRepo  *MockOnboardingRepository
	maintenanceRepo *MockMaintenanceRepository
	ledger          *MockLedgerService
	cache           *MockCacheService
	service         TenantService
	tenantID        uuid.UUID
	ctx             context.Context
}

func (suite *TenantServiceTestSuite) SetupTest() {
	suite.tenantRepo = new(MockTenantRepository)
	suite.userRepo = new(MockUserRepository)
	suite.chargeRepo = new(MockChargeRepository)
	suite.paymentRepo = new(MockPaymentRepository)
	suite.documents = new(MockDocumentService)
	suite.onboardingRepo = new(MockOnboardingRepository)
	suite.maintenanceRepo = new(MockMaintenanceRepository)
	suite.ledger = new(MockLedgerService)
	suite.cache = new(MockCacheService)
	suite.service = NewTenantService(
		suite.tenantRepo,
		suite.userRepo,
		suite.chargeRepo,
		suite.paymentRepo,
		suite.documents,
		suite.onboardingRepo,
		suite.maintenanceRepo,
		suite.ledger,
		suite.cache,
	)
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}

func (suite *TenantServiceTestSuite) TestProvision_Success() {
	suite.userRepo.On("GetByEmail", suite.ctx, "alice@example.com").Return(nil, pgx.ErrNoRows)

	var createdUser *models.User
	suite.userRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { createdUser = args.Get(1).(*models.User) }).
		Return(nil)
	suite.tenantRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.onboardingRepo.On("SeedTenant", suite.ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)
	suite.cache.On("InvalidateTenantSummaries", suite.ctx).Return(nil)

	result, err := suite.service.Provision(suite.ctx, &ProvisionTenantRequest{
		FullName:         "  Alice Johnson ",
		Email:            " Alice@Example.COM ",
		UnitLabel:        "Unit 4B",
		MonthlyRentCents: 150000,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Alice Johnson", result.Tenant.FullName)
	assert.Equal(suite.T(), "alice@example.com", result.Tenant.Email)
	assert.Equal(suite.T(), models.OnboardingPending, result.Tenant.OnboardingStatus)
	assert.NotEmpty(suite.T(), result.TemporaryPassword)

	// The login user is written first and owns the tenant row
	assert.NotNil(suite.T(), createdUser)
	assert.Equal(suite.T(), common.RoleTenant, createdUser.Role)
	assert.Equal(suite.T(), createdUser.ID, result.Tenant.UserID)
	assert.NotEqual(suite.T(), result.TemporaryPassword, createdUser.PasswordHash)
	suite.onboardingRepo.AssertCalled(suite.T(), "SeedTenant", suite.ctx, result.Tenant.ID)
}

func (suite *TenantServiceTestSuite) TestProvision_DuplicateEmail() {
	existing := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	suite.userRepo.On("GetByEmail", suite.ctx, "alice@example.com").Return(existing, nil)

	_, err := suite.service.Provision(suite.ctx, &ProvisionTenantRequest{
		FullName: "Alice Johnson",
		Email:    "alice@example.com",
	})
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	suite.userRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestProvision_InvalidEmail() {
	_, err := suite.service.Provision(suite.ctx, &ProvisionTenantRequest{
		FullName: "Alice Johnson",
		Email:    "not-an-email",
	})
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *TenantServiceTestSuite) TestProvision_NegativeRent() {
	_, err := suite.service.Provision(suite.ctx, &ProvisionTenantRequest{
		FullName:         "Alice Johnson",
		Email:            "alice@example.com",
		MonthlyRentCents: -100,
	})
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *TenantServiceTestSuite) TestProvision_TenantCreateFailureRollsBackUser() {
	suite.userRepo.On("GetByEmail", suite.ctx, "alice@example.com").Return(nil, pgx.ErrNoRows)
	suite.userRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.User")).Return(nil)
	suite.tenantRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Tenant")).Return(errors.New("unique violation"))
	suite.userRepo.On("DeleteByTenant", suite.ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

	_, err := suite.service.Provision(suite.ctx, &ProvisionTenantRequest{
		FullName: "Alice Johnson",
		Email:    "alice@example.com",
	})
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrStore)
	suite.userRepo.AssertCalled(suite.T(), "DeleteByTenant", suite.ctx, mock.AnythingOfType("uuid.UUID"))
}

func (suite *TenantServiceTestSuite) TestDelete_Success() {
	tenant := &models.Tenant{ID: suite.tenantID, FullName: "Alice Johnson"}
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(tenant, nil)
	suite.onboardingRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.documents.On("DeleteAllForTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.maintenanceRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.paymentRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.chargeRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.userRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.tenantRepo.On("Delete", suite.ctx, suite.tenantID).Return(nil)
	suite.cache.On("InvalidateTenantCache", suite.ctx, suite.tenantID).Return(nil)
	suite.cache.On("InvalidateTenantSummaries", suite.ctx).Return(nil)

	err := suite.service.Delete(suite.ctx, suite.tenantID)
	assert.NoError(suite.T(), err)
	// Documents go through the service so their stored objects come out too
	suite.documents.AssertCalled(suite.T(), "DeleteAllForTenant", suite.ctx, suite.tenantID)
	suite.tenantRepo.AssertExpectations(suite.T())
}

func (suite *TenantServiceTestSuite) TestDelete_FailureNamesTable() {
	tenant := &models.Tenant{ID: suite.tenantID, FullName: "Alice Johnson"}
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(tenant, nil)
	suite.onboardingRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.documents.On("DeleteAllForTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.maintenanceRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)
	suite.paymentRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(errors.New("foreign key violation"))

	err := suite.service.Delete(suite.ctx, suite.tenantID)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "failed at table payments")
	suite.chargeRepo.AssertNotCalled(suite.T(), "DeleteByTenant", mock.Anything, mock.Anything)
	suite.tenantRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestDelete_NotFound() {
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(nil, pgx.ErrNoRows)

	err := suite.service.Delete(suite.ctx, suite.tenantID)
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *TenantServiceTestSuite) TestSummaries_ComputesBalancesOnCacheMiss() {
	lastPayment := time.Now().Add(-72 * time.Hour)
	tenants := []*models.Tenant{
		{ID: suite.tenantID, FullName: "Alice Johnson", UnitLabel: "Unit 4B"},
	}

	suite.cache.On("GetTenantSummaries", suite.ctx).Return(nil, nil)
	suite.tenantRepo.On("List", suite.ctx, 1000, 0).Return(tenants, nil)
	suite.ledger.On("Balance", suite.ctx, suite.tenantID).Return(int64(150000), nil)
	suite.paymentRepo.On("LastPaymentAt", suite.ctx, suite.tenantID).Return(&lastPayment, nil)
	suite.cache.On("SetTenantSummaries", suite.ctx, mock.AnythingOfType("[]uint8"), summariesCacheTTL).Return(nil)

	summaries, err := suite.service.Summaries(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), summaries, 1)
	assert.Equal(suite.T(), int64(150000), summaries[0].BalanceCents)
	assert.NotNil(suite.T(), summaries[0].LastPaymentAt)
}

func (suite *TenantServiceTestSuite) TestUpdate_NotFound() {
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(nil, pgx.ErrNoRows)

	err := suite.service.Update(suite.ctx, &UpdateTenantRequest{
		ID:       suite.tenantID,
		FullName: "Alice Johnson",
	})
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
