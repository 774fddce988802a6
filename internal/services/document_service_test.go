package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"rentledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.TenantDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantDocument), args.Error(1)
}

func (m *MockDocumentRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.TenantDocument, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantDocument), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) UploadDocument(ctx context.Context, bucketName, objectName, contentType string, reader io.Reader, objectSize int64) error {
	args := m.Called(ctx, bucketName, objectName, contentType, reader, objectSize)
	return args.Error(0)
}

func (m *MockStorageService) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) DeleteDocument(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

func (m *MockStorageService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

type DocumentServiceTestSuite struct {
	suite.Suite
	documentRepo *MockDocumentRepository
	storage      *MockStorageService
	service      DocumentService
	tenantID     uuid.UUID
	ctx          context.Context
}

func (suite *DocumentServiceTestSuite) SetupTest() {
	suite.documentRepo = new(MockDocumentRepository)
	suite.storage = new(MockStorageService)
	suite.service = NewDocumentService(suite.documentRepo, suite.storage, "tenant-documents")
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func TestDocumentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceTestSuite))
}

func (suite *DocumentServiceTestSuite) storedDoc(objectPath string) *models.TenantDocument {
	return &models.TenantDocument{
		ID:         uuid.New(),
		TenantID:   suite.tenantID,
		FileName:   "lease.pdf",
		ObjectPath: objectPath,
		Category:   models.DocCategoryLease,
	}
}

func (suite *DocumentServiceTestSuite) TestDeleteAllForTenant_RemovesObjectsAndRows() {
	docs := []*models.TenantDocument{
		suite.storedDoc("a/lease/one.pdf"),
		suite.storedDoc("a/lease/two.pdf"),
	}

	suite.documentRepo.On("ListByTenant", suite.ctx, suite.tenantID).Return(docs, nil)
	suite.storage.On("DeleteDocument", suite.ctx, "tenant-documents", "a/lease/one.pdf").Return(nil)
	suite.storage.On("DeleteDocument", suite.ctx, "tenant-documents", "a/lease/two.pdf").Return(nil)
	suite.documentRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)

	err := suite.service.DeleteAllForTenant(suite.ctx, suite.tenantID)
	assert.NoError(suite.T(), err)
	suite.storage.AssertExpectations(suite.T())
	suite.documentRepo.AssertExpectations(suite.T())
}

func (suite *DocumentServiceTestSuite) TestDeleteAllForTenant_ObjectFailureStillDropsRows() {
	docs := []*models.TenantDocument{suite.storedDoc("a/lease/one.pdf")}

	suite.documentRepo.On("ListByTenant", suite.ctx, suite.tenantID).Return(docs, nil)
	suite.storage.On("DeleteDocument", suite.ctx, "tenant-documents", "a/lease/one.pdf").Return(errors.New("connection refused"))
	suite.documentRepo.On("DeleteByTenant", suite.ctx, suite.tenantID).Return(nil)

	err := suite.service.DeleteAllForTenant(suite.ctx, suite.tenantID)
	assert.NoError(suite.T(), err)
	suite.documentRepo.AssertCalled(suite.T(), "DeleteByTenant", suite.ctx, suite.tenantID)
}

func (suite *DocumentServiceTestSuite) TestDelete_WrongTenantLooksMissing() {
	doc := suite.storedDoc("a/lease/one.pdf")
	doc.TenantID = uuid.New()

	suite.documentRepo.On("GetByID", suite.ctx, doc.ID).Return(doc, nil)

	err := suite.service.Delete(suite.ctx, suite.tenantID, doc.ID)
	assert.Error(suite.T(), err)
	suite.documentRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
	suite.storage.AssertNotCalled(suite.T(), "DeleteDocument", mock.Anything, mock.Anything, mock.Anything)
}
