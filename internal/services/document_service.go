package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"rentledger/internal/common"
	"rentledger/internal/models"
	"rentledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const presignedURLExpiry = 15 * time.Minute

// DocumentWithURL pairs a stored document with a short-lived download link.
type DocumentWithURL struct {
	*models.TenantDocument
	URL string `json:"url"`
}

type DocumentService interface {
	Upload(ctx context.Context, tenantID uuid.UUID, fileName, category, contentType string, reader io.Reader, size int64) (*models.TenantDocument, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*DocumentWithURL, error)
	Delete(ctx context.Context, tenantID, documentID uuid.UUID) error
	DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error
}

type documentService struct {
	documentRepo repositories.DocumentRepository
	storage      StorageService
	bucket       string
}

func NewDocumentService(documentRepo repositories.DocumentRepository, storage StorageService, bucket string) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		storage:      storage,
		bucket:       bucket,
	}
}

func validCategory(category string) bool {
	switch category {
	case models.DocCategoryLease, models.DocCategoryVoucher, models.DocCategoryID, models.DocCategoryOnboarding:
		return true
	}
	return false
}

func (s *documentService) Upload(ctx context.Context, tenantID uuid.UUID, fileName, category, contentType string, reader io.Reader, size int64) (*models.TenantDocument, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." {
		return nil, common.ValidationErrorf("file name is required")
	}
	if !validCategory(category) {
		return nil, common.ValidationErrorf("unknown document category %q", category)
	}
	if size <= 0 {
		return nil, common.ValidationErrorf("file is empty")
	}

	doc := &models.TenantDocument{
		ID:         uuid.New(),
		TenantID:   tenantID,
		FileName:   fileName,
		ObjectPath: fmt.Sprintf("%s/%s/%s-%s", tenantID, category, uuid.NewString()[:8], fileName),
		Category:   category,
	}

	if err := s.storage.UploadDocument(ctx, s.bucket, doc.ObjectPath, contentType, reader, size); err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// Best effort: don't leave an orphaned object behind
		if delErr := s.storage.DeleteDocument(ctx, s.bucket, doc.ObjectPath); delErr != nil {
			log.Printf("WARN: failed to remove orphaned object %s: %v", doc.ObjectPath, delErr)
		}
		return nil, common.StoreError("create document", tenantID, err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, tenantID uuid.UUID) ([]*DocumentWithURL, error) {
	docs, err := s.documentRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, common.StoreError("list documents", tenantID, err)
	}

	out := make([]*DocumentWithURL, 0, len(docs))
	for _, doc := range docs {
		url, err := s.storage.GetPresignedURL(ctx, s.bucket, doc.ObjectPath, presignedURLExpiry)
		if err != nil {
			log.Printf("WARN: failed to presign %s: %v", doc.ObjectPath, err)
			url = ""
		}
		out = append(out, &DocumentWithURL{TenantDocument: doc, URL: url})
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, tenantID, documentID uuid.UUID) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundErrorf("document %s", documentID)
		}
		return common.StoreError("fetch document", tenantID, err)
	}
	if doc.TenantID != tenantID {
		return common.NotFoundErrorf("document %s", documentID)
	}

	if err := s.documentRepo.Delete(ctx, documentID); err != nil {
		return common.StoreError("delete document", tenantID, err)
	}
	if err := s.storage.DeleteDocument(ctx, s.bucket, doc.ObjectPath); err != nil {
		log.Printf("WARN: failed to remove object %s: %v", doc.ObjectPath, err)
	}
	return nil
}

// DeleteAllForTenant removes every document row for the tenant along with the
// stored objects. Object removal is best effort; the rows always go.
func (s *documentService) DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error {
	docs, err := s.documentRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return common.StoreError("list documents", tenantID, err)
	}
	for _, doc := range docs {
		if err := s.storage.DeleteDocument(ctx, s.bucket, doc.ObjectPath); err != nil {
			log.Printf("WARN: failed to remove object %s: %v", doc.ObjectPath, err)
		}
	}
	return s.documentRepo.DeleteByTenant(ctx, tenantID)
}
