package repositories

import (
	"context"

	"rentledger/internal/models"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.TenantDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TenantDocument, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.TenantDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
}

type documentRepo struct {
	db Database
}

func NewDocumentRepo(db Database) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *models.TenantDocument) error {
	query := `
		INSERT INTO tenant_documents (id, tenant_id, file_name, object_path, category, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, doc.ID, doc.TenantID, doc.FileName, doc.ObjectPath, doc.Category)
	return err
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantDocument, error) {
	doc := &models.TenantDocument{}
	query := `
		SELECT id, tenant_id, file_name, object_path, category, uploaded_at
		FROM tenant_documents
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&doc.ID, &doc.TenantID, &doc.FileName, &doc.ObjectPath, &doc.Category, &doc.UploadedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.TenantDocument, error) {
	query := `
		SELECT id, tenant_id, file_name, object_path, category, uploaded_at
		FROM tenant_documents
		WHERE tenant_id = $1
		ORDER BY uploaded_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.TenantDocument
	for rows.Next() {
		doc := &models.TenantDocument{}
		if err := rows.Scan(&doc.ID, &doc.TenantID, &doc.FileName, &doc.ObjectPath, &doc.Category, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tenant_documents WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *documentRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error {
	query := `DELETE FROM tenant_documents WHERE tenant_id = $1`
	_, err := r.db.Exec(ctx, query, tenantID)
	return err
}
