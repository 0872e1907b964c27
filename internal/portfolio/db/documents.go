package db

import (
	"context"
	"fmt"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
)

// CreateDocument inserts a document for its owner.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

// GetDocument returns ErrNotFound for an unknown id.
func (r *Repository) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

// UpdateDocument saves a document after its file or link changed.
func (r *Repository) UpdateDocument(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(doc).Select("*").Omit("file_id", "created_at").Updates(doc)
	return deleted(res)
}

// DeleteDocument removes the row only; the stored file is the caller's concern.
func (r *Repository) DeleteDocument(ctx context.Context, id uint) error {
	return deleted(r.db.WithContext(ctx).Delete(&models.Document{}, id))
}

func ownerColumn(kind models.OwnerKind) (string, error) {
	switch kind {
	case models.OwnerCompany:
		return "company_id", nil
	case models.OwnerIndividual:
		return "individual_id", nil
	case models.OwnerProgramme:
		return "programme_id", nil
	}
	return "", fmt.Errorf("%w: document owner %q", e.ErrInvalidInput, kind)
}

// DocumentsFor lists the owner's documents in id order.
func (r *Repository) DocumentsFor(ctx context.Context, owner models.Owner) ([]models.Document, error) {
	column, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	var docs []models.Document
	err = r.db.WithContext(ctx).Where(column+" = ?", owner.ID).Order("file_id").Find(&docs).Error
	return docs, translate(err)
}

// OwnerName is the display name used in the owner's storage directory.
func (r *Repository) OwnerName(ctx context.Context, owner models.Owner) (string, error) {
	var model any
	switch owner.Kind {
	case models.OwnerCompany:
		model = &models.Company{}
	case models.OwnerIndividual:
		model = &models.Individual{}
	case models.OwnerProgramme:
		model = &models.Programme{}
	default:
		return "", fmt.Errorf("%w: document owner %q", e.ErrInvalidInput, owner.Kind)
	}
	var names []string
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", owner.ID).Limit(1).Pluck("name", &names).Error
	if err != nil {
		return "", translate(err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s %d", e.ErrNotFound, owner.Kind, owner.ID)
	}
	return names[0], nil
}

func (r *Repository) deleteDocumentsWhere(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	db := r.db.WithContext(ctx)
	var docs []models.Document
	if err := db.Where(query, args...).Find(&docs).Error; err != nil {
		return nil, translate(err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if err := db.Where(query, args...).Delete(&models.Document{}).Error; err != nil {
		return nil, translate(err)
	}
	return docs, nil
}
