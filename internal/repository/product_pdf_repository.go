package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pdf-delivery-service/internal/models"
)

// productPDFRepository implements the ProductPDFRepository interface
type productPDFRepository struct {
	db *gorm.DB
}

// NewProductPDFRepository creates a new product PDF repository
func NewProductPDFRepository(db *gorm.DB) models.ProductPDFRepository {
	return &productPDFRepository{db: db}
}

// Upsert creates or replaces the record for (shop, product_id)
func (r *productPDFRepository) Upsert(ctx context.Context, record *models.ProductPDF) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shop"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"product_title", "product_image", "product_price",
			"variants", "pdfs", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product PDF record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by primary key; nil when absent
func (r *productPDFRepository) GetByID(ctx context.Context, id string) (*models.ProductPDF, error) {
	var record models.ProductPDF
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product PDF record: %w", err)
	}
	return &record, nil
}

// GetByProduct retrieves the record for (shop, product_id); nil when absent
func (r *productPDFRepository) GetByProduct(ctx context.Context, shop, productID string) (*models.ProductPDF, error) {
	var record models.ProductPDF
	err := r.db.WithContext(ctx).
		Where("shop = ? AND product_id = ?", shop, productID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product PDF record: %w", err)
	}
	return &record, nil
}

// GetByProducts bulk-fetches records for a set of product ids
func (r *productPDFRepository) GetByProducts(ctx context.Context, shop string, productIDs []string) ([]*models.ProductPDF, error) {
	if len(productIDs) == 0 {
		return []*models.ProductPDF{}, nil
	}
	var records []*models.ProductPDF
	err := r.db.WithContext(ctx).
		Where("shop = ? AND product_id IN ?", shop, productIDs).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get product PDF records: %w", err)
	}
	return records, nil
}

// FindByPDFID locates the record whose embedded pdfs array contains the given
// attachment id; nil when no record holds it
func (r *productPDFRepository) FindByPDFID(ctx context.Context, pdfID string) (*models.ProductPDF, error) {
	needle, err := json.Marshal([]map[string]string{{"id": pdfID}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode pdf id filter: %w", err)
	}

	var record models.ProductPDF
	err = r.db.WithContext(ctx).
		Where("pdfs @> ?", string(needle)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product PDF record by pdf id: %w", err)
	}
	return &record, nil
}

// List retrieves all records for a shop, newest first
func (r *productPDFRepository) List(ctx context.Context, shop string) ([]*models.ProductPDF, error) {
	var records []*models.ProductPDF
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product PDF records: %w", err)
	}
	return records, nil
}

// Search filters a shop's records by title substring and/or product id
func (r *productPDFRepository) Search(ctx context.Context, shop, titleQuery, productID string) ([]*models.ProductPDF, error) {
	query := r.db.WithContext(ctx).Where("shop = ?", shop)
	if titleQuery != "" {
		query = query.Where("product_title ILIKE ?", "%"+titleQuery+"%")
	}
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	var records []*models.ProductPDF
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to search product PDF records: %w", err)
	}
	return records, nil
}

// Update saves an existing record
func (r *productPDFRepository) Update(ctx context.Context, record *models.ProductPDF) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to update product PDF record: %w", err)
	}
	return nil
}

// Delete removes the record for (shop, product_id)
func (r *productPDFRepository) Delete(ctx context.Context, shop, productID string) error {
	result := r.db.WithContext(ctx).
		Where("shop = ? AND product_id = ?", shop, productID).
		Delete(&models.ProductPDF{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product PDF record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product PDF record not found: %s", productID)
	}
	return nil
}
