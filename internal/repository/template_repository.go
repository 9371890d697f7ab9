package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pdf-delivery-service/internal/models"
)

// ErrTemplateExists is returned when a create collides with the unique
// (shop, language) constraint; callers surface it as a conflict response.
var ErrTemplateExists = errors.New("template already exists for this language")

// templateRepository implements the TemplateRepository interface
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new email template repository
func NewTemplateRepository(db *gorm.DB) models.TemplateRepository {
	return &templateRepository{db: db}
}

// Create inserts a new template, failing with ErrTemplateExists when the
// (shop, language) pair is already taken
func (r *templateRepository) Create(ctx context.Context, template *models.EmailTemplate) error {
	err := r.db.WithContext(ctx).Create(template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTemplateExists
		}
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// Upsert creates or updates the template for (shop, language)
func (r *templateRepository) Upsert(ctx context.Context, template *models.EmailTemplate) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"subject", "template", "updated_at"}),
	}).Create(template).Error
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}
	return nil
}

// GetByLanguage retrieves the template for (shop, language); nil when absent
func (r *templateRepository) GetByLanguage(ctx context.Context, shop, language string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.WithContext(ctx).
		Where("shop = ? AND language = ?", shop, language).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

// GetAny retrieves an arbitrary template for the shop; nil when the shop has
// none. Used as the resolver's last resort before the built-in default.
func (r *templateRepository) GetAny(ctx context.Context, shop string) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("language ASC").
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get any template: %w", err)
	}
	return &template, nil
}

// List retrieves all templates for a shop ordered by language
func (r *templateRepository) List(ctx context.Context, shop string) ([]*models.EmailTemplate, error) {
	var templates []*models.EmailTemplate
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("language ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Delete removes the template for (shop, language)
func (r *templateRepository) Delete(ctx context.Context, shop, language string) error {
	result := r.db.WithContext(ctx).
		Where("shop = ? AND language = ?", shop, language).
		Delete(&models.EmailTemplate{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("template not found: %s/%s", shop, language)
	}
	return nil
}
