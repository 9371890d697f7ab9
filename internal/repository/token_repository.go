package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pdf-delivery-service/internal/models"
)

// tokenRepository implements the TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new download token repository
func NewTokenRepository(db *gorm.DB) models.TokenRepository {
	return &tokenRepository{db: db}
}

// Create persists a new download token
func (r *tokenRepository) Create(ctx context.Context, token *models.DownloadToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create download token: %w", err)
	}
	return nil
}

// GetByToken retrieves a token by its opaque value; nil when absent
func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*models.DownloadToken, error) {
	var row models.DownloadToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get download token: %w", err)
	}
	return &row, nil
}

// GetByPDFAndOrder retrieves the token bound to a (pdfId, orderId) pair;
// nil when none has been issued yet
func (r *tokenRepository) GetByPDFAndOrder(ctx context.Context, pdfID, orderID string) (*models.DownloadToken, error) {
	var row models.DownloadToken
	err := r.db.WithContext(ctx).
		Where("pdf_id = ? AND order_id = ?", pdfID, orderID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get download token by pdf and order: %w", err)
	}
	return &row, nil
}

// IncrementUsage bumps used_count by one. A single SQL update keeps the
// increment atomic per row; max_uses stays a soft cap under concurrency.
func (r *tokenRepository) IncrementUsage(ctx context.Context, id string) error {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid token ID: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&models.DownloadToken{}).
		Where("id = ?", parsedID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment token usage: %w", err)
	}
	return nil
}
