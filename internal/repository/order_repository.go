package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pdf-delivery-service/internal/models"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) models.OrderRepository {
	return &orderRepository{db: db}
}

// GetByOrderID retrieves the record for (shop, order_id); nil when absent
func (r *orderRepository) GetByOrderID(ctx context.Context, shop, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("shop = ? AND order_id = ?", shop, orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// Create creates a new order record
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update saves an existing order record
func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// MarkEmailSent flips email_sent to true only if it is still false. The
// conditional write is what serializes concurrent deliveries of the same
// order: exactly one caller observes RowsAffected == 1.
func (r *orderRepository) MarkEmailSent(ctx context.Context, id string) (bool, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("invalid order ID: %w", err)
	}

	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND email_sent = ?", parsedID, false).
		Updates(map[string]interface{}{
			"email_sent": true,
			"sent_at":    now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark order emailed: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
