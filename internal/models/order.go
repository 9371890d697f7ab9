package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the per-(shop, external order id) record tracking whether the
// download email for that order has been sent. The record itself is upserted
// on every webhook delivery; only the email send is gated by EmailSent.
type Order struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Shop          string         `json:"shop" gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_shop_order"`
	OrderID       string         `json:"orderId" gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_shop_order"`
	OrderName     string         `json:"orderName" gorm:"type:varchar(255)"`
	CustomerEmail string         `json:"customerEmail" gorm:"type:varchar(255)"`
	CustomerName  string         `json:"customerName" gorm:"type:varchar(255)"`
	Currency      string         `json:"currency" gorm:"type:varchar(10)"`
	Amount        float64        `json:"amount"`
	VariantID     string         `json:"variantId" gorm:"type:varchar(255)"` // first line item's, informational only
	EmailSent     bool           `json:"emailSent" gorm:"default:false;index"`
	SentAt        *time.Time     `json:"sentAt"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// WebhookOrder is the order payload delivered by the orders/create webhook.
// Only the fields the pipeline reads are declared.
type WebhookOrder struct {
	ID                  json.Number     `json:"id"`
	Name                string          `json:"name"`
	Currency            string          `json:"currency"`
	PresentmentCurrency string          `json:"presentment_currency"`
	TotalPrice          string          `json:"total_price"`
	CurrentTotalPrice   string          `json:"current_total_price"`
	ContactEmail        string          `json:"contact_email"`
	Email               string          `json:"email"`
	Customer            *OrderCustomer  `json:"customer"`
	BillingAddress      *BillingAddress `json:"billing_address"`
	LineItems           []LineItem      `json:"line_items"`
}

// OrderCustomer carries the customer block of a webhook order.
type OrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// BillingAddress carries the billing address block of a webhook order.
type BillingAddress struct {
	Email string `json:"email"`
}

// LineItem is one purchased item on a webhook order.
type LineItem struct {
	ProductID    json.Number `json:"product_id"`
	VariantID    json.Number `json:"variant_id"`
	VariantTitle string      `json:"variant_title"`
	Title        string      `json:"title"`
	Quantity     int         `json:"quantity"`
	Price        string      `json:"price"`
}

// CustomerEmail resolves the recipient address, falling through the payload's
// alternative email fields. "customer" is the original app's last-resort value.
func (o *WebhookOrder) CustomerEmail() string {
	if o.ContactEmail != "" {
		return o.ContactEmail
	}
	if o.Customer != nil && o.Customer.Email != "" {
		return o.Customer.Email
	}
	if o.Email != "" {
		return o.Email
	}
	if o.BillingAddress != nil && o.BillingAddress.Email != "" {
		return o.BillingAddress.Email
	}
	return "customer"
}

// CustomerName resolves the customer display name.
func (o *WebhookOrder) CustomerName() string {
	if o.Customer != nil {
		name := strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
		if name != "" {
			return name
		}
	}
	return "Customer"
}

// ResolvedCurrency falls through currency fields, defaulting to USD.
func (o *WebhookOrder) ResolvedCurrency() string {
	if o.Currency != "" {
		return o.Currency
	}
	if o.PresentmentCurrency != "" {
		return o.PresentmentCurrency
	}
	return "USD"
}

// TotalAmount parses the order total, falling back through total_price and
// current_total_price to zero.
func (o *WebhookOrder) TotalAmount() float64 {
	for _, raw := range []string{o.TotalPrice, o.CurrentTotalPrice} {
		if raw == "" {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return 0
}
