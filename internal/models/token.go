package models

import (
	"time"

	"github.com/google/uuid"
)

// DownloadToken is an opaque, bounded-use download credential bound to a
// (pdfId, orderId) pair. Issuance is idempotent per pair: retried webhook
// deliveries get the existing token back instead of minting a new one.
type DownloadToken struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Token        string    `json:"token" gorm:"type:varchar(128);not null;uniqueIndex"`
	PDFID        string    `json:"pdfId" gorm:"type:varchar(255);not null;index:idx_download_tokens_pdf_order"`
	OrderID      string    `json:"orderId" gorm:"type:varchar(255);not null;index:idx_download_tokens_pdf_order"`
	ProductTitle string    `json:"productTitle" gorm:"type:varchar(500)"`
	PDFName      string    `json:"pdfName" gorm:"type:varchar(500)"`
	ExpiresAt    time.Time `json:"expiresAt" gorm:"not null"`
	UsedCount    int       `json:"usedCount" gorm:"default:0"`
	MaxUses      int       `json:"maxUses" gorm:"default:10"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the DownloadToken model
func (DownloadToken) TableName() string {
	return "download_tokens"
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *DownloadToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Exhausted reports whether the token's use budget is spent. MaxUses is a
// soft cap: a small over-count under concurrent redemption is tolerated.
func (t *DownloadToken) Exhausted() bool {
	return t.UsedCount >= t.MaxUses
}

// TokenPolicy parameterizes token issuance. The order-email flow and the
// ad-hoc checkout flow share one token schema and differ only in policy.
type TokenPolicy struct {
	TokenBytes int
	TTL        time.Duration
	MaxUses    int
}

// OrderEmailTokenPolicy is the policy used by the order email pipeline.
func OrderEmailTokenPolicy() TokenPolicy {
	return TokenPolicy{TokenBytes: 32, TTL: 30 * 24 * time.Hour, MaxUses: 10}
}

// CheckoutTokenPolicy is the policy used by the public token issuance
// endpoint reached from the checkout extension.
func CheckoutTokenPolicy() TokenPolicy {
	return TokenPolicy{TokenBytes: 24, TTL: 24 * time.Hour, MaxUses: 10}
}
