package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VariantAll marks a PDF as applying to every variant of its product.
// An empty variant id means the same thing.
const VariantAll = "all"

// ProductVariant describes one variant of a product as the merchant sees it.
// HasPDF is derived from the pdfs array and recomputed on every mutation.
type ProductVariant struct {
	VariantID    string `json:"variantId"`
	VariantTitle string `json:"variantTitle"`
	VariantPrice string `json:"variantPrice,omitempty"`
	HasPDF       bool   `json:"hasPdf"`
}

// PDFAttachment is one PDF file attached to a product, optionally scoped to a
// single variant. At most one attachment per variant id is allowed; this is
// enforced by the service layer on every write, not by the storage format.
type PDFAttachment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         string    `json:"size"`
	URL          string    `json:"url"`
	Path         string    `json:"path"`
	VariantID    string    `json:"variantId"`
	VariantTitle string    `json:"variantTitle,omitempty"`
	VariantPrice string    `json:"variantPrice,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// AppliesToVariant reports whether the attachment covers the given variant id.
// Ids are compared after GID normalization so resource-style and bare ids match.
func (p *PDFAttachment) AppliesToVariant(variantID string) bool {
	if p.VariantID == "" || p.VariantID == VariantAll {
		return true
	}
	return NormalizeID(p.VariantID) == NormalizeID(variantID)
}

// ProductPDF is the per-(shop, product) record holding the product's variants
// and attached PDFs as JSON documents.
type ProductPDF struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Shop         string         `json:"shop" gorm:"type:varchar(255);not null;uniqueIndex:idx_product_pdfs_shop_product"`
	ProductID    string         `json:"productId" gorm:"type:varchar(255);not null;uniqueIndex:idx_product_pdfs_shop_product"`
	ProductTitle string         `json:"productTitle" gorm:"type:varchar(500)"`
	ProductImage string         `json:"productImage" gorm:"type:varchar(2048)"`
	ProductPrice string         `json:"productPrice" gorm:"type:varchar(50)"`
	Variants     datatypes.JSON `json:"variants" gorm:"type:jsonb"`
	PDFs         datatypes.JSON `json:"pdfs" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for the ProductPDF model
func (ProductPDF) TableName() string {
	return "product_pdfs"
}

// Attachments decodes the pdfs JSON column.
func (p *ProductPDF) Attachments() ([]PDFAttachment, error) {
	if len(p.PDFs) == 0 {
		return nil, nil
	}
	var pdfs []PDFAttachment
	if err := json.Unmarshal(p.PDFs, &pdfs); err != nil {
		return nil, fmt.Errorf("failed to decode pdfs for product %s: %w", p.ProductID, err)
	}
	return pdfs, nil
}

// VariantList decodes the variants JSON column.
func (p *ProductPDF) VariantList() ([]ProductVariant, error) {
	if len(p.Variants) == 0 {
		return nil, nil
	}
	var variants []ProductVariant
	if err := json.Unmarshal(p.Variants, &variants); err != nil {
		return nil, fmt.Errorf("failed to decode variants for product %s: %w", p.ProductID, err)
	}
	return variants, nil
}

// SetAttachments encodes the pdfs array and recomputes every variant's HasPDF
// flag. All writes to the pdfs column go through here so the derived flag
// never drifts.
func (p *ProductPDF) SetAttachments(pdfs []PDFAttachment) error {
	if pdfs == nil {
		pdfs = []PDFAttachment{}
	}
	data, err := json.Marshal(pdfs)
	if err != nil {
		return fmt.Errorf("failed to encode pdfs: %w", err)
	}
	p.PDFs = datatypes.JSON(data)

	variants, err := p.VariantList()
	if err != nil {
		return err
	}
	for i := range variants {
		variants[i].HasPDF = variantHasPDF(pdfs, variants[i].VariantID)
	}
	return p.SetVariants(variants)
}

// SetVariants encodes the variants JSON column.
func (p *ProductPDF) SetVariants(variants []ProductVariant) error {
	if variants == nil {
		variants = []ProductVariant{}
	}
	data, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("failed to encode variants: %w", err)
	}
	p.Variants = datatypes.JSON(data)
	return nil
}

func variantHasPDF(pdfs []PDFAttachment, variantID string) bool {
	for i := range pdfs {
		if pdfs[i].AppliesToVariant(variantID) {
			return true
		}
	}
	return false
}
