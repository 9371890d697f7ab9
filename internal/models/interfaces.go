package models

import (
	"context"
	"io"
)

// CloudProvider represents the supported storage providers
type CloudProvider string

const (
	ProviderAWS   CloudProvider = "aws"
	ProviderLocal CloudProvider = "local"
)

// StorageProvider defines the object-storage operations the PDF service needs.
// PDF files live in a single bucket; records keep the object path so delete
// and replace can remove the underlying file.
type StorageProvider interface {
	GetProviderName() CloudProvider
	Upload(ctx context.Context, bucket, path string, content io.Reader, contentType string) error
	Delete(ctx context.Context, bucket, path string) error
	PublicURL(bucket, path string) string
	TestConnection(ctx context.Context) error
}

// ProductPDFRepository persists per-(shop, product) PDF records.
type ProductPDFRepository interface {
	Upsert(ctx context.Context, record *ProductPDF) error
	GetByID(ctx context.Context, id string) (*ProductPDF, error)
	GetByProduct(ctx context.Context, shop, productID string) (*ProductPDF, error)
	GetByProducts(ctx context.Context, shop string, productIDs []string) ([]*ProductPDF, error)
	FindByPDFID(ctx context.Context, pdfID string) (*ProductPDF, error)
	List(ctx context.Context, shop string) ([]*ProductPDF, error)
	Search(ctx context.Context, shop, titleQuery, productID string) ([]*ProductPDF, error)
	Update(ctx context.Context, record *ProductPDF) error
	Delete(ctx context.Context, shop, productID string) error
}

// OrderRepository persists order email state.
type OrderRepository interface {
	GetByOrderID(ctx context.Context, shop, orderID string) (*Order, error)
	Create(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	// MarkEmailSent sets email_sent only if it is still false and reports whether
	// this caller won the write. Closes the duplicate-delivery race.
	MarkEmailSent(ctx context.Context, id string) (bool, error)
}

// TokenRepository persists download tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *DownloadToken) error
	GetByToken(ctx context.Context, token string) (*DownloadToken, error)
	GetByPDFAndOrder(ctx context.Context, pdfID, orderID string) (*DownloadToken, error)
	IncrementUsage(ctx context.Context, id string) error
}

// AWSConfig represents AWS S3 configuration
type AWSConfig struct {
	Region          string `json:"region" mapstructure:"region"`
	AccessKeyID     string `json:"accessKeyId,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" mapstructure:"secret_access_key"`
	SessionToken    string `json:"sessionToken,omitempty" mapstructure:"session_token"`
	Endpoint        string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	ForcePathStyle  bool   `json:"forcePathStyle,omitempty" mapstructure:"force_path_style"`
	PublicURLBase   string `json:"publicUrlBase,omitempty" mapstructure:"public_url_base"`
}

// LocalConfig represents local filesystem storage configuration
type LocalConfig struct {
	BasePath string `json:"basePath" mapstructure:"base_path"`
	BaseURL  string `json:"baseUrl" mapstructure:"base_url"`
}

// TemplateRepository persists merchant email templates.
type TemplateRepository interface {
	Create(ctx context.Context, template *EmailTemplate) error
	Upsert(ctx context.Context, template *EmailTemplate) error
	GetByLanguage(ctx context.Context, shop, language string) (*EmailTemplate, error)
	GetAny(ctx context.Context, shop string) (*EmailTemplate, error)
	List(ctx context.Context, shop string) ([]*EmailTemplate, error)
	Delete(ctx context.Context, shop, language string) error
}
