package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailTemplate is a merchant-authored email template, one per
// (shop, language). The language labels double as variant titles in this
// domain: merchants name variants after languages, so an order's own line
// items signal which localized template applies.
type EmailTemplate struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Shop      string    `json:"shop" gorm:"type:varchar(255);not null;uniqueIndex:idx_email_templates_shop_language"`
	Language  string    `json:"language" gorm:"type:varchar(100);not null;uniqueIndex:idx_email_templates_shop_language"`
	Subject   string    `json:"subject" gorm:"type:varchar(500)"`
	Body      string    `json:"template" gorm:"column:template;type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the EmailTemplate model
func (EmailTemplate) TableName() string {
	return "email_templates"
}
