package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeTokenRepo is an in-memory TokenRepository.
type fakeTokenRepo struct {
	tokens []*models.DownloadToken
}

func (r *fakeTokenRepo) Create(_ context.Context, token *models.DownloadToken) error {
	copied := *token
	r.tokens = append(r.tokens, &copied)
	return nil
}

func (r *fakeTokenRepo) GetByToken(_ context.Context, value string) (*models.DownloadToken, error) {
	for _, t := range r.tokens {
		if t.Token == value {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) GetByPDFAndOrder(_ context.Context, pdfID, orderID string) (*models.DownloadToken, error) {
	for _, t := range r.tokens {
		if t.PDFID == pdfID && t.OrderID == orderID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) IncrementUsage(_ context.Context, id string) error {
	for _, t := range r.tokens {
		if t.ID.String() == id {
			t.UsedCount++
			return nil
		}
	}
	return fmt.Errorf("token %s not found", id)
}

// fakePDFRepo is an in-memory ProductPDFRepository; only the lookups the
// token path needs are meaningful.
type fakePDFRepo struct {
	records []*models.ProductPDF
}

func (r *fakePDFRepo) Upsert(_ context.Context, record *models.ProductPDF) error {
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *fakePDFRepo) GetByID(_ context.Context, id string) (*models.ProductPDF, error) {
	for _, record := range r.records {
		if record.ID.String() == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePDFRepo) GetByProduct(_ context.Context, shop, productID string) (*models.ProductPDF, error) {
	for _, record := range r.records {
		if record.Shop == shop && record.ProductID == productID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePDFRepo) GetByProducts(_ context.Context, shop string, productIDs []string) ([]*models.ProductPDF, error) {
	var out []*models.ProductPDF
	for _, id := range productIDs {
		if record, _ := r.GetByProduct(context.Background(), shop, id); record != nil {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakePDFRepo) FindByPDFID(_ context.Context, pdfID string) (*models.ProductPDF, error) {
	for _, record := range r.records {
		pdfs, err := record.Attachments()
		if err != nil {
			return nil, err
		}
		for _, pdf := range pdfs {
			if pdf.ID == pdfID {
				copied := *record
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakePDFRepo) List(_ context.Context, shop string) ([]*models.ProductPDF, error) {
	var out []*models.ProductPDF
	for _, record := range r.records {
		if record.Shop == shop {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakePDFRepo) Search(ctx context.Context, shop, _, _ string) ([]*models.ProductPDF, error) {
	return r.List(ctx, shop)
}

func (r *fakePDFRepo) Update(_ context.Context, record *models.ProductPDF) error {
	for i, existing := range r.records {
		if existing.ID == record.ID {
			copied := *record
			r.records[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("record %s not found", record.ID)
}

func (r *fakePDFRepo) Delete(_ context.Context, shop, productID string) error {
	for i, record := range r.records {
		if record.Shop == shop && record.ProductID == productID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeTemplateRepo is an in-memory TemplateRepository that enforces the
// (shop, language) uniqueness the real table carries.
type fakeTemplateRepo struct {
	templates []*models.EmailTemplate
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *models.EmailTemplate) error {
	for _, t := range r.templates {
		if t.Shop == template.Shop && t.Language == template.Language {
			return repository.ErrTemplateExists
		}
	}
	copied := *template
	r.templates = append(r.templates, &copied)
	return nil
}

func (r *fakeTemplateRepo) Upsert(_ context.Context, template *models.EmailTemplate) error {
	for i, t := range r.templates {
		if t.Shop == template.Shop && t.Language == template.Language {
			copied := *template
			r.templates[i] = &copied
			return nil
		}
	}
	copied := *template
	r.templates = append(r.templates, &copied)
	return nil
}

func (r *fakeTemplateRepo) GetByLanguage(_ context.Context, shop, language string) (*models.EmailTemplate, error) {
	for _, t := range r.templates {
		if t.Shop == shop && t.Language == language {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTemplateRepo) GetAny(_ context.Context, shop string) (*models.EmailTemplate, error) {
	for _, t := range r.templates {
		if t.Shop == shop {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, shop string) ([]*models.EmailTemplate, error) {
	var out []*models.EmailTemplate
	for _, t := range r.templates {
		if t.Shop == shop {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, shop, language string) error {
	for i, t := range r.templates {
		if t.Shop == shop && t.Language == language {
			r.templates = append(r.templates[:i], r.templates[i+1:]...)
			return nil
		}
	}
	return nil
}
