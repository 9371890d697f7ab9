package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/mailer"
	"pdf-delivery-service/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeTokenRepo is an in-memory TokenRepository.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens []*models.DownloadToken
}

func (r *fakeTokenRepo) Create(_ context.Context, token *models.DownloadToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *token
	r.tokens = append(r.tokens, &copied)
	return nil
}

func (r *fakeTokenRepo) GetByToken(_ context.Context, value string) (*models.DownloadToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == value {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) GetByPDFAndOrder(_ context.Context, pdfID, orderID string) (*models.DownloadToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.PDFID == pdfID && t.OrderID == orderID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) IncrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID.String() == id {
			t.UsedCount++
			return nil
		}
	}
	return fmt.Errorf("token %s not found", id)
}

// fakePDFRepo is an in-memory ProductPDFRepository keyed by (shop, productId).
type fakePDFRepo struct {
	mu      sync.Mutex
	records []*models.ProductPDF
}

func (r *fakePDFRepo) Upsert(_ context.Context, record *models.ProductPDF) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.records {
		if existing.Shop == record.Shop && existing.ProductID == record.ProductID {
			copied := *record
			r.records[i] = &copied
			return nil
		}
	}
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *fakePDFRepo) GetByID(_ context.Context, id string) (*models.ProductPDF, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID.String() == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePDFRepo) GetByProduct(_ context.Context, shop, productID string) (*models.ProductPDF, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.Shop == shop && record.ProductID == productID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePDFRepo) GetByProducts(_ context.Context, shop string, productIDs []string) ([]*models.ProductPDF, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var out []*models.ProductPDF
	for _, record := range r.records {
		if record.Shop == shop && wanted[record.ProductID] {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakePDFRepo) FindByPDFID(_ context.Context, pdfID string) (*models.ProductPDF, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProductPDF
	for _, record := range r.records {
		if record.Shop == shop {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakePDFRepo) Search(ctx context.Context, shop, titleQuery, productID string) ([]*models.ProductPDF, error) {
	records, err := r.List(ctx, shop)
	if err != nil {
		return nil, err
	}
	var out []*models.ProductPDF
	for _, record := range records {
		if productID != "" && record.ProductID != productID {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *fakePDFRepo) Update(ctx context.Context, record *models.ProductPDF) error {
	return r.Upsert(ctx, record)
}

func (r *fakePDFRepo) Delete(_ context.Context, shop, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, record := range r.records {
		if record.Shop == shop && record.ProductID == productID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeOrderRepo is an in-memory OrderRepository.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (r *fakeOrderRepo) GetByOrderID(_ context.Context, shop, orderID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Shop == shop && o.OrderID == orderID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	r.orders = append(r.orders, &copied)
	order.CreatedAt = copied.CreatedAt
	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.orders {
		if o.ID == order.ID {
			copied := *order
			r.orders[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("order %s not found", order.ID)
}

func (r *fakeOrderRepo) MarkEmailSent(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID.String() == id {
			if o.EmailSent {
				return false, nil
			}
			o.EmailSent = true
			return true, nil
		}
	}
	return false, fmt.Errorf("order %s not found", id)
}

// fakeTemplateRepo is an in-memory TemplateRepository keyed by
// (shop, language).
type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates []*models.EmailTemplate
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *models.EmailTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *template
	r.templates = append(r.templates, &copied)
	return nil
}

func (r *fakeTemplateRepo) Upsert(ctx context.Context, template *models.EmailTemplate) error {
	return r.Create(ctx, template)
}

func (r *fakeTemplateRepo) GetByLanguage(_ context.Context, shop, language string) (*models.EmailTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Shop == shop && t.Language == language {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTemplateRepo) GetAny(_ context.Context, shop string) (*models.EmailTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Shop == shop {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTemplateRepo) List(_ context.Context, shop string) ([]*models.EmailTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.templates {
		if t.Shop == shop && t.Language == language {
			r.templates = append(r.templates[:i], r.templates[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeMailer records sent messages and can be made to fail.
type fakeMailer struct {
	mu       sync.Mutex
	sent     []*mailer.Message
	failWith error
}

func (m *fakeMailer) Send(_ context.Context, message *mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	copied := *message
	m.sent = append(m.sent, &copied)
	return nil
}

func (m *fakeMailer) GetName() string { return "fake" }

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakeStorage records uploads and deletes in memory.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) GetProviderName() models.CloudProvider { return "fake" }

func (s *fakeStorage) Upload(_ context.Context, bucket, path string, content io.Reader, _ string) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+path] = data
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, bucket, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+path)
	s.deleted = append(s.deleted, bucket+"/"+path)
	return nil
}

func (s *fakeStorage) PublicURL(bucket, path string) string {
	return "https://storage.test/" + bucket + "/" + path
}

func (s *fakeStorage) TestConnection(context.Context) error { return nil }

func (s *fakeStorage) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
