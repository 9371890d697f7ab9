package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/events"
	"pdf-delivery-service/internal/mailer"
	"pdf-delivery-service/internal/models"
)

// ErrMissingOrderID rejects webhook payloads without an order id.
var ErrMissingOrderID = errors.New("missing order id")

// OrderEmailService runs the order webhook pipeline: record the order, match
// its line items against attached PDFs, issue download tokens, render the
// email and send it exactly once per order.
type OrderEmailService struct {
	orders      models.OrderRepository
	pdfs        models.ProductPDFRepository
	tokens      *TokenService
	templates   *TemplateService
	mail        mailer.Mailer
	events      *events.Publisher
	downloadURL func(token string) string
	fromAddress string
	logger      *logrus.Logger
}

// NewOrderEmailService creates a new order email service. downloadURL turns a
// token into the public redemption link.
func NewOrderEmailService(
	orders models.OrderRepository,
	pdfs models.ProductPDFRepository,
	tokens *TokenService,
	templates *TemplateService,
	mail mailer.Mailer,
	publisher *events.Publisher,
	downloadURL func(token string) string,
	fromAddress string,
	logger *logrus.Logger,
) *OrderEmailService {
	if logger == nil {
		logger = logrus.New()
	}
	return &OrderEmailService{
		orders:      orders,
		pdfs:        pdfs,
		tokens:      tokens,
		templates:   templates,
		mail:        mail,
		events:      publisher,
		downloadURL: downloadURL,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

// matchedPDF pairs an attachment with the line item it matched and the token
// issued for it.
type matchedPDF struct {
	link PDFLink
	pdf  models.PDFAttachment
}

// Process handles one orders/create delivery.
func (s *OrderEmailService) Process(ctx context.Context, shop string, payload *models.WebhookOrder) (*models.OrderWebhookResponse, error) {
	orderID := payload.ID.String()
	if orderID == "" {
		return nil, ErrMissingOrderID
	}

	log := s.logger.WithFields(logrus.Fields{
		"shop":     shop,
		"order_id": orderID,
	})

	order, err := s.upsertOrder(ctx, shop, orderID, payload)
	if err != nil {
		return nil, err
	}
	if order.EmailSent {
		log.Info("Email already sent for order")
		return &models.OrderWebhookResponse{Success: true, Message: "Email already sent"}, nil
	}

	records, err := s.loadProductRecords(ctx, shop, payload.LineItems)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		log.Info("No PDFs found for products in order")
		return &models.OrderWebhookResponse{Success: true}, nil
	}

	matched, err := s.matchAndIssueTokens(ctx, order, payload, records)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		log.Info("No PDFs matched for variants in order")
		return &models.OrderWebhookResponse{Success: true}, nil
	}

	template, err := s.templates.Resolve(ctx, shop, payload.LineItems)
	if err != nil {
		return nil, err
	}

	vars := EmailVars{
		ShopName:     models.ShopName(shop),
		CustomerName: payload.CustomerName(),
		OrderName:    payload.Name,
		OrderID:      orderID,
		Currency:     payload.ResolvedCurrency(),
		TotalAmount:  payload.TotalAmount(),
		PDFCount:     len(matched),
	}

	links := make([]PDFLink, len(matched))
	for i, m := range matched {
		links[i] = m.link
	}
	pdfLinksHTML := RenderPDFLinks(links)

	var subject, body string
	templateUsed := "default"
	if template != nil {
		subject, body = RenderTemplate(template, vars, pdfLinksHTML)
		templateUsed = template.Language
	} else {
		subject = DefaultSubject(vars.ShopName)
		body = RenderDefaultEmail(vars, RenderOrderSummary(payload.LineItems, vars.Currency), pdfLinksHTML)
	}

	message := &mailer.Message{
		To:       order.CustomerEmail,
		Subject:  subject,
		BodyHTML: body,
		From:     s.fromAddress,
		FromName: vars.ShopName,
	}
	if err := s.mail.Send(ctx, message); err != nil {
		// email_sent stays false so the next delivery retries the send
		return nil, fmt.Errorf("failed to send order email: %w", err)
	}

	won, err := s.orders.MarkEmailSent(ctx, order.ID.String())
	if err != nil {
		log.WithError(err).Error("Failed to mark order emailed after send")
	} else if !won {
		log.Warn("Concurrent delivery already marked order emailed")
	}

	s.events.EmailSent(ctx, events.EmailSentEvent{
		Shop:     shop,
		OrderID:  orderID,
		Email:    order.CustomerEmail,
		PDFCount: len(matched),
		SentAt:   time.Now(),
	})

	log.WithFields(logrus.Fields{
		"pdf_count": len(matched),
		"template":  templateUsed,
	}).Info("Order email sent")

	return &models.OrderWebhookResponse{
		Success:      true,
		Message:      "Email sent with PDF download links",
		PDFCount:     len(matched),
		TemplateUsed: templateUsed,
	}, nil
}

// upsertOrder records the delivery. Existing rows keep their email_sent
// state; retried deliveries must not reopen the send gate.
func (s *OrderEmailService) upsertOrder(ctx context.Context, shop, orderID string, payload *models.WebhookOrder) (*models.Order, error) {
	order, err := s.orders.GetByOrderID(ctx, shop, orderID)
	if err != nil {
		return nil, err
	}

	firstVariantID := ""
	if len(payload.LineItems) > 0 {
		firstVariantID = payload.LineItems[0].VariantID.String()
	}

	if order == nil {
		order = &models.Order{
			ID:      uuid.New(),
			Shop:    shop,
			OrderID: orderID,
		}
	}
	order.OrderName = payload.Name
	order.CustomerEmail = payload.CustomerEmail()
	order.CustomerName = payload.CustomerName()
	order.Currency = payload.ResolvedCurrency()
	order.Amount = payload.TotalAmount()
	order.VariantID = firstVariantID

	if order.CreatedAt.IsZero() {
		if err := s.orders.Create(ctx, order); err != nil {
			return nil, err
		}
	} else {
		if err := s.orders.Update(ctx, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// loadProductRecords bulk-fetches the PDF records for every distinct product
// in the order.
func (s *OrderEmailService) loadProductRecords(ctx context.Context, shop string, lineItems []models.LineItem) (map[string]*models.ProductPDF, error) {
	var productIDs []string
	seen := make(map[string]bool)
	for _, item := range lineItems {
		if item.ProductID.String() == "" {
			continue
		}
		gid := models.ProductGID(item.ProductID.String())
		if !seen[gid] {
			seen[gid] = true
			productIDs = append(productIDs, gid)
		}
	}

	records, err := s.pdfs.GetByProducts(ctx, shop, productIDs)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*models.ProductPDF, len(records))
	for _, record := range records {
		byProduct[record.ProductID] = record
	}
	return byProduct, nil
}

// matchAndIssueTokens walks the line items, collects the attachments covering
// each purchased variant and issues one download token per (pdf, order) pair.
func (s *OrderEmailService) matchAndIssueTokens(ctx context.Context, order *models.Order, payload *models.WebhookOrder, records map[string]*models.ProductPDF) ([]matchedPDF, error) {
	var matched []matchedPDF

	for _, item := range payload.LineItems {
		if item.ProductID.String() == "" {
			continue
		}
		record, ok := records[models.ProductGID(item.ProductID.String())]
		if !ok {
			continue
		}

		attachments, err := record.Attachments()
		if err != nil {
			return nil, err
		}

		variantID := item.VariantID.String()
		for _, pdf := range attachments {
			if !pdf.AppliesToVariant(variantID) {
				continue
			}

			token, err := s.tokens.Issue(ctx, pdf.ID, order.ID.String(), record.ProductTitle, pdf.Name, models.OrderEmailTokenPolicy())
			if err != nil {
				return nil, err
			}

			variantTitle := item.VariantTitle
			if variantTitle == "" {
				variantTitle = pdf.VariantTitle
			}
			if variantTitle == "" {
				variantTitle = "Default"
			}

			matched = append(matched, matchedPDF{
				pdf: pdf,
				link: PDFLink{
					Name:         pdf.Name,
					URL:          pdf.URL,
					ProductTitle: record.ProductTitle,
					VariantTitle: variantTitle,
					DownloadLink: s.downloadURL(token.Token),
				},
			})
		}
	}

	return matched, nil
}
