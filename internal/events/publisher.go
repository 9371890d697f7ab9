package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Event subjects published by this service.
const (
	SubjectEmailSent   = "pdf.order.email.sent"
	SubjectPDFUploaded = "pdf.attachment.uploaded"
	SubjectPDFDeleted  = "pdf.attachment.deleted"
)

// EmailSentEvent is published after an order email has been delivered.
type EmailSentEvent struct {
	Shop     string    `json:"shop"`
	OrderID  string    `json:"orderId"`
	Email    string    `json:"email"`
	PDFCount int       `json:"pdfCount"`
	SentAt   time.Time `json:"sentAt"`
}

// PDFEvent is published when a PDF attachment is uploaded or deleted.
type PDFEvent struct {
	Shop      string `json:"shop"`
	ProductID string `json:"productId"`
	PDFID     string `json:"pdfId"`
	PDFName   string `json:"pdfName"`
	VariantID string `json:"variantId,omitempty"`
}

// Publisher publishes domain events to NATS. A nil Publisher is valid and
// drops all events, so callers never need to check whether eventing is
// enabled.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

// NewPublisher connects to NATS and returns a publisher. Returns nil when
// url is empty, which disables eventing.
func NewPublisher(url string, logger *logrus.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logrus.New()
	}

	opts := []nats.Option{
		nats.Name("pdf-delivery-service"),
		nats.Timeout(10 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.WithField("url", url).Info("Connected to NATS")
	return &Publisher{conn: conn, logger: logger}, nil
}

func (p *Publisher) publish(ctx context.Context, subject string, event interface{}) {
	if p == nil || p.conn == nil || !p.conn.IsConnected() {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("Failed to marshal event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
		return
	}

	p.logger.WithField("subject", subject).Debug("Published event")
}

// EmailSent publishes an order email delivery event
func (p *Publisher) EmailSent(ctx context.Context, event EmailSentEvent) {
	p.publish(ctx, SubjectEmailSent, event)
}

// PDFUploaded publishes a PDF upload event
func (p *Publisher) PDFUploaded(ctx context.Context, event PDFEvent) {
	p.publish(ctx, SubjectPDFUploaded, event)
}

// PDFDeleted publishes a PDF removal event
func (p *Publisher) PDFDeleted(ctx context.Context, event PDFEvent) {
	p.publish(ctx, SubjectPDFDeleted, event)
}

// Close drains the NATS connection
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
