package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// SendGridMailer sends email via the SendGrid API
type SendGridMailer struct {
	from     string
	fromName string
	client   *sendgrid.Client
	logger   *logrus.Logger
}

// NewSendGridMailer creates a new SendGrid mailer
func NewSendGridMailer(apiKey, from, fromName string, logger *logrus.Logger) *SendGridMailer {
	if logger == nil {
		logger = logrus.New()
	}
	return &SendGridMailer{
		from:     from,
		fromName: fromName,
		client:   sendgrid.NewSendClient(apiKey),
		logger:   logger,
	}
}

// Send sends an email via SendGrid
func (m *SendGridMailer) Send(ctx context.Context, message *Message) error {
	from := mail.NewEmail(m.fromName, m.from)
	if message.From != "" {
		fromName := message.FromName
		if fromName == "" {
			fromName = message.From
		}
		from = mail.NewEmail(fromName, message.From)
	}

	to := mail.NewEmail("", message.To)
	sgMail := mail.NewSingleEmail(from, message.Subject, to, "", message.BodyHTML)

	if message.ReplyTo != "" {
		sgMail.SetReplyTo(mail.NewEmail("", message.ReplyTo))
	}

	// Disable click tracking so SendGrid does not rewrite the download URLs,
	// and open tracking for privacy.
	trackingSettings := mail.NewTrackingSettings()
	clickTracking := mail.NewClickTrackingSetting()
	clickTracking.SetEnable(false)
	clickTracking.SetEnableText(false)
	trackingSettings.SetClickTracking(clickTracking)
	openTracking := mail.NewOpenTrackingSetting()
	openTracking.SetEnable(false)
	trackingSettings.SetOpenTracking(openTracking)
	sgMail.SetTrackingSettings(trackingSettings)

	response, err := m.client.SendWithContext(ctx, sgMail)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid API error: %d - %s", response.StatusCode, response.Body)
	}

	m.logger.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
	}).Info("Email sent via SendGrid")

	return nil
}

// GetName returns the provider name
func (m *SendGridMailer) GetName() string {
	return "sendgrid"
}
