package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// SMTPMailer sends email over SMTP, with TLS when the server supports it
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
	logger   *logrus.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(host string, port int, username, password, from, fromName string, logger *logrus.Logger) *SMTPMailer {
	if logger == nil {
		logger = logrus.New()
	}
	return &SMTPMailer{
		host:     host,
		port:     fmt.Sprintf("%d", port),
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		logger:   logger,
	}
}

// Send sends an email via SMTP
func (m *SMTPMailer) Send(ctx context.Context, message *Message) error {
	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}
	if message.From != "" {
		from = message.From
		if message.FromName != "" {
			from = fmt.Sprintf("%s <%s>", message.FromName, message.From)
		}
	}

	headers := map[string]string{
		"From":         from,
		"To":           message.To,
		"Subject":      message.Subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=utf-8",
	}
	if message.ReplyTo != "" {
		headers["Reply-To"] = message.ReplyTo
	}

	var emailBuilder strings.Builder
	for k, v := range headers {
		emailBuilder.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	emailBuilder.WriteString("\r\n")
	emailBuilder.WriteString(message.BodyHTML)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := net.JoinHostPort(m.host, m.port)

	tlsConfig := &tls.Config{ServerName: m.host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		// Fall back to plain SMTP (STARTTLS is negotiated by SendMail)
		if err := smtp.SendMail(addr, auth, m.from, []string{message.To}, []byte(emailBuilder.String())); err != nil {
			return fmt.Errorf("failed to send email via SMTP: %w", err)
		}
	} else {
		defer conn.Close()

		client, err := smtp.NewClient(conn, m.host)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Quit()

		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
		if err := client.Mail(m.from); err != nil {
			return fmt.Errorf("SMTP MAIL command failed: %w", err)
		}
		if err := client.Rcpt(message.To); err != nil {
			return fmt.Errorf("SMTP RCPT command failed: %w", err)
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("SMTP DATA command failed: %w", err)
		}
		if _, err := w.Write([]byte(emailBuilder.String())); err != nil {
			return fmt.Errorf("failed to write SMTP message: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to finalize SMTP message: %w", err)
		}
	}

	m.logger.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
	}).Info("Email sent via SMTP")

	return nil
}

// GetName returns the provider name
func (m *SMTPMailer) GetName() string {
	return "smtp"
}
