package mailer

import (
	"context"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	BodyHTML string
	From     string
	FromName string
	ReplyTo  string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, message *Message) error
	GetName() string
}

// NoOpMailer discards messages; used when no email provider is configured
// and in tests.
type NoOpMailer struct{}

func NewNoOpMailer() *NoOpMailer { return &NoOpMailer{} }

func (m *NoOpMailer) Send(ctx context.Context, message *Message) error { return nil }

func (m *NoOpMailer) GetName() string { return "noop" }
