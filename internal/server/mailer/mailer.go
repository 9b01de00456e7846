// Package mailer delivers plain-text notification mail over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/config"
	"github.com/wneessen/go-mail"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// SMTPSender sends each message on a fresh SMTP connection. STARTTLS is used
// when the server offers it.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   logging.Logger
}

// dialAndSend is a seam for testing the SMTP round trip.
var dialAndSend = func(ctx context.Context, c *mail.Client, msgs ...*mail.Msg) error {
	return c.DialAndSendWithContext(ctx, msgs...)
}

func NewSMTPSender(cfg *config.Config, logger logging.Logger) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.MailSender(),
		logger:   logger.With("module", "mailer"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}

	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := dialAndSend(ctx, c, m); err != nil {
		s.logger.Error(ctx, "mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return fmt.Errorf("smtp send: %w", err)
	}

	s.logger.Info(ctx, "mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	return mail.NewClient(s.host, opts...)
}

func buildMessage(from string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
