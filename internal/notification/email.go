package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/spec-kit/blog-security-service/internal/config"
)

// Sender delivers a message to a destination address.
type Sender interface {
	Send(ctx context.Context, destination, subject, body string) error
}

// SMTPSender sends mail via an SMTP relay with STARTTLS auth.
type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPSender builds a sender from notification config.
func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	return &SMTPSender{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.EmailFrom,
	}
}

// Send dispatches a plain-text message.
func (s *SMTPSender) Send(_ context.Context, destination, subject, body string) error {
	if s.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	msg := []byte(
		fmt.Sprintf("From: %s\r\n", s.from) +
			fmt.Sprintf("To: %s\r\n", destination) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	addr := s.host + ":" + s.port
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{destination}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
