// Package mailer integrates the outbound email collaborator. The core only
// needs plain-text delivery for share notifications; anything richer belongs
// upstream.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/docvault/docvault/internal/config"
)

// ErrDisabled indicates outbound mail is not configured.
var ErrDisabled = errors.New("mailer: not configured")

// Mailer sends plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpMailer struct {
	cfg    *config.MailerConfig
	logger *slog.Logger
}

// New creates an SMTP-backed mailer. When the configuration is empty the
// mailer is still constructed but every Send fails with ErrDisabled.
func New(cfg *config.MailerConfig, logger *slog.Logger) Mailer {
	return &smtpMailer{
		cfg:    cfg,
		logger: logger.With("system", "mailer"),
	}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.cfg.Enabled() {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.cfg.From, to, subject, body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(m.cfg.Addr(), auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("mail sent", "to", to, "subject", subject)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
