package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"storeit/internal/config"
)

// smtpMailer implements Mailer over plain SMTP.
// It is safe for concurrent use by multiple goroutines.
type smtpMailer struct {
	addr string
	auth smtp.Auth
	from string
}

var smtpSendMail = smtp.SendMail

// NewSMTP creates an SMTP-backed Mailer. PLAIN auth is used only when a user
// is configured; unauthenticated relays (e.g. a local mailhog) work with an
// empty SMTP_USER.
func NewSMTP(cfg config.SMTPConfig) (Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}

	return &smtpMailer{
		addr: cfg.Host + ":" + cfg.Port,
		auth: auth,
		from: cfg.From,
	}, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	if err := smtpSendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
