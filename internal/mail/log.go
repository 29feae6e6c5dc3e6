package mail

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// logMailer writes would-be messages as JSON lines instead of sending them.
// Used when no SMTP host is configured, so local development works without a
// mail relay.
type logMailer struct {
	enc *json.Encoder
}

// NewLog creates a Mailer that only logs messages to w.
func NewLog(w io.Writer) Mailer {
	return &logMailer{enc: json.NewEncoder(w)}
}

func (m *logMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.enc.Encode(map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"level":   "info",
		"msg":     "mail_logged",
		"to":      to,
		"subject": subject,
		"body":    body,
	})
}
