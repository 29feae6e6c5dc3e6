package mail

import "context"

// Mailer delivers transactional mail. The only message this service sends is
// the one-time passcode.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
