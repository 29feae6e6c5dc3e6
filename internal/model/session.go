package model

import "time"

// Session is an authenticated browser session. Only a SHA-256 hash of the
// bearer secret is persisted; the plaintext secret lives exclusively in the
// user's cookie.
type Session struct {
	ID         string    `json:"id"`
	SecretHash string    `json:"-"`
	AccountID  string    `json:"accountId"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the session is past its absolute expiry.
// Sessions are never refreshed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
