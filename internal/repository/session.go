package repository

import (
	"context"

	"storeit/internal/model"
)

// SessionRepository defines data access for authenticated sessions.
// Sessions are looked up by the hash of the cookie secret, never by the
// plaintext secret itself.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, session *model.Session) error

	// FindBySecretHash returns the session whose secret hashes to the given
	// value, or sql.ErrNoRows if none exists.
	FindBySecretHash(ctx context.Context, secretHash string) (*model.Session, error)

	// Delete removes a session by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
