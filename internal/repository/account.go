package repository

import (
	"context"

	"storeit/internal/model"
)

// AccountRepository defines data access for authentication-level accounts.
type AccountRepository interface {
	// Upsert returns the account for the given email, creating it if absent.
	// The email has a unique constraint, so concurrent calls for the same
	// address converge on a single row.
	Upsert(ctx context.Context, email string) (*model.Account, error)
}
