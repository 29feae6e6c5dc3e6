package repository

import (
	"context"

	"storeit/internal/model"
)

// UserRepository defines data access for user records using SQL queries only.
// No business logic here — strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user row. An insert that conflicts on the unique
	// email constraint is not an error: the existing row is returned instead,
	// so concurrent first-time sign-ups create at most one record.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByEmail returns the user with exactly the given email, or
	// sql.ErrNoRows if none exists.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByAccountID returns the user owning the given account id, or
	// sql.ErrNoRows if none exists.
	FindByAccountID(ctx context.Context, accountID string) (*model.User, error)
}
