package postgres

import (
	"context"
	"database/sql"

	"storeit/internal/model"
	"storeit/internal/repository"
)

// AccountPostgres is a PostgreSQL implementation of repository.AccountRepository.
type AccountPostgres struct {
	db *sql.DB
}

// NewAccountPostgres creates a new AccountPostgres repository.
func NewAccountPostgres(db *sql.DB) *AccountPostgres {
	return &AccountPostgres{db: db}
}

var _ repository.AccountRepository = (*AccountPostgres)(nil)

// Upsert returns the account row for the email, inserting it first if needed.
// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (r *AccountPostgres) Upsert(ctx context.Context, email string) (*model.Account, error) {
	const q = `
		INSERT INTO accounts (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at
	`
	var acc model.Account
	row := r.db.QueryRowContext(ctx, q, email)
	if err := row.Scan(&acc.ID, &acc.Email, &acc.CreatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}
