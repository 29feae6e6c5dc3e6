package postgres

import (
	"context"
	"database/sql"
	"errors"

	"storeit/internal/model"
	"storeit/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, full_name, email, avatar, account_id, created_at`

// Create inserts a new user row. A conflict on the unique email constraint is
// resolved by returning the already-existing row.
func (r *UserPostgres) Create(ctx context.Context, user *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (full_name, email, avatar, account_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		user.FullName,
		user.Email,
		user.Avatar,
		user.AccountID,
	)
	out, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Row already existed; DO NOTHING suppresses RETURNING.
		return r.FindByEmail(ctx, user.Email)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByEmail fetches a user by exact email match.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// FindByAccountID fetches the user owning the given account.
func (r *UserPostgres) FindByAccountID(ctx context.Context, accountID string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE account_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, accountID))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Avatar,
		&u.AccountID,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
