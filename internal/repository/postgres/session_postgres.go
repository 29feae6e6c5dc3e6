package postgres

import (
	"context"
	"database/sql"

	"storeit/internal/model"
	"storeit/internal/repository"
)

// SessionPostgres is a PostgreSQL implementation of repository.SessionRepository.
type SessionPostgres struct {
	db *sql.DB
}

// NewSessionPostgres creates a new SessionPostgres repository.
func NewSessionPostgres(db *sql.DB) *SessionPostgres {
	return &SessionPostgres{db: db}
}

var _ repository.SessionRepository = (*SessionPostgres)(nil)

// Create inserts a new session row.
func (r *SessionPostgres) Create(ctx context.Context, session *model.Session) error {
	const q = `
		INSERT INTO sessions (id, secret_hash, account_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, q,
		session.ID,
		session.SecretHash,
		session.AccountID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

// FindBySecretHash fetches a session by the hash of its cookie secret.
func (r *SessionPostgres) FindBySecretHash(ctx context.Context, secretHash string) (*model.Session, error) {
	const q = `
		SELECT id, secret_hash, account_id, expires_at, created_at
		FROM sessions
		WHERE secret_hash = $1
	`
	row := r.db.QueryRowContext(ctx, q, secretHash)
	var s model.Session
	if err := row.Scan(
		&s.ID,
		&s.SecretHash,
		&s.AccountID,
		&s.ExpiresAt,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a session by ID. Missing rows are not an error.
func (r *SessionPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM sessions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
