package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Token is a persisted session token row. The expiry lives inside Value
// itself; the row exists only so revocation can work by deletion.
type Token struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Value     string
	CreatedAt time.Time
}

type TokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *Token) error {
	query := `
		INSERT INTO tokens (id, user_id, value, created_at)
		VALUES ($1, $2, $3, $4)
	`

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			token.ID, token.UserID, token.Value, token.CreatedAt,
		)
		if err != nil {
			return &Error{Op: "create token", Err: err}
		}
		return nil
	})
}

// Exists reports whether a token row with the given value is present.
func (r *TokenRepository) Exists(ctx context.Context, value string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tokens WHERE value = $1)`

	var exists bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, value).Scan(&exists); err != nil {
			return &Error{Op: "token membership check", Err: err}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Delete removes the row keyed by value and reports whether a row was
// actually deleted. A miss is not an error here; the caller decides what an
// already-absent row means.
func (r *TokenRepository) Delete(ctx context.Context, value string) (bool, error) {
	query := `DELETE FROM tokens WHERE value = $1`

	var deleted bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, value)
		if err != nil {
			return &Error{Op: "delete token", Err: err}
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return &Error{Op: "delete token", Err: err}
		}

		deleted = rows > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}
