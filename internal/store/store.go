package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound reports a row miss on a keyed lookup.
var ErrNotFound = errors.New("entity not found")

// ErrDuplicate reports a uniqueness-constraint violation.
var ErrDuplicate = errors.New("entity already exists")

// Error wraps any persistence-layer failure with its underlying cause. The
// store never retries; the caller decides whether to retry or abort.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type DB struct {
	*sql.DB
}

func Open(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		return nil, &Error{Op: "ping", Err: err}
	}

	return &DB{db}, nil
}

// WithTx runs fn inside a single transaction: commit on normal return,
// rollback on error or panic. Each repository method wraps exactly one WithTx
// call, so there is no implicit atomicity across separate repository calls;
// callers needing multi-write atomicity must compose statements on the
// *sql.Tx inside one body.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin", Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return &Error{Op: "rollback", Err: errors.Join(err, rbErr)}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit", Err: err}
	}

	return nil
}

func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS tokens (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		value VARCHAR(512) UNIQUE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id);

	CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(150) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE (user_id, name)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id UUID PRIMARY KEY,
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		client_name VARCHAR(255) NOT NULL,
		job_place VARCHAR(255) NOT NULL,
		job_title VARCHAR(150) NOT NULL,
		question_text TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_questions_category_id ON questions(category_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
