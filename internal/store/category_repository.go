package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	CreatedAt time.Time
}

// CategorySummary is a category with its question count, for listings.
type CategorySummary struct {
	Category
	QuestionCount int
}

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetOrCreate returns the category named name for the given user, creating
// it if absent. The insert races safely against concurrent identical imports:
// ON CONFLICT DO NOTHING plus the re-select converge every caller on the one
// surviving row.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*Category, error) {
	insert := `
		INSERT INTO categories (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO NOTHING
	`
	query := `
		SELECT id, user_id, name, created_at
		FROM categories
		WHERE user_id = $1 AND name = $2
	`

	category := &Category{}
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insert, uuid.New(), userID, name, time.Now())
		if err != nil {
			return &Error{Op: "create category", Err: err}
		}

		err = tx.QueryRowContext(ctx, query, userID, name).Scan(
			&category.ID, &category.UserID, &category.Name, &category.CreatedAt,
		)
		if err != nil {
			return &Error{Op: "get category", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]CategorySummary, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.created_at, COUNT(q.id)
		FROM categories c
		LEFT JOIN questions q ON q.category_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id, c.user_id, c.name, c.created_at
		ORDER BY c.name
	`

	var summaries []CategorySummary
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, userID)
		if err != nil {
			return &Error{Op: "list categories", Err: err}
		}
		defer rows.Close()

		for rows.Next() {
			var s CategorySummary
			err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt, &s.QuestionCount)
			if err != nil {
				return &Error{Op: "scan category", Err: err}
			}
			summaries = append(summaries, s)
		}
		if err := rows.Err(); err != nil {
			return &Error{Op: "list categories", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}
