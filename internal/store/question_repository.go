package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Question is an imported record. All four text fields are required at
// creation; rows are never updated afterwards.
type Question struct {
	ID           uuid.UUID
	CategoryID   uuid.UUID
	ClientName   string
	JobPlace     string
	JobTitle     string
	QuestionText string
	CreatedAt    time.Time
}

type QuestionRepository struct {
	db *DB
}

func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Create(ctx context.Context, question *Question) error {
	query := `
		INSERT INTO questions (id, category_id, client_name, job_place, job_title, question_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			question.ID, question.CategoryID, question.ClientName,
			question.JobPlace, question.JobTitle, question.QuestionText,
			question.CreatedAt,
		)
		if err != nil {
			return &Error{Op: "create question", Err: err}
		}
		return nil
	})
}

func (r *QuestionRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Question, error) {
	query := `
		SELECT id, category_id, client_name, job_place, job_title, question_text, created_at
		FROM questions
		WHERE category_id = $1
		ORDER BY created_at
	`

	var questions []Question
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, categoryID)
		if err != nil {
			return &Error{Op: "list questions", Err: err}
		}
		defer rows.Close()

		for rows.Next() {
			var q Question
			err := rows.Scan(&q.ID, &q.CategoryID, &q.ClientName, &q.JobPlace,
				&q.JobTitle, &q.QuestionText, &q.CreatedAt)
			if err != nil {
				return &Error{Op: "scan question", Err: err}
			}
			questions = append(questions, q)
		}
		if err := rows.Err(); err != nil {
			return &Error{Op: "list questions", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return questions, nil
}
