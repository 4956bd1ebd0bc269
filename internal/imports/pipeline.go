// Package imports turns an uploaded workbook into categories and question
// records with per-sheet accounting. Rows missing a required field are
// skipped silently; persistence errors abort the import and propagate, and
// writes committed before the failure stay committed.
package imports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/logger"
	"github.com/questionbank/backend/internal/store"
)

// CategoryStore is the slice of the store the pipeline needs for categories.
type CategoryStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*store.Category, error)
}

// QuestionStore persists imported records.
type QuestionStore interface {
	Create(ctx context.Context, question *store.Question) error
}

// SheetResult tallies one sheet: rows seen and rows inserted. Skipped rows
// are the difference; there is no per-row failure list.
type SheetResult struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
}

type Pipeline struct {
	categories CategoryStore
	questions  QuestionStore
	schema     Schema
	log        *logger.Logger
}

func NewPipeline(categories CategoryStore, questions QuestionStore, schema Schema) *Pipeline {
	return &Pipeline{
		categories: categories,
		questions:  questions,
		schema:     schema,
		log:        logger.Default().WithComponent("imports"),
	}
}

// Run imports the workbook for userID and returns one result per sheet in
// workbook order. Each record insert commits independently, so a failure
// partway leaves earlier writes in place and returns the error as is.
func (p *Pipeline) Run(ctx context.Context, userID uuid.UUID, workbook io.Reader) ([]SheetResult, error) {
	sheets, err := ParseWorkbook(workbook)
	if err != nil {
		return nil, err
	}

	results := make([]SheetResult, 0, len(sheets))
	for _, sheet := range sheets {
		category, err := p.categories.GetOrCreate(ctx, userID, sheet.Name)
		if err != nil {
			return nil, err
		}

		result := SheetResult{Category: sheet.Name}
		cols := p.schema.resolve(sheet.Header)
		if !cols.complete() {
			p.log.Warn(ctx, "sheet header missing required columns", map[string]any{
				"sheet": sheet.Name,
			})
		}

		for _, row := range sheet.Rows {
			result.Total++

			rec, ok := cols.extract(row)
			if !ok {
				continue
			}

			err := p.questions.Create(ctx, &store.Question{
				ID:           uuid.New(),
				CategoryID:   category.ID,
				ClientName:   rec.clientName,
				JobPlace:     rec.jobPlace,
				JobTitle:     rec.jobTitle,
				QuestionText: rec.questionText,
				CreatedAt:    time.Now(),
			})
			if err != nil {
				return nil, err
			}

			result.Succeeded++
		}

		results = append(results, result)
	}

	return results, nil
}
