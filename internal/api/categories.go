package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/auth"
	apperrors "github.com/questionbank/backend/internal/errors"
	"github.com/questionbank/backend/internal/logger"
	"github.com/questionbank/backend/internal/store"
)

// CategoryLister is the slice of the store the listing handler needs.
type CategoryLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]store.CategorySummary, error)
}

type CategoryInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Questions int    `json:"questions"`
}

type CategoriesResponse struct {
	Categories []CategoryInfo `json:"categories"`
}

type CategoryHandlers struct {
	categories CategoryLister
	log        *logger.Logger
}

func NewCategoryHandlers(categories CategoryLister) *CategoryHandlers {
	return &CategoryHandlers{
		categories: categories,
		log:        logger.Default().WithComponent("categories"),
	}
}

func (h *CategoryHandlers) List(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.PermissionDenied("authentication required"))
		return
	}

	summaries, err := h.categories.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error(r.Context(), "category listing failed", err)
		apperrors.WriteError(w, requestID, apperrors.StoreError("failed to list categories").WithCause(err))
		return
	}

	resp := CategoriesResponse{Categories: make([]CategoryInfo, 0, len(summaries))}
	for _, s := range summaries {
		resp.Categories = append(resp.Categories, CategoryInfo{
			ID:        s.ID.String(),
			Name:      s.Name,
			Questions: s.QuestionCount,
		})
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, resp)
}
