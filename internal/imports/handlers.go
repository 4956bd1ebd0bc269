package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/auth"
	apperrors "github.com/questionbank/backend/internal/errors"
	"github.com/questionbank/backend/internal/logger"
	"github.com/questionbank/backend/internal/store"
)

// maxUploadSize bounds workbook uploads at 20 MiB.
const maxUploadSize = 20 << 20

// Archiver stores a copy of the uploaded workbook. Archival is best effort:
// a failure is logged and never fails the import.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
}

type ImportResponse struct {
	Categories []SheetResult `json:"categories"`
}

type Handlers struct {
	pipeline *Pipeline
	archive  Archiver
	log      *logger.Logger
}

// NewHandlers builds the import handlers. archive may be nil, which disables
// workbook archival.
func NewHandlers(pipeline *Pipeline, archive Archiver) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		archive:  archive,
		log:      logger.Default().WithComponent("imports"),
	}
}

func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	userID, ok := auth.UserFromContext(r.Context())
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.PermissionDenied("authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid multipart request"))
		return
	}

	file, _, err := r.FormFile("workbook")
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("workbook file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("failed to read workbook"))
		return
	}

	results, err := h.pipeline.Run(r.Context(), userID, bytes.NewReader(data))
	if err != nil {
		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			h.log.Error(r.Context(), "import aborted", err)
			apperrors.WriteError(w, requestID, apperrors.StoreError("import aborted").WithCause(err))
			return
		}
		apperrors.WriteError(w, requestID, apperrors.BadRequest("could not parse workbook"))
		return
	}

	if h.archive != nil {
		key := fmt.Sprintf("%s/%s.xlsx", userID, time.Now().UTC().Format("20060102T150405")+"-"+uuid.NewString())
		if err := h.archive.Archive(r.Context(), key, data); err != nil {
			h.log.Warn(r.Context(), "workbook archival failed", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, ImportResponse{Categories: results})
}
