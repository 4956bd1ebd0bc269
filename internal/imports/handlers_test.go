package imports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/questionbank/backend/internal/auth"
	apperrors "github.com/questionbank/backend/internal/errors"
)

type fakeArchiver struct {
	keys []string
	err  error
}

func (f *fakeArchiver) Archive(_ context.Context, key string, _ []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func multipartWorkbook(t *testing.T, field string, workbook io.Reader) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "upload.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.Copy(part, workbook); err != nil {
		t.Fatalf("copy workbook: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func importRequest(t *testing.T, body *bytes.Buffer, contentType string, userID uuid.UUID) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	if userID != uuid.Nil {
		req = req.WithContext(auth.WithUser(req.Context(), userID))
	}
	return req
}

func TestImportHandlerSuccess(t *testing.T) {
	workbook := buildWorkbook(t, []testSheet{{
		name: "Sales",
		rows: [][]string{header(), {"Ivanov", "Acme", "Manager", "Q?"}},
	}})

	archiver := &fakeArchiver{}
	h := NewHandlers(NewPipeline(newFakeCategoryStore(), newFakeQuestionStore(), DefaultSchema()), archiver)

	body, contentType := multipartWorkbook(t, "workbook", workbook)
	rec := httptest.NewRecorder()
	h.Import(rec, importRequest(t, body, contentType, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Categories) != 1 || resp.Categories[0].Category != "Sales" {
		t.Errorf("unexpected report: %+v", resp.Categories)
	}
	if len(archiver.keys) != 1 {
		t.Errorf("expected the workbook to be archived once, got %v", archiver.keys)
	}
}

func TestImportHandlerRequiresUser(t *testing.T) {
	h := NewHandlers(NewPipeline(newFakeCategoryStore(), newFakeQuestionStore(), DefaultSchema()), nil)

	workbook := buildWorkbook(t, []testSheet{{name: "Sales", rows: [][]string{header()}}})
	body, contentType := multipartWorkbook(t, "workbook", workbook)
	rec := httptest.NewRecorder()
	h.Import(rec, importRequest(t, body, contentType, uuid.Nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestImportHandlerMissingFile(t *testing.T) {
	h := NewHandlers(NewPipeline(newFakeCategoryStore(), newFakeQuestionStore(), DefaultSchema()), nil)

	workbook := buildWorkbook(t, []testSheet{{name: "Sales", rows: [][]string{header()}}})
	body, contentType := multipartWorkbook(t, "attachment", workbook)
	rec := httptest.NewRecorder()
	h.Import(rec, importRequest(t, body, contentType, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandlerGarbageWorkbook(t *testing.T) {
	h := NewHandlers(NewPipeline(newFakeCategoryStore(), newFakeQuestionStore(), DefaultSchema()), nil)

	body, contentType := multipartWorkbook(t, "workbook", bytes.NewReader([]byte("not an xlsx")))
	rec := httptest.NewRecorder()
	h.Import(rec, importRequest(t, body, contentType, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != apperrors.CodeInvalidRequest {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidRequest, resp.Error.Code)
	}
}

func TestImportHandlerStoreFailure(t *testing.T) {
	questions := newFakeQuestionStore()
	questions.failAfter = 0
	h := NewHandlers(NewPipeline(newFakeCategoryStore(), questions, DefaultSchema()), nil)

	workbook := buildWorkbook(t, []testSheet{{
		name: "Sales",
		rows: [][]string{header(), {"Ivanov", "Acme", "Manager", "Q?"}},
	}})
	body, contentType := multipartWorkbook(t, "workbook", workbook)
	rec := httptest.NewRecorder()
	h.Import(rec, importRequest(t, body, contentType, uuid.New()))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != apperrors.CodeStoreError {
		t.Errorf("expected %s, got %s", apperrors.CodeStoreError, resp.Error.Code)
	}
}

func TestImportHandlerArchiveFailureDoesNotFailImport(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("bucket unavailable")}
	h := NewHandlers(NewPipeline(newFakeCategoryStore(), newFakeQuestionStore(), DefaultSchema()), archiver)

	workbook := buildWorkbook(t, []testSheet{{
		name: "Sales",
		rows: [][]string{header(), {"Ivanov", "Acme", "Manager", "Q?"}},
	}})
	body, contentType := multipartWorkbook(t, "workbook", workbook)
	rec := httptest.NewRecorder()
	h.Import(rec, importRequest(t, body, contentType, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Errorf("archival failure must not fail the import, got %d", rec.Code)
	}
}
