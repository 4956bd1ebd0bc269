package api

import (
	"encoding/json"
	"net/http"

	"github.com/questionbank/backend/internal/auth"
	apperrors "github.com/questionbank/backend/internal/errors"
	"github.com/questionbank/backend/internal/imports"
	"github.com/questionbank/backend/internal/logger"
)

type Router struct {
	mux              *http.ServeMux
	authHandlers     *auth.Handlers
	importHandlers   *imports.Handlers
	categoryHandlers *CategoryHandlers
	gate             *auth.Gate
}

func NewRouter(authHandlers *auth.Handlers, importHandlers *imports.Handlers, categoryHandlers *CategoryHandlers, gate *auth.Gate) *Router {
	r := &Router{
		mux:              http.NewServeMux(),
		authHandlers:     authHandlers,
		importHandlers:   importHandlers,
		categoryHandlers: categoryHandlers,
		gate:             gate,
	}
	r.setupRoutes()
	return r
}

// ServeHTTP runs the full chain: recovery, request id, request logging, then
// the gate in front of every routed handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := r.gate.Middleware(r.mux)
	handler = logger.LoggingMiddleware(handler)
	handler = apperrors.RequestIDMiddleware(handler)
	handler = logger.RecoveryMiddleware(handler)
	handler.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", healthHandler)

	// Auth entry routes (gate rejects already-authenticated callers)
	r.mux.HandleFunc("POST "+PathRegister, r.authHandlers.Register)
	r.mux.HandleFunc("POST "+PathLogin, r.authHandlers.Login)

	// Protected routes (gate requires a valid session)
	r.mux.HandleFunc("POST "+PathLogout, r.authHandlers.Logout)
	r.mux.HandleFunc("POST "+PathImports, r.importHandlers.Import)
	r.mux.HandleFunc("GET "+PathCategories, r.categoryHandlers.List)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}
