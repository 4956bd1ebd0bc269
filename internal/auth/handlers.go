package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/questionbank/backend/internal/errors"
	"github.com/questionbank/backend/internal/logger"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Username string `json:"username"`
}

// LoginLimiter bounds login attempts per username. A nil limiter means
// unlimited.
type LoginLimiter interface {
	Allow(ctx context.Context, username string) (bool, error)
}

type Handlers struct {
	service *Service
	cfg     GateConfig
	limiter LoginLimiter
	log     *logger.Logger
}

func NewHandlers(service *Service, cfg GateConfig, limiter LoginLimiter) *Handlers {
	return &Handlers{
		service: service,
		cfg:     cfg,
		limiter: limiter,
		log:     logger.Default().WithComponent("auth"),
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid request body"))
		return
	}

	if err := validateRegisterRequest(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.ValidationError(err.Error()))
		return
	}

	value, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			apperrors.WriteError(w, requestID, apperrors.DuplicateEntity("username"))
			return
		}
		h.log.Error(r.Context(), "registration failed", err)
		apperrors.WriteError(w, requestID, apperrors.StoreError("failed to create user").WithCause(err))
		return
	}

	h.setSessionCookie(w, value)
	apperrors.WriteJSON(w, requestID, http.StatusCreated, SessionResponse{Username: req.Username})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid request body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("username and password are required"))
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(r.Context(), req.Username)
		if err != nil {
			// The limiter is advisory; a broken limiter must not lock
			// everyone out.
			h.log.Warn(r.Context(), "login limiter unavailable", map[string]any{"error": err.Error()})
		} else if !allowed {
			apperrors.WriteError(w, requestID, apperrors.RateLimited())
			return
		}
	}

	value, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrCredentialMismatch) {
			apperrors.WriteError(w, requestID, apperrors.CredentialMismatch())
			return
		}
		h.log.Error(r.Context(), "login failed", err)
		apperrors.WriteError(w, requestID, apperrors.StoreError("login failed").WithCause(err))
		return
	}

	h.setSessionCookie(w, value)
	apperrors.WriteJSON(w, requestID, http.StatusOK, SessionResponse{Username: req.Username})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	cookie, err := r.Cookie(h.cfg.CookieName)
	if err != nil {
		apperrors.WriteError(w, requestID, apperrors.PermissionDenied("authentication required"))
		return
	}

	if value, ok := extractCredential(cookie.Value, h.cfg.Scheme); ok {
		if err := h.service.Logout(r.Context(), value); err != nil {
			h.log.Error(r.Context(), "logout failed", err)
			apperrors.WriteError(w, requestID, apperrors.StoreError("cannot process the token").WithCause(err))
			return
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    h.cfg.Scheme + " " + value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func validateRegisterRequest(req *RegisterRequest) error {
	if req.Username == "" {
		return errors.New("username is required")
	}
	if len(req.Username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(req.Username) > 50 {
		return errors.New("username must be at most 50 characters")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
