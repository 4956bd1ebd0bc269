package auth

import (
	"net/http"
	"strings"

	apperrors "github.com/questionbank/backend/internal/errors"
	"github.com/questionbank/backend/internal/logger"
)

// GateConfig declares the paths the gate watches. Membership tests are exact
// string matches; the sets are configuration data declared once next to the
// route table, not hardcoded in the gate.
type GateConfig struct {
	// CookieName is the cookie carrying the bearer credential.
	CookieName string
	// Scheme is the expected credential keyword, compared case-insensitively.
	Scheme string
	// Protected paths require a valid session.
	Protected []string
	// AuthEntry paths (login, registration) reject callers who already hold
	// a valid session.
	AuthEntry []string
}

// Gate decides allow/deny for every inbound request before any handler runs.
type Gate struct {
	cfg       GateConfig
	tokens    TokenAuthority
	protected map[string]bool
	entry     map[string]bool
	log       *logger.Logger
}

func NewGate(cfg GateConfig, tokens TokenAuthority) *Gate {
	g := &Gate{
		cfg:       cfg,
		tokens:    tokens,
		protected: make(map[string]bool, len(cfg.Protected)),
		entry:     make(map[string]bool, len(cfg.AuthEntry)),
		log:       logger.Default().WithComponent("gate"),
	}
	for _, path := range cfg.Protected {
		g.protected[path] = true
	}
	for _, path := range cfg.AuthEntry {
		g.entry[path] = true
	}
	return g
}

// Middleware runs the gate's decision procedure: reject protected paths
// without a credential, reject malformed or unknown credentials, revoke and
// reject expired sessions (lazy expiry cleanup), and reject entry paths when
// a valid session is already attached.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		protected := g.protected[path]
		entry := g.entry[path]
		if !protected && !entry {
			next.ServeHTTP(w, r)
			return
		}

		requestID := apperrors.GetRequestID(r.Context())

		cookie, err := r.Cookie(g.cfg.CookieName)
		if err != nil {
			if protected {
				apperrors.WriteError(w, requestID, apperrors.PermissionDenied("authentication required"))
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		value, ok := extractCredential(cookie.Value, g.cfg.Scheme)
		if !ok {
			apperrors.WriteError(w, requestID, apperrors.MalformedCredential())
			return
		}

		exists, err := g.tokens.ExistsInStore(r.Context(), value)
		if err != nil {
			g.log.Error(r.Context(), "token membership check failed", err)
			apperrors.WriteError(w, requestID, apperrors.StoreError("cannot process the token").WithCause(err))
			return
		}
		if !exists {
			// Revocation works by deletion; an absent token renders exactly
			// like no credential at all so prior existence does not leak.
			apperrors.WriteError(w, requestID, apperrors.PermissionDenied("authentication required"))
			return
		}

		expired, err := g.tokens.IsExpired(value)
		if err != nil {
			apperrors.WriteError(w, requestID, apperrors.MalformedCredential())
			return
		}
		if expired {
			// Cleanup on discovery: there is no background sweep, so the
			// first request to trip over the expiry deletes the row.
			if err := g.tokens.Revoke(r.Context(), value); err != nil {
				g.log.Error(r.Context(), "failed to revoke expired token", err)
				apperrors.WriteError(w, requestID, apperrors.StoreError("cannot process the token").WithCause(err))
				return
			}
			g.clearCookie(w)
			apperrors.WriteError(w, requestID, apperrors.PermissionDenied("session expired"))
			return
		}

		if entry {
			apperrors.WriteError(w, requestID, apperrors.PermissionDenied("already authenticated"))
			return
		}

		userID, err := g.tokens.UserID(value)
		if err != nil {
			apperrors.WriteError(w, requestID, apperrors.MalformedCredential())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

// extractCredential splits a credential of the exact two-token form
// "<scheme> <value>". The scheme keyword is case-insensitive; anything else
// is malformed.
func extractCredential(credential, scheme string) (string, bool) {
	parts := strings.SplitN(credential, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return "", false
	}
	if parts[1] == "" || strings.Contains(parts[1], " ") {
		return "", false
	}
	return parts[1], true
}

func (g *Gate) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
