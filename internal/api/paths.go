package api

import "github.com/questionbank/backend/internal/auth"

// Route paths, declared once and shared between the router and the gate so
// the protected and auth-entry sets cannot drift from the route table.
const (
	PathRegister   = "/api/v1/auth/register"
	PathLogin      = "/api/v1/auth/login"
	PathLogout     = "/api/v1/auth/logout"
	PathImports    = "/api/v1/imports"
	PathCategories = "/api/v1/categories"
)

func DefaultGateConfig(cookieName string) auth.GateConfig {
	return auth.GateConfig{
		CookieName: cookieName,
		Scheme:     "Bearer",
		Protected:  []string{PathLogout, PathImports, PathCategories},
		AuthEntry:  []string{PathLogin, PathRegister},
	}
}
