package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/middleware"
)

// RegisterRoutes sets up all auth-related routes on the given Echo instance.
// Auth routes are public (no session required) -- the middleware is exported
// separately for other plugins to use on their route groups.
//
// POST endpoints are rate-limited to prevent brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for login, 5 for register
// and the reset endpoints.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	// Public account routes.
	e.POST("/api/auth/register", h.Register, middleware.RateLimit(5, time.Minute))
	e.POST("/api/auth/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/api/auth/logout", h.Logout)
	e.POST("/api/auth/password-reset", h.RequestPasswordReset, middleware.RateLimit(5, time.Minute))
	e.POST("/api/auth/password-reset/confirm", h.ConfirmPasswordReset, middleware.RateLimit(5, time.Minute))

	// Email confirmation and OAuth land the browser here directly.
	e.GET("/auth/callback", h.ConfirmEmail)
	e.GET("/auth/google", h.GoogleLogin)
	e.GET("/auth/google/callback", h.GoogleCallback)

	// Session state. The current-session and refresh endpoints resolve the
	// cookie themselves so they can answer 401 cleanly; the event stream
	// needs the session in context.
	e.GET("/api/session", h.CurrentSession)
	e.POST("/api/session/refresh", h.RefreshSession)
	e.GET("/api/session/events", h.SessionEvents, RequireAuth(service))
}
