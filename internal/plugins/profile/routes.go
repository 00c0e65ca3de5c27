package profile

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up account routes. Both require a session; the caller
// supplies the auth middleware so route wiring stays in one place.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/account", requireAuth)
	g.GET("", h.GetAccount)
	g.PUT("", h.UpdateAccount)
}
