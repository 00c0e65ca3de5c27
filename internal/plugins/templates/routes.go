package templates

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up template routes. Browsing requires a session;
// mutation is restricted to administrators.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth, requireAdmin echo.MiddlewareFunc) {
	g := e.Group("/api/templates", requireAuth)
	g.GET("/categories", h.ListCategories)
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	admin := e.Group("/api/admin/templates", requireAuth, requireAdmin)
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}
