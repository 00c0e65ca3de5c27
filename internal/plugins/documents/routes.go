package documents

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the create-document routes. Everything requires a
// session: form state and exports are per-user.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/documents/:templateId", requireAuth)
	g.POST("/form", h.StartForm)
	g.GET("/form", h.GetForm)
	g.PUT("/form", h.UpdateForm)
	g.POST("/form/next", h.NextStep)
	g.POST("/form/previous", h.PreviousStep)
	g.POST("/form/fields/:fieldId/instances", h.AddInstance)
	g.DELETE("/form/fields/:fieldId/instances/:index", h.RemoveInstance)
	g.GET("/preview", h.Preview)
	g.POST("/export", h.Export)
}
