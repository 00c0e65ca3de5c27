package assistant

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the assistant routes. Everything requires a
// session; the LLM budget is enforced inside the service where it can tell
// LLM-backed turns apart from canned ones.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/assistant", requireAuth)
	g.GET("/threads", h.ListThreads)
	g.GET("/threads/:id", h.GetThread)
	g.DELETE("/threads/:id", h.DeleteThread)
	g.DELETE("/threads", h.ClearThreads)
	g.POST("/chat", h.Chat)
	g.POST("/documents", h.GenerateDocument)
	g.GET("/key", h.KeyStatus)
	g.PUT("/key", h.SetKey)
}
