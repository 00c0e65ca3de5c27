package assistant

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/plugins/auth"
)

// Handler handles HTTP requests for the assistant.
type Handler struct {
	service AssistantService
}

// NewHandler creates a new assistant handler.
func NewHandler(service AssistantService) *Handler {
	return &Handler{service: service}
}

// ListThreads returns the history sidebar (GET /api/assistant/threads).
func (h *Handler) ListThreads(c echo.Context) error {
	summaries, err := h.service.ListThreads(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetThread returns a full conversation (GET /api/assistant/threads/:id).
func (h *Handler) GetThread(c echo.Context) error {
	t, err := h.service.GetThread(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteThread removes a conversation (DELETE /api/assistant/threads/:id).
func (h *Handler) DeleteThread(c echo.Context) error {
	if err := h.service.DeleteThread(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearThreads wipes the whole history (DELETE /api/assistant/threads).
func (h *Handler) ClearThreads(c echo.Context) error {
	if err := h.service.ClearThreads(c.Request().Context(), auth.GetUserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Chat handles one user turn (POST /api/assistant/chat).
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	reply, err := h.service.Chat(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reply)
}

// GenerateDocument produces an ad-hoc document
// (POST /api/assistant/documents).
func (h *Handler) GenerateDocument(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	reply, err := h.service.GenerateDocument(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reply)
}

// KeyStatus reports whether a Gemini key is stored (GET /api/assistant/key).
func (h *Handler) KeyStatus(c echo.Context) error {
	status, err := h.service.KeyStatus(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// SetKey validates and stores the caller's Gemini key
// (PUT /api/assistant/key).
func (h *Handler) SetKey(c echo.Context) error {
	var req KeyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if err := h.service.SetKey(c.Request().Context(), auth.GetUserID(c), req.Key); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, KeyStatus{Configured: true})
}
