package templates

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// Handler handles HTTP requests for the template registry.
type Handler struct {
	service TemplateService
}

// NewHandler creates a new templates handler.
func NewHandler(service TemplateService) *Handler {
	return &Handler{service: service}
}

// ListCategories returns all categories (GET /api/templates/categories).
func (h *Handler) ListCategories(c echo.Context) error {
	categories, err := h.service.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

// List returns template summaries, optionally filtered by ?category=
// (GET /api/templates).
func (h *Handler) List(c echo.Context) error {
	summaries, err := h.service.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

// Get returns a full template (GET /api/templates/:id).
func (h *Handler) Get(c echo.Context) error {
	t, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// --- Admin handlers ---

// Create adds a template (POST /api/admin/templates).
func (h *Handler) Create(c echo.Context) error {
	var req SaveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	t, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// Update replaces a template (PUT /api/admin/templates/:id).
func (h *Handler) Update(c echo.Context) error {
	var req SaveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	t, err := h.service.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Delete removes a template (DELETE /api/admin/templates/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
