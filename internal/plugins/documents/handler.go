package documents

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/plugins/auth"
)

// Handler handles HTTP requests for the create-document flow.
type Handler struct {
	service DocumentService
}

// NewHandler creates a new documents handler.
func NewHandler(service DocumentService) *Handler {
	return &Handler{service: service}
}

// StartForm resets the form to a blank first step
// (POST /api/documents/:templateId/form).
func (h *Handler) StartForm(c echo.Context) error {
	v, err := h.service.StartForm(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

// GetForm returns the current state (GET /api/documents/:templateId/form).
func (h *Handler) GetForm(c echo.Context) error {
	v, err := h.service.GetForm(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// UpdateForm merges values into the state
// (PUT /api/documents/:templateId/form).
func (h *Handler) UpdateForm(c echo.Context) error {
	var req UpdateFormRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	v, err := h.service.UpdateForm(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// NextStep validates and advances (POST /api/documents/:templateId/form/next).
func (h *Handler) NextStep(c echo.Context) error {
	v, err := h.service.NextStep(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// PreviousStep steps back (POST /api/documents/:templateId/form/previous).
func (h *Handler) PreviousStep(c echo.Context) error {
	v, err := h.service.PreviousStep(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// AddInstance appends a repeatable entry
// (POST /api/documents/:templateId/form/fields/:fieldId/instances).
func (h *Handler) AddInstance(c echo.Context) error {
	v, err := h.service.AddGroupInstance(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"), c.Param("fieldId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// RemoveInstance deletes a repeatable entry
// (DELETE /api/documents/:templateId/form/fields/:fieldId/instances/:index).
func (h *Handler) RemoveInstance(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return apperror.NewBadRequest("invalid instance index")
	}
	v, err := h.service.RemoveGroupInstance(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"), c.Param("fieldId"), index)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// Preview returns the rendered document HTML
// (GET /api/documents/:templateId/preview).
func (h *Handler) Preview(c echo.Context) error {
	html, err := h.service.Preview(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"))
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, html)
}

// Export validates the whole form and streams the PDF
// (POST /api/documents/:templateId/export).
func (h *Handler) Export(c echo.Context) error {
	filename, data, err := h.service.Export(c.Request().Context(), auth.GetUserID(c), c.Param("templateId"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "application/pdf", data)
}
