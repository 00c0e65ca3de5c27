package profile

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/plugins/auth"
)

// Handler handles HTTP requests for the account page.
type Handler struct {
	service ProfileService
}

// NewHandler creates a new profile handler.
func NewHandler(service ProfileService) *Handler {
	return &Handler{service: service}
}

// GetAccount returns the caller's profile (GET /api/account).
func (h *Handler) GetAccount(c echo.Context) error {
	session := auth.GetSession(c)
	p, err := h.service.Get(c.Request().Context(), session)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateAccount updates the caller's editable fields (PUT /api/account).
func (h *Handler) UpdateAccount(c echo.Context) error {
	session := auth.GetSession(c)

	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	p, err := h.service.Update(c.Request().Context(), session, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
