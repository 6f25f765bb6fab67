package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/repository"
)

// CallNext handles POST /v1/sessions/:id/call-next. Advances the
// now-serving number unless every issued token has already been
// called; in that case advanced=false and the number stays put.
func (h *StaffHandler) CallNext(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	current, advanced, err := h.Workflow.CallNext(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "call next failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"current_token": current, "advanced": advanced})
}

// CallAgain handles POST /v1/sessions/:id/call-again: re-announce the
// current number without advancing.
func (h *StaffHandler) CallAgain(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	current, err := h.Workflow.CallAgain(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "call again failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"current_token": current})
}
