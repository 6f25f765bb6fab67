package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/repository"
	"github.com/canteenhq/order-desk/internal/service"
)

// KitchenQueue handles GET /v1/sessions/:id/kitchen: the orders the
// kitchen should be working on, i.e. paid and cooking, in token order.
func (h *StaffHandler) KitchenQueue(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	if _, err := h.Sessions.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
	}
	orders, err := h.Orders.ListBySessionStatus(c.Request().Context(), id, model.StatusPaid, model.StatusCooking)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list kitchen queue"})
	}
	return c.JSON(http.StatusOK, orders)
}

// StartCooking handles POST /v1/orders/:id/cook.
func (h *StaffHandler) StartCooking(c echo.Context) error {
	return h.step(c, h.Workflow.StartCooking)
}

// Finish handles POST /v1/orders/:id/finish.
func (h *StaffHandler) Finish(c echo.Context) error {
	return h.step(c, h.Workflow.Finish)
}

// step runs a single forward transition and maps its outcomes: stale
// repeats report changed=false, illegal moves become a 409.
func (h *StaffHandler) step(c echo.Context, fn func(ctx context.Context, id uint64) (model.Order, bool, error)) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, changed, err := fn(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is not in a state that allows this"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "status change failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o, "changed": changed})
}
