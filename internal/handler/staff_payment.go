package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/repository"
)

// ListUnpaid handles GET /v1/sessions/:id/orders/unpaid for the
// payment center: every order of the session still awaiting payment,
// whatever its status.
func (h *StaffHandler) ListUnpaid(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	orders, err := h.Orders.ListUnpaid(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, orders)
}

// MarkPaid handles POST /v1/orders/:id/pay. Repeating the call on an
// already-paid order is a safe no-op: changed=false comes back with
// the untouched record, paidAt included.
func (h *StaffHandler) MarkPaid(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, changed, err := h.Workflow.MarkPaid(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark paid failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o, "changed": changed})
}
