package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/repository"
	"github.com/canteenhq/order-desk/internal/service"
)

// StaffHandler groups the staff dashboard operations: the order board
// with approvals, the payment center, the serving counter and the
// kitchen queue. JWT authentication and role validation are performed
// by middleware before any of these run.
type StaffHandler struct {
	Workflow *service.Workflow
	Orders   *repository.OrderRepo
	Sessions *repository.SessionRepo
}

// NewStaffHandler constructs a StaffHandler with the provided
// dependencies. All must be non-nil.
func NewStaffHandler(wf *service.Workflow, orders *repository.OrderRepo, sessions *repository.SessionRepo) *StaffHandler {
	if wf == nil || orders == nil || sessions == nil {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{Workflow: wf, Orders: orders, Sessions: sessions}
}

// ListSessions handles GET /v1/sessions for the session selector.
func (h *StaffHandler) ListSessions(c echo.Context) error {
	sessions, err := h.Sessions.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, sessions)
}

// ListOrders handles GET /v1/sessions/:id/orders. The optional
// ?status= query narrows to a comma-separated set of statuses, e.g.
// status=approved for the approved board or status=completed for the
// completed viewer.
func (h *StaffHandler) ListOrders(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	raw := strings.TrimSpace(c.QueryParam("status"))
	var (
		orders []model.Order
		err    error
	)
	if raw == "" {
		orders, err = h.Orders.ListBySession(c.Request().Context(), id)
	} else {
		var statuses []model.Status
		for _, part := range strings.Split(raw, ",") {
			s := model.Status(strings.TrimSpace(part))
			if !s.Valid() {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status: " + string(s)})
			}
			statuses = append(statuses, s)
		}
		orders, err = h.Orders.ListBySessionStatus(c.Request().Context(), id, statuses...)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /v1/orders/by-id/:id for the detail view.
func (h *StaffHandler) GetOrder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, o)
}

// Approve handles POST /v1/sessions/:sid/orders/:id/approve. Issues
// the next token and moves the order forward. A racing second
// approval is reported as issued=false with the already-applied
// order, not as an error.
func (h *StaffHandler) Approve(c echo.Context) error {
	sid, ok := pathID(c, "sid")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, issued, err := h.Workflow.Approve(c.Request().Context(), sid, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o, "issued": issued})
}

// DeleteOrder handles DELETE /v1/orders/:id. Legal from any status.
func (h *StaffHandler) DeleteOrder(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	if err := h.Workflow.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// WalkIn handles POST /v1/sessions/:id/walk-in: a staff-entered order
// that is created paid, with its token drawn from the same session
// counter as everything else.
func (h *StaffHandler) WalkIn(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		req.CustomerName = "Walk-in"
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items are required"})
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" || it.Quantity <= 0 || it.Price < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order item"})
		}
	}
	o, err := h.Workflow.WalkIn(c.Request().Context(), id, req.CustomerName, req.Phone, req.Items)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	return c.JSON(http.StatusCreated, o)
}
