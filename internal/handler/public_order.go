package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/live"
	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/repository"
	"github.com/canteenhq/order-desk/internal/service"
)

// PublicHandler serves the anonymous customer-facing surface:
// placing an order, tracking it by reference, the live menu, the
// now-serving number and the per-session change feed.
type PublicHandler struct {
	Workflow *service.Workflow
	Orders   *repository.OrderRepo
	Sessions *repository.SessionRepo
	Menu     *repository.MenuRepo
	Feed     *live.Feed
}

// NewPublicHandler constructs a PublicHandler. Feed may be nil when
// Redis is unavailable; the feed endpoint then ends streams
// immediately and clients poll instead.
func NewPublicHandler(wf *service.Workflow, orders *repository.OrderRepo, sessions *repository.SessionRepo, menu *repository.MenuRepo, feed *live.Feed) *PublicHandler {
	if wf == nil || orders == nil || sessions == nil || menu == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Workflow: wf, Orders: orders, Sessions: sessions, Menu: menu, Feed: feed}
}

type placeOrderReq struct {
	SessionID    uint64            `json:"session_id"`
	CustomerName string            `json:"customer_name"`
	Phone        string            `json:"phone"`
	Items        []model.OrderItem `json:"items"`
}

// PlaceOrder handles POST /v1/orders. Orders arrive pending and wait
// for staff approval; malformed input is rejected before anything is
// written.
func (h *PublicHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	if req.CustomerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_name is required"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items are required"})
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" || it.Quantity <= 0 || it.Price < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order item"})
		}
	}

	o, err := h.Workflow.PlaceOrder(c.Request().Context(), req.SessionID, req.CustomerName, req.Phone, req.Items)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to place order"})
	}
	return c.JSON(http.StatusCreated, o)
}

// TrackOrder handles GET /v1/orders/:ref. Customers hold only the
// opaque reference, never the numeric ID.
func (h *PublicHandler) TrackOrder(c echo.Context) error {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ref"})
	}
	o, err := h.Orders.GetByRef(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, o)
}

// GetServing handles GET /v1/sessions/:id/serving: the number on the
// board, plus how far issuance has gone.
func (h *PublicHandler) GetServing(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	sess, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":        sess.ID,
		"label":             sess.Label,
		"current_token":     sess.CurrentToken,
		"last_token_issued": sess.LastTokenIssued,
		"last_called_at":    sess.LastCalledAt,
	})
}

// GetMenu handles GET /v1/menu: active catalog items only.
func (h *PublicHandler) GetMenu(c echo.Context) error {
	items, err := h.Menu.List(c.Request().Context(), true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, items)
}

// StreamFeed handles GET /v1/sessions/:id/feed. It streams session
// changes as server-sent events until the client disconnects. The
// underlying feed subscription is torn down exactly once on the way
// out, before any reconnect can open a replacement.
func (h *PublicHandler) StreamFeed(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	if h.Feed == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live feed unavailable"})
	}
	if _, err := h.Sessions.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	changes, cancel := h.Feed.Subscribe(ctx, id)
	defer cancel()

	// Periodic keep-alive comments stop proxies from shearing an
	// idle stream.
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepalive.C:
			if _, err := fmt.Fprint(res, ": keepalive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			body, err := json.Marshal(ch)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", body); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
