package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/repository"
	"github.com/canteenhq/order-desk/internal/service"
)

// OwnerHandler serves the owner console: session lifecycle and the
// end-of-day summary views.
type OwnerHandler struct {
	Sessions *repository.SessionRepo
	Orders   *repository.OrderRepo
}

func NewOwnerHandler(sessions *repository.SessionRepo, orders *repository.OrderRepo) *OwnerHandler {
	if sessions == nil || orders == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{Sessions: sessions, Orders: orders}
}

type createSessionReq struct {
	Label string `json:"label"`
}

// CreateSession handles POST /v1/sessions. The label is a display
// name ("Saturday lunch"); counters start at zero.
func (h *OwnerHandler) CreateSession(c echo.Context) error {
	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
	}
	sess, err := h.Sessions.Create(c.Request().Context(), req.Label)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
	}
	return c.JSON(http.StatusCreated, sess)
}

// DeleteSession handles DELETE /v1/sessions/:id. Removes the session
// and every order in it, in one transaction.
func (h *OwnerHandler) DeleteSession(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete session"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Summary handles GET /v1/sessions/:id/summary.
func (h *OwnerHandler) Summary(c echo.Context) error {
	return h.withSummary(c, func(s service.SessionSummary) error {
		return c.JSON(http.StatusOK, s)
	})
}

// SummaryCSV handles GET /v1/sessions/:id/summary.csv, the same
// aggregation as Summary rendered as a download.
func (h *OwnerHandler) SummaryCSV(c echo.Context) error {
	return h.withSummary(c, func(s service.SessionSummary) error {
		var buf bytes.Buffer
		if err := service.WriteSummaryCSV(&buf, s); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render summary"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="session-%d-summary.csv"`, s.SessionID))
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	})
}

// withSummary loads the session and its full order snapshot, folds
// them, and hands the result to render.
func (h *OwnerHandler) withSummary(c echo.Context, render func(service.SessionSummary) error) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	sess, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
	}
	orders, err := h.Orders.ListBySession(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return render(service.Summarize(sess, orders))
}
