package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/model"
	"github.com/canteenhq/order-desk/internal/repository"
)

// MenuHandler is the staff-side menu catalog CRUD. The public,
// active-only view lives on PublicHandler.
type MenuHandler struct {
	Menu *repository.MenuRepo
}

func NewMenuHandler(menu *repository.MenuRepo) *MenuHandler {
	if menu == nil {
		panic("nil dependency passed to NewMenuHandler")
	}
	return &MenuHandler{Menu: menu}
}

type menuItemReq struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Desc  string  `json:"desc"`
	Img   string  `json:"img"`
}

func (r *menuItemReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// List handles GET /v1/menu/all: the full catalog including hidden
// items.
func (h *MenuHandler) List(c echo.Context) error {
	items, err := h.Menu.List(c.Request().Context(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list menu"})
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /v1/menu. New items start active.
func (h *MenuHandler) Create(c echo.Context) error {
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	item, err := h.Menu.Create(c.Request().Context(), model.MenuItem{
		Name:   req.Name,
		Price:  req.Price,
		Desc:   req.Desc,
		Img:    req.Img,
		Active: true,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create menu item"})
	}
	return c.JSON(http.StatusCreated, item)
}

// Update handles PUT /v1/menu/:id. Active is not touched here; use
// the dedicated toggle so a price edit cannot accidentally re-list a
// hidden item.
func (h *MenuHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	item, err := h.Menu.Update(c.Request().Context(), model.MenuItem{
		ID:    id,
		Name:  req.Name,
		Price: req.Price,
		Desc:  req.Desc,
		Img:   req.Img,
	})
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update menu item"})
	}
	return c.JSON(http.StatusOK, item)
}

type setActiveReq struct {
	Active bool `json:"active"`
}

// SetActive handles PATCH /v1/menu/:id/active: list or hide an item.
func (h *MenuHandler) SetActive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	item, err := h.Menu.SetActive(c.Request().Context(), id, req.Active)
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update menu item"})
	}
	return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /v1/menu/:id. Prefer SetActive(false) when
// the item has ever been ordered; deletion is for typos.
func (h *MenuHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	if err := h.Menu.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete menu item"})
	}
	return c.NoContent(http.StatusNoContent)
}
