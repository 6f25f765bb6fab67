package router

import (
	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/handler"
	"github.com/canteenhq/order-desk/internal/middleware"
)

// RegisterStaff registers the counter, kitchen and catalog endpoints.
// Every route requires a valid access token with the STAFF or OWNER
// role.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, m *handler.MenuHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("STAFF", "OWNER"))

	// Session board.
	g.GET("/sessions", s.ListSessions)
	g.GET("/sessions/:id/orders", s.ListOrders)
	g.GET("/sessions/:id/orders/unpaid", s.ListUnpaid)
	g.GET("/orders/by-id/:id", s.GetOrder)

	// Counter actions.
	g.POST("/sessions/:sid/orders/:id/approve", s.Approve)
	g.POST("/orders/:id/pay", s.MarkPaid)
	g.POST("/sessions/:id/walk-in", s.WalkIn)
	g.DELETE("/orders/:id", s.DeleteOrder)

	// Now-serving announcements.
	g.POST("/sessions/:id/call-next", s.CallNext)
	g.POST("/sessions/:id/call-again", s.CallAgain)

	// Kitchen board.
	g.GET("/sessions/:id/kitchen", s.KitchenQueue)
	g.POST("/orders/:id/cook", s.StartCooking)
	g.POST("/orders/:id/finish", s.Finish)

	// Catalog management. Full listing, hidden items included.
	g.GET("/menu/all", m.List)
	g.POST("/menu", m.Create)
	g.PUT("/menu/:id", m.Update)
	g.PATCH("/menu/:id/active", m.SetActive)
	g.DELETE("/menu/:id", m.Delete)
}
