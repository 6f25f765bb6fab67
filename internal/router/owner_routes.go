package router

import (
	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/handler"
	"github.com/canteenhq/order-desk/internal/middleware"
)

// RegisterOwner registers the owner console: session lifecycle and
// the summary views. OWNER role only.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OWNER"))

	g.POST("/sessions", o.CreateSession)
	g.DELETE("/sessions/:id", o.DeleteSession)
	g.GET("/sessions/:id/summary", o.Summary)
	g.GET("/sessions/:id/summary.csv", o.SummaryCSV)
}
