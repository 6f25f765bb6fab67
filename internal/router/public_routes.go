package router

import (
	"github.com/labstack/echo/v4"

	"github.com/canteenhq/order-desk/internal/handler"
)

// RegisterPublic registers the guest-facing ordering surface. No JWT
// or role middleware is applied; customers order from a QR code, not
// an account. placeLimit is the rate limiter guarding order creation,
// menuCache the response cache on the menu; both may be nil in tests.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, placeLimit, menuCache echo.MiddlewareFunc) {
	// Order placement is the only public write, so it is the only
	// public route behind the limiter.
	if placeLimit != nil {
		e.POST("/v1/orders", p.PlaceOrder, placeLimit)
	} else {
		e.POST("/v1/orders", p.PlaceOrder)
	}
	// Customers track their order by the opaque ref from the receipt,
	// never by the numeric id.
	e.GET("/v1/orders/:ref", p.TrackOrder)
	e.GET("/v1/sessions/:id/serving", p.GetServing)
	// Live change feed for the board screens, as server-sent events.
	e.GET("/v1/sessions/:id/feed", p.StreamFeed)
	// Active items only; the staff catalog lives under /v1/menu/all.
	// The menu barely changes, so it is the one cached read.
	if menuCache != nil {
		e.GET("/v1/menu", p.GetMenu, menuCache)
	} else {
		e.GET("/v1/menu", p.GetMenu)
	}
}
