package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-production-schedule/internal/handler"
)

// RegisterPublic registers the unauthenticated browse endpoints. These serve
// the ordered production listing and event schedules for guests, so the
// caller usually passes the response cache and rate limiter as extra
// middleware.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// Ordered list of productions: soonest upcoming first, stickies break
	// ties ahead of non-stickies.
	g.GET("/productions", p.ListProductions)
	// Single production with its date range and city summary.
	g.GET("/productions/:id", p.GetProduction)
	// Chronological events of one production.
	g.GET("/productions/:id/events", p.ListProductionEvents)
}
