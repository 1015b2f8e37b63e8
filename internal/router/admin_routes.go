package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-production-schedule/internal/handler"
	"github.com/iliyamo/theater-production-schedule/internal/middleware"
)

// RegisterAdmin registers the management endpoints under /v1. All routes
// require a valid JWT and the MANAGER role. Mutations here feed the order
// index: every event create, update or delete re-derives the owning
// production's position in the public listing.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MANAGER"),
	)

	g.POST("/productions", h.CreateProduction)
	g.PATCH("/productions/:id", h.UpdateProduction)
	g.DELETE("/productions/:id", h.DeleteProduction)

	g.POST("/productions/:id/events", h.CreateEvent)
	g.PATCH("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
}
