// Package handler exposes HTTP handlers for both authenticated and public
// endpoints. This file defines the public browsing API: the ordered
// production listing and production detail views. These routes require no
// authentication; internal fields (meta bookkeeping, account data) never
// appear in responses.
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/repository"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
)

// PublicHandler aggregates the store access needed for unauthenticated
// browsing. Listing order is whatever the persisted order indexes say; the
// handler never recomputes them.
type PublicHandler struct {
	Posts *repository.PostRepo
	Now   theater.Clock
}

func NewPublicHandler(posts *repository.PostRepo, now theater.Clock) *PublicHandler {
	return &PublicHandler{Posts: posts, Now: now}
}

// PublicProduction is one row of the listing response.
type PublicProduction struct {
	ID         uint64          `json:"id"`
	Title      string          `json:"title"`
	Sticky     bool            `json:"sticky"`
	IsUpcoming bool            `json:"is_upcoming"`
	Summary    theater.Summary `json:"summary"`
}

// PublicEvent is one event of a production detail response.
type PublicEvent struct {
	ID         uint64    `json:"id"`
	StartsAt   time.Time `json:"starts_at"`
	Venue      string    `json:"venue,omitempty"`
	City       string    `json:"city,omitempty"`
	TicketsURL string    `json:"tickets_url,omitempty"`
}

// PublicProductionDetail is the full production view.
type PublicProductionDetail struct {
	PublicProduction
	UpcomingEvents []PublicEvent `json:"upcoming_events"`
	PastEvents     []PublicEvent `json:"past_events"`
}

// ListProductions handles GET /v1/productions. Productions arrive in
// upcoming-then-historic chronological order straight from the order-index
// meta. Supported query parameters: status (repeatable, "any" allowed),
// pin_sticky (hoist sticky productions to the front), limit.
func (h *PublicHandler) ListProductions(c echo.Context) error {
	ctx := c.Request().Context()

	opts := theater.ListOpts{}
	if v := c.QueryParams()["status"]; len(v) > 0 {
		opts.Statuses = v
	}
	if v := c.QueryParam("pin_sticky"); v == "true" || v == "1" {
		opts.PinSticky = true
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		opts.Limit = n
	}

	ids, err := theater.ListProductions(ctx, h.Posts, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	items := make([]PublicProduction, 0, len(ids))
	for _, id := range ids {
		row, err := h.productionRow(c, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		items = append(items, row)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetProduction handles GET /v1/productions/:id and returns the full view
// with upcoming and past events.
func (h *PublicHandler) GetProduction(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPostNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if post.Type != model.TypeProduction {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}

	row, err := h.productionRow(c, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	prod := theater.NewProduction(h.Posts, h.Now, id)
	upcoming, err := prod.UpcomingEvents(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	past, err := prod.PastEvents(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	detail := PublicProductionDetail{PublicProduction: row}
	if detail.UpcomingEvents, err = h.publicEvents(c, upcoming); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if detail.PastEvents, err = h.publicEvents(c, past); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, detail)
}

// ListProductionEvents handles GET /v1/productions/:id/events and returns
// all dated events of the production in chronological order.
func (h *PublicHandler) ListProductionEvents(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	post, err := h.Posts.GetByID(ctx, id)
	if err != nil || post.Type != model.TypeProduction {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}
	events, err := theater.NewProduction(h.Posts, h.Now, id).Events(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.publicEvents(c, events)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *PublicHandler) productionRow(c echo.Context, id uint64) (PublicProduction, error) {
	ctx := c.Request().Context()
	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		return PublicProduction{}, err
	}
	prod := theater.NewProduction(h.Posts, h.Now, id)
	summary, err := prod.Summary(ctx)
	if err != nil {
		return PublicProduction{}, err
	}
	upcoming, err := prod.IsUpcoming(ctx)
	if err != nil {
		return PublicProduction{}, err
	}
	return PublicProduction{
		ID:         post.ID,
		Title:      post.Title,
		Sticky:     post.Sticky,
		IsUpcoming: upcoming,
		Summary:    summary,
	}, nil
}

func (h *PublicHandler) publicEvents(c echo.Context, events []*theater.Event) ([]PublicEvent, error) {
	ctx := c.Request().Context()
	out := make([]PublicEvent, 0, len(events))
	for _, ev := range events {
		instant, err := ev.Instant(ctx)
		if err != nil {
			continue // undated events never reach responses
		}
		venue, err := ev.Venue(ctx)
		if err != nil {
			return nil, err
		}
		city, err := ev.City(ctx)
		if err != nil {
			return nil, err
		}
		tickets, err := ev.TicketsURL(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, PublicEvent{
			ID:         ev.ID,
			StartsAt:   instant,
			Venue:      venue,
			City:       strings.TrimSpace(city),
			TicketsURL: tickets,
		})
	}
	return out, nil
}
