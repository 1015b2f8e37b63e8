package handler // handler package contains manager-facing event handlers

import (
	"net/http" // http defines status codes
	"strconv"  // strconv renders the production link meta
	"strings"  // strings helps with trimming whitespace
	"time"     // time parses incoming timestamps

	"github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/repository"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
)

// eventResp is the admin-facing event representation.
type eventResp struct {
	ID           uint64 `json:"id"`
	ProductionID uint64 `json:"production_id"`
	EventDate    string `json:"event_date"`
	Status       string `json:"status"`
	Venue        string `json:"venue,omitempty"`
	City         string `json:"city,omitempty"`
	TicketsURL   string `json:"tickets_url,omitempty"`
}

// CreateEvent handles POST /v1/productions/:id/events. The incoming date is
// RFC3339; it is stored in the DB layout in UTC. The order trigger runs
// before the response is written, so the new event is already reflected in
// the production's order index.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	ctx := c.Request().Context()
	prodID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	prod, err := h.Posts.GetByID(ctx, prodID)
	if err != nil {
		if err == repository.ErrPostNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load production"})
	}
	if prod.Type != model.TypeProduction {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}

	var body struct {
		EventDate  string `json:"event_date"` // RFC3339
		Venue      string `json:"venue"`
		City       string `json:"city"`
		TicketsURL string `json:"tickets_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	raw := strings.TrimSpace(body.EventDate)
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date is required"})
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date format"})
	}

	post := &model.Post{Type: model.TypeEvent, Status: model.StatusPublish}
	if err := h.Posts.Create(ctx, post); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}
	metas := map[string]string{
		model.MetaProduction: strconv.FormatUint(prodID, 10),
		model.MetaEventDate:  start.UTC().Format(theater.DateLayout),
	}
	if v := strings.TrimSpace(body.Venue); v != "" {
		metas[model.MetaVenue] = v
	}
	if v := strings.TrimSpace(body.City); v != "" {
		metas[model.MetaCity] = v
	}
	if v := strings.TrimSpace(body.TicketsURL); v != "" {
		metas[model.MetaTicketsURL] = v
	}
	for k, v := range metas {
		if err := h.Posts.SetMeta(ctx, post.ID, k, v); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store event"})
		}
	}

	// Incremental trigger: one read-recompute-write for the production.
	if err := h.Updater.EventChanged(ctx, post.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order update failed"})
	}

	resp, err := h.eventResponse(c, post.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// UpdateEvent handles PATCH /v1/events/:id. Date, venue, city, tickets URL
// and status can change; any change re-runs the order trigger.
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cur, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPostNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if cur.Type != model.TypeEvent {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	var body struct {
		EventDate  *string `json:"event_date"` // RFC3339
		Venue      *string `json:"venue"`
		City       *string `json:"city"`
		TicketsURL *string `json:"tickets_url"`
		Status     *string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	changed := false
	if body.EventDate != nil {
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(*body.EventDate))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date format"})
		}
		if err := h.Posts.SetMeta(ctx, id, model.MetaEventDate, start.UTC().Format(theater.DateLayout)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		changed = true
	}
	for _, m := range []struct {
		key string
		val *string
	}{
		{model.MetaVenue, body.Venue},
		{model.MetaCity, body.City},
		{model.MetaTicketsURL, body.TicketsURL},
	} {
		if m.val == nil {
			continue
		}
		if err := h.Posts.SetMeta(ctx, id, m.key, strings.TrimSpace(*m.val)); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		changed = true
	}
	if body.Status != nil {
		status, ok := normalizeStatus(*body.Status, "")
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		if status != cur.Status {
			if err := h.Posts.UpdateStatus(ctx, id, status); err != nil && err != repository.ErrNoChange {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
			}
			changed = true
		}
	}
	if !changed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "event already has these parameters"})
	}

	if err := h.Updater.EventChanged(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order update failed"})
	}

	resp, err := h.eventResponse(c, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteEvent handles DELETE /v1/events/:id. The production link is
// captured before the row disappears so the order trigger can recompute
// the production from its remaining events.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cur, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPostNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if cur.Type != model.TypeEvent {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	prodID, prodErr := theater.NewEvent(h.Posts, id).ProductionID(ctx)

	if err := h.Posts.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if prodErr == nil {
		if err := h.Updater.EventRemoved(ctx, prodID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order update failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// eventResponse assembles the admin event view from the post and its meta.
func (h *AdminHandler) eventResponse(c echo.Context, id uint64) (eventResp, error) {
	ctx := c.Request().Context()
	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		return eventResp{}, err
	}
	resp := eventResp{ID: post.ID, Status: post.Status}
	if v, _, err := h.Posts.Meta(ctx, id, model.MetaProduction); err == nil {
		resp.ProductionID, _ = strconv.ParseUint(v, 10, 64)
	} else {
		return eventResp{}, err
	}
	for key, dst := range map[string]*string{
		model.MetaEventDate:  &resp.EventDate,
		model.MetaVenue:      &resp.Venue,
		model.MetaCity:       &resp.City,
		model.MetaTicketsURL: &resp.TicketsURL,
	} {
		v, _, err := h.Posts.Meta(ctx, id, key)
		if err != nil {
			return eventResp{}, err
		}
		*dst = v
	}
	return resp, nil
}
