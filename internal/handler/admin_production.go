package handler // handler package contains manager-facing production handlers

import (
	"net/http" // http defines status codes
	"strings"  // strings helps with trimming whitespace

	"github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/repository"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
)

// AdminHandler bundles the store and the incremental order updater for the
// mutation endpoints. Every event mutation calls the updater inline, so the
// listing reflects the change as soon as the request returns.
type AdminHandler struct {
	Posts   *repository.PostRepo
	Updater *theater.Updater
}

func NewAdminHandler(posts *repository.PostRepo, updater *theater.Updater) *AdminHandler {
	return &AdminHandler{Posts: posts, Updater: updater}
}

// CreateProduction handles POST /v1/productions.
func (h *AdminHandler) CreateProduction(c echo.Context) error {
	var body struct {
		Title  string `json:"title"`
		Sticky bool   `json:"sticky"`
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	status, ok := normalizeStatus(body.Status, model.StatusPublish)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	post := &model.Post{Type: model.TypeProduction, Title: title, Status: status, Sticky: body.Sticky}
	if err := h.Posts.Create(c.Request().Context(), post); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create production"})
	}
	// A new production has no events yet, so it carries no order index and
	// stays out of the listing until its first event arrives.
	return c.JSON(http.StatusCreated, post)
}

// UpdateProduction handles PATCH /v1/productions/:id. Title, sticky flag
// and status can change; a status change re-runs the order trigger for the
// production.
func (h *AdminHandler) UpdateProduction(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cur, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPostNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load production"})
	}
	if cur.Type != model.TypeProduction {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}

	var body struct {
		Title  *string `json:"title"`
		Sticky *bool   `json:"sticky"`
		Status *string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	changed := false
	if body.Title != nil && strings.TrimSpace(*body.Title) != "" && strings.TrimSpace(*body.Title) != cur.Title {
		if err := h.Posts.UpdateTitle(ctx, id, strings.TrimSpace(*body.Title)); err != nil && err != repository.ErrNoChange {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		changed = true
	}
	if body.Sticky != nil && *body.Sticky != cur.Sticky {
		if err := h.Posts.SetSticky(ctx, id, *body.Sticky); err != nil && err != repository.ErrNoChange {
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
			if err := h.Updater.ProductionChanged(ctx, id); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order update failed"})
			}
			changed = true
		}
	}
	if !changed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "production already has these parameters"})
	}

	fresh, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load production"})
	}
	return c.JSON(http.StatusOK, fresh)
}

// DeleteProduction handles DELETE /v1/productions/:id. Linked events are
// not cascaded; they become unlinked and drop out of every aggregation.
func (h *AdminHandler) DeleteProduction(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cur, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrPostNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load production"})
	}
	if cur.Type != model.TypeProduction {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "production not found"})
	}
	if err := h.Posts.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// normalizeStatus validates a status string, falling back to def when the
// input is empty.
func normalizeStatus(s, def string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, def != ""
	}
	switch s {
	case model.StatusPublish, model.StatusDraft, model.StatusTrash:
		return s, true
	}
	return "", false
}
