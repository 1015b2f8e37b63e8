package theater

import (
	"context"
	"strconv"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
)

// Event wraps a single event post and exposes its parsed date and its
// parent-production link. Meta reads are cached on the accessor, so an
// Event instance is meant to live for one request at most.
type Event struct {
	ID    uint64
	store Store

	instant     time.Time
	instantErr  error
	instantDone bool

	prodID   uint64
	prodErr  error
	prodDone bool
}

// NewEvent returns an accessor for the given event post ID.
func NewEvent(store Store, id uint64) *Event {
	return &Event{ID: id, store: store}
}

// Instant returns the event's absolute start time parsed from the
// event_date meta. A missing or malformed date yields ErrNoDate; callers
// must exclude such events from ordering rather than fail.
func (e *Event) Instant(ctx context.Context) (time.Time, error) {
	if e.instantDone {
		return e.instant, e.instantErr
	}
	e.instantDone = true
	raw, ok, err := e.store.Meta(ctx, e.ID, model.MetaEventDate)
	if err != nil {
		e.instantErr = err
		return time.Time{}, err
	}
	if !ok || raw == "" {
		e.instantErr = ErrNoDate
		return time.Time{}, ErrNoDate
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		e.instantErr = ErrNoDate
		return time.Time{}, ErrNoDate
	}
	e.instant = t
	return t, nil
}

// ProductionID returns the ID of the production this event belongs to, or
// ErrUnlinked when the link meta is missing or malformed.
func (e *Event) ProductionID(ctx context.Context) (uint64, error) {
	if e.prodDone {
		return e.prodID, e.prodErr
	}
	e.prodDone = true
	raw, ok, err := e.store.Meta(ctx, e.ID, model.MetaProduction)
	if err != nil {
		e.prodErr = err
		return 0, err
	}
	if !ok || raw == "" {
		e.prodErr = ErrUnlinked
		return 0, ErrUnlinked
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		e.prodErr = ErrUnlinked
		return 0, ErrUnlinked
	}
	e.prodID = id
	return id, nil
}

// Venue returns the venue meta, empty when unset.
func (e *Event) Venue(ctx context.Context) (string, error) {
	v, _, err := e.store.Meta(ctx, e.ID, model.MetaVenue)
	return v, err
}

// City returns the city meta, empty when unset.
func (e *Event) City(ctx context.Context) (string, error) {
	v, _, err := e.store.Meta(ctx, e.ID, model.MetaCity)
	return v, err
}

// TicketsURL returns the tickets_url meta, empty when unset.
func (e *Event) TicketsURL(ctx context.Context) (string, error) {
	v, _, err := e.store.Meta(ctx, e.ID, model.MetaTicketsURL)
	return v, err
}
