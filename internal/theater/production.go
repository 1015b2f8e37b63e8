package theater

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iliyamo/theater-production-schedule/internal/model"
)

// displayDate is the presentation layout for date-range summaries.
const displayDate = "2 January 2006"

var cityCaser = cases.Title(language.English)

// Production aggregates the events belonging to one production post and
// derives its upcoming/past partitions and human-readable summaries. The
// event list is fetched once and cached for the accessor's lifetime, which
// is intended to be a single request.
type Production struct {
	ID    uint64
	store Store
	now   Clock

	events []*Event
	loaded bool
}

// NewProduction returns an accessor for the given production post ID.
func NewProduction(store Store, now Clock, id uint64) *Production {
	return &Production{ID: id, store: store, now: now}
}

// Summary is the presentation bundle for a production's schedule.
type Summary struct {
	Dates  string `json:"dates"`
	Cities string `json:"cities"`
	Full   string `json:"full"`
}

// Events returns all published events linked to this production that carry
// a valid date, sorted ascending by instant. Events with equal instants
// keep their insertion order. Events without a parsable date are excluded
// rather than failing the caller.
func (p *Production) Events(ctx context.Context) ([]*Event, error) {
	if p.loaded {
		return p.events, nil
	}
	ids, err := p.store.EventIDsByProduction(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	events := make([]*Event, 0, len(ids))
	for _, id := range ids {
		ev := NewEvent(p.store, id)
		if _, err := ev.Instant(ctx); err != nil {
			if err == ErrNoDate {
				continue
			}
			return nil, err
		}
		events = append(events, ev)
	}
	// Instants are already cached on the accessors; SliceStable keeps
	// insertion order for equal instants.
	sort.SliceStable(events, func(i, j int) bool {
		a, _ := events[i].Instant(ctx)
		b, _ := events[j].Instant(ctx)
		return a.Before(b)
	})
	p.events = events
	p.loaded = true
	return events, nil
}

// UpcomingEvents returns the events whose instant is now or later.
func (p *Production) UpcomingEvents(ctx context.Context) ([]*Event, error) {
	return p.partition(ctx, true)
}

// PastEvents returns the events whose instant is strictly before now.
func (p *Production) PastEvents(ctx context.Context) ([]*Event, error) {
	return p.partition(ctx, false)
}

func (p *Production) partition(ctx context.Context, upcoming bool) ([]*Event, error) {
	events, err := p.Events(ctx)
	if err != nil {
		return nil, err
	}
	now := p.now()
	var out []*Event
	for _, ev := range events {
		t, _ := ev.Instant(ctx)
		if (upcoming && !t.Before(now)) || (!upcoming && t.Before(now)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// OrderIndex returns the persisted order index, the production's position
// key in the listing. The bool is false when the production carries none
// (no orderable events). This reads the stored value; recomputation is the
// updater's job.
func (p *Production) OrderIndex(ctx context.Context) (int64, bool, error) {
	raw, ok, err := p.store.Meta(ctx, p.ID, model.MetaOrderIndex)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return v, true, nil
}

// IsUpcoming reports whether the production has at least one upcoming event.
func (p *Production) IsUpcoming(ctx context.Context) (bool, error) {
	up, err := p.UpcomingEvents(ctx)
	if err != nil {
		return false, err
	}
	return len(up) > 0, nil
}

// Dates renders the production's date range. With no events it is empty;
// with a single distinct instant it is that date; otherwise it is "first
// to last" while the first event is still upcoming, and "until last" once
// the whole range is historic.
func (p *Production) Dates(ctx context.Context) (string, error) {
	events, err := p.Events(ctx)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}
	first, _ := events[0].Instant(ctx)
	last, _ := events[len(events)-1].Instant(ctx)
	if first.Equal(last) {
		return first.Format(displayDate), nil
	}
	if p.now().Before(first) {
		return first.Format(displayDate) + " to " + last.Format(displayDate), nil
	}
	return "until " + last.Format(displayDate), nil
}

// Cities renders up to three distinct city names, title-cased and trimmed,
// in order of first appearance among upcoming events, joined with "and".
// When more than three distinct cities exist, " and more" is appended.
func (p *Production) Cities(ctx context.Context) (string, error) {
	upcoming, err := p.UpcomingEvents(ctx)
	if err != nil {
		return "", err
	}
	var cities []string
	seen := map[string]bool{}
	for _, ev := range upcoming {
		raw, err := ev.City(ctx)
		if err != nil {
			return "", err
		}
		city := cityCaser.String(strings.ToLower(strings.TrimSpace(raw)))
		if city == "" || seen[city] {
			continue
		}
		seen[city] = true
		cities = append(cities, city)
	}

	var text string
	switch {
	case len(cities) == 0:
	case len(cities) == 1:
		text = cities[0]
	case len(cities) == 2:
		text = cities[0] + " and " + cities[1]
	default:
		text = cities[0] + ", " + cities[1] + " and " + cities[2]
	}
	if len(cities) > 3 {
		text += " and more"
	}
	return text, nil
}

// Summary bundles the date-range and city renderings. It never fails on a
// production without events; every part is simply empty.
func (p *Production) Summary(ctx context.Context) (Summary, error) {
	dates, err := p.Dates(ctx)
	if err != nil {
		return Summary{}, err
	}
	cities, err := p.Cities(ctx)
	if err != nil {
		return Summary{}, err
	}
	full := dates
	if cities != "" {
		if full != "" {
			full += " in " + cities
		} else {
			full = cities
		}
	}
	if full != "" {
		full += "."
	}
	return Summary{Dates: dates, Cities: cities, Full: full}, nil
}
