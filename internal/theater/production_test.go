package theater_test

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
	"github.com/iliyamo/theater-production-schedule/internal/theater/theatertest"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func pinned() time.Time { return testNow }

func newProduction(store *theatertest.Store, id uint64) *theater.Production {
	return theater.NewProduction(store, pinned, id)
}

func TestProductionEventsSortedByInstant(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	prod := store.CreateProduction("p", false)

	day := 24 * time.Hour
	e3 := store.CreateEvent(prod, testNow.Add(3*day))
	e1 := store.CreateEvent(prod, testNow.Add(day))
	e2 := store.CreateEvent(prod, testNow.Add(2*day))

	events, err := newProduction(store, prod).Events(ctx)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	want := []uint64{e1, e2, e3}
	if len(events) != len(want) {
		t.Fatalf("Events() returned %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.ID != want[i] {
			t.Fatalf("Events()[%d] = %d, want %d", i, ev.ID, want[i])
		}
	}
}

func TestProductionEventsSkipsUndated(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	prod := store.CreateProduction("p", false)

	dated := store.CreateEvent(prod, testNow.Add(time.Hour))
	undated := store.CreateEvent(prod, testNow)
	_ = store.DeleteMeta(ctx, undated, model.MetaEventDate)

	events, err := newProduction(store, prod).Events(ctx)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != dated {
		t.Fatalf("Events() = %v, want only event %d", events, dated)
	}
}

func TestProductionPartitions(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	prod := store.CreateProduction("p", false)

	day := 24 * time.Hour
	past := store.CreateEvent(prod, testNow.Add(-day))
	atNow := store.CreateEvent(prod, testNow)
	future := store.CreateEvent(prod, testNow.Add(day))

	p := newProduction(store, prod)
	up, err := p.UpcomingEvents(ctx)
	if err != nil {
		t.Fatalf("UpcomingEvents() error = %v", err)
	}
	// An event starting exactly now is still upcoming.
	if len(up) != 2 || up[0].ID != atNow || up[1].ID != future {
		t.Fatalf("UpcomingEvents() = %v, want [%d %d]", ids(up), atNow, future)
	}

	pastEvents, err := p.PastEvents(ctx)
	if err != nil {
		t.Fatalf("PastEvents() error = %v", err)
	}
	if len(pastEvents) != 1 || pastEvents[0].ID != past {
		t.Fatalf("PastEvents() = %v, want [%d]", ids(pastEvents), past)
	}

	upcoming, err := p.IsUpcoming(ctx)
	if err != nil {
		t.Fatalf("IsUpcoming() error = %v", err)
	}
	if !upcoming {
		t.Fatal("IsUpcoming() = false, want true")
	}
}

func TestProductionDates(t *testing.T) {
	ctx := context.Background()
	day := 24 * time.Hour

	tests := []struct {
		name   string
		starts []time.Time
		want   string
	}{
		{
			name: "no events",
			want: "",
		},
		{
			name:   "single instant",
			starts: []time.Time{time.Date(2026, 6, 5, 20, 0, 0, 0, time.UTC)},
			want:   "5 June 2026",
		},
		{
			name: "repeated identical instant renders as single date",
			starts: []time.Time{
				time.Date(2026, 6, 5, 20, 0, 0, 0, time.UTC),
				time.Date(2026, 6, 5, 20, 0, 0, 0, time.UTC),
			},
			want: "5 June 2026",
		},
		{
			name:   "range with first event upcoming",
			starts: []time.Time{testNow.Add(2 * day), testNow.Add(9 * day)},
			want:   "3 June 2026 to 10 June 2026",
		},
		{
			name:   "range already started",
			starts: []time.Time{testNow.Add(-2 * day), testNow.Add(9 * day)},
			want:   "until 10 June 2026",
		},
		{
			name:   "range fully historic",
			starts: []time.Time{testNow.Add(-9 * day), testNow.Add(-2 * day)},
			want:   "until 30 May 2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := theatertest.New()
			prod := store.CreateProduction("p", false)
			for _, s := range tt.starts {
				store.CreateEvent(prod, s)
			}
			got, err := newProduction(store, prod).Dates(ctx)
			if err != nil {
				t.Fatalf("Dates() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Dates() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProductionCities(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		cities []string // one upcoming event per entry, in insertion order
		want   string
	}{
		{"no cities", []string{""}, ""},
		{"single city title-cased", []string{"  london "}, "London"},
		{"duplicates collapse case-insensitively", []string{"london", "LONDON"}, "London"},
		{"two cities", []string{"london", "york"}, "London and York"},
		{"three cities", []string{"london", "york", "leeds"}, "London, York and Leeds"},
		{"more than three", []string{"london", "york", "leeds", "bath"}, "London, York and Leeds and more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := theatertest.New()
			prod := store.CreateProduction("p", false)
			for i, city := range tt.cities {
				id := store.CreateEvent(prod, testNow.Add(time.Duration(i+1)*time.Hour))
				if city != "" {
					if err := store.SetMeta(ctx, id, model.MetaCity, city); err != nil {
						t.Fatalf("SetMeta: %v", err)
					}
				}
			}
			got, err := newProduction(store, prod).Cities(ctx)
			if err != nil {
				t.Fatalf("Cities() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Cities() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProductionCitiesIgnoresPastEvents(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	prod := store.CreateProduction("p", false)

	past := store.CreateEvent(prod, testNow.Add(-time.Hour))
	_ = store.SetMeta(ctx, past, model.MetaCity, "bristol")
	up := store.CreateEvent(prod, testNow.Add(time.Hour))
	_ = store.SetMeta(ctx, up, model.MetaCity, "york")

	got, err := newProduction(store, prod).Cities(ctx)
	if err != nil {
		t.Fatalf("Cities() error = %v", err)
	}
	if got != "York" {
		t.Fatalf("Cities() = %q, want %q", got, "York")
	}
}

func TestProductionSummary(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	prod := store.CreateProduction("p", false)

	day := 24 * time.Hour
	e1 := store.CreateEvent(prod, testNow.Add(2*day))
	_ = store.SetMeta(ctx, e1, model.MetaCity, "london")
	e2 := store.CreateEvent(prod, testNow.Add(9*day))
	_ = store.SetMeta(ctx, e2, model.MetaCity, "york")

	got, err := newProduction(store, prod).Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	wantFull := "3 June 2026 to 10 June 2026 in London and York."
	if got.Full != wantFull {
		t.Fatalf("Summary().Full = %q, want %q", got.Full, wantFull)
	}
}

func TestProductionSummaryEmpty(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	prod := store.CreateProduction("p", false)

	got, err := newProduction(store, prod).Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got.Full != "" || got.Dates != "" || got.Cities != "" {
		t.Fatalf("Summary() = %+v, want all empty", got)
	}
}

func ids(events []*theater.Event) []uint64 {
	out := make([]uint64, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
