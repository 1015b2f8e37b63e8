package theater_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
	"github.com/iliyamo/theater-production-schedule/internal/theater/theatertest"
)

func newUpdater(store *theatertest.Store) *theater.Updater {
	return &theater.Updater{Store: store, Now: pinned}
}

func orderIndexOf(t *testing.T, store *theatertest.Store, id uint64) (int64, bool) {
	t.Helper()
	raw, ok, err := store.Meta(context.Background(), id, model.MetaOrderIndex)
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		t.Fatalf("order index %q is not numeric: %v", raw, err)
	}
	return v, true
}

func TestEventChangedSetsIndexes(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := newUpdater(store)

	prod := store.CreateProduction("p", false)
	start := testNow.Add(48 * time.Hour)
	ev := store.CreateEvent(prod, start)

	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}

	// The event carries its own instant, which the repair expiry window scans.
	if got, ok := orderIndexOf(t, store, ev); !ok || got != start.Unix() {
		t.Fatalf("event index = %d (ok=%v), want %d", got, ok, start.Unix())
	}
	// The production inherits the earliest upcoming instant.
	if got, ok := orderIndexOf(t, store, prod); !ok || got != start.Unix() {
		t.Fatalf("production index = %d (ok=%v), want %d", got, ok, start.Unix())
	}
}

func TestEventChangedReordersProduction(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := newUpdater(store)

	day := 24 * time.Hour
	prod := store.CreateProduction("p", false)
	first := store.CreateEvent(prod, testNow.Add(day))
	second := store.CreateEvent(prod, testNow.Add(2*day))
	for _, ev := range []uint64{first, second} {
		if err := u.EventChanged(ctx, ev); err != nil {
			t.Fatalf("EventChanged() error = %v", err)
		}
	}

	// Move the first event past the second; the production index must
	// follow the new earliest upcoming event.
	moved := testNow.Add(3 * day)
	if err := store.SetMeta(ctx, first, model.MetaEventDate, moved.UTC().Format(theater.DateLayout)); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := u.EventChanged(ctx, first); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}

	want := testNow.Add(2 * day).Unix()
	if got, ok := orderIndexOf(t, store, prod); !ok || got != want {
		t.Fatalf("production index = %d (ok=%v), want %d", got, ok, want)
	}
}

func TestEventRemovedFallsBack(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := newUpdater(store)

	day := 24 * time.Hour
	prod := store.CreateProduction("p", false)
	earliest := store.CreateEvent(prod, testNow.Add(day))
	later := store.CreateEvent(prod, testNow.Add(4*day))
	for _, ev := range []uint64{earliest, later} {
		if err := u.EventChanged(ctx, ev); err != nil {
			t.Fatalf("EventChanged() error = %v", err)
		}
	}

	store.DeletePost(earliest)
	if err := u.EventRemoved(ctx, prod); err != nil {
		t.Fatalf("EventRemoved() error = %v", err)
	}

	want := testNow.Add(4 * day).Unix()
	if got, ok := orderIndexOf(t, store, prod); !ok || got != want {
		t.Fatalf("production index = %d (ok=%v), want %d", got, ok, want)
	}
}

func TestEventRemovedLastEventDropsIndex(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := newUpdater(store)

	prod := store.CreateProduction("p", false)
	ev := store.CreateEvent(prod, testNow.Add(time.Hour))
	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}

	store.DeletePost(ev)
	if err := u.EventRemoved(ctx, prod); err != nil {
		t.Fatalf("EventRemoved() error = %v", err)
	}

	if _, ok := orderIndexOf(t, store, prod); ok {
		t.Fatal("production still carries an order index after losing its last event")
	}
	// And it no longer appears in the ordered listing.
	listed, err := theater.ListProductions(ctx, store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	for _, id := range listed {
		if id == prod {
			t.Fatal("production without events still listed")
		}
	}
}

func TestEventChangedUndatedEvent(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := newUpdater(store)

	prod := store.CreateProduction("p", false)
	ev := store.CreateEvent(prod, testNow.Add(time.Hour))
	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}

	// Corrupt the date; the event loses its own index and stops counting
	// toward the production.
	if err := store.SetMeta(ctx, ev, model.MetaEventDate, "not a date"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}

	if _, ok := orderIndexOf(t, store, ev); ok {
		t.Fatal("undated event still carries an order index")
	}
	if _, ok := orderIndexOf(t, store, prod); ok {
		t.Fatal("production still ordered by an undated event")
	}
}

func TestEventChangedUnlinkedEventSkipped(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := newUpdater(store)

	prod := store.CreateProduction("p", false)
	ev := store.CreateEvent(prod, testNow.Add(time.Hour))
	if err := store.DeleteMeta(ctx, ev, model.MetaProduction); err != nil {
		t.Fatalf("DeleteMeta: %v", err)
	}

	// Unlinked events are logged and skipped, never an error.
	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}
}

func TestUpdaterNotifiesOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned

	var changes []theater.OrderChange
	u := newUpdater(store)
	u.OnChange = func(ch theater.OrderChange) { changes = append(changes, ch) }

	prod := store.CreateProduction("p", false)
	start := testNow.Add(time.Hour)
	ev := store.CreateEvent(prod, start)

	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d change notifications, want 1", len(changes))
	}
	got := changes[0]
	if got.ProductionID != prod || !got.HasIndex || got.OrderIndex != start.Unix() {
		t.Fatalf("OnChange got %+v", got)
	}

	// Re-running the same recomputation writes nothing and stays silent.
	if err := u.EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged() error = %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("idempotent recompute notified again: %d notifications", len(changes))
	}
}
