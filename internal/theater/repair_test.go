package theater_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
	"github.com/iliyamo/theater-production-schedule/internal/theater/theatertest"
)

func newRepair(store *theatertest.Store, now time.Time) *theater.Repair {
	clock := func() time.Time { return now }
	return &theater.Repair{
		Store:   store,
		Options: store,
		Updater: &theater.Updater{Store: store, Now: clock},
		Now:     clock,
	}
}

func watermarkValue(t *testing.T, store *theatertest.Store) (int64, bool) {
	t.Helper()
	raw, ok, err := store.Option(context.Background(), theater.WatermarkOption)
	if err != nil {
		t.Fatalf("Option: %v", err)
	}
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		t.Fatalf("watermark %q is not numeric: %v", raw, err)
	}
	return v, true
}

func TestRepairFixesCorruptIndex(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned

	prod := store.CreateProduction("p", false)
	start := testNow.Add(48 * time.Hour)
	ev := store.CreateEvent(prod, start)
	if err := (&theater.Updater{Store: store, Now: pinned}).EventChanged(ctx, ev); err != nil {
		t.Fatalf("EventChanged: %v", err)
	}

	// Corrupt the stored index; the first sweep has no watermark yet and
	// therefore selects everything.
	if err := store.SetMeta(ctx, prod, model.MetaOrderIndex, "999"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}

	if err := newRepair(store, testNow).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got, ok := orderIndexOf(t, store, prod); !ok || got != start.Unix() {
		t.Fatalf("production index = %d (ok=%v), want %d", got, ok, start.Unix())
	}
	if got, ok := watermarkValue(t, store); !ok || got != testNow.Unix() {
		t.Fatalf("watermark = %d (ok=%v), want sweep start %d", got, ok, testNow.Unix())
	}
}

// An event that was upcoming at the previous sweep and is past now never
// changes its own record, so the changed-since clause misses it; the expiry
// window over (watermark, start] must catch it.
func TestRepairCatchesExpiredEvents(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned

	prod := store.CreateProduction("p", false)
	soon := store.CreateEvent(prod, testNow.Add(time.Hour))
	later := store.CreateEvent(prod, testNow.Add(5*time.Hour))
	for _, ev := range []uint64{soon, later} {
		if err := (&theater.Updater{Store: store, Now: pinned}).EventChanged(ctx, ev); err != nil {
			t.Fatalf("EventChanged: %v", err)
		}
	}
	if got, ok := orderIndexOf(t, store, prod); !ok || got != testNow.Add(time.Hour).Unix() {
		t.Fatalf("precondition: production index = %d (ok=%v)", got, ok)
	}

	// Pretend the previous sweep ran at testNow and no record has been
	// touched since.
	if err := store.SetOption(ctx, theater.WatermarkOption, strconv.FormatInt(testNow.Unix(), 10)); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	for _, id := range []uint64{prod, soon, later} {
		store.SetUpdated(id, testNow.Add(-time.Hour))
	}

	// Two hours later the first event has expired by pure clock
	// advancement; the sweep must re-derive the production from the
	// remaining upcoming event.
	sweepAt := testNow.Add(2 * time.Hour)
	if err := newRepair(store, sweepAt).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := testNow.Add(5 * time.Hour).Unix()
	if got, ok := orderIndexOf(t, store, prod); !ok || got != want {
		t.Fatalf("production index = %d (ok=%v), want %d", got, ok, want)
	}
}

func TestRepairKeepsWatermarkOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned

	broken := store.CreateProduction("broken", false)
	fine := store.CreateProduction("fine", false)
	evBroken := store.CreateEvent(broken, testNow.Add(time.Hour))
	evFine := store.CreateEvent(fine, testNow.Add(2*time.Hour))

	// Events carry their instants but the productions were never derived,
	// so the sweep has real writes to do for both.
	for _, ev := range []uint64{evBroken, evFine} {
		if err := store.SetMeta(ctx, ev, model.MetaOrderIndex,
			strconv.FormatInt(mustInstant(t, store, ev), 10)); err != nil {
			t.Fatalf("SetMeta: %v", err)
		}
	}
	store.FailSetMeta[broken] = errors.New("deadlock")

	err := newRepair(store, testNow).Run(ctx)
	if err == nil {
		t.Fatal("Run() = nil, want error after partial failure")
	}

	// The healthy production was still repaired: skip and continue.
	if got, ok := orderIndexOf(t, store, fine); !ok || got != testNow.Add(2*time.Hour).Unix() {
		t.Fatalf("healthy production index = %d (ok=%v)", got, ok)
	}
	// But the watermark must not advance, so the window is retried.
	if _, ok := watermarkValue(t, store); ok {
		t.Fatal("watermark advanced despite failures")
	}

	// Next sweep with the failure gone repairs the rest and advances.
	delete(store.FailSetMeta, broken)
	if err := newRepair(store, testNow).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, ok := orderIndexOf(t, store, broken); !ok || got != testNow.Add(time.Hour).Unix() {
		t.Fatalf("repaired production index = %d (ok=%v)", got, ok)
	}
	if got, ok := watermarkValue(t, store); !ok || got != testNow.Unix() {
		t.Fatalf("watermark = %d (ok=%v), want %d", got, ok, testNow.Unix())
	}
}

func TestRepairCorruptWatermarkRunsFullSweep(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned

	prod := store.CreateProduction("p", false)
	start := testNow.Add(time.Hour)
	ev := store.CreateEvent(prod, start)
	if err := store.SetMeta(ctx, ev, model.MetaOrderIndex,
		strconv.FormatInt(start.Unix(), 10)); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := store.SetOption(ctx, theater.WatermarkOption, "not a number"); err != nil {
		t.Fatalf("SetOption: %v", err)
	}

	if err := newRepair(store, testNow).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, ok := orderIndexOf(t, store, prod); !ok || got != start.Unix() {
		t.Fatalf("production index = %d (ok=%v), want %d", got, ok, start.Unix())
	}
}

func TestRepairIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	before, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}

	r := newRepair(f.Store, testNow)
	for i := 0; i < 3; i++ {
		if err := r.Run(ctx); err != nil {
			t.Fatalf("Run() #%d error = %v", i+1, err)
		}
	}

	after, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("listing changed size: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("repeated sweeps changed listing: %v -> %v", before, after)
		}
	}
}

func mustInstant(t *testing.T, store *theatertest.Store, eventID uint64) int64 {
	t.Helper()
	ts, err := theater.NewEvent(store, eventID).Instant(context.Background())
	if err != nil {
		t.Fatalf("Instant: %v", err)
	}
	return ts.Unix()
}
