package theater_test

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
	"github.com/iliyamo/theater-production-schedule/internal/theater"
	"github.com/iliyamo/theater-production-schedule/internal/theater/theatertest"
)

func assertOrder(t *testing.T, got, want []uint64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("listing = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("listing = %v, want %v", got, want)
		}
	}
}

func TestListProductionsDefaultOrder(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	got, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	// Ascending by order index: the long-past production first, then
	// yesterday's, then the upcoming ones by their next event. MixedSticky
	// sorts by its upcoming event, not its historic one.
	assertOrder(t, got, []uint64{
		f.HistoricSticky,
		f.Historic,
		f.UpcomingTwo,
		f.UpcomingOne,
		f.MixedSticky,
	})
}

func TestListProductionsPinSticky(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	got, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{PinSticky: true})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	// Stickies hoisted to the front in creation order, the rest unchanged.
	assertOrder(t, got, []uint64{
		f.HistoricSticky,
		f.MixedSticky,
		f.Historic,
		f.UpcomingTwo,
		f.UpcomingOne,
	})
}

func TestListProductionsStickyBreaksTies(t *testing.T) {
	ctx := context.Background()
	store := theatertest.New()
	store.Now = pinned
	u := &theater.Updater{Store: store, Now: pinned}

	start := testNow.Add(24 * time.Hour)
	plain := store.CreateProduction("plain", false)
	sticky := store.CreateProduction("sticky", true)
	for _, prod := range []uint64{plain, sticky} {
		ev := store.CreateEvent(prod, start)
		if err := u.EventChanged(context.Background(), ev); err != nil {
			t.Fatalf("EventChanged: %v", err)
		}
	}

	got, err := theater.ListProductions(ctx, store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	// Equal order indexes: the sticky production comes first even though
	// it was created later.
	assertOrder(t, got, []uint64{sticky, plain})
}

func TestListProductionsStatusFilter(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	f.Store.SetStatus(f.Historic, model.StatusDraft)

	got, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	for _, id := range got {
		if id == f.Historic {
			t.Fatal("draft production listed by default")
		}
	}

	got, err = theater.ListProductions(ctx, f.Store, theater.ListOpts{Statuses: []string{"any"}})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	found := false
	for _, id := range got {
		found = found || id == f.Historic
	}
	if !found {
		t.Fatal(`status "any" did not include the draft production`)
	}
}

func TestListProductionsLimit(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	got, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	assertOrder(t, got, []uint64{f.HistoricSticky, f.Historic})
}

func TestListProductionsExcludesEventless(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	empty := f.Store.CreateProduction("no events yet", false)

	got, err := theater.ListProductions(ctx, f.Store, theater.ListOpts{})
	if err != nil {
		t.Fatalf("ListProductions() error = %v", err)
	}
	for _, id := range got {
		if id == empty {
			t.Fatal("production without events appeared in the listing")
		}
	}
}

func TestIDsByTypesFiltersMixedSets(t *testing.T) {
	ctx := context.Background()
	f := theatertest.NewFixture(testNow)

	mixed := []uint64{f.HistoricSticky, f.EventIn1Day, f.UpcomingOne, f.EventHistoricWeek, f.UpcomingOne}

	got, err := f.Store.IDsByTypes(ctx, []string{model.TypeProduction}, mixed)
	if err != nil {
		t.Fatalf("IDsByTypes() error = %v", err)
	}
	assertOrder(t, got, []uint64{f.HistoricSticky, f.UpcomingOne})

	got, err = f.Store.IDsByTypes(ctx, []string{model.TypeEvent}, mixed)
	if err != nil {
		t.Fatalf("IDsByTypes() error = %v", err)
	}
	assertOrder(t, got, []uint64{f.EventIn1Day, f.EventHistoricWeek})
}
