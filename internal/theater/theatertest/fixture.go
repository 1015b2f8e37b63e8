package theatertest

import (
	"context"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/theater"
)

// Fixture is the canonical data set the ordering tests share: five
// productions whose events sit at fixed offsets around a pinned "now".
//
// Expected default listing order (ascending by order index):
//
//	HistoricSticky       event at now-1y   (sticky)
//	Historic             event at now-1d
//	UpcomingTwo          events at now+1d and now+4d
//	UpcomingOne          event at now+2d
//	MixedSticky          events at now-7d and now+7d (sticky)
type Fixture struct {
	Store   *Store
	Updater *theater.Updater
	Now     time.Time

	HistoricSticky uint64
	Historic       uint64
	UpcomingTwo    uint64
	UpcomingOne    uint64
	MixedSticky    uint64

	EventHistoricYear uint64 // now-1y, on HistoricSticky
	EventHistoricDay  uint64 // now-1d, on Historic
	EventIn1Day       uint64 // now+1d, on UpcomingTwo
	EventIn4Days      uint64 // now+4d, on UpcomingTwo
	EventIn2Days      uint64 // now+2d, on UpcomingOne
	EventHistoricWeek uint64 // now-7d, on MixedSticky
	EventIn1Week      uint64 // now+7d, on MixedSticky
}

// NewFixture builds the data set with all order indexes freshly computed
// through the incremental updater, exactly as live mutations would.
func NewFixture(now time.Time) *Fixture {
	store := New()
	store.Now = func() time.Time { return now }
	f := &Fixture{
		Store:   store,
		Updater: &theater.Updater{Store: store, Now: func() time.Time { return now }},
		Now:     now,
	}

	f.HistoricSticky = store.CreateProduction("historic sticky", true)
	f.Historic = store.CreateProduction("historic", false)
	f.UpcomingTwo = store.CreateProduction("upcoming two", false)
	f.UpcomingOne = store.CreateProduction("upcoming one", false)
	f.MixedSticky = store.CreateProduction("mixed sticky", true)

	day := 24 * time.Hour
	f.EventHistoricYear = f.AddEvent(f.HistoricSticky, now.Add(-365*day))
	f.EventHistoricDay = f.AddEvent(f.Historic, now.Add(-day))
	f.EventIn1Day = f.AddEvent(f.UpcomingTwo, now.Add(day))
	f.EventIn4Days = f.AddEvent(f.UpcomingTwo, now.Add(4*day))
	f.EventIn2Days = f.AddEvent(f.UpcomingOne, now.Add(2*day))
	f.EventHistoricWeek = f.AddEvent(f.MixedSticky, now.Add(-7*day))
	f.EventIn1Week = f.AddEvent(f.MixedSticky, now.Add(7*day))
	return f
}

// AddEvent creates a linked event and runs the incremental trigger for it.
func (f *Fixture) AddEvent(productionID uint64, start time.Time) uint64 {
	id := f.Store.CreateEvent(productionID, start)
	if err := f.Updater.EventChanged(context.Background(), id); err != nil {
		panic(err)
	}
	return id
}
