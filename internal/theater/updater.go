package theater

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/iliyamo/theater-production-schedule/internal/model"
)

// OrderChange describes one persisted order-index update. It is handed to
// the optional OnChange callback so the caller can publish it (e.g. to the
// message broker) without the core knowing about transports.
type OrderChange struct {
	ProductionID uint64
	OrderIndex   int64
	HasIndex     bool
}

// Updater is the incremental trigger behind every event mutation. Each call
// performs one synchronous read-recompute-write cycle against the affected
// production, reading the full current event set: never a delta, so a just
// deleted event is already excluded and a just created one included.
//
// Mutation paths call it directly after their repository write; there is no
// ambient hook registry.
type Updater struct {
	Store Store
	Now   Clock

	// OnChange, when set, is invoked after a production's persisted order
	// index actually changed. It must not block for long; failures are the
	// callback's own concern.
	OnChange func(OrderChange)
}

// EventChanged handles event creation, date changes and status changes. It
// refreshes the event's own order-index meta (its parsed instant, which the
// repair sweep's expiry window scans) and then recomputes the owning
// production's index. An event without a production link is logged and
// skipped; an event without a valid date simply loses its own index meta.
func (u *Updater) EventChanged(ctx context.Context, eventID uint64) error {
	ev := NewEvent(u.Store, eventID)

	instant, err := ev.Instant(ctx)
	switch {
	case err == nil:
		if err := u.Store.SetMeta(ctx, eventID, model.MetaOrderIndex, formatIndex(instant.Unix())); err != nil {
			return err
		}
	case errors.Is(err, ErrNoDate):
		if err := u.Store.DeleteMeta(ctx, eventID, model.MetaOrderIndex); err != nil {
			return err
		}
	default:
		return err
	}

	prodID, err := ev.ProductionID(ctx)
	if err != nil {
		if errors.Is(err, ErrUnlinked) {
			log.Printf("order-updater: event %d has no production link, skipping", eventID)
			return nil
		}
		return err
	}
	return u.RefreshProduction(ctx, prodID)
}

// EventRemoved handles event deletion. The caller must capture the
// production link before deleting the row; by the time this runs the event
// is already gone from the store and therefore excluded from recomputation.
func (u *Updater) EventRemoved(ctx context.Context, productionID uint64) error {
	return u.RefreshProduction(ctx, productionID)
}

// ProductionChanged handles production-level mutations (status changes).
func (u *Updater) ProductionChanged(ctx context.Context, productionID uint64) error {
	return u.RefreshProduction(ctx, productionID)
}

// RefreshProduction recomputes one production's order index from its
// current event set and persists it when it differs from the stored value.
// A production left without any orderable event loses the meta row, which
// removes it from the ordered listing.
func (u *Updater) RefreshProduction(ctx context.Context, productionID uint64) error {
	ids, err := u.Store.EventIDsByProduction(ctx, productionID)
	if err != nil {
		return err
	}
	instants := make([]int64, 0, len(ids))
	for _, id := range ids {
		t, err := NewEvent(u.Store, id).Instant(ctx)
		if err != nil {
			if errors.Is(err, ErrNoDate) {
				continue
			}
			return err
		}
		instants = append(instants, t.Unix())
	}

	index, ok := OrderIndex(instants, u.Now().Unix())

	current, exists, err := u.Store.Meta(ctx, productionID, model.MetaOrderIndex)
	if err != nil {
		return err
	}
	if !ok {
		if !exists {
			return nil
		}
		if err := u.Store.DeleteMeta(ctx, productionID, model.MetaOrderIndex); err != nil {
			return err
		}
		u.notify(OrderChange{ProductionID: productionID})
		return nil
	}
	value := formatIndex(index)
	if exists && current == value {
		return nil
	}
	if err := u.Store.SetMeta(ctx, productionID, model.MetaOrderIndex, value); err != nil {
		return err
	}
	u.notify(OrderChange{ProductionID: productionID, OrderIndex: index, HasIndex: true})
	return nil
}

func (u *Updater) notify(ch OrderChange) {
	if u.OnChange != nil {
		u.OnChange(ch)
	}
}

func formatIndex(v int64) string {
	return strconv.FormatInt(v, 10)
}
