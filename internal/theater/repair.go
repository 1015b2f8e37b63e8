package theater

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"
)

// WatermarkOption names the options row holding the unix timestamp of the
// last fully successful repair sweep.
const WatermarkOption = "theater_last_order_repair"

// Repair is the periodic catch-up sweep behind the incremental updater. It
// recomputes order indexes for productions whose events changed since the
// last successful run, and for productions whose events expired by pure
// clock advancement, which no mutation trigger ever observes.
//
// The sweep is idempotent and safe to re-run: every selected production is
// recomputed from current truth, and the watermark only advances after a
// sweep with zero failures, giving at-least-once repair semantics.
type Repair struct {
	Store   Store
	Options Options
	Updater *Updater
	Now     Clock
}

// Run executes one sweep. The candidate set is the union of events touched
// after the watermark and events whose own instant lies inside
// (watermark, start]; the second clause guarantees that an event which was
// upcoming at the previous run and is past now gets its production
// recomputed even though its record never changed. The watermark advances
// to the sweep's start instant, not its end, so events changed mid-run are
// re-selected next time.
func (r *Repair) Run(ctx context.Context) error {
	start := r.Now()
	watermark, err := r.watermark(ctx)
	if err != nil {
		return fmt.Errorf("order-repair: read watermark: %w", err)
	}

	changed, err := r.Store.EventIDsChangedSince(ctx, time.Unix(watermark, 0).UTC())
	if err != nil {
		return fmt.Errorf("order-repair: changed events: %w", err)
	}
	expired, err := r.Store.EventIDsStartingBetween(ctx, watermark, start.Unix())
	if err != nil {
		return fmt.Errorf("order-repair: expiring events: %w", err)
	}

	productions, err := r.productionsOf(ctx, append(changed, expired...))
	if err != nil {
		return err
	}

	failed := 0
	for _, id := range productions {
		if err := r.Updater.RefreshProduction(ctx, id); err != nil {
			// Skip and continue; the unadvanced watermark retries this
			// window on the next run.
			log.Printf("order-repair: production %d: %v", id, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("order-repair: %d of %d productions failed", failed, len(productions))
	}
	if err := r.Options.SetOption(ctx, WatermarkOption, strconv.FormatInt(start.Unix(), 10)); err != nil {
		return fmt.Errorf("order-repair: advance watermark: %w", err)
	}
	return nil
}

// watermark returns the last successful run timestamp, or zero when the
// sweep has never completed (which makes the first run a full repair).
func (r *Repair) watermark(ctx context.Context) (int64, error) {
	raw, ok, err := r.Options.Option(ctx, WatermarkOption)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// A corrupt watermark degrades to a full sweep rather than failing.
		log.Printf("order-repair: invalid watermark %q, running full sweep", raw)
		return 0, nil
	}
	return v, nil
}

// productionsOf maps event IDs to their distinct owning productions,
// preserving first-seen order. Unlinked events are logged and skipped.
func (r *Repair) productionsOf(ctx context.Context, eventIDs []uint64) ([]uint64, error) {
	var out []uint64
	seen := map[uint64]bool{}
	for _, id := range eventIDs {
		prodID, err := NewEvent(r.Store, id).ProductionID(ctx)
		if err != nil {
			if errors.Is(err, ErrUnlinked) {
				log.Printf("order-repair: event %d has no production link, skipping", id)
				continue
			}
			return nil, fmt.Errorf("order-repair: event %d: %w", id, err)
		}
		if !seen[prodID] {
			seen[prodID] = true
			out = append(out, prodID)
		}
	}
	return out, nil
}
