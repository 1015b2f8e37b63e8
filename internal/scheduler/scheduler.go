// Package scheduler runs periodic background jobs for the server process.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/theater"
)

// StartRepairLoop runs the order repair sweep once immediately and then on
// every tick of the given interval until ctx is cancelled. Runs are serial:
// a tick that fires while a sweep is still in progress waits for the next
// tick instead of overlapping. Failures are logged and retried on the next
// tick; the sweep's watermark ensures missed work is picked up then.
func StartRepairLoop(ctx context.Context, r *theater.Repair, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	run := func() {
		if err := r.Run(ctx); err != nil {
			log.Printf("repair: sweep finished with failures: %v", err)
		}
	}

	run() // catch up on anything missed while the process was down

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
