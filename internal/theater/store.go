// Package theater implements the production/event scheduling core: entity
// accessors over the post/meta store, the derived order index that keeps
// the production listing in upcoming-then-historic order, the incremental
// trigger that maintains it, and the watermark-bounded repair sweep.
package theater

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/theater-production-schedule/internal/model"
)

// DateLayout is the storage format of the event_date meta, interpreted in
// UTC. It matches the DATETIME column format of the backing database.
const DateLayout = "2006-01-02 15:04:05"

// ErrNoDate marks an event whose date meta is missing or unparsable. Such
// events are excluded from ordering, never fatal to a caller.
var ErrNoDate = errors.New("event has no valid date")

// ErrUnlinked marks an event without a resolvable production link. Such
// events are excluded from all production-level aggregation.
var ErrUnlinked = errors.New("event not linked to a production")

// Store is the slice of the post/meta storage the scheduling core consumes.
// *repository.PostRepo satisfies it; theatertest provides an in-memory
// implementation for tests.
type Store interface {
	// GetByID resolves one post record.
	GetByID(ctx context.Context, id uint64) (*model.Post, error)
	// Meta reads one meta value; the bool reports key existence.
	Meta(ctx context.Context, id uint64, key string) (string, bool, error)
	// SetMeta upserts one meta value.
	SetMeta(ctx context.Context, id uint64, key, value string) error
	// DeleteMeta removes one meta key; absent keys are not an error.
	DeleteMeta(ctx context.Context, id uint64, key string) error
	// EventIDsByProduction lists published events linked to a production,
	// in insertion (id) order.
	EventIDsByProduction(ctx context.Context, productionID uint64) ([]uint64, error)
	// ProductionIDsByOrder lists production IDs ascending by the numeric
	// order-index meta; productions without the meta are excluded.
	ProductionIDsByOrder(ctx context.Context, statuses []string, pinSticky bool, limit int) ([]uint64, error)
	// IDsByTypes restricts a set of post IDs to the given post types,
	// without duplicates or rows of other types.
	IDsByTypes(ctx context.Context, types []string, ids []uint64) ([]uint64, error)
	// EventIDsChangedSince lists published events whose rows were touched
	// after the given instant.
	EventIDsChangedSince(ctx context.Context, since time.Time) ([]uint64, error)
	// EventIDsStartingBetween lists published events whose instant lies in
	// the half-open unix-seconds window (from, to].
	EventIDsStartingBetween(ctx context.Context, from, to int64) ([]uint64, error)
}

// Options is the scalar option storage used for the repair watermark.
// *repository.OptionRepo satisfies it.
type Options interface {
	Option(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

// Clock supplies the current instant. Injected so tests can pin "now".
type Clock func() time.Time
