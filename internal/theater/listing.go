package theater

import "context"

// ListOpts controls the ordered production listing.
type ListOpts struct {
	// Statuses filters by post status. Empty means published only; a
	// value of "any" disables the filter.
	Statuses []string
	// PinSticky hoists sticky productions to the front of the list in
	// creation order, ahead of the chronological rest. When unset, sticky
	// only breaks ties between productions with equal order indexes.
	PinSticky bool
	// Limit caps the result; zero means unlimited.
	Limit int
}

// ListProductions returns production IDs in listing order: ascending by the
// numeric order index, i.e. upcoming productions by their next event and
// then historic ones by their last. Productions without any orderable event
// carry no order index and are excluded. The ordering is strictly numeric;
// instants are never compared as strings.
func ListProductions(ctx context.Context, store Store, opts ListOpts) ([]uint64, error) {
	return store.ProductionIDsByOrder(ctx, opts.Statuses, opts.PinSticky, opts.Limit)
}
