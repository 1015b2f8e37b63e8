// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderIndexUpdatedEvent is published whenever a production's persisted order
// index changes, either through an event mutation or a repair sweep. It
// carries enough for downstream consumers to log or invalidate caches without
// querying the primary database. When HasIndex is false the production lost
// its last dated event and dropped out of the public listing.
type OrderIndexUpdatedEvent struct {
	ProductionID uint64 `json:"production_id"`
	OrderIndex   int64  `json:"order_index"`
	HasIndex     bool   `json:"has_index"`
	Source       string `json:"source"` // "mutation" or "repair"
	ChangedAt    string `json:"changed_at"`
}
