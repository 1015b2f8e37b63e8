package model

import "time"

// Post types stored in the `posts` table. Productions and events are the
// two types this service owns; other types (e.g. "page") may coexist in
// the same table and must never leak into typed queries.
const (
	TypeProduction = "production"
	TypeEvent      = "event"
)

// Post statuses. Listing queries default to StatusPublish; events that are
// not published do not participate in ordering.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusTrash   = "trash"
)

// Post is one row of the generic `posts` table. Both productions and
// events are stored here; everything type-specific (event dates, the
// production link, venues, the derived order index) lives in post meta.
//
// Fields:
//  ID        – primary key identifier.
//  Type      – post type discriminator (TypeProduction, TypeEvent, ...).
//  Title     – human-readable title; may be empty for events.
//  Status    – lifecycle status (publish, draft, trash).
//  Sticky    – pinned-priority flag; only meaningful on productions.
//  CreatedAt – row creation timestamp (UTC).
//  UpdatedAt – last mutation timestamp (UTC); the repair sweep keys its
//              changed-since selection off this column.
type Post struct {
	ID        uint64    // posts.id
	Type      string    // posts.post_type
	Title     string    // posts.title
	Status    string    // posts.post_status
	Sticky    bool      // posts.is_sticky
	CreatedAt time.Time // posts.created_at
	UpdatedAt time.Time // posts.updated_at
}

// Meta keys owned by the scheduling core. The event date and the
// production link are authored data; the order index is derived and must
// only ever be written by the order updater or the repair sweep.
const (
	MetaEventDate  = "event_date"    // "2006-01-02 15:04:05" in UTC
	MetaProduction = "production_id" // decimal post ID of the owning production
	MetaVenue      = "venue"
	MetaCity       = "city"
	MetaTicketsURL = "tickets_url"
	MetaOrderIndex = "_order_index" // unix seconds, stored as decimal string
)
