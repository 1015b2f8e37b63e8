// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between failure scenarios: ErrPostNotFound indicates that
// a post row does not exist, while ErrNoChange signals that an update would
// have written identical values.
package repository

import "errors"

// ErrPostNotFound is returned when a post id does not resolve to a row.
// Handlers should translate this into an HTTP 404 response.
var ErrPostNotFound = errors.New("post not found")

// ErrNoChange is returned when an UPDATE attempted to set fields equal to
// their current values. Handlers may translate this into an HTTP 409.
var ErrNoChange = errors.New("no change")
