package theater

// OrderIndex maps a production's event instants to its single sort key.
//
// The index is the instant of the earliest currently-upcoming event; if no
// event is upcoming it is the instant of the latest past event; with no
// events at all the second return value is false and the production's
// order-index meta is removed, which excludes it from the ordered listing.
//
// The function always re-evaluates the full instant set it is given, never
// a delta, so repeated application is idempotent. All values are unix
// seconds: ordering must compare numerically, because the textual form of
// instants before 2001-09-09 (unix 1000000000) has fewer digits and sorts
// wrongly as a string.
func OrderIndex(instants []int64, now int64) (int64, bool) {
	var (
		minUpcoming, maxPast int64
		hasUpcoming, hasPast bool
	)
	for _, t := range instants {
		if t >= now {
			if !hasUpcoming || t < minUpcoming {
				minUpcoming = t
				hasUpcoming = true
			}
		} else {
			if !hasPast || t > maxPast {
				maxPast = t
				hasPast = true
			}
		}
	}
	if hasUpcoming {
		return minUpcoming, true
	}
	if hasPast {
		return maxPast, true
	}
	return 0, false
}
