// Package repositories provides the durable message log behind the
// contract.MessageStore interface. Two drivers exist: BadgerDB (default)
// and SQLite; both assign globally increasing message IDs and serve
// history in ascending arrival order.
package repositories

// DefaultHistoryLimit caps history reads when the caller passes a
// non-positive or missing limit.
const DefaultHistoryLimit = 200

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
