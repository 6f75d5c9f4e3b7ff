// Package history maintains the capacity-bounded tracking history kept
// on every equipment record. The history behaves as a ring buffer:
// entries are appended in time order and the oldest entry is evicted
// once capacity is reached. Entries are immutable once appended.
package history

import (
	"time"

	"github.com/MatanTal2/sayeret-givati-sub001/internal/model"
)

// Cap is the maximum number of entries an equipment's tracking history holds.
const Cap = 20

// Append returns a new history with entry stamped with the current time
// and appended at the end. If the input is already at (or beyond)
// capacity, the oldest entries are evicted first. The input slice is
// never mutated, so callers may hold it across a transactional write.
// A nil input is treated as empty.
func Append(current []model.HistoryEntry, entry model.HistoryEntry) []model.HistoryEntry {
	keep := current
	if overflow := len(current) - Cap + 1; overflow > 0 {
		keep = current[overflow:]
	}

	entry.Timestamp = time.Now().UTC()

	updated := make([]model.HistoryEntry, 0, len(keep)+1)
	updated = append(updated, keep...)
	return append(updated, entry)
}

// Latest returns the most recent entry, or nil if the history is empty.
func Latest(entries []model.HistoryEntry) *model.HistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	e := entries[len(entries)-1]
	return &e
}

// ByAction returns the entries whose action matches, preserving order.
func ByAction(entries []model.HistoryEntry, action string) []model.HistoryEntry {
	var out []model.HistoryEntry
	for _, e := range entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// InRange returns the entries whose timestamp falls within [from, to]
// inclusive. Entries without a valid timestamp are skipped.
func InRange(entries []model.HistoryEntry, from, to time.Time) []model.HistoryEntry {
	var out []model.HistoryEntry
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			continue
		}
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
