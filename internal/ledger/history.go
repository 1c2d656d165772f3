package ledger

import (
	"time"

	"budget/internal/core"
)

// DefaultHistoryLimit bounds the balance series.
const DefaultHistoryLimit = 1000

// History is the only writer of the balance series. Samples are appended in
// call order and the oldest ones are dropped once the limit is reached.
type History struct {
	limit  int
	series []core.Snapshot
}

func NewHistory(limit int, series []core.Snapshot) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h := &History{limit: limit, series: append([]core.Snapshot(nil), series...)}
	h.trim()
	return h
}

// Record appends a sample of the post-mutation balance.
func (h *History) Record(balance core.Money, at time.Time) {
	h.series = append(h.series, core.Snapshot{Time: at, Balance: balance})
	h.trim()
}

// Seed records a single sample if the series is empty.
// It reports whether a sample was added.
func (h *History) Seed(balance core.Money, at time.Time) bool {
	if len(h.series) > 0 {
		return false
	}
	h.Record(balance, at)
	return true
}

func (h *History) Len() int { return len(h.series) }

// Snapshots returns a copy of the series, oldest first.
func (h *History) Snapshots() []core.Snapshot {
	return append([]core.Snapshot(nil), h.series...)
}

func (h *History) trim() {
	if over := len(h.series) - h.limit; over > 0 {
		h.series = append(h.series[:0:0], h.series[over:]...)
	}
}
