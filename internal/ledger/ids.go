package ledger

import "time"

// IDGenerator issues ids that are unique for the lifetime of a ledger.
//
// Ids look like millisecond timestamps so that they stay compatible with
// previously exported data, but two calls within the same millisecond (or a
// clock that moves backwards) still yield strictly increasing values.
type IDGenerator struct {
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() int64 {
	next := g.now().UnixMilli()
	if next <= g.last {
		next = g.last + 1
	}
	g.last = next
	return next
}

// Observe records an id that is already in use so it is never issued again.
func (g *IDGenerator) Observe(id int64) {
	if id > g.last {
		g.last = id
	}
}

// renumber gives every missing (non-positive) or repeated id in items a fresh
// value from g and reports how many were changed. The generator must already
// have observed every id in items, so fresh values never collide with ids
// further down the slice.
func renumber[T any](items []T, id func(*T) *int64, g *IDGenerator) int {
	seen := make(map[int64]struct{}, len(items))
	changed := 0
	for i := range items {
		p := id(&items[i])
		if _, dup := seen[*p]; *p <= 0 || dup {
			*p = g.Next()
			changed++
		}
		seen[*p] = struct{}{}
	}
	return changed
}
