package chart

import (
	"fmt"
	"sort"
	"time"

	"budget/internal/core"
)

// Range limits the balance line to recent history.
type Range string

const (
	RangeAll        Range = "all"
	RangeLast30Days Range = "last30days"
	RangeLast7Days  Range = "last7days"
)

func ParseRange(s string) (Range, error) {
	switch s {
	case "", string(RangeAll):
		return RangeAll, nil
	case string(RangeLast30Days), "30":
		return RangeLast30Days, nil
	case string(RangeLast7Days), "7":
		return RangeLast7Days, nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Label is the human name of the range.
func (r Range) Label() string {
	switch r {
	case RangeLast30Days:
		return "Last 30 days"
	case RangeLast7Days:
		return "Last 7 days"
	default:
		return "All time"
	}
}

func (r Range) since(now time.Time) (time.Time, bool) {
	switch r {
	case RangeLast30Days:
		return now.Add(-30 * 24 * time.Hour), true
	case RangeLast7Days:
		return now.Add(-7 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

// Viewport is the pixel box a line chart is projected into.
type Viewport struct {
	Width  float64
	Height float64
	Margin float64
}

var DefaultViewport = Viewport{Width: 600, Height: 260, Margin: 30}

// Insufficient reasons.
const (
	ReasonNoHistory = "Not enough data yet. Add/update balance a few times."
	ReasonRange     = "Not enough data in this range."
)

// ProjectedPoint is a snapshot with its pixel coordinates.
type ProjectedPoint struct {
	Snapshot core.Snapshot
	X, Y     float64
}

// GoalLine is a horizontal goal overlay at pixel height Y.
type GoalLine struct {
	Goal core.Goal
	Y    float64
}

// LineChart is a projected balance history. When Insufficient is set no
// coordinates are computed and Reason says why.
type LineChart struct {
	Range        Range
	Viewport     Viewport
	Insufficient bool
	Reason       string

	Points []ProjectedPoint
	Goals  []GoalLine
	Min    core.Money
	Max    core.Money
	Start  time.Time
	End    time.Time
}

// ProjectLine maps the balance series onto vp. The value axis spans the
// plotted balances and every goal value.
func ProjectLine(history []core.Snapshot, goals []core.Goal, rng Range, now time.Time, vp Viewport) LineChart {
	c := LineChart{Range: rng, Viewport: vp}
	if len(history) < 2 {
		c.Insufficient, c.Reason = true, ReasonNoHistory
		return c
	}

	points := append([]core.Snapshot(nil), history...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	if since, ok := rng.since(now); ok {
		kept := points[:0]
		for _, p := range points {
			if !p.Time.Before(since) {
				kept = append(kept, p)
			}
		}
		points = kept
	}
	if len(points) < 2 {
		c.Insufficient, c.Reason = true, ReasonRange
		return c
	}

	c.Min, c.Max = points[0].Balance, points[0].Balance
	widen := func(v core.Money) {
		if v.LessThan(c.Min) {
			c.Min = v
		}
		if v.Cmp(c.Max) > 0 {
			c.Max = v
		}
	}
	for _, p := range points[1:] {
		widen(p.Balance)
	}
	for _, g := range goals {
		widen(g.Value)
	}

	c.Start, c.End = points[0].Time, points[len(points)-1].Time
	span := float64(c.End.Sub(c.Start).Milliseconds())
	if span == 0 {
		span = 1
	}
	minB := c.Min.Float64()
	rangeB := c.Max.Sub(c.Min).Float64()
	if rangeB == 0 {
		rangeB = 1
	}
	innerW := vp.Width - 2*vp.Margin
	innerH := vp.Height - 2*vp.Margin

	y := func(v core.Money) float64 {
		return vp.Margin + (1-(v.Float64()-minB)/rangeB)*innerH
	}

	c.Points = make([]ProjectedPoint, len(points))
	for i, p := range points {
		tNorm := float64(p.Time.Sub(c.Start).Milliseconds()) / span
		c.Points[i] = ProjectedPoint{
			Snapshot: p,
			X:        vp.Margin + tNorm*innerW,
			Y:        y(p.Balance),
		}
	}
	for _, g := range goals {
		c.Goals = append(c.Goals, GoalLine{Goal: g, Y: y(g.Value)})
	}
	return c
}

// Note describes the plotted period, e.g. "All time: 1/2/2025 → 3/4/2025".
func (c LineChart) Note(loc *time.Location) string {
	if c.Insufficient {
		return c.Reason
	}
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("%s: %s → %s", c.Range.Label(),
		c.Start.In(loc).Format("1/2/2006"), c.End.In(loc).Format("1/2/2006"))
}
