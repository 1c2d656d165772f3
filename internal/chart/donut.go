// Package chart turns aggregated ledger data into chart geometry: donut
// slice angles, balance line coordinates and goal overlays. It does not draw;
// see package render for the SVG painter.
package chart

import (
	"math"

	"budget/internal/core"
)

// DonutStart is the angle of the first slice edge (twelve o'clock).
const DonutStart = -math.Pi / 2

// DonutEnd is where the last slice ends.
const DonutEnd = DonutStart + 2*math.Pi

// Slice is one donut segment. Angles are radians, clockwise in screen space.
type Slice struct {
	Name     string
	Value    core.Money
	Color    string
	Fraction float64
	Start    float64
	End      float64
}

// Donut is a projected donut chart. Empty is set when there is nothing to
// draw; Slices is then nil.
type Donut struct {
	Slices []Slice
	Total  core.Money
	Empty  bool
}

// ProjectDonut lays out groups as contiguous slices starting at DonutStart.
// Fractions are computed exactly and the last slice is pinned to DonutEnd so
// rounding never leaves a gap.
func ProjectDonut(groups []core.NamedAmount) Donut {
	var total core.Money
	for _, g := range groups {
		total = total.Add(g.Amount)
	}
	if !total.IsPositive() {
		return Donut{Total: total, Empty: true}
	}

	d := Donut{Total: total, Slices: make([]Slice, 0, len(groups))}
	start := DonutStart
	for i, g := range groups {
		frac := g.Amount.Decimal().DivRound(total.Decimal(), 16).InexactFloat64()
		end := start + frac*2*math.Pi
		if i == len(groups)-1 {
			end = DonutEnd
		}
		d.Slices = append(d.Slices, Slice{
			Name:     g.Name,
			Value:    g.Amount,
			Color:    g.Color,
			Fraction: frac,
			Start:    start,
			End:      end,
		})
		start = end
	}
	return d
}

// Ring is the pixel geometry of a donut inside a w×h box.
type Ring struct {
	CX, CY float64
	Radius float64
	Hole   float64
}

func RingFor(w, h float64) Ring {
	r := math.Max(math.Min(w, h)/2-10, 0)
	return Ring{CX: w / 2, CY: h / 2, Radius: r, Hole: r * 0.5}
}

// Point returns the coordinates at angle a on a circle of radius r.
func (g Ring) Point(r, a float64) (float64, float64) {
	return g.CX + r*math.Cos(a), g.CY + r*math.Sin(a)
}
