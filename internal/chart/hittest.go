package chart

import "math"

// HitRadius is the farthest a pointer may be from a point to select it.
const HitRadius = 20.0

// Hit is the result of a successful hit test.
type Hit struct {
	Point    ProjectedPoint
	Distance float64
}

// HitTest returns the projected point nearest to (x, y). The earliest point
// wins ties. ok is false when no point lies within HitRadius.
func HitTest(points []ProjectedPoint, x, y float64) (Hit, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range points {
		d := math.Hypot(x-p.X, y-p.Y)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > HitRadius {
		return Hit{}, false
	}
	return Hit{Point: points[best], Distance: bestDist}, true
}

// HitTest runs HitTest over the chart's points.
func (c LineChart) HitTest(x, y float64) (Hit, bool) {
	if c.Insufficient {
		return Hit{}, false
	}
	return HitTest(c.Points, x, y)
}
