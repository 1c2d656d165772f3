package render

import (
	"html/template"
	"math"

	"budget/internal/chart"
)

// Donut paints a projected donut. An empty projection renders a "No data"
// placeholder; the centre shows the formatted total.
func Donut(width, height int, d chart.Donut, opts DonutOpts) template.HTML {
	if width <= 0 {
		width = DefaultDonutSize
	}
	if height <= 0 {
		height = DefaultDonutSize
	}
	title := fallback(opts.Title, "Donut chart")
	c := newCanvas(float64(width), float64(height), title, fallback(opts.Description, "Share by name"), title)
	if d.Empty {
		c.placeholder("No data")
		return c.html()
	}

	ring := chart.RingFor(float64(width), float64(height))
	for _, s := range d.Slices {
		if s.End-s.Start >= 2*math.Pi-1e-9 {
			// a single full slice cannot be drawn as one arc
			c.raw("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"><title>%s</title></circle>",
				ring.CX, ring.CY, ring.Radius, attr(s.Color), template.HTMLEscapeString(s.Name))
			continue
		}
		x0, y0 := ring.Point(ring.Radius, s.Start)
		x1, y1 := ring.Point(ring.Radius, s.End)
		large := 0
		if s.End-s.Start > math.Pi {
			large = 1
		}
		c.raw("<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\"><title>%s</title></path>",
			ring.CX, ring.CY, x0, y0, ring.Radius, ring.Radius, large, x1, y1,
			attr(s.Color), template.HTMLEscapeString(s.Name))
	}
	c.raw("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"></circle>",
		ring.CX, ring.CY, ring.Hole, attr(fallback(opts.HoleColor, "#ffffff")))
	c.text(ring.CX, ring.CY+4, d.Total.Display(currencyOr(opts.Currency)), fallback(opts.TextColor, "#111827"), 14, "middle", true)
	return c.html()
}
