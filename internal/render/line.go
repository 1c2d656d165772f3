package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"budget/internal/chart"
	"budget/internal/core"
)

// Line paints a projected balance chart with goal overlays. Every point
// carries a native tooltip and its coordinates as data attributes so a
// client can hit test without re-projecting.
func Line(c chart.LineChart, loc *time.Location, opts LineOpts) template.HTML {
	vp := c.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = chart.DefaultViewport
	}
	title := fallback(opts.Title, "Balance history")
	cv := newCanvas(vp.Width, vp.Height, title, fallback(opts.Description, c.Range.Label()), title)
	if c.Insufficient {
		cv.placeholder("Not enough data")
		return cv.html()
	}
	currency := currencyOr(opts.Currency)
	stroke := fallback(opts.StrokeColor, "#2563eb")
	axis := fallback(opts.AxisColor, "#e5e7eb")
	m := vp.Margin
	bottom := vp.Height - m
	right := vp.Width - m

	cv.raw("<g stroke=\"%s\" stroke-width=\"1\" aria-hidden=\"true\">", attr(axis))
	cv.raw("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\"></line>", m, bottom, right, bottom)
	cv.raw("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\"></line>", m, m, m, bottom)
	cv.raw("</g>")

	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := bottom - ratio*(bottom-m)
		v := c.Min.Float64() + (c.Max.Float64()-c.Min.Float64())*ratio
		cv.text(m-4, y+3, formatTick(v), "#6b7280", 9, "end", false)
	}

	for _, g := range c.Goals {
		color := fallback(g.Goal.Color, core.DefaultGoalColor)
		cv.raw("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"1\" stroke-dasharray=\"4,4\"></line>",
			m, g.Y, right, g.Y, attr(color))
		cv.text(right-2, g.Y-2, GoalLabel(g.Goal, currency), color, 10, "end", false)
	}

	var path strings.Builder
	for i, p := range c.Points {
		if i == 0 {
			fmt.Fprintf(&path, "M%.2f %.2f", p.X, p.Y)
		} else {
			fmt.Fprintf(&path, " L%.2f %.2f", p.X, p.Y)
		}
	}
	cv.raw("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\"></path>", path.String(), attr(stroke))

	for _, p := range c.Points {
		tip := TooltipFor(p.Snapshot, currency, loc)
		cv.raw("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\" data-x=\"%.2f\" data-y=\"%.2f\"><title>%s</title></circle>",
			p.X, p.Y, attr(stroke), p.X, p.Y, template.HTMLEscapeString(tip.Amount+" "+tip.When))
	}
	return cv.html()
}

// GoalLabel is the overlay caption, e.g. "Trip (₹400.00)".
func GoalLabel(g core.Goal, currency string) string {
	return fmt.Sprintf("%s (%s)", g.Label, g.Value.Display(currencyOr(currency)))
}

func formatTick(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
