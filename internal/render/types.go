// Package render paints chart projections as standalone SVG documents and
// builds the accompanying note and tooltip text.
package render

import "budget/internal/core"

// DonutOpts customises the donut renderer.
type DonutOpts struct {
	Title       string
	Description string
	Currency    string
	HoleColor   string
	TextColor   string
}

// LineOpts customises the balance line renderer.
type LineOpts struct {
	Title       string
	Description string
	Currency    string
	StrokeColor string
	AxisColor   string
	TickCount   int
}

// Defaults for the ledger charts.
const (
	DefaultDonutSize = 220
	DefaultTicks     = 4

	placeholderColor = "#9ca3af"
)

func currencyOr(c string) string {
	return fallback(c, core.DefaultCurrency)
}
