package render

import (
	"strings"
	"testing"
	"time"

	"budget/internal/chart"
	"budget/internal/core"

	"github.com/stretchr/testify/assert"
)

func groups() []core.NamedAmount {
	return []core.NamedAmount{
		{Name: "Rent <flat>", Amount: core.MoneyFromInt(700), Color: "#6366f1"},
		{Name: "Food", Amount: core.MoneyFromInt(300), Color: "#ec4899"},
	}
}

func TestDonutProducesSVG(t *testing.T) {
	out := string(Donut(0, 0, chart.ProjectDonut(groups()), DonutOpts{Title: "Expenses", Currency: "USD"}))
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Equal(t, 2, strings.Count(out, "<path"))
	assert.Contains(t, out, "aria-labelledby")
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "Rent &lt;flat&gt;")
	assert.NotContains(t, out, "<flat>")
}

func TestDonutSingleSlice(t *testing.T) {
	d := chart.ProjectDonut([]core.NamedAmount{{Name: "Only", Amount: core.MoneyFromInt(5), Color: "#111111"}})
	out := string(Donut(200, 200, d, DonutOpts{}))
	assert.NotContains(t, out, "<path")
	assert.Equal(t, 2, strings.Count(out, "<circle"))
}

func TestDonutPlaceholder(t *testing.T) {
	out := string(Donut(200, 200, chart.ProjectDonut(nil), DonutOpts{}))
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "<circle")
}

func TestLineProducesSVG(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	history := []core.Snapshot{
		{Time: now.Add(-48 * time.Hour), Balance: core.MoneyFromInt(100)},
		{Time: now, Balance: core.MoneyFromInt(250)},
	}
	goals := []core.Goal{{Label: "Trip", Value: core.MoneyFromInt(400), Color: "#10b981"}}
	c := chart.ProjectLine(history, goals, chart.RangeAll, now, chart.DefaultViewport)

	out := string(Line(c, time.UTC, LineOpts{Currency: "USD"}))
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "stroke-dasharray")
	assert.Contains(t, out, "Trip ($400.00)")
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, "6/30/2025 • 12:00")
}

func TestLinePlaceholder(t *testing.T) {
	c := chart.ProjectLine(nil, nil, chart.RangeAll, time.Now(), chart.DefaultViewport)
	out := string(Line(c, time.UTC, LineOpts{}))
	assert.Contains(t, out, "Not enough data")
	assert.NotContains(t, out, "<path")
}

func TestNotes(t *testing.T) {
	empty := chart.ProjectDonut(nil)
	full := chart.ProjectDonut(groups())
	assert.Equal(t, "No expenses added for March yet.", ExpenseNote(empty, time.March, "USD"))
	assert.Equal(t, "Total March expenses: $1,000.00", ExpenseNote(full, time.March, "USD"))
	assert.Equal(t, "No subscriptions yet.", SubscriptionNote(empty, "USD"))
	assert.Equal(t, "Total monthly subscriptions: $1,000.00", SubscriptionNote(full, "USD"))
}

func TestTooltipFor(t *testing.T) {
	s := core.Snapshot{Time: time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC), Balance: core.MoneyFromInt(-20)}
	tip := TooltipFor(s, "USD", time.UTC)
	assert.Equal(t, "1/2/2025 • 15:04", tip.When)
	assert.Equal(t, "-$20.00", tip.Amount)
}
