package chart

import (
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func snap(daysAgo int, balance int64) core.Snapshot {
	return core.Snapshot{Time: now.AddDate(0, 0, -daysAgo), Balance: core.MoneyFromInt(balance)}
}

var vp = Viewport{Width: 260, Height: 160, Margin: 30}

func TestProjectLineInsufficient(t *testing.T) {
	c := ProjectLine([]core.Snapshot{snap(0, 10)}, nil, RangeAll, now, vp)
	assert.True(t, c.Insufficient)
	assert.Equal(t, ReasonNoHistory, c.Reason)
	assert.Nil(t, c.Points)

	c = ProjectLine([]core.Snapshot{snap(40, 10), snap(20, 20)}, nil, RangeLast7Days, now, vp)
	assert.True(t, c.Insufficient)
	assert.Equal(t, ReasonRange, c.Reason)
	assert.Equal(t, ReasonRange, c.Note(time.UTC))
}

func TestProjectLineMapsCorners(t *testing.T) {
	// unsorted input
	history := []core.Snapshot{snap(0, 300), snap(10, 100), snap(5, 200)}
	c := ProjectLine(history, nil, RangeAll, now, vp)
	require.False(t, c.Insufficient)
	require.Len(t, c.Points, 3)

	first, mid, last := c.Points[0], c.Points[1], c.Points[2]
	assert.InDelta(t, 30, first.X, 1e-9)
	assert.InDelta(t, 130, first.Y, 1e-9, "minimum sits on the bottom margin")
	assert.InDelta(t, 130, mid.X, 1e-9)
	assert.InDelta(t, 80, mid.Y, 1e-9)
	assert.InDelta(t, 230, last.X, 1e-9)
	assert.InDelta(t, 30, last.Y, 1e-9, "maximum sits on the top margin")

	assert.Equal(t, "All time: 6/20/2025 → 6/30/2025", c.Note(time.UTC))
}

func TestProjectLineGoalsWidenAxis(t *testing.T) {
	history := []core.Snapshot{snap(2, 100), snap(1, 200)}
	goals := []core.Goal{{ID: 1, Label: "Trip", Value: core.MoneyFromInt(400), Color: "#10b981"}}
	c := ProjectLine(history, goals, RangeAll, now, vp)
	require.Len(t, c.Goals, 1)
	assert.True(t, c.Max.Equal(core.MoneyFromInt(400)))
	assert.InDelta(t, 30, c.Goals[0].Y, 1e-9)
	assert.InDelta(t, 130, c.Points[0].Y, 1e-9)
	assert.InDelta(t, 130-100.0/3, c.Points[1].Y, 1e-9)
}

func TestProjectLineFlatAndInstant(t *testing.T) {
	at := now.Add(-time.Hour)
	history := []core.Snapshot{
		{Time: at, Balance: core.MoneyFromInt(50)},
		{Time: at, Balance: core.MoneyFromInt(50)},
	}
	c := ProjectLine(history, nil, RangeAll, now, vp)
	require.False(t, c.Insufficient)
	for _, p := range c.Points {
		assert.InDelta(t, 30, p.X, 1e-9)
		assert.InDelta(t, 130, p.Y, 1e-9)
	}
}

func TestProjectLineRangeFilter(t *testing.T) {
	history := []core.Snapshot{snap(60, 1), snap(20, 2), snap(3, 3), snap(1, 4)}
	assert.Len(t, ProjectLine(history, nil, RangeAll, now, vp).Points, 4)
	assert.Len(t, ProjectLine(history, nil, RangeLast30Days, now, vp).Points, 3)
	assert.Len(t, ProjectLine(history, nil, RangeLast7Days, now, vp).Points, 2)
}

func TestParseRange(t *testing.T) {
	for in, want := range map[string]Range{"": RangeAll, "all": RangeAll, "30": RangeLast30Days, "last30days": RangeLast30Days, "7": RangeLast7Days} {
		got, err := ParseRange(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRange("90")
	assert.Error(t, err)
	assert.Equal(t, "Last 7 days", RangeLast7Days.Label())
}
