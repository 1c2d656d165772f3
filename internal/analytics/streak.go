package analytics

import (
	"sort"
	"time"

	"budget/internal/core"
)

// Streak counts consecutive calendar days with at least one income or
// expense. Current is the run that ends on the most recent active day.
type Streak struct {
	Current int
	Max     int
}

type civilDay struct {
	y int
	m time.Month
	d int
}

func dayOf(t time.Time, loc *time.Location) civilDay {
	y, m, d := t.In(loc).Date()
	return civilDay{y, m, d}
}

// ordinal is days since the epoch of the civil date, independent of DST.
func (c civilDay) ordinal() int64 {
	return time.Date(c.y, c.m, c.d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// ActiveDays returns the distinct active days in loc, ascending, as day
// ordinals. Expenses without a date count as now.
func ActiveDays(incomes []core.Income, expenses []core.Expense, now time.Time, loc *time.Location) []int64 {
	if loc == nil {
		loc = time.Local
	}
	seen := make(map[int64]struct{})
	for _, in := range incomes {
		seen[dayOf(in.Date, loc).ordinal()] = struct{}{}
	}
	for _, e := range expenses {
		seen[dayOf(core.EffectiveDate(e, now), loc).ordinal()] = struct{}{}
	}
	days := make([]int64, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// StreakFromDays walks ascending day ordinals.
func StreakFromDays(days []int64) Streak {
	if len(days) == 0 {
		return Streak{}
	}
	s := Streak{Current: 1, Max: 1}
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			s.Current++
		} else {
			s.Current = 1
		}
		s.Max = max(s.Max, s.Current)
	}
	return s
}

func ComputeStreak(incomes []core.Income, expenses []core.Expense, now time.Time, loc *time.Location) Streak {
	return StreakFromDays(ActiveDays(incomes, expenses, now, loc))
}
