// Package analytics derives summaries from ledger data: monthly totals,
// grouping by name, time-window filters, streaks and achievements.
// Everything here is pure; callers pass the current time explicitly.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"budget/internal/core"
)

// Window selects which expenses a view includes.
type Window string

const (
	WindowAll       Window = "all"
	WindowMonth     Window = "month"
	WindowLast7Days Window = "last7days"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

const week = 7 * 24 * time.Hour

// ParseWindow accepts the window names plus the short form "7".
func ParseWindow(s string) (Window, error) {
	switch s {
	case "", string(WindowAll):
		return WindowAll, nil
	case string(WindowMonth):
		return WindowMonth, nil
	case string(WindowLast7Days), "7":
		return WindowLast7Days, nil
	default:
		return "", fmt.Errorf("unknown window %q", s)
	}
}

// Filter is a window plus an optional category.
type Filter struct {
	Window   Window
	Category string
}

func sameMonth(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Matches reports whether an expense passes the filter at time now.
func (f Filter) Matches(e core.Expense, now time.Time) bool {
	d := core.EffectiveDate(e, now)
	switch f.Window {
	case WindowMonth:
		if !sameMonth(d, now) {
			return false
		}
	case WindowLast7Days:
		if now.Sub(d) > week {
			return false
		}
	}
	if f.Category != "" && f.Category != CategoryAll && string(e.Category.OrGeneral()) != f.Category {
		return false
	}
	return true
}

// FilterByWindow keeps the expenses that pass the filter, preserving order.
func FilterByWindow(expenses []core.Expense, window Window, category string, now time.Time) []core.Expense {
	f := Filter{Window: window, Category: category}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Matches(e, now) {
			out = append(out, e)
		}
	}
	return out
}

// ExpenseLog is the filtered timeline, latest first. Expenses without a date
// sort as if they happened now.
func ExpenseLog(expenses []core.Expense, window Window, category string, now time.Time) []core.Expense {
	out := FilterByWindow(expenses, window, category, now)
	sort.SliceStable(out, func(i, j int) bool {
		return core.EffectiveDate(out[i], now).After(core.EffectiveDate(out[j], now))
	})
	return out
}

// ThisMonthExpenses returns the expenses in now's calendar month.
func ThisMonthExpenses(expenses []core.Expense, now time.Time) []core.Expense {
	return FilterByWindow(expenses, WindowMonth, CategoryAll, now)
}

// MonthlyTotals sums income and spending for ref's calendar month, in ref's
// location. Expenses without a date count towards the month.
func MonthlyTotals(incomes []core.Income, expenses []core.Expense, ref time.Time) core.MonthTotals {
	t := core.MonthTotals{Year: ref.Year(), Month: int(ref.Month())}
	for _, in := range incomes {
		if sameMonth(in.Date, ref) {
			t.Income = t.Income.Add(in.Amount)
		}
	}
	for _, e := range expenses {
		if sameMonth(core.EffectiveDate(e, ref), ref) {
			t.Expenses = t.Expenses.Add(e.Amt)
		}
	}
	t.Net = t.Income.Sub(t.Expenses)
	return t
}

// Totals are all-time sums.
type Totals struct {
	Income        core.Money
	Expenses      core.Money
	Subscriptions core.Money
	Net           core.Money
}

func AllTimeTotals(incomes []core.Income, expenses []core.Expense, subs []core.Subscription) Totals {
	var t Totals
	for _, in := range incomes {
		t.Income = t.Income.Add(in.Amount)
	}
	for _, e := range expenses {
		t.Expenses = t.Expenses.Add(e.Amt)
	}
	for _, s := range subs {
		t.Subscriptions = t.Subscriptions.Add(s.Amt)
	}
	t.Net = t.Income.Sub(t.Expenses)
	return t
}

// GroupByName sums items sharing a name, in first-seen order. A group takes
// the first non-empty colour among its items, else the palette colour for
// the group's position.
func GroupByName[T any](items []T, key func(T) (name string, amount core.Money, color string)) []core.NamedAmount {
	index := make(map[string]int)
	var groups []core.NamedAmount
	for _, it := range items {
		name, amt, color := key(it)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, core.NamedAmount{Name: name})
		}
		groups[i].Amount = groups[i].Amount.Add(amt)
		if groups[i].Color == "" {
			groups[i].Color = color
		}
	}
	for i := range groups {
		if groups[i].Color == "" {
			groups[i].Color = core.DefaultColor(i)
		}
	}
	return groups
}

// ExpenseKey is the GroupByName key for expenses.
func ExpenseKey(e core.Expense) (string, core.Money, string) { return e.Name, e.Amt, e.Color }

// SubscriptionKey is the GroupByName key for subscriptions.
func SubscriptionKey(s core.Subscription) (string, core.Money, string) {
	return s.Name, s.Amt, s.Color
}
