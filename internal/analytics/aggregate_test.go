package analytics

import (
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func m(n int64) core.Money { return core.MoneyFromInt(n) }

func expense(id int64, name string, amt int64, cat core.Category, date time.Time) core.Expense {
	return core.Expense{ID: id, Name: name, Amt: m(amt), Category: cat, Date: date}
}

func TestMonthlyTotals(t *testing.T) {
	incomes := []core.Income{
		{ID: 1, Amount: m(1000), Date: now.AddDate(0, 0, -3)},
		{ID: 2, Amount: m(500), Date: now.AddDate(0, -1, 0)},
	}
	expenses := []core.Expense{
		expense(1, "Rent", 400, core.CategoryBills, now.AddDate(0, 0, -10)),
		expense(2, "Legacy", 25, "", time.Time{}),
		expense(3, "Old", 99, core.CategoryFood, now.AddDate(-1, 0, 0)),
	}

	got := MonthlyTotals(incomes, expenses, now)
	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 3, got.Month)
	assert.True(t, got.Income.Equal(m(1000)))
	assert.True(t, got.Expenses.Equal(m(425)), "undated expenses count as this month")
	assert.True(t, got.Net.Equal(m(575)))
}

func TestFilterByWindow(t *testing.T) {
	expenses := []core.Expense{
		expense(1, "a", 1, core.CategoryFood, now.Add(-2*24*time.Hour)),
		expense(2, "b", 1, core.CategoryBills, now.Add(-8*24*time.Hour)),
		expense(3, "c", 1, "", time.Time{}),
		expense(4, "d", 1, core.CategoryFood, now.AddDate(0, -2, 0)),
	}

	cases := []struct {
		name     string
		window   Window
		category string
		want     []int64
	}{
		{"all", WindowAll, CategoryAll, []int64{1, 2, 3, 4}},
		{"month", WindowMonth, CategoryAll, []int64{1, 2, 3}},
		{"week", WindowLast7Days, "", []int64{1, 3}},
		{"food", WindowAll, "Food", []int64{1, 4}},
		{"missing category is General", WindowAll, "General", []int64{3}},
		{"week and bills", WindowLast7Days, "Bills", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ids []int64
			for _, e := range FilterByWindow(expenses, tc.window, tc.category, now) {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestExpenseLogNewestFirst(t *testing.T) {
	expenses := []core.Expense{
		expense(1, "old", 1, "", now.AddDate(0, 0, -5)),
		expense(2, "undated", 1, "", time.Time{}),
		expense(3, "mid", 1, "", now.AddDate(0, 0, -1)),
	}
	log := ExpenseLog(expenses, WindowAll, CategoryAll, now)
	require.Len(t, log, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{log[0].ID, log[1].ID, log[2].ID})
}

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{"": WindowAll, "all": WindowAll, "month": WindowMonth, "7": WindowLast7Days, "last7days": WindowLast7Days} {
		got, err := ParseWindow(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseWindow("year")
	assert.Error(t, err)
}

func TestGroupByName(t *testing.T) {
	expenses := []core.Expense{
		{Name: "Coffee", Amt: m(3)},
		{Name: "Taxi", Amt: m(20), Color: "#111111"},
		{Name: "Coffee", Amt: m(4), Color: "#222222"},
		{Name: "Books", Amt: m(15)},
	}
	groups := GroupByName(expenses, ExpenseKey)
	require.Len(t, groups, 3)

	assert.Equal(t, "Coffee", groups[0].Name)
	assert.True(t, groups[0].Amount.Equal(m(7)))
	assert.Equal(t, "#222222", groups[0].Color, "first non-empty item colour wins")

	assert.Equal(t, "#111111", groups[1].Color)

	assert.Equal(t, "Books", groups[2].Name)
	assert.Equal(t, core.DefaultColor(2), groups[2].Color, "palette keyed by group index")
}

func TestGroupSubscriptions(t *testing.T) {
	subs := []core.Subscription{{Name: "Music", Amt: m(10)}, {Name: "Music", Amt: m(5)}}
	groups := GroupByName(subs, SubscriptionKey)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Amount.Equal(m(15)))
	assert.Equal(t, core.DefaultColor(0), groups[0].Color)
}

func TestAllTimeTotals(t *testing.T) {
	totals := AllTimeTotals(
		[]core.Income{{Amount: m(100)}, {Amount: m(50)}},
		[]core.Expense{{Amt: m(30)}},
		[]core.Subscription{{Amt: m(9)}},
	)
	assert.True(t, totals.Net.Equal(m(120)))
	assert.True(t, totals.Subscriptions.Equal(m(9)))
}
