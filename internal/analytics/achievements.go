package analytics

import (
	"budget/internal/core"
)

// Facts is what achievement rules are evaluated against.
type Facts struct {
	Net          core.Money
	GoalCount    int
	MaxStreak    int
	ExpenseCount int
}

// Rule awards Label when Earned holds.
type Rule struct {
	Label  string
	Earned func(Facts) bool
}

var tenThousand = core.MoneyFromInt(10000)

// DefaultRules are evaluated in order.
var DefaultRules = []Rule{
	{Label: "Saved 10,000+", Earned: func(f Facts) bool { return f.Net.GreaterThanOrEqual(tenThousand) }},
	{Label: "3+ goals set", Earned: func(f Facts) bool { return f.GoalCount >= 3 }},
	{Label: "7-day streak", Earned: func(f Facts) bool { return f.MaxStreak >= 7 }},
	{Label: "50+ expenses tracked", Earned: func(f Facts) bool { return f.ExpenseCount >= 50 }},
}

// Achievements returns the labels of the earned rules, in rule order.
func Achievements(f Facts, rules []Rule) []string {
	var out []string
	for _, r := range rules {
		if r.Earned(f) {
			out = append(out, r.Label)
		}
	}
	return out
}

// FactsFrom gathers the facts for a ledger state. Net is all-time income
// minus all-time spending, not the balance.
func FactsFrom(st core.State, streak Streak) Facts {
	totals := AllTimeTotals(st.Incomes, st.Expenses, st.Subscriptions)
	return Facts{
		Net:          totals.Net,
		GoalCount:    len(st.Goals),
		MaxStreak:    streak.Max,
		ExpenseCount: len(st.Expenses),
	}
}
