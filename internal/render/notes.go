package render

import (
	"fmt"
	"time"

	"budget/internal/chart"
	"budget/internal/core"
)

// ExpenseNote captions the monthly expense donut.
func ExpenseNote(d chart.Donut, month time.Month, currency string) string {
	if d.Empty {
		return fmt.Sprintf("No expenses added for %s yet.", month)
	}
	return fmt.Sprintf("Total %s expenses: %s", month, d.Total.Display(currencyOr(currency)))
}

// SubscriptionNote captions the subscription donut.
func SubscriptionNote(d chart.Donut, currency string) string {
	if d.Empty {
		return "No subscriptions yet."
	}
	return "Total monthly subscriptions: " + d.Total.Display(currencyOr(currency))
}

// Tooltip is the text shown for a hovered balance point.
type Tooltip struct {
	Amount string `json:"amount"`
	When   string `json:"when"`
}

// TooltipFor formats a snapshot as amount plus "date • time".
func TooltipFor(s core.Snapshot, currency string, loc *time.Location) Tooltip {
	if loc == nil {
		loc = time.Local
	}
	t := s.Time.In(loc)
	return Tooltip{
		Amount: s.Balance.Display(currencyOr(currency)),
		When:   t.Format("1/2/2006") + " • " + t.Format("15:04"),
	}
}
