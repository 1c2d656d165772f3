package services

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"budget/internal/analytics"
	"budget/internal/cache"
	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/render"
)

// ChartCache stores rendered SVG documents. Keys embed the ledger revision,
// so stale entries are never served and simply age out.
type ChartCache = cache.Cache[template.HTML]

type ChartKind string

const (
	ChartExpenses      ChartKind = "expenses"
	ChartSubscriptions ChartKind = "subscriptions"
	ChartBalance       ChartKind = "balance"
)

func ParseChartKind(s string) (ChartKind, error) {
	switch k := ChartKind(s); k {
	case ChartExpenses, ChartSubscriptions, ChartBalance:
		return k, nil
	}
	return "", &core.ValidationError{Field: "chart", Err: fmt.Errorf("unknown chart %q", s)}
}

// LogQuery filters the expense log.
type LogQuery struct {
	Window   analytics.Window
	Category string
}

// Stats is the dashboard summary.
type Stats struct {
	Balance      core.Money
	Month        core.MonthTotals
	AllTime      analytics.Totals
	Streak       analytics.Streak
	Achievements []string
	Theme        core.Theme
	Revision     uint64
}

// DonutView is a donut projection with its caption.
type DonutView struct {
	chart.Donut
	Note string
}

// BalanceHit is a hit-test match with its tooltip text.
type BalanceHit struct {
	chart.Hit
	Tooltip render.Tooltip
}

func (s *LedgerService) Stats() Stats {
	st, rev, now := s.snapshot()
	streak := analytics.ComputeStreak(st.Incomes, st.Expenses, now, s.loc)
	return Stats{
		Balance:      st.Balance,
		Month:        analytics.MonthlyTotals(st.Incomes, st.Expenses, now),
		AllTime:      analytics.AllTimeTotals(st.Incomes, st.Expenses, st.Subscriptions),
		Streak:       streak,
		Achievements: analytics.Achievements(analytics.FactsFrom(st, streak), analytics.DefaultRules),
		Theme:        st.Theme,
		Revision:     rev,
	}
}

func (s *LedgerService) Streak() analytics.Streak {
	st, _, now := s.snapshot()
	return analytics.ComputeStreak(st.Incomes, st.Expenses, now, s.loc)
}

// ExpenseLog returns matching expenses newest first.
func (s *LedgerService) ExpenseLog(q LogQuery) []core.Expense {
	st, _, now := s.snapshot()
	if q.Window == "" {
		q.Window = analytics.WindowAll
	}
	return analytics.ExpenseLog(st.Expenses, q.Window, q.Category, now)
}

// ExpenseDonut groups this month's expenses by name.
func (s *LedgerService) ExpenseDonut() DonutView {
	st, _, now := s.snapshot()
	return s.expenseDonut(now.Month(), analytics.ThisMonthExpenses(st.Expenses, now))
}

func (s *LedgerService) expenseDonut(month time.Month, expenses []core.Expense) DonutView {
	d := chart.ProjectDonut(analytics.GroupByName(expenses, analytics.ExpenseKey))
	return DonutView{Donut: d, Note: render.ExpenseNote(d, month, s.currency)}
}

func (s *LedgerService) SubscriptionDonut() DonutView {
	st, _, _ := s.snapshot()
	d := chart.ProjectDonut(analytics.GroupByName(st.Subscriptions, analytics.SubscriptionKey))
	return DonutView{Donut: d, Note: render.SubscriptionNote(d, s.currency)}
}

// BalanceChart projects the balance history and goals onto vp.
func (s *LedgerService) BalanceChart(rng chart.Range, vp chart.Viewport) chart.LineChart {
	st, _, now := s.snapshot()
	return chart.ProjectLine(st.History, st.Goals, rng, now, vp)
}

// HitTest finds the balance point nearest to (x, y) in viewport pixels.
func (s *LedgerService) HitTest(rng chart.Range, vp chart.Viewport, x, y float64) (BalanceHit, bool) {
	c := s.BalanceChart(rng, vp)
	hit, ok := c.HitTest(x, y)
	if !ok {
		return BalanceHit{}, false
	}
	return BalanceHit{Hit: hit, Tooltip: render.TooltipFor(hit.Point.Snapshot, s.currency, s.loc)}, true
}

// ChartSVG renders a chart, reusing the cached document for the current
// revision when there is one.
func (s *LedgerService) ChartSVG(ctx context.Context, kind ChartKind, rng chart.Range) template.HTML {
	st, rev, now := s.snapshot()
	key := fmt.Sprintf("%s/%s@%d", kind, rng, rev)
	if s.charts != nil {
		if svg, ok := s.charts.Get(key); ok {
			s.metrics.ChartCache(string(kind), true)
			return svg
		}
		s.metrics.ChartCache(string(kind), false)
	}

	dark := st.Theme == core.ThemeDark
	var svg template.HTML
	switch kind {
	case ChartExpenses:
		v := s.expenseDonut(now.Month(), analytics.ThisMonthExpenses(st.Expenses, now))
		svg = render.Donut(render.DefaultDonutSize, render.DefaultDonutSize, v.Donut, donutOpts("Expenses this month", v.Note, s.currency, dark))
	case ChartSubscriptions:
		d := chart.ProjectDonut(analytics.GroupByName(st.Subscriptions, analytics.SubscriptionKey))
		svg = render.Donut(render.DefaultDonutSize, render.DefaultDonutSize, d, donutOpts("Subscriptions", render.SubscriptionNote(d, s.currency), s.currency, dark))
	default:
		c := chart.ProjectLine(st.History, st.Goals, rng, now, chart.DefaultViewport)
		opts := render.LineOpts{Title: "Balance history", Description: rng.Label(), Currency: s.currency, TickCount: render.DefaultTicks}
		if dark {
			opts.AxisColor = "#9ca3af"
			opts.StrokeColor = "#60a5fa"
		}
		svg = render.Line(c, s.loc, opts)
	}

	if s.charts != nil {
		s.charts.Set(key, svg)
	}
	s.logger.DebugContext(ctx, "Chart rendered",
		log.FieldOperation, log.OpRender, "chart", string(kind), log.FieldRevision, rev)
	return svg
}

func donutOpts(title, desc, currency string, dark bool) render.DonutOpts {
	opts := render.DonutOpts{Title: title, Description: desc, Currency: currency}
	if dark {
		opts.HoleColor = "#111827"
		opts.TextColor = "#f9fafb"
	}
	return opts
}
