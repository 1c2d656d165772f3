package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"budget/internal/analytics"
	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// recentExpenses caps the log shown on the dashboard page.
const recentExpenses = 20

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statsResponse(s.svc.Stats()))
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, streakOf(s.svc.Streak()))
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.svc.Stats().Achievements))
}

// handleExpenseLog serves the filtered log, newest first.
func (s *Server) handleExpenseLog(w http.ResponseWriter, r *http.Request) {
	q, err := parseLogQuery(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.svc.ExpenseLog(q)))
}

func (s *Server) handleExpenseChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.donutView(s.svc.ExpenseDonut()))
}

func (s *Server) handleSubscriptionChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.donutView(s.svc.SubscriptionDonut()))
}

func (s *Server) handleBalanceChart(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	vp, err := parseViewport(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	writeJSON(w, http.StatusOK, s.lineView(s.svc.BalanceChart(rng, vp)))
}

// handleBalanceHit resolves a pointer position to the nearest balance point.
// A miss is a normal answer, not an error.
func (s *Server) handleBalanceHit(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	vp, err := parseViewport(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	x, err := parseCoordinate(r, "x")
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	y, err := parseCoordinate(r, "y")
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	writeJSON(w, http.StatusOK, hitViewOf(s.svc.HitTest(rng, vp, x, y)))
}

// handleChartSVG serves /charts/{kind}.svg from the revision keyed cache.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".svg")
	if !ok {
		writeProblem(w, problem(http.StatusNotFound, "Not found", r.URL.Path))
		return
	}
	kind, err := services.ParseChartKind(name)
	if err != nil {
		writeProblem(w, problem(http.StatusNotFound, "Not found", r.URL.Path))
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	svg := s.svc.ChartSVG(r.Context(), kind, rng)
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(svg))
}

type dashboardData struct {
	Stats         statsResponse
	Theme         core.Theme
	Currency      string
	Categories    []core.Category
	Expenses      []core.Expense
	Subscriptions []core.Subscription
	Goals         []core.Goal
	ExpenseChart  template.HTML
	SubsChart     template.HTML
	BalanceChart  template.HTML
	Range         chart.Range
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		writeProblem(w, problem(http.StatusInternalServerError, "Internal server error", "templates not loaded"))
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}

	st := s.svc.State()
	expenses := s.svc.ExpenseLog(services.LogQuery{Window: analytics.WindowAll})
	if len(expenses) > recentExpenses {
		expenses = expenses[:recentExpenses]
	}
	data := dashboardData{
		Stats:         s.statsResponse(s.svc.Stats()),
		Theme:         st.Theme,
		Currency:      s.svc.Currency(),
		Categories:    core.Categories,
		Expenses:      expenses,
		Subscriptions: st.Subscriptions,
		Goals:         st.Goals,
		ExpenseChart:  s.svc.ChartSVG(r.Context(), services.ChartExpenses, rng),
		SubsChart:     s.svc.ChartSVG(r.Context(), services.ChartSubscriptions, rng),
		BalanceChart:  s.svc.ChartSVG(r.Context(), services.ChartBalance, rng),
		Range:         rng,
	}

	// Render into a buffer so a template failure can still produce a clean 500.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		s.events.LogError(r.Context(), "Dashboard template execution failed", err, log.OpRender, nil)
		writeProblem(w, problem(http.StatusInternalServerError, "Internal server error", ""))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
