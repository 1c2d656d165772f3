package http

import (
	"budget/internal/analytics"
	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/render"
	"budget/internal/services"
)

// moneyView pairs an exact amount with its display form, e.g. "₹1,200.00".
type moneyView struct {
	Value   core.Money `json:"value"`
	Display string     `json:"display"`
}

func (s *Server) money(m core.Money) moneyView {
	return moneyView{Value: m, Display: m.Display(s.svc.Currency())}
}

type monthView struct {
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Income   moneyView `json:"income"`
	Expenses moneyView `json:"expenses"`
	Net      moneyView `json:"net"`
}

type totalsView struct {
	Income        moneyView `json:"income"`
	Expenses      moneyView `json:"expenses"`
	Subscriptions moneyView `json:"subscriptions"`
	Net           moneyView `json:"net"`
}

type streakView struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

type statsResponse struct {
	Balance      moneyView  `json:"balance"`
	Month        monthView  `json:"month"`
	AllTime      totalsView `json:"allTime"`
	Streak       streakView `json:"streak"`
	Achievements []string   `json:"achievements"`
	Theme        core.Theme `json:"theme"`
	Revision     uint64     `json:"revision"`
}

func (s *Server) statsResponse(st services.Stats) statsResponse {
	return statsResponse{
		Balance: s.money(st.Balance),
		Month: monthView{
			Year:     st.Month.Year,
			Month:    st.Month.Month,
			Income:   s.money(st.Month.Income),
			Expenses: s.money(st.Month.Expenses),
			Net:      s.money(st.Month.Net),
		},
		AllTime: totalsView{
			Income:        s.money(st.AllTime.Income),
			Expenses:      s.money(st.AllTime.Expenses),
			Subscriptions: s.money(st.AllTime.Subscriptions),
			Net:           s.money(st.AllTime.Net),
		},
		Streak:       streakOf(st.Streak),
		Achievements: nonNil(st.Achievements),
		Theme:        st.Theme,
		Revision:     st.Revision,
	}
}

func streakOf(s analytics.Streak) streakView {
	return streakView{Current: s.Current, Max: s.Max}
}

type sliceView struct {
	Name     string     `json:"name"`
	Value    core.Money `json:"value"`
	Color    string     `json:"color"`
	Fraction float64    `json:"fraction"`
	Start    float64    `json:"start"`
	End      float64    `json:"end"`
}

type donutView struct {
	Total  moneyView   `json:"total"`
	Empty  bool        `json:"empty"`
	Note   string      `json:"note"`
	Slices []sliceView `json:"slices"`
}

func (s *Server) donutView(v services.DonutView) donutView {
	out := donutView{
		Total:  s.money(v.Total),
		Empty:  v.Empty,
		Note:   v.Note,
		Slices: make([]sliceView, 0, len(v.Slices)),
	}
	for _, sl := range v.Slices {
		out.Slices = append(out.Slices, sliceView{
			Name:     sl.Name,
			Value:    sl.Value,
			Color:    sl.Color,
			Fraction: sl.Fraction,
			Start:    sl.Start,
			End:      sl.End,
		})
	}
	return out
}

type pointView struct {
	Time    int64      `json:"time"`
	Balance core.Money `json:"balance"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
}

func pointOf(p chart.ProjectedPoint) pointView {
	return pointView{Time: p.Snapshot.Time.UnixMilli(), Balance: p.Snapshot.Balance, X: p.X, Y: p.Y}
}

type goalLineView struct {
	ID    int64      `json:"id"`
	Label string     `json:"label"`
	Value core.Money `json:"value"`
	Color string     `json:"color"`
	Y     float64    `json:"y"`
}

type lineView struct {
	Range        chart.Range    `json:"range"`
	Label        string         `json:"label"`
	Note         string         `json:"note"`
	Insufficient bool           `json:"insufficient"`
	Reason       string         `json:"reason,omitempty"`
	Width        float64        `json:"width"`
	Height       float64        `json:"height"`
	Min          core.Money     `json:"min"`
	Max          core.Money     `json:"max"`
	Points       []pointView    `json:"points"`
	Goals        []goalLineView `json:"goals"`
}

func (s *Server) lineView(c chart.LineChart) lineView {
	out := lineView{
		Range:        c.Range,
		Label:        c.Range.Label(),
		Note:         c.Note(s.svc.Location()),
		Insufficient: c.Insufficient,
		Reason:       c.Reason,
		Width:        c.Viewport.Width,
		Height:       c.Viewport.Height,
		Min:          c.Min,
		Max:          c.Max,
		Points:       make([]pointView, 0, len(c.Points)),
		Goals:        make([]goalLineView, 0, len(c.Goals)),
	}
	for _, p := range c.Points {
		out.Points = append(out.Points, pointOf(p))
	}
	for _, g := range c.Goals {
		out.Goals = append(out.Goals, goalLineView{
			ID:    g.Goal.ID,
			Label: render.GoalLabel(g.Goal, s.svc.Currency()),
			Value: g.Goal.Value,
			Color: g.Goal.Color,
			Y:     g.Y,
		})
	}
	return out
}

type hitView struct {
	Hit      bool            `json:"hit"`
	Point    *pointView      `json:"point,omitempty"`
	Distance float64         `json:"distance,omitempty"`
	Tooltip  *render.Tooltip `json:"tooltip,omitempty"`
}

func hitViewOf(h services.BalanceHit, ok bool) hitView {
	if !ok {
		return hitView{}
	}
	p := pointOf(h.Point)
	return hitView{Hit: true, Point: &p, Distance: h.Distance, Tooltip: &h.Tooltip}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
