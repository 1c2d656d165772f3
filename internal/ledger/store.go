// Package ledger holds the authoritative ledger state and enforces its
// invariants. Every balance-affecting mutation records exactly one balance
// snapshot before it returns.
//
// A Store is not safe for concurrent use; callers that share one serialise
// access themselves (see services.LedgerService).
package ledger

import (
	"strings"
	"time"

	"budget/internal/core"
)

// Store is the single source of truth for ledger data.
type Store struct {
	balance       core.Money
	expenses      []core.Expense
	subscriptions []core.Subscription
	incomes       []core.Income
	goals         []core.Goal
	theme         core.Theme

	history    *History
	ids        *IDGenerator
	now        func() time.Time
	limit      int
	renumbered int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for dates, snapshots and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithHistoryLimit overrides the snapshot cap.
func WithHistoryLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// NewStore builds a store around an initial state. An empty history is
// seeded with the current balance.
func NewStore(initial core.State, opts ...Option) *Store {
	s := &Store{now: time.Now, limit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = NewIDGenerator(s.now)
	s.load(initial)
	return s
}

// ExpenseEdit carries the fields to change; nil fields are left untouched.
type ExpenseEdit struct {
	Name     *string
	Amt      *core.Money
	Category *core.Category
	Note     *string
	Color    *string
}

type SubscriptionEdit struct {
	Name  *string
	Amt   *core.Money
	Color *string
}

type GoalEdit struct {
	Label *string
	Value *core.Money
	Color *string
}

func (s *Store) AddIncome(amount core.Money) (core.Income, error) {
	if err := core.ValidateAmount("amount", amount); err != nil {
		return core.Income{}, err
	}
	in := core.Income{ID: s.ids.Next(), Amount: amount, Date: s.now()}
	s.incomes = append(s.incomes, in)
	s.applyDelta(amount)
	return in, nil
}

// AddExpense records a spend dated now and deducts it from the balance.
// New expenses are kept newest first.
func (s *Store) AddExpense(name string, amt core.Money, category core.Category, note string) (core.Expense, error) {
	cat, err := core.ParseCategory(string(category))
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: "category", Err: err}
	}
	e := core.Expense{
		Name:     strings.TrimSpace(name),
		Amt:      amt,
		Category: cat,
		Note:     strings.TrimSpace(note),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = s.ids.Next()
	e.Date = s.now()
	s.expenses = append([]core.Expense{e}, s.expenses...)
	s.applyDelta(amt.Neg())
	return e, nil
}

// EditExpense validates every supplied field before applying any of them.
// An amount change adjusts the balance by the difference and records a
// snapshot even when the difference is zero.
func (s *Store) EditExpense(id int64, edit ExpenseEdit) (core.Expense, error) {
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	updated := s.expenses[i]
	if edit.Name != nil {
		updated.Name = strings.TrimSpace(*edit.Name)
	}
	if edit.Amt != nil {
		updated.Amt = *edit.Amt
	}
	if edit.Category != nil {
		cat, err := core.ParseCategory(string(*edit.Category))
		if err != nil {
			return core.Expense{}, &core.ValidationError{Field: "category", Err: err}
		}
		updated.Category = cat
	}
	if edit.Note != nil {
		updated.Note = strings.TrimSpace(*edit.Note)
	}
	if edit.Color != nil {
		updated.Color = strings.TrimSpace(*edit.Color)
	}
	// legacy rows may carry an empty category
	updated.Category = updated.Category.OrGeneral()
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}

	old := s.expenses[i].Amt
	s.expenses[i] = updated
	if edit.Amt != nil {
		s.applyDelta(old.Sub(updated.Amt))
	}
	return updated, nil
}

// DeleteExpense removes an expense and refunds its amount.
func (s *Store) DeleteExpense(id int64) (core.Expense, error) {
	i := s.expenseIndex(id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	e := s.expenses[i]
	s.expenses = append(s.expenses[:i:i], s.expenses[i+1:]...)
	s.applyDelta(e.Amt)
	return e, nil
}

func (s *Store) AddSubscription(name string, amt core.Money) (core.Subscription, error) {
	sub := core.Subscription{Name: strings.TrimSpace(name), Amt: amt}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	sub.ID = s.ids.Next()
	s.subscriptions = append([]core.Subscription{sub}, s.subscriptions...)
	return sub, nil
}

func (s *Store) EditSubscription(id int64, edit SubscriptionEdit) (core.Subscription, error) {
	i := s.subscriptionIndex(id)
	if i < 0 {
		return core.Subscription{}, core.ErrNotFound
	}
	updated := s.subscriptions[i]
	if edit.Name != nil {
		updated.Name = strings.TrimSpace(*edit.Name)
	}
	if edit.Amt != nil {
		updated.Amt = *edit.Amt
	}
	if edit.Color != nil {
		updated.Color = strings.TrimSpace(*edit.Color)
	}
	if err := updated.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.subscriptions[i] = updated
	return updated, nil
}

func (s *Store) DeleteSubscription(id int64) (core.Subscription, error) {
	i := s.subscriptionIndex(id)
	if i < 0 {
		return core.Subscription{}, core.ErrNotFound
	}
	sub := s.subscriptions[i]
	s.subscriptions = append(s.subscriptions[:i:i], s.subscriptions[i+1:]...)
	return sub, nil
}

// AddGoal appends a balance target. Empty label and colour get defaults.
func (s *Store) AddGoal(label string, value core.Money, color string) (core.Goal, error) {
	g := core.Goal{
		Label: defaultString(label, core.DefaultGoalLabel),
		Value: value,
		Color: defaultString(color, core.DefaultGoalColor),
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.ID = s.ids.Next()
	s.goals = append(s.goals, g)
	return g, nil
}

func (s *Store) EditGoal(id int64, edit GoalEdit) (core.Goal, error) {
	i := s.goalIndex(id)
	if i < 0 {
		return core.Goal{}, core.ErrNotFound
	}
	updated := s.goals[i]
	if edit.Label != nil {
		updated.Label = defaultString(*edit.Label, core.DefaultGoalLabel)
	}
	if edit.Value != nil {
		updated.Value = *edit.Value
	}
	if edit.Color != nil {
		updated.Color = defaultString(*edit.Color, core.DefaultGoalColor)
	}
	if err := updated.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.goals[i] = updated
	return updated, nil
}

func (s *Store) DeleteGoal(id int64) (core.Goal, error) {
	i := s.goalIndex(id)
	if i < 0 {
		return core.Goal{}, core.ErrNotFound
	}
	g := s.goals[i]
	s.goals = append(s.goals[:i:i], s.goals[i+1:]...)
	return g, nil
}

// SetBalance overrides the balance. Any signed value is accepted.
func (s *Store) SetBalance(v core.Money) {
	s.balance = v
	s.history.Record(s.balance, s.now())
}

func (s *Store) SetTheme(t core.Theme) error {
	parsed, err := core.ParseTheme(string(t))
	if err != nil {
		return &core.ValidationError{Field: "theme", Err: err}
	}
	s.theme = parsed
	return nil
}

func (s *Store) ToggleTheme() core.Theme {
	s.theme = s.theme.Toggle()
	return s.theme
}

// Replace swaps the whole ledger, as done by an import.
func (s *Store) Replace(state core.State) {
	s.load(state)
}

// State returns a deep copy of the ledger.
func (s *Store) State() core.State {
	st := core.State{
		Balance:       s.balance,
		Expenses:      s.expenses,
		Subscriptions: s.subscriptions,
		Incomes:       s.incomes,
		Goals:         s.goals,
		Theme:         s.theme,
	}.Clone()
	st.History = s.history.Snapshots()
	return st
}

func (s *Store) Balance() core.Money { return s.balance }

func (s *Store) Theme() core.Theme { return s.theme }

// Renumbered reports how many missing or duplicate ids the last load
// replaced with fresh ones.
func (s *Store) Renumbered() int { return s.renumbered }

// Now returns the store's clock reading.
func (s *Store) Now() time.Time { return s.now() }

func (s *Store) applyDelta(delta core.Money) {
	s.balance = s.balance.Add(delta)
	s.history.Record(s.balance, s.now())
}

func (s *Store) load(st core.State) {
	st = st.Clone()
	s.balance = st.Balance
	s.expenses = st.Expenses
	s.subscriptions = st.Subscriptions
	s.incomes = st.Incomes
	s.goals = st.Goals
	s.theme = st.Theme
	if _, err := core.ParseTheme(string(s.theme)); err != nil {
		s.theme = core.ThemeDark
	}
	s.history = NewHistory(s.limit, st.History)
	s.history.Seed(s.balance, s.now())

	for _, e := range s.expenses {
		s.ids.Observe(e.ID)
	}
	for _, sub := range s.subscriptions {
		s.ids.Observe(sub.ID)
	}
	for _, in := range s.incomes {
		s.ids.Observe(in.ID)
	}
	for _, g := range s.goals {
		s.ids.Observe(g.ID)
	}

	s.renumbered = renumber(s.expenses, func(e *core.Expense) *int64 { return &e.ID }, s.ids) +
		renumber(s.subscriptions, func(sub *core.Subscription) *int64 { return &sub.ID }, s.ids) +
		renumber(s.incomes, func(in *core.Income) *int64 { return &in.ID }, s.ids) +
		renumber(s.goals, func(g *core.Goal) *int64 { return &g.ID }, s.ids)
}

func (s *Store) expenseIndex(id int64) int {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) subscriptionIndex(id int64) int {
	for i := range s.subscriptions {
		if s.subscriptions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) goalIndex(id int64) int {
	for i := range s.goals {
		if s.goals[i].ID == id {
			return i
		}
	}
	return -1
}

func defaultString(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
