package ledger

import (
	"errors"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T, initial core.State) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	return NewStore(initial, WithClock(clock.Now)), clock
}

func money(n int64) core.Money { return core.MoneyFromInt(n) }

func ptr[T any](v T) *T { return &v }

func TestNewStoreSeedsHistory(t *testing.T) {
	s, clock := newTestStore(t, core.State{Balance: money(250)})
	st := s.State()
	require.Len(t, st.History, 1)
	assert.True(t, st.History[0].Balance.Equal(money(250)))
	assert.Equal(t, clock.Now(), st.History[0].Time)
	assert.Equal(t, core.ThemeDark, st.Theme)
}

func TestAddThenDeleteExpenseRestoresBalance(t *testing.T) {
	s, _ := newTestStore(t, core.State{Balance: money(1000)})

	e, err := s.AddExpense("Groceries", money(125), core.CategoryFood, "")
	require.NoError(t, err)
	assert.True(t, s.Balance().Equal(money(875)))

	_, err = s.DeleteExpense(e.ID)
	require.NoError(t, err)
	assert.True(t, s.Balance().Equal(money(1000)))

	hist := s.State().History
	require.Len(t, hist, 3)
	assert.True(t, hist[1].Balance.Equal(money(875)))
	assert.True(t, hist[2].Balance.Equal(money(1000)))
}

func TestScenarioIncomeExpenseDelete(t *testing.T) {
	s, clock := newTestStore(t, core.State{})
	require.Len(t, s.State().History, 1)

	_, err := s.AddIncome(money(500))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	e, err := s.AddExpense("Coffee", money(40), "", "")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryGeneral, e.Category)
	clock.Advance(time.Minute)
	_, err = s.DeleteExpense(e.ID)
	require.NoError(t, err)

	st := s.State()
	assert.True(t, st.Balance.Equal(money(500)))
	require.Len(t, st.History, 4)
	want := []int64{0, 500, 460, 500}
	for i, w := range want {
		assert.Truef(t, st.History[i].Balance.Equal(money(w)), "snapshot %d = %s", i, st.History[i].Balance)
	}
}

func TestValidationLeavesStateUntouched(t *testing.T) {
	s, _ := newTestStore(t, core.State{Balance: money(10)})
	before := s.State()

	_, err := s.AddIncome(money(0))
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = s.AddIncome(money(-5))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = s.AddExpense("  ", money(5), "", "")
	assert.ErrorIs(t, err, core.ErrEmptyName)
	_, err = s.AddExpense("Taxi", money(5), "Rent", "")
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
	_, err = s.AddSubscription("", money(5))
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = s.AddGoal("Car", money(0), "")
	assert.ErrorIs(t, err, core.ErrValidation)

	assert.Equal(t, before, s.State())
}

func TestEditExpenseAppliesDelta(t *testing.T) {
	s, _ := newTestStore(t, core.State{Balance: money(100)})
	e, err := s.AddExpense("Lunch", money(30), core.CategoryFood, "")
	require.NoError(t, err)

	updated, err := s.EditExpense(e.ID, ExpenseEdit{Amt: ptr(money(50)), Note: ptr("with tip")})
	require.NoError(t, err)
	assert.True(t, s.Balance().Equal(money(50)))
	assert.Equal(t, "with tip", updated.Note)
	assert.Len(t, s.State().History, 3)

	// same amount still records a snapshot
	_, err = s.EditExpense(e.ID, ExpenseEdit{Amt: ptr(money(50))})
	require.NoError(t, err)
	assert.Len(t, s.State().History, 4)

	// non-amount edits do not
	_, err = s.EditExpense(e.ID, ExpenseEdit{Name: ptr("Dinner")})
	require.NoError(t, err)
	assert.Len(t, s.State().History, 4)
}

func TestEditExpenseIsAtomic(t *testing.T) {
	s, _ := newTestStore(t, core.State{Balance: money(100)})
	e, err := s.AddExpense("Lunch", money(30), core.CategoryFood, "")
	require.NoError(t, err)
	before := s.State()

	_, err = s.EditExpense(e.ID, ExpenseEdit{Amt: ptr(money(10)), Category: ptr(core.Category("Nope"))})
	require.Error(t, err)
	_, err = s.EditExpense(e.ID, ExpenseEdit{Name: ptr("Brunch"), Amt: ptr(money(-1))})
	require.Error(t, err)

	assert.Equal(t, before, s.State())
}

func TestUnknownIDs(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	_, err := s.DeleteExpense(1)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = s.EditExpense(1, ExpenseEdit{})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.DeleteSubscription(1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.EditSubscription(1, SubscriptionEdit{})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.DeleteGoal(1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.EditGoal(1, GoalEdit{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubscriptionsDoNotTouchBalance(t *testing.T) {
	s, _ := newTestStore(t, core.State{Balance: money(100)})
	a, err := s.AddSubscription("Music", money(10))
	require.NoError(t, err)
	b, err := s.AddSubscription("Video", money(15))
	require.NoError(t, err)

	st := s.State()
	assert.True(t, st.Balance.Equal(money(100)))
	assert.Len(t, st.History, 1)
	require.Len(t, st.Subscriptions, 2)
	assert.Equal(t, b.ID, st.Subscriptions[0].ID, "newest first")

	_, err = s.EditSubscription(a.ID, SubscriptionEdit{Color: ptr("#000000")})
	require.NoError(t, err)
	_, err = s.DeleteSubscription(b.ID)
	require.NoError(t, err)
	st = s.State()
	require.Len(t, st.Subscriptions, 1)
	assert.Equal(t, "#000000", st.Subscriptions[0].Color)
	assert.Len(t, st.History, 1)
}

func TestGoalDefaults(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	g, err := s.AddGoal("", money(5000), "")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultGoalLabel, g.Label)
	assert.Equal(t, core.DefaultGoalColor, g.Color)

	g2, err := s.AddGoal("House", money(90000), "#123456")
	require.NoError(t, err)
	st := s.State()
	require.Len(t, st.Goals, 2)
	assert.Equal(t, g.ID, st.Goals[0].ID, "goals are appended")

	edited, err := s.EditGoal(g2.ID, GoalEdit{Label: ptr(""), Value: ptr(money(80000))})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultGoalLabel, edited.Label)
	assert.Equal(t, "#123456", edited.Color)
}

func TestSetBalanceAcceptsNegative(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	s.SetBalance(money(-20))
	st := s.State()
	assert.True(t, st.Balance.Equal(money(-20)))
	require.Len(t, st.History, 2)
	assert.True(t, st.History[1].Balance.Equal(money(-20)))
}

func TestThemeDoesNotRecord(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	assert.Equal(t, core.ThemeLight, s.ToggleTheme())
	require.NoError(t, s.SetTheme(core.ThemeDark))
	assert.ErrorIs(t, s.SetTheme("blue"), core.ErrInvalidTheme)
	assert.Len(t, s.State().History, 1)
}

func TestIDsAreUniqueWithinSameMillisecond(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	seen := make(map[int64]bool)
	for i := 0; i < 20; i++ {
		e, err := s.AddExpense("x", money(1), "", "")
		require.NoError(t, err)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestReplaceReseedsAndKeepsIDsFresh(t *testing.T) {
	s, clock := newTestStore(t, core.State{})
	future := clock.Now().Add(time.Hour).UnixMilli()
	s.Replace(core.State{
		Balance:  money(70),
		Expenses: []core.Expense{{ID: future, Name: "Old", Amt: money(5), Category: core.CategoryOther}},
	})

	st := s.State()
	require.Len(t, st.History, 1)
	assert.True(t, st.History[0].Balance.Equal(money(70)))

	e, err := s.AddExpense("New", money(1), "", "")
	require.NoError(t, err)
	assert.Greater(t, e.ID, future)
}

func TestStateIsACopy(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	_, err := s.AddExpense("Tea", money(3), "", "")
	require.NoError(t, err)

	st := s.State()
	st.Expenses[0].Name = "mutated"
	st.History = nil
	assert.Equal(t, "Tea", s.State().Expenses[0].Name)
	assert.Len(t, s.State().History, 2)
}

func TestLoadAssignsFreshIDsToMissingAndDuplicates(t *testing.T) {
	s, _ := newTestStore(t, core.State{})
	s.Replace(core.State{
		Expenses: []core.Expense{
			{ID: 5, Name: "A", Amt: money(10), Category: core.CategoryFood},
			{ID: 5, Name: "B", Amt: money(20), Category: core.CategoryFood},
			{Name: "C", Amt: money(30), Category: core.CategoryOther},
			{Name: "D", Amt: money(40), Category: core.CategoryOther},
		},
		Subscriptions: []core.Subscription{{ID: 3, Name: "Music", Amt: money(9)}, {ID: 3, Name: "Video", Amt: money(12)}},
		Goals:         []core.Goal{{Label: "Car", Value: money(500), Color: "#10b981"}},
		Incomes:       []core.Income{{ID: -1, Amount: money(50)}},
		Balance:       money(100),
	})
	assert.Equal(t, 6, s.Renumbered())

	st := s.State()
	seen := make(map[int64]bool)
	for _, e := range st.Expenses {
		assert.Positive(t, e.ID)
		assert.False(t, seen[e.ID], "duplicate expense id %d", e.ID)
		seen[e.ID] = true
	}
	assert.Equal(t, int64(5), st.Expenses[0].ID, "first holder keeps its id")
	assert.NotEqual(t, st.Subscriptions[0].ID, st.Subscriptions[1].ID)
	assert.Positive(t, st.Goals[0].ID)
	assert.Positive(t, st.Incomes[0].ID)

	removed, err := s.DeleteExpense(5)
	require.NoError(t, err)
	assert.Equal(t, "A", removed.Name)
	require.Len(t, s.State().Expenses, 3)

	removed, err = s.DeleteExpense(st.Expenses[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "C", removed.Name)
	assert.Equal(t, "D", s.State().Expenses[1].Name)
}

func TestLoadKeepsUniqueIDs(t *testing.T) {
	s, _ := newTestStore(t, core.State{
		Expenses: []core.Expense{
			{ID: 2, Name: "A", Amt: money(1), Category: core.CategoryGeneral},
			{ID: 1, Name: "B", Amt: money(1), Category: core.CategoryGeneral},
		},
	})
	assert.Zero(t, s.Renumbered())
	st := s.State()
	assert.Equal(t, int64(2), st.Expenses[0].ID)
	assert.Equal(t, int64(1), st.Expenses[1].ID)
}
