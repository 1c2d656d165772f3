package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var now = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func sampleState() core.State {
	return core.State{
		Balance: core.MoneyFromInt(460),
		Expenses: []core.Expense{
			{ID: 2, Name: "Coffee", Amt: core.MoneyFromInt(40), Category: core.CategoryFood, Date: now.Add(-time.Hour)},
		},
		Subscriptions: []core.Subscription{{ID: 3, Name: "Music", Amt: core.MoneyFromInt(10)}},
		Incomes:       []core.Income{{ID: 1, Amount: core.MoneyFromInt(500), Date: now.Add(-2 * time.Hour)}},
		Goals:         []core.Goal{{ID: 4, Label: "Trip", Value: core.MoneyFromInt(1000), Color: "#10b981"}},
		History: []core.Snapshot{
			{Time: now.Add(-2 * time.Hour), Balance: core.MoneyFromInt(500)},
			{Time: now.Add(-time.Hour), Balance: core.MoneyFromInt(460)},
		},
		Theme: core.ThemeLight,
	}
}

func TestExportLayout(t *testing.T) {
	b, err := Export(sampleState(), now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("{\n  \"balance\": 460")))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	for _, k := range []string{"balance", "expenses", "subs", "balanceHistory", "goals", "incomes", "exportedAt"} {
		assert.Contains(t, raw, k)
	}
	assert.NotContains(t, raw, "theme")
}

func TestExportImportRoundTrip(t *testing.T) {
	want := sampleState()
	b, err := Export(want, now)
	require.NoError(t, err)

	got, err := Import(b, now)
	require.NoError(t, err)
	assert.True(t, want.Balance.Equal(got.Balance))
	require.Len(t, got.Expenses, 1)
	assert.Equal(t, want.Expenses[0].Name, got.Expenses[0].Name)
	assert.Len(t, got.Subscriptions, 1)
	assert.Len(t, got.Incomes, 1)
	assert.Len(t, got.Goals, 1)
	assert.Len(t, got.History, 2)
	assert.Equal(t, core.Theme(""), got.Theme)
}

func TestImportRejects(t *testing.T) {
	cases := map[string]string{
		"string balance":      `{"balance":"abc","expenses":[],"subs":[]}`,
		"quoted number":       `{"balance":"500","expenses":[],"subs":[]}`,
		"missing balance":     `{"expenses":[],"subs":[]}`,
		"expenses not array":  `{"balance":1,"expenses":{},"subs":[]}`,
		"missing subs":        `{"balance":1,"expenses":[]}`,
		"bad element":         `{"balance":1,"expenses":[{"id":"x"}],"subs":[]}`,
		"negative expense":    `{"balance":1,"expenses":[{"id":1,"name":"a","amt":-5}],"subs":[]}`,
		"unknown category":    `{"balance":1,"expenses":[{"id":1,"name":"a","amt":5,"category":"Rent"}],"subs":[]}`,
		"bad history element": `{"balance":1,"expenses":[],"subs":[],"balanceHistory":[{"time":"x"}]}`,
		"not json":            `balance=1`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Import([]byte(doc), now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrImportFormat), "got %v", err)
			var fe *ImportFormatError
			assert.True(t, errors.As(err, &fe))
		})
	}
}

func TestImportDefaults(t *testing.T) {
	st, err := Import([]byte(`{"balance":-12.5,"expenses":[{"id":1,"name":"Old","amt":3}],"subs":[],"goals":"nope"}`), now)
	require.NoError(t, err)
	assert.Equal(t, "-12.5", st.Balance.String())
	assert.Empty(t, st.Goals)
	assert.Empty(t, st.Incomes)
	assert.Equal(t, core.CategoryGeneral, st.Expenses[0].Category)
	require.Len(t, st.History, 1)
	assert.Equal(t, now, st.History[0].Time)
	assert.True(t, st.History[0].Balance.Equal(st.Balance))
}

func TestReadImportLimit(t *testing.T) {
	_, err := ReadImport(strings.NewReader(`{"balance":1,"expenses":[],"subs":[]}`), 10, now)
	assert.ErrorIs(t, err, ErrImportFormat)

	_, err = ReadImport(strings.NewReader(`{"balance":1,"expenses":[],"subs":[]}`), 1<<20, now)
	assert.NoError(t, err)
}

func TestWriteExpenseLogXLSX(t *testing.T) {
	expenses := []core.Expense{
		{ID: 1, Name: "Coffee", Amt: core.MoneyFromInt(40), Category: core.CategoryFood, Date: time.Date(2025, 3, 30, 9, 0, 0, 0, time.UTC), Note: "oat"},
		{ID: 2, Name: "Legacy", Amt: core.MoneyFromInt(5)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteExpenseLogXLSX(&buf, expenses, now, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(expenseSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Name", "Category", "Amount", "Note"}, rows[0])
	assert.Equal(t, []string{"2025-03-30", "Coffee", "Food", "40", "oat"}, rows[1])
	assert.Equal(t, "2025-04-01", rows[2][0])
	assert.Equal(t, "General", rows[2][2])
}
