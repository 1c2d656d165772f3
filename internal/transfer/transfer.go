// Package transfer moves a whole ledger in and out of the JSON export format
// and writes the expense log as a spreadsheet.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"budget/internal/core"
)

var ErrImportFormat = errors.New("invalid file format")

// ImportFormatError describes why an import document was rejected.
type ImportFormatError struct {
	Field string
	Err   error
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("invalid file format: %s: %v", e.Field, e.Err)
}

func (e *ImportFormatError) Unwrap() []error {
	return []error{ErrImportFormat, e.Err}
}

// Document is the export file layout.
type Document struct {
	Balance        core.Money          `json:"balance"`
	Expenses       []core.Expense      `json:"expenses"`
	Subs           []core.Subscription `json:"subs"`
	BalanceHistory []core.Snapshot     `json:"balanceHistory"`
	Goals          []core.Goal         `json:"goals"`
	Incomes        []core.Income       `json:"incomes"`
	ExportedAt     time.Time           `json:"exportedAt"`
}

// Export renders the ledger as indented JSON. The theme is not exported.
func Export(st core.State, now time.Time) ([]byte, error) {
	doc := Document{
		Balance:        st.Balance,
		Expenses:       orEmpty(st.Expenses),
		Subs:           orEmpty(st.Subscriptions),
		BalanceHistory: orEmpty(st.History),
		Goals:          orEmpty(st.Goals),
		Incomes:        orEmpty(st.Incomes),
		ExportedAt:     now.UTC(),
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return b, nil
}

// Import parses an export document into a ledger state.
//
// balance must be a JSON number and expenses and subs must be arrays. The
// other arrays are optional and default to empty; a missing or empty history
// is seeded with the imported balance at now. Any element that does not
// decode or validate rejects the whole document. Ids are passed through as
// read; ledger.Store assigns fresh ones to missing or repeated ids. The
// returned state has no theme; callers keep their current one.
func Import(data []byte, now time.Time) (core.State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.State{}, &ImportFormatError{Field: "document", Err: err}
	}

	var st core.State
	bal, ok := raw["balance"]
	if !ok || !isNumber(bal) {
		return core.State{}, &ImportFormatError{Field: "balance", Err: errors.New("must be a number")}
	}
	if err := json.Unmarshal(bal, &st.Balance); err != nil {
		return core.State{}, &ImportFormatError{Field: "balance", Err: err}
	}

	if err := requiredArray(raw, "expenses", &st.Expenses); err != nil {
		return core.State{}, err
	}
	if err := requiredArray(raw, "subs", &st.Subscriptions); err != nil {
		return core.State{}, err
	}
	if err := optionalArray(raw, "balanceHistory", &st.History); err != nil {
		return core.State{}, err
	}
	if err := optionalArray(raw, "goals", &st.Goals); err != nil {
		return core.State{}, err
	}
	if err := optionalArray(raw, "incomes", &st.Incomes); err != nil {
		return core.State{}, err
	}

	for i := range st.Expenses {
		st.Expenses[i].Category = st.Expenses[i].Category.OrGeneral()
		if err := st.Expenses[i].Validate(); err != nil {
			return core.State{}, &ImportFormatError{Field: fmt.Sprintf("expenses[%d]", i), Err: err}
		}
	}
	for i, s := range st.Subscriptions {
		if err := s.Validate(); err != nil {
			return core.State{}, &ImportFormatError{Field: fmt.Sprintf("subs[%d]", i), Err: err}
		}
	}
	for i, in := range st.Incomes {
		if err := in.Validate(); err != nil {
			return core.State{}, &ImportFormatError{Field: fmt.Sprintf("incomes[%d]", i), Err: err}
		}
	}
	for i := range st.Goals {
		g := &st.Goals[i]
		if g.Label == "" {
			g.Label = core.DefaultGoalLabel
		}
		if g.Color == "" {
			g.Color = core.DefaultGoalColor
		}
		if err := g.Validate(); err != nil {
			return core.State{}, &ImportFormatError{Field: fmt.Sprintf("goals[%d]", i), Err: err}
		}
	}

	if len(st.History) == 0 {
		st.History = []core.Snapshot{{Time: now, Balance: st.Balance}}
	}
	return st, nil
}

// ReadImport is Import over a reader, capped at limit bytes.
func ReadImport(r io.Reader, limit int64, now time.Time) (core.State, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return core.State{}, fmt.Errorf("read import: %w", err)
	}
	if int64(len(data)) > limit {
		return core.State{}, &ImportFormatError{Field: "document", Err: fmt.Errorf("larger than %d bytes", limit)}
	}
	return Import(data, now)
}

func isNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func requiredArray[T any](raw map[string]json.RawMessage, key string, dst *[]T) error {
	v, ok := raw[key]
	if !ok || !isArray(v) {
		return &ImportFormatError{Field: key, Err: errors.New("must be an array")}
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return &ImportFormatError{Field: key, Err: err}
	}
	return nil
}

// optionalArray leaves dst empty when the key is missing or not an array.
func optionalArray[T any](raw map[string]json.RawMessage, key string, dst *[]T) error {
	v, ok := raw[key]
	if !ok || !isArray(v) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return &ImportFormatError{Field: key, Err: err}
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
