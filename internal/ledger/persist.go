package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

// Persisted keys.
const (
	KeyBalance       = "balance"
	KeyExpenses      = "expenses"
	KeySubscriptions = "subscriptions"
	KeyHistory       = "balanceHistory"
	KeyGoals         = "goals"
	KeyIncomes       = "incomes"
	KeyTheme         = "theme"
)

// ParseError reports a stored key that could not be decoded. The key falls
// back to its empty default; it is never fatal.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Hydrate reads the ledger from kv. Missing keys take their defaults and
// corrupt ones are reported as ParseErrors. The returned error is reserved
// for the store itself failing.
func Hydrate(ctx context.Context, kv storage.KV, now time.Time) (core.State, []*ParseError, error) {
	st := core.State{Theme: core.ThemeDark}
	var perrs []*ParseError

	raw := make(map[string]string)
	for _, k := range []string{KeyBalance, KeyExpenses, KeySubscriptions, KeyHistory, KeyGoals, KeyIncomes, KeyTheme} {
		v, ok, err := kv.Get(ctx, k)
		if err != nil {
			return core.State{}, nil, fmt.Errorf("read %s: %w", k, err)
		}
		if ok {
			raw[k] = v
		}
	}

	if v, ok := raw[KeyBalance]; ok {
		m, err := core.ParseMoney(v)
		if err != nil {
			perrs = append(perrs, &ParseError{Key: KeyBalance, Err: err})
		} else {
			st.Balance = m
		}
	}
	if v, ok := raw[KeyTheme]; ok {
		t, err := core.ParseTheme(v)
		if err != nil {
			perrs = append(perrs, &ParseError{Key: KeyTheme, Err: err})
		} else {
			st.Theme = t
		}
	}

	decode := func(key string, dst any) {
		v, ok := raw[key]
		if !ok {
			return
		}
		if err := json.Unmarshal([]byte(v), dst); err != nil {
			perrs = append(perrs, &ParseError{Key: key, Err: err})
		}
	}
	decode(KeyExpenses, &st.Expenses)
	decode(KeySubscriptions, &st.Subscriptions)
	decode(KeyHistory, &st.History)
	decode(KeyGoals, &st.Goals)
	decode(KeyIncomes, &st.Incomes)

	// a partially decoded array is discarded with its key
	for _, pe := range perrs {
		switch pe.Key {
		case KeyExpenses:
			st.Expenses = nil
		case KeySubscriptions:
			st.Subscriptions = nil
		case KeyHistory:
			st.History = nil
		case KeyGoals:
			st.Goals = nil
		case KeyIncomes:
			st.Incomes = nil
		}
	}

	for i := range st.Expenses {
		st.Expenses[i].Category = st.Expenses[i].Category.OrGeneral()
	}
	if len(st.History) == 0 {
		st.History = []core.Snapshot{{Time: now, Balance: st.Balance}}
	}
	return st, perrs, nil
}

// Encode renders the ledger as persisted key values.
func Encode(st core.State) (map[string]string, error) {
	out := map[string]string{
		KeyBalance: st.Balance.String(),
		KeyTheme:   string(st.Theme),
	}
	arrays := map[string]any{
		KeyExpenses:      nonNil(st.Expenses),
		KeySubscriptions: nonNil(st.Subscriptions),
		KeyHistory:       nonNil(st.History),
		KeyGoals:         nonNil(st.Goals),
		KeyIncomes:       nonNil(st.Incomes),
	}
	for k, v := range arrays {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

// Flush writes the whole ledger to kv, atomically when kv supports it.
func Flush(ctx context.Context, kv storage.KV, st core.State) error {
	values, err := Encode(st)
	if err != nil {
		return err
	}
	if err := storage.SetAll(ctx, kv, values); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
