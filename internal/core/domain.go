package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryGeneral   Category = "General"
	CategoryFood      Category = "Food"
	CategoryTransport Category = "Transport"
	CategoryShopping  Category = "Shopping"
	CategoryBills     Category = "Bills"
	CategoryFun       Category = "Fun"
	CategoryOther     Category = "Other"
)

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// DefaultGoalLabel is used when a goal is created without a label.
const DefaultGoalLabel = "Goal"

type (
	Category string

	Theme string

	Expense struct {
		ID       int64     `json:"id"`
		Name     string    `json:"name"`
		Amt      Money     `json:"amt"`
		Category Category  `json:"category"`
		Note     string    `json:"note"`
		Date     time.Time `json:"date,omitzero"` // zero for legacy entries without a date
		Color    string    `json:"color,omitempty"`
	}

	// Subscription is a recurring monthly charge. It is informational and never
	// applied to the balance.
	Subscription struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Amt   Money  `json:"amt"`
		Color string `json:"color,omitempty"`
	}

	Income struct {
		ID     int64     `json:"id"`
		Amount Money     `json:"amount"`
		Date   time.Time `json:"date"`
	}

	// Goal is a target balance drawn as a reference line on the balance chart.
	Goal struct {
		ID    int64  `json:"id"`
		Label string `json:"label"`
		Value Money  `json:"value"`
		Color string `json:"color"`
	}

	// Snapshot is a balance sample. Its JSON time is epoch milliseconds.
	Snapshot struct {
		Time    time.Time
		Balance Money
	}

	// State is the whole ledger.
	State struct {
		Balance       Money
		Expenses      []Expense
		Subscriptions []Subscription
		Incomes       []Income
		Goals         []Goal
		History       []Snapshot
		Theme         Theme
	}
)

// Categories lists the accepted expense categories in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryFun,
	CategoryOther,
}

// ParseCategory maps an empty value to General and rejects unknown ones.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryGeneral, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// OrGeneral returns the category, treating a missing one as General.
func (c Category) OrGeneral() Category {
	if c == "" {
		return CategoryGeneral
	}
	return c
}

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), nil
	default:
		return "", ErrInvalidTheme
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// EffectiveDate is the single place where the missing-date policy lives:
// an expense without a date is treated as happening now.
func EffectiveDate(e Expense, now time.Time) time.Time {
	if e.Date.IsZero() {
		return now
	}
	return e.Date
}

// ValidateAmount checks that an amount is strictly positive.
func ValidateAmount(field string, m Money) error {
	if !m.IsPositive() {
		return &ValidationError{Field: field, Err: ErrInvalidAmount}
	}
	return nil
}

// ValidateName checks that a required name is not blank.
func ValidateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: field, Err: ErrEmptyName}
	}
	if len(name) > 200 {
		return &ValidationError{Field: field, Err: errors.New("too long (max 200 characters)")}
	}
	return nil
}

func (e Expense) Validate() error {
	if err := ValidateName("name", e.Name); err != nil {
		return err
	}
	if err := ValidateAmount("amt", e.Amt); err != nil {
		return err
	}
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return &ValidationError{Field: "category", Err: err}
	}
	return nil
}

func (s Subscription) Validate() error {
	if err := ValidateName("name", s.Name); err != nil {
		return err
	}
	return ValidateAmount("amt", s.Amt)
}

func (i Income) Validate() error {
	return ValidateAmount("amount", i.Amount)
}

func (g Goal) Validate() error {
	return ValidateAmount("value", g.Value)
}

type snapshotJSON struct {
	Time    json.Number `json:"time"`
	Balance Money       `json:"balance"`
}

// MarshalJSON implements the json.Marshaler interface.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Time:    json.Number(fmt.Sprintf("%d", s.Time.UnixMilli())),
		Balance: s.Balance,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// The time must be a number of milliseconds since the epoch.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ms, err := raw.Time.Float64()
	if err != nil {
		return fmt.Errorf("snapshot time: %w", err)
	}
	s.Time = time.UnixMilli(int64(ms))
	s.Balance = raw.Balance
	return nil
}

// Clone returns a deep copy so that callers cannot alias ledger slices.
func (s State) Clone() State {
	return State{
		Balance:       s.Balance,
		Expenses:      append([]Expense(nil), s.Expenses...),
		Subscriptions: append([]Subscription(nil), s.Subscriptions...),
		Incomes:       append([]Income(nil), s.Incomes...),
		Goals:         append([]Goal(nil), s.Goals...),
		History:       append([]Snapshot(nil), s.History...),
		Theme:         s.Theme,
	}
}
