// Package core provides money parsing and handling utilities.
//
// This file contains the Money value type used for every amount in the ledger.
// Arithmetic is exact (decimal based) so that balance updates never drift, while
// the JSON form stays a plain number for compatibility with persisted data.
package core

import (
	"bytes"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for display when no currency is configured.
const DefaultCurrency = "INR"

// Money is an exact signed amount in major units.
type Money struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{value: d}
}

// MoneyFromInt returns a whole amount.
func MoneyFromInt(n int64) Money {
	return Money{value: decimal.NewFromInt(n)}
}

// MoneyFromFloat converts a float, rejecting NaN and infinities.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: decimal.NewFromFloat(f)}, nil
}

// ParseMoney parses a decimal string into Money.
//
// It accepts both dot (12.34) and a single comma (12,34) as decimal separator
// and a leading sign. Signs are accepted because a manual balance override may
// be negative; positivity of amounts is checked at the mutation boundary.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34, nil
//	ParseMoney("12,34")  -> 12.34, nil
//	ParseMoney("-50")    -> -50, nil
//	ParseMoney("abc")    -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize a decimal comma to dot
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money        { return Money{value: m.value.Neg()} }

func (m Money) Cmp(n Money) int                 { return m.value.Cmp(n.value) }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) Decimal() decimal.Decimal        { return m.value }

// Float64 returns the value as a float for chart geometry.
// Use the Money methods for ledger arithmetic.
func (m Money) Float64() float64 {
	return m.value.InexactFloat64()
}

// String returns the shortest exact representation, e.g. "450" or "12.5".
func (m Money) String() string {
	return m.value.String()
}

// Display formats the amount with the currency symbol and grouping of the
// given ISO 4217 code, e.g. "₹10,000.00". Unknown codes fall back to the
// default currency.
func (m Money) Display(currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		currency = DefaultCurrency
		cur = money.GetCurrency(currency)
	}
	minor := m.value.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.value = d
	return nil
}
