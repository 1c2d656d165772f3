package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-40", "-40", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFromFloatRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := MoneyFromFloat(f); err == nil {
			t.Fatalf("expected error for %v", f)
		}
	}
	m, err := MoneyFromFloat(0.1)
	if err != nil || m.String() != "0.1" {
		t.Fatalf("unexpected %s (err=%v)", m, err)
	}
}

func TestMoneyArithmeticDoesNotDrift(t *testing.T) {
	balance := Zero
	tenth, _ := MoneyFromFloat(0.1)
	for i := 0; i < 1000; i++ {
		balance = balance.Add(tenth)
	}
	for i := 0; i < 1000; i++ {
		balance = balance.Sub(tenth)
	}
	if !balance.IsZero() {
		t.Fatalf("expected exact zero, got %s", balance)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(MoneyFromInt(450))
	if err != nil || string(b) != "450" {
		t.Fatalf("unexpected marshal %s (err=%v)", b, err)
	}
	var m Money
	if err := json.Unmarshal([]byte(`"12.5"`), &m); err != nil || m.String() != "12.5" {
		t.Fatalf("unexpected unmarshal %s (err=%v)", m, err)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}

func TestMoneyDisplay(t *testing.T) {
	if got := MoneyFromInt(10000).Display("USD"); got != "$10,000.00" {
		t.Fatalf("unexpected display %q", got)
	}
	if got := MoneyFromInt(5).Display("nope"); got == "" {
		t.Fatalf("expected fallback currency display")
	}
}
