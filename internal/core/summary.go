package core

// NamedAmount represents an amount aggregated by name, with its display colour.
type NamedAmount struct {
	Name   string
	Amount Money
	Color  string
}

// MonthTotals is a compact summary for a specific year+month.
type MonthTotals struct {
	Year     int
	Month    int // 1-12
	Income   Money
	Expenses Money
	Net      Money
}
