package transfer

import (
	"fmt"
	"io"
	"time"

	"budget/internal/core"

	"github.com/xuri/excelize/v2"
)

const expenseSheet = "Expenses"

// WriteExpenseLogXLSX writes expenses, in the given order, as a spreadsheet.
// Undated expenses are shown with now's date.
func WriteExpenseLogXLSX(w io.Writer, expenses []core.Expense, now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(expenseSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []any{"Date", "Name", "Category", "Amount", "Note"}
	if err := f.SetSheetRow(expenseSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			core.EffectiveDate(e, now).In(loc).Format("2006-01-02"),
			e.Name,
			string(e.Category.OrGeneral()),
			e.Amt.Float64(),
			e.Note,
		}
		if err := f.SetSheetRow(expenseSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(expenseSheet, "A", "A", 12)
	_ = f.SetColWidth(expenseSheet, "B", "B", 24)
	_ = f.SetColWidth(expenseSheet, "C", "C", 12)
	_ = f.SetColWidth(expenseSheet, "D", "D", 12)
	_ = f.SetColWidth(expenseSheet, "E", "E", 30)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
