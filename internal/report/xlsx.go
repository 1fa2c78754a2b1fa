package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

// SummarySheet is the worksheet WriteXLSX writes to.
const SummarySheet = "Summary"

const currencyFormat = `"$"#,##0.00`

// WriteXLSX saves the summary as a workbook at path.
//
// LAYOUT:
//   Row 1:      Group | Label | Total Balance | Records
//   Row 2..n+1: one row per group
//   Row n+3:    filters
//   Row n+4:    status line
//
// Totals are numeric cells with a currency format. A NaN or infinite total
// is written as text because a workbook cannot store it as a number.
func WriteXLSX(path string, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	numFmt := currencyFormat
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create currency style: %w", err)
	}

	header := []interface{}{"Group", "Label", "Total Balance", "Records"}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, g := range s.Groups {
		row := i + 2

		var total interface{} = g.Total
		if math.IsNaN(g.Total) || math.IsInf(g.Total, 0) {
			total = FormatCurrency(g.Total)
		}

		values := []interface{}{g.Key, Label(s.GroupField, g.Key), total, g.Count}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("failed to write group %q: %w", g.Key, err)
		}
		if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), currencyStyle); err != nil {
			return fmt.Errorf("failed to style total: %w", err)
		}
	}

	footer := len(s.Groups) + 3
	if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", footer), "Filters: "+DescribeCriteria(s.Criteria)); err != nil {
		return err
	}
	if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", footer+1), s.StatusLine()); err != nil {
		return err
	}

	if err := f.SetColWidth(SummarySheet, "A", "B", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "C", "C", 20); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}
