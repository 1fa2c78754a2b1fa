// =============================================================================
// Loan Aggregator - XLSX Input Reader
// =============================================================================
//
// This module reads loan exports saved as Excel workbooks. A worksheet is
// treated like a CSV document: the first row(s) hold the headers, every
// following non-blank row becomes a RawRecord.
//
// SHEET SELECTION:
//   - CSVSettings.SheetName when set
//   - otherwise the first sheet in the workbook
//
// Cell values are read in their displayed form, so a balance formatted as
// currency arrives as "$1,234.50" and is cleaned by the normalizer like any
// CSV value.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loanagg/internal/config"
	"github.com/ginjaninja78/loanagg/internal/csvparser"
)

// ErrNoSheet is returned when the workbook has no usable worksheet.
var ErrNoSheet = errors.New("workbook has no sheets")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an XLSX file and returns its rows as RawRecords.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - settings: Sheet name and header row count from the configuration.
//
// RETURNS:
//   - The parsed data, in the same shape the CSV parser produces.
//   - An error if the workbook cannot be opened or the sheet is missing.
func Parse(filePath string, settings config.CSVSettings) (*csvparser.CSVData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	data, err := ParseWorkbook(f, settings)
	if err != nil {
		return nil, err
	}

	data.SourceFile = filePath
	return data, nil
}

// ParseWorkbook reads records from an already opened workbook.
func ParseWorkbook(f *excelize.File, settings config.CSVSettings) (*csvparser.CSVData, error) {
	sheetName, err := selectSheet(f, settings.SheetName)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, csvparser.ErrEmptyFile
	}

	headers, err := csvparser.ExtractHeaders(rows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	records, _ := csvparser.BuildRecords(padRows(rows[headerRows:], len(headers)), headers)

	return &csvparser.CSVData{
		Headers: headers,
		Records: records,
	}, nil
}

// selectSheet returns the configured sheet or the first one.
func selectSheet(f *excelize.File, name string) (string, error) {
	if name != "" {
		index, err := f.GetSheetIndex(name)
		if err != nil || index < 0 {
			return "", fmt.Errorf("sheet %q not found", name)
		}
		return name, nil
	}

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return "", ErrNoSheet
	}
	return sheetName, nil
}

// padRows extends rows to width with empty cells. GetRows drops trailing
// empty cells, but in a worksheet those cells exist and are blank.
func padRows(rows [][]string, width int) [][]string {
	padded := make([][]string, len(rows))

	for i, row := range rows {
		if len(row) >= width {
			padded[i] = row
			continue
		}
		full := make([]string, width)
		copy(full, row)
		padded[i] = full
	}

	return padded
}
