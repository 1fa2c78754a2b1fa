// =============================================================================
// Loan Aggregator - CSV Parser Module
// =============================================================================
//
// This module tokenizes header-bearing CSV documents into RawRecords. It does
// no cleaning of its own: values are handed to the normalizer exactly as they
// appear in the file.
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon, any single char)
//   - Multi-line headers merged column-wise
//   - Blank rows skipped
//   - Short rows leave the trailing fields absent rather than empty
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/loanagg/internal/config"
	"github.com/ginjaninja78/loanagg/internal/types"
)

// ErrEmptyFile is returned when the input has no rows at all.
var ErrEmptyFile = errors.New("CSV file is empty")

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed CSV document.
type CSVData struct {
	// Headers contains the merged column headers.
	Headers []string

	// Records contains one RawRecord per non-blank data row.
	Records []types.RawRecord

	// SourceFile is the path the data was read from, if any.
	SourceFile string

	// ShortRows counts data rows that had fewer fields than headers.
	ShortRows int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and header settings from the configuration.
//
// RETURNS:
//   - The parsed data.
//   - An error if the file cannot be read or tokenized.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}

	data.SourceFile = filePath
	return data, nil
}

// ParseReader tokenizes CSV text from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, ErrEmptyFile
	}

	headers, err := ExtractHeaders(allRows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	records, shortRows := BuildRecords(allRows[headerRowCount(settings.HeaderRows):], headers)

	return &CSVData{
		Headers:   headers,
		Records:   records,
		ShortRows: shortRows,
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Allow variable number of fields per row; short rows are handled in
	// BuildRecords.
	reader.FieldsPerRecord = -1

	// Exports from spreadsheet tools are not always strict about quoting.
	reader.LazyQuotes = true
}

// Delimiter resolves a configured delimiter name to a rune.
func Delimiter(name string) rune {
	switch name {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if name != "" {
			return []rune(name)[0]
		}
		return ','
	}
}

func headerRowCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// ExtractHeaders merges the first headerRows rows into one header row.
//
// MULTI-LINE HEADER HANDLING:
//   Row 1: "Loan", "",        "Home"
//   Row 2: "Year", "Quarter", "Ownership"
//   Result: "Loan Year", "Quarter", "Home Ownership"
func ExtractHeaders(allRows [][]string, headerRows int) ([]string, error) {
	headerRows = headerRowCount(headerRows)

	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return cleanHeaders(allRows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string

		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				value := strings.TrimSpace(allRows[row][col])
				if value != "" {
					parts = append(parts, value)
				}
			}
		}

		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims header names, strips a UTF-8 byte order mark and names
// empty headers after their column position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		header = strings.TrimSpace(header)

		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		cleaned[i] = header
	}

	return cleaned
}

// BuildRecords converts data rows to RawRecords keyed by headers.
//
// RETURNS:
//   - The records, skipping blank rows.
//   - The number of rows that had fewer fields than headers. Their missing
//     trailing fields are absent from the record.
func BuildRecords(rows [][]string, headers []string) ([]types.RawRecord, int) {
	records := make([]types.RawRecord, 0, len(rows))
	shortRows := 0

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		if len(row) < len(headers) {
			shortRows++
		}

		record := make(types.RawRecord, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				record[header] = row[colIndex]
			}
		}

		records = append(records, record)
	}

	return records, shortRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
