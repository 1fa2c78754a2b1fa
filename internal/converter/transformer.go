// =============================================================================
// Loan Aggregator - Transformation Engine
// =============================================================================
//
// This module maps normalized records into the LoanData domain shape.
//
// FIELD MAPPING:
//   | Source column  | LoanData field | Conversion                          |
//   |----------------|----------------|-------------------------------------|
//   | V1             | CurrentBalance | strip "$" and ",", parse as float64 |
//   | grade_2        | Grade          | verbatim                            |
//   | home_ownership | HomeOwnership  | verbatim                            |
//   | v_quarter      | Quarter        | verbatim                            |
//   | term           | Term           | verbatim                            |
//   | v_year         | Year           | verbatim                            |
//
// NUMERIC POLICY:
//   A balance that is not a number becomes NaN. This is not an error: NaN
//   flows into the group sums so a bad row is visible in the totals instead
//   of silently disappearing.
//
// =============================================================================

package converter

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/loanagg/internal/normalizer"
	"github.com/ginjaninja78/loanagg/internal/types"
)

// balanceReplacer removes currency symbols and thousands separators.
var balanceReplacer = strings.NewReplacer("$", "", ",", "")

// decimalPattern matches plain decimal numbers with an optional exponent.
// ParseFloat also accepts "inf", "infinity" and hex floats; those are not
// balances.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// Transform converts normalized records into LoanData, one-to-one and in
// order. Absent string fields become empty strings; an absent balance
// becomes NaN.
func Transform(records []types.NormalizedRecord) []types.LoanData {
	loans := make([]types.LoanData, len(records))

	for i, record := range records {
		loans[i] = TransformRecord(record)
	}

	return loans
}

// TransformRecord converts a single normalized record.
func TransformRecord(record types.NormalizedRecord) types.LoanData {
	return types.LoanData{
		CurrentBalance: ParseBalance(record[types.ColumnBalance]),
		Grade:          record[types.ColumnGrade],
		HomeOwnership:  record[types.ColumnHomeOwnership],
		Quarter:        record[types.ColumnQuarter],
		Term:           record[types.ColumnTerm],
		Year:           record[types.ColumnYear],
	}
}

// ParseBalance parses a balance string such as "$1,234,567.89".
//
// RETURNS:
//   - The parsed value. Zero and negative amounts parse normally.
//   - NaN when the string is not a plain decimal number (including the
//     empty string, "inf" and hex notation).
//   - +/-Inf when the number is out of float64 range.
func ParseBalance(value string) float64 {
	value = strings.TrimSpace(balanceReplacer.Replace(value))
	if !decimalPattern.MatchString(value) {
		return math.NaN()
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		// ParseFloat returns the correctly signed infinity with ErrRange.
		if errors.Is(err, strconv.ErrRange) {
			return parsed
		}
		return math.NaN()
	}

	return parsed
}

// LoadRecords runs the normalize and transform stages over tokenized rows.
//
// PARAMETERS:
//   - records: Rows from the CSV or XLSX reader.
//   - table: Standardization table; pass normalizer.DefaultStandardization
//            for the canonical lookups.
func LoadRecords(records []types.RawRecord, table types.StandardizationTable) []types.LoanData {
	return Transform(normalizer.Normalize(records, table))
}

// CountNaN returns how many records have a NaN balance.
func CountNaN(loans []types.LoanData) int {
	count := 0
	for _, loan := range loans {
		if math.IsNaN(loan.CurrentBalance) {
			count++
		}
	}
	return count
}
