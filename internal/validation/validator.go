// =============================================================================
// Loan Aggregator - Input Checks
// =============================================================================
//
// This module inspects tokenized input and reports anomalies. It never
// rejects or alters data: the pipeline tolerates every issue it finds (a
// non-numeric balance becomes NaN, a missing field passes through). The
// report exists so an operator can see why a total came out as NaN.
//
// CHECKS:
//   | Rule              | Severity | Trigger                                  |
//   |-------------------|----------|------------------------------------------|
//   | missing_column    | error    | a required column is not in the header   |
//   | missing_value     | warning  | a row has no value for a required column |
//   | invalid_balance   | warning  | the balance will parse as NaN            |
//   | invalid_year      | warning  | the cleaned year is not four digits      |
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/ginjaninja78/loanagg/internal/converter"
	"github.com/ginjaninja78/loanagg/internal/normalizer"
	"github.com/ginjaninja78/loanagg/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleMissingColumn  = "missing_column"
	RuleMissingValue   = "missing_value"
	RuleInvalidBalance = "invalid_balance"
	RuleInvalidYear    = "invalid_year"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Rule is the check that produced the finding.
	Rule string

	// Field is the column name.
	Field string

	// Value is the raw value, if any.
	Value string

	// RowNumber is the 1-indexed data row (0 for header findings).
	RowNumber int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber == 0 {
		return fmt.Sprintf("[%s] Field '%s': %s", strings.ToUpper(e.Severity), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is false when any error-severity finding exists.
	IsValid bool

	// Errors contains every finding, header findings first.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsChecked is the number of records inspected.
	RowsChecked int
}

func (r *ValidationResult) add(err *ValidationError) {
	r.Errors = append(r.Errors, err)
	if err.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks headers and records.
//
// PARAMETERS:
//   - headers: Column names of the input.
//   - records: The raw records, before normalization.
//   - table: The standardization table the pipeline will use, so the checks
//            see the same values the transformer will.
func Validate(headers []string, records []types.RawRecord, table types.StandardizationTable) *ValidationResult {
	result := &ValidationResult{
		IsValid:     true,
		Errors:      make([]*ValidationError, 0),
		RowsChecked: len(records),
	}

	for _, err := range ValidateHeaders(headers) {
		result.add(err)
	}

	for i, record := range records {
		for _, err := range ValidateRecord(record, i+1, table) {
			result.add(err)
		}
	}

	return result
}

// ValidateHeaders reports each required column missing from headers.
func ValidateHeaders(headers []string) []*ValidationError {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var errs []*ValidationError
	for _, column := range types.RequiredColumns {
		if !present[column] {
			errs = append(errs, &ValidationError{
				Severity: SeverityError,
				Rule:     RuleMissingColumn,
				Field:    column,
				Message:  "required column is missing",
			})
		}
	}

	return errs
}

// ValidateRecord checks one record. rowNumber is used for reporting only.
func ValidateRecord(record types.RawRecord, rowNumber int, table types.StandardizationTable) []*ValidationError {
	var errs []*ValidationError

	for _, column := range types.RequiredColumns {
		if _, ok := record[column]; !ok {
			errs = append(errs, &ValidationError{
				Severity:  SeverityWarning,
				Rule:      RuleMissingValue,
				Field:     column,
				RowNumber: rowNumber,
				Message:   "value is missing",
			})
		}
	}

	if raw, ok := record[types.ColumnBalance]; ok {
		cleaned := normalizer.NormalizeValue(types.ColumnBalance, raw, table)
		if math.IsNaN(converter.ParseBalance(cleaned)) {
			errs = append(errs, &ValidationError{
				Severity:  SeverityWarning,
				Rule:      RuleInvalidBalance,
				Field:     types.ColumnBalance,
				Value:     raw,
				RowNumber: rowNumber,
				Message:   "balance is not a number and will be counted as NaN",
			})
		}
	}

	if raw, ok := record[types.ColumnYear]; ok {
		if !isYear(normalizer.NormalizeValue(types.ColumnYear, raw, table)) {
			errs = append(errs, &ValidationError{
				Severity:  SeverityWarning,
				Rule:      RuleInvalidYear,
				Field:     types.ColumnYear,
				Value:     raw,
				RowNumber: rowNumber,
				Message:   "year is not a 4-digit value",
			})
		}
	}

	return errs
}

// isYear reports whether s is exactly four ASCII digits.
func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
