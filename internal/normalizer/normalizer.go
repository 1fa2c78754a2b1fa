// =============================================================================
// Loan Aggregator - Normalizer
// =============================================================================
//
// This module cleans raw string-keyed records field by field before they are
// converted into LoanData.
//
// CLEANING STEPS (applied to every present value):
//   1. Trim leading and trailing whitespace
//   2. Lower-case the value
//   3. Drop every character that is not a letter, digit, underscore,
//      whitespace, hyphen, period or ampersand
//   4. Replace the value through the StandardizationTable, if it has an
//      entry for this field and this cleaned value
//
// Absent fields stay absent. The functions here are pure and safe to call
// concurrently with a shared table.
//
// =============================================================================

package normalizer

import (
	"strings"

	"github.com/ginjaninja78/loanagg/internal/types"
)

// =============================================================================
// NORMALIZATION FUNCTIONS
// =============================================================================

// Normalize cleans every record and returns a new slice of the same length
// and order.
//
// PARAMETERS:
//   - records: The tokenized rows. They are not modified.
//   - table: Standardization lookups. A nil or empty table performs no
//            substitution.
//
// RETURNS:
//   - One NormalizedRecord per input record.
func Normalize(records []types.RawRecord, table types.StandardizationTable) []types.NormalizedRecord {
	normalized := make([]types.NormalizedRecord, len(records))

	for i, record := range records {
		normalized[i] = normalizeRecord(record, table)
	}

	return normalized
}

// NormalizeLoanData normalizes records with DefaultStandardization.
func NormalizeLoanData(records []types.RawRecord) []types.NormalizedRecord {
	return Normalize(records, DefaultStandardization)
}

// normalizeRecord cleans a single record. Only keys present in the input are
// written, so absent fields stay absent.
func normalizeRecord(record types.RawRecord, table types.StandardizationTable) types.NormalizedRecord {
	out := make(types.NormalizedRecord, len(record))

	for field, value := range record {
		out[field] = NormalizeValue(field, value, table)
	}

	return out
}

// NormalizeValue cleans one value of the named field.
//
// EXAMPLE:
//   NormalizeValue("home_ownership", " MORTGAGE% ", nil) == "mortgage"
func NormalizeValue(field, value string, table types.StandardizationTable) string {
	cleaned := Clean(value)

	if replacement, ok := table[field][cleaned]; ok {
		return replacement
	}

	return cleaned
}

// NormalizeCriteria cleans each non-empty constraint the way the matching
// column is cleaned, so filters compare against normalized records.
func NormalizeCriteria(criteria types.FilterCriteria, table types.StandardizationTable) types.FilterCriteria {
	clean := func(column, value string) string {
		if value == "" {
			return ""
		}
		return NormalizeValue(column, value, table)
	}

	return types.FilterCriteria{
		HomeOwnership: clean(types.ColumnHomeOwnership, criteria.HomeOwnership),
		Quarter:       clean(types.ColumnQuarter, criteria.Quarter),
		Term:          clean(types.ColumnTerm, criteria.Term),
		Year:          clean(types.ColumnYear, criteria.Year),
	}
}

// Clean trims, lower-cases and strips disallowed characters.
// An empty string stays empty.
func Clean(value string) string {
	value = strings.TrimFunc(value, isSpace)
	value = strings.ToLower(value)

	return strings.Map(func(r rune) rune {
		if isAllowed(r) {
			return r
		}
		return -1
	}, value)
}

// isAllowed reports whether r survives cleaning.
// Word characters are ASCII only; whitespace is the isSpace set.
func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == '.', r == '&':
		return true
	default:
		return isSpace(r)
	}
}

// isSpace reports whether r is whitespace for trimming and cleaning: the
// ASCII controls, the Unicode space separators, the line and paragraph
// separators and the byte order mark. U+0085 is not whitespace here.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
