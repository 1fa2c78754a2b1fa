// =============================================================================
// Loan Aggregator - Shared Types
// =============================================================================
//
// This package contains the record types that flow through the pipeline.
// They live here to avoid import cycles between:
//   - normalizer
//   - converter
//   - aggregate
//   - report / xmlwriter
//
// PIPELINE:
//   RawRecord -> NormalizedRecord -> LoanData -> GroupAggregate
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================
// Header names of the source loan-size export. Any other column is carried
// through normalization untouched.

const (
	ColumnYear          = "v_year"
	ColumnQuarter       = "v_quarter"
	ColumnGrade         = "grade_2"
	ColumnHomeOwnership = "home_ownership"
	ColumnTerm          = "term"
	ColumnBalance       = "V1"
)

// RequiredColumns lists the columns the Transformer reads.
var RequiredColumns = []string{
	ColumnYear,
	ColumnQuarter,
	ColumnGrade,
	ColumnHomeOwnership,
	ColumnTerm,
	ColumnBalance,
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// RawRecord is one tokenized CSV row keyed by header name.
// A field is absent when its key is not present in the map.
type RawRecord map[string]string

// NormalizedRecord has the same key set as the RawRecord it came from, with
// every value cleaned and standardized.
type NormalizedRecord map[string]string

// StandardizationTable maps a field name to a mapping from cleaned value to
// canonical value.
type StandardizationTable map[string]map[string]string

// LoanData is the canonical loan record.
type LoanData struct {
	// CurrentBalance is NaN when the source balance was not numeric.
	CurrentBalance float64

	Grade         string
	HomeOwnership string
	Quarter       string
	Term          string
	Year          string
}

// FilterCriteria holds optional equality constraints.
// An empty string matches every record for that field.
type FilterCriteria struct {
	HomeOwnership string `yaml:"home_ownership"`
	Quarter       string `yaml:"quarter"`
	Term          string `yaml:"term"`
	Year          string `yaml:"year"`
}

// IsEmpty reports whether no constraint is set.
func (c FilterCriteria) IsEmpty() bool {
	return c == FilterCriteria{}
}

// GroupAggregate is the summed balance of one group.
type GroupAggregate struct {
	// Key is the grouping field's value shared by every member.
	Key string

	// Total is the sum of CurrentBalance over the group. NaN if any member
	// balance is NaN.
	Total float64

	// Count is the number of records in the group.
	Count int
}

// =============================================================================
// FIELD SELECTORS
// =============================================================================

// Field names a LoanData field.
type Field string

const (
	FieldCurrentBalance Field = "currentBalance"
	FieldGrade          Field = "grade"
	FieldHomeOwnership  Field = "homeOwnership"
	FieldQuarter        Field = "quarter"
	FieldTerm           Field = "term"
	FieldYear           Field = "year"
)

// ErrUnknownField is returned when a field name does not match a LoanData field.
var ErrUnknownField = errors.New("unknown field")

// Fields lists every selectable field.
var Fields = []Field{
	FieldCurrentBalance,
	FieldGrade,
	FieldHomeOwnership,
	FieldQuarter,
	FieldTerm,
	FieldYear,
}

// ParseField converts a field name to a Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Value returns the string form of field f on the record.
// The balance is rendered in its shortest round-trip form ("NaN" for NaN).
func (l LoanData) Value(f Field) (string, error) {
	switch f {
	case FieldCurrentBalance:
		return strconv.FormatFloat(l.CurrentBalance, 'f', -1, 64), nil
	case FieldGrade:
		return l.Grade, nil
	case FieldHomeOwnership:
		return l.HomeOwnership, nil
	case FieldQuarter:
		return l.Quarter, nil
	case FieldTerm:
		return l.Term, nil
	case FieldYear:
		return l.Year, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
}
