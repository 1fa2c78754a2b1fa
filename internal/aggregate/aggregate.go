// =============================================================================
// Loan Aggregator - Filter and Aggregation
// =============================================================================
//
// This module filters LoanData by field equality and groups the remaining
// records by a categorical field, summing the balance per group.
//
// GROUPING RULES:
//   - Groups are emitted in ascending byte-wise order of their key.
//   - A single NaN balance makes its group's total NaN.
//   - Balances inside a group are summed in sorted order, so any permutation
//     of the same records produces bit-identical totals.
//
// =============================================================================

package aggregate

import (
	"sort"

	"github.com/ginjaninja78/loanagg/internal/types"
)

// =============================================================================
// FILTERING
// =============================================================================

// Filter returns the records that satisfy every non-empty constraint in
// criteria. Matching is exact, case-sensitive string equality. The result
// is a new slice; order is preserved.
func Filter(records []types.LoanData, criteria types.FilterCriteria) []types.LoanData {
	filtered := make([]types.LoanData, 0, len(records))

	for _, record := range records {
		if Matches(record, criteria) {
			filtered = append(filtered, record)
		}
	}

	return filtered
}

// Matches reports whether a single record passes criteria.
func Matches(record types.LoanData, criteria types.FilterCriteria) bool {
	return matchField(criteria.HomeOwnership, record.HomeOwnership) &&
		matchField(criteria.Quarter, record.Quarter) &&
		matchField(criteria.Term, record.Term) &&
		matchField(criteria.Year, record.Year)
}

func matchField(want, got string) bool {
	return want == "" || want == got
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupBy partitions records by the string value of field and sums
// CurrentBalance per partition.
//
// RETURNS:
//   - One GroupAggregate per distinct value, sorted by key.
//   - ErrUnknownField if field does not name a LoanData field.
func GroupBy(records []types.LoanData, field types.Field) ([]types.GroupAggregate, error) {
	if _, err := (types.LoanData{}).Value(field); err != nil {
		return nil, err
	}

	balances := make(map[string][]float64)
	for _, record := range records {
		key, _ := record.Value(field)
		balances[key] = append(balances[key], record.CurrentBalance)
	}

	groups := make([]types.GroupAggregate, 0, len(balances))
	for key, values := range balances {
		groups = append(groups, types.GroupAggregate{
			Key:   key,
			Total: sum(values),
			Count: len(values),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})

	return groups, nil
}

// sum adds values in ascending order. sort.Float64s places NaN first, and
// NaN is absorbing under addition, so a NaN member yields a NaN total.
func sum(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	total := 0.0
	for _, v := range sorted {
		total += v
	}
	return total
}

// Aggregate filters records by criteria and groups the result by grade.
//
// RETURNS:
//   - filtered: The records passing criteria, in input order.
//   - groups: Per-grade totals, sorted by grade.
func Aggregate(records []types.LoanData, criteria types.FilterCriteria) ([]types.LoanData, []types.GroupAggregate) {
	filtered := Filter(records, criteria)

	// FieldGrade is always a valid field.
	groups, _ := GroupBy(filtered, types.FieldGrade)

	return filtered, groups
}

// =============================================================================
// DISTINCT VALUES
// =============================================================================

// DistinctValues returns the sorted, de-duplicated values that field takes
// across records. Used to populate filter choices.
func DistinctValues(records []types.LoanData, field types.Field) ([]string, error) {
	if _, err := (types.LoanData{}).Value(field); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(records))
	values := make([]string, 0)

	for _, record := range records {
		value, _ := record.Value(field)
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}

	sort.Strings(values)
	return values, nil
}
