package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/loanagg/internal/types"
)

func loans() []types.LoanData {
	return []types.LoanData{
		{CurrentBalance: 1000, Grade: "b", HomeOwnership: "rent", Quarter: "q1", Term: "36 months", Year: "2023"},
		{CurrentBalance: 2500.5, Grade: "a", HomeOwnership: "mortgage", Quarter: "q1", Term: "60 months", Year: "2023"},
		{CurrentBalance: 0.1, Grade: "a", HomeOwnership: "own", Quarter: "q2", Term: "60 months", Year: "2024"},
		{CurrentBalance: 0.2, Grade: "c", HomeOwnership: "rent", Quarter: "q3", Term: "36 months", Year: "2024"},
		{CurrentBalance: 0.3, Grade: "a", HomeOwnership: "rent", Quarter: "q2", Term: "60 months", Year: "2024"},
	}
}

func TestFilter_EmptyCriteriaReturnsAll(t *testing.T) {
	records := loans()
	assert.Equal(t, records, Filter(records, types.FilterCriteria{}))
}

func TestFilter_SingleConstraint(t *testing.T) {
	result := Filter(loans(), types.FilterCriteria{Term: "60 months"})

	require.Len(t, result, 3)
	for _, r := range result {
		assert.Equal(t, "60 months", r.Term)
	}
	assert.Equal(t, 2500.5, result[0].CurrentBalance, "input order is kept")
}

func TestFilter_CombinedConstraints(t *testing.T) {
	result := Filter(loans(), types.FilterCriteria{HomeOwnership: "rent", Year: "2024"})

	require.Len(t, result, 2)
	assert.Equal(t, "c", result[0].Grade)
	assert.Equal(t, "a", result[1].Grade)
}

func TestFilter_IsCaseSensitive(t *testing.T) {
	assert.Empty(t, Filter(loans(), types.FilterCriteria{Quarter: "Q1"}))
}

func TestFilter_EmptyInput(t *testing.T) {
	result := Filter(nil, types.FilterCriteria{Term: "60 months"})
	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestAggregate_GroupsByGradeSorted(t *testing.T) {
	filtered, groups := Aggregate(loans(), types.FilterCriteria{})

	assert.Len(t, filtered, 5)
	require.Len(t, groups, 3)
	assert.Equal(t, "a", groups[0].Key)
	assert.Equal(t, "b", groups[1].Key)
	assert.Equal(t, "c", groups[2].Key)

	assert.InDelta(t, 2500.9, groups[0].Total, 1e-9)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, 1000.0, groups[1].Total)
}

func TestAggregate_AppliesFilterFirst(t *testing.T) {
	filtered, groups := Aggregate(loans(), types.FilterCriteria{Quarter: "q1"})

	assert.Len(t, filtered, 2)
	assert.Equal(t, []types.GroupAggregate{
		{Key: "a", Total: 2500.5, Count: 1},
		{Key: "b", Total: 1000, Count: 1},
	}, groups)
}

func TestAggregate_PermutationInvariant(t *testing.T) {
	records := loans()
	reversed := make([]types.LoanData, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	rotated := append(append([]types.LoanData{}, records[2:]...), records[:2]...)

	_, want := Aggregate(records, types.FilterCriteria{})
	_, gotReversed := Aggregate(reversed, types.FilterCriteria{})
	_, gotRotated := Aggregate(rotated, types.FilterCriteria{})

	assert.Equal(t, want, gotReversed)
	assert.Equal(t, want, gotRotated)
}

func TestAggregate_NaNPoisonsGroup(t *testing.T) {
	records := append(loans(), types.LoanData{CurrentBalance: math.NaN(), Grade: "b"})

	_, groups := Aggregate(records, types.FilterCriteria{})

	require.Len(t, groups, 3)
	assert.False(t, math.IsNaN(groups[0].Total))
	assert.True(t, math.IsNaN(groups[1].Total))
	assert.Equal(t, 2, groups[1].Count)
	assert.False(t, math.IsNaN(groups[2].Total))
}

func TestAggregate_EmptyInput(t *testing.T) {
	filtered, groups := Aggregate(nil, types.FilterCriteria{})

	assert.Empty(t, filtered)
	require.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupBy_OtherField(t *testing.T) {
	groups, err := GroupBy(loans(), types.FieldHomeOwnership)
	require.NoError(t, err)

	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"mortgage", "own", "rent"}, keys)
}

func TestGroupBy_UnknownField(t *testing.T) {
	_, err := GroupBy(nil, types.Field("nope"))
	assert.True(t, errors.Is(err, types.ErrUnknownField))
}

func TestDistinctValues(t *testing.T) {
	records := []types.LoanData{{Grade: "b"}, {Grade: "a"}, {Grade: "a"}}

	values, err := DistinctValues(records, types.FieldGrade)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values)
}

func TestDistinctValues_AllFields(t *testing.T) {
	tests := []struct {
		field types.Field
		want  []string
	}{
		{types.FieldHomeOwnership, []string{"mortgage", "own", "rent"}},
		{types.FieldQuarter, []string{"q1", "q2", "q3"}},
		{types.FieldTerm, []string{"36 months", "60 months"}},
		{types.FieldYear, []string{"2023", "2024"}},
		{types.FieldCurrentBalance, []string{"0.1", "0.2", "0.3", "1000", "2500.5"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			values, err := DistinctValues(loans(), tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, values)
		})
	}
}

func TestDistinctValues_EmptyInput(t *testing.T) {
	values, err := DistinctValues(nil, types.FieldYear)
	require.NoError(t, err)
	require.NotNil(t, values)
	assert.Empty(t, values)
}

func TestDistinctValues_UnknownField(t *testing.T) {
	_, err := DistinctValues(loans(), types.Field("balance"))
	assert.ErrorIs(t, err, types.ErrUnknownField)
}
