package converter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/loanagg/internal/normalizer"
	"github.com/ginjaninja78/loanagg/internal/types"
)

func TestTransform_FieldMapping(t *testing.T) {
	input := []types.NormalizedRecord{{
		"v_year":         "2023",
		"v_quarter":      "q1",
		"grade_2":        "2",
		"home_ownership": "rent",
		"term":           "60 months",
		"V1":             "13340.388479571",
	}}

	result := Transform(input)

	require.Len(t, result, 1)
	assert.Equal(t, types.LoanData{
		CurrentBalance: 13340.388479571,
		Grade:          "2",
		HomeOwnership:  "rent",
		Quarter:        "q1",
		Term:           "60 months",
		Year:           "2023",
	}, result[0])
}

func TestParseBalance(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"13340.388479571", 13340.388479571},
		{"$1,234,567.89", 1234567.89},
		{"1234567.89", 1234567.89},
		{"0.00", 0},
		{"-250.75", -250.75},
		{"$-1,000", -1000},
		{" 42 ", 42},
		{"1e3", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBalance(tt.input))
		})
	}
}

func TestParseBalance_NotANumber(t *testing.T) {
	for _, input := range []string{
		"invalid", "", "$", "12abc", "1.2.3", "--5",
		"inf", "+inf", "-inf", "infinity", "Infinity", "nan", "0x1p4", "1_000", ".", "1e",
	} {
		assert.True(t, math.IsNaN(ParseBalance(input)), "ParseBalance(%q) should be NaN", input)
	}
}

func TestParseBalance_OutOfRange(t *testing.T) {
	assert.True(t, math.IsInf(ParseBalance("1e400"), 1))
	assert.True(t, math.IsInf(ParseBalance("-1e400"), -1))
}

func TestParseBalance_DecimalForms(t *testing.T) {
	cases := map[string]float64{
		"+12":       12,
		"-3.5":      -3.5,
		".5":        0.5,
		"7.":        7,
		"1.5e3":     1500,
		"$2,000E-3": 2,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseBalance(input), "ParseBalance(%q)", input)
	}
}

func TestLoadRecords_InfinityWordsAreNaN(t *testing.T) {
	records := []types.RawRecord{
		{"V1": "Infinity", "grade_2": "A"},
		{"V1": "INF", "grade_2": "A"},
		{"V1": "+inf", "grade_2": "A"},
		{"V1": "0x1p4", "grade_2": "A"},
	}

	loans := LoadRecords(records, nil)

	require.Len(t, loans, 4)
	for i, loan := range loans {
		assert.True(t, math.IsNaN(loan.CurrentBalance), "record %d balance should be NaN", i)
	}
}

func TestTransform_InvalidBalanceIsNaN(t *testing.T) {
	result := Transform([]types.NormalizedRecord{{"V1": "invalid", "grade_2": "a"}})

	require.Len(t, result, 1)
	assert.True(t, math.IsNaN(result[0].CurrentBalance))
	assert.Equal(t, "a", result[0].Grade)
}

func TestTransform_MissingFields(t *testing.T) {
	result := Transform([]types.NormalizedRecord{{}})

	require.Len(t, result, 1)
	assert.True(t, math.IsNaN(result[0].CurrentBalance))
	assert.Equal(t, "", result[0].Grade)
	assert.Equal(t, "", result[0].Year)
}

func TestTransform_EmptyInput(t *testing.T) {
	result := Transform([]types.NormalizedRecord{})
	require.NotNil(t, result)
	assert.Empty(t, result)
}

func TestTransform_PreservesOrder(t *testing.T) {
	result := Transform([]types.NormalizedRecord{
		{"V1": "1", "grade_2": "c"},
		{"V1": "2", "grade_2": "a"},
		{"V1": "3", "grade_2": "b"},
	})

	require.Len(t, result, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{
		result[0].CurrentBalance, result[1].CurrentBalance, result[2].CurrentBalance,
	})
}

func TestLoadRecords(t *testing.T) {
	raw := []types.RawRecord{{
		"v_year":         " 2023 ",
		"v_quarter":      "Q1!",
		"grade_2":        "A",
		"home_ownership": "MORTGAGE%",
		"term":           "36 MONTHS",
		"V1":             "$1,234,567.89",
	}}

	loans := LoadRecords(raw, normalizer.DefaultStandardization)

	require.Len(t, loans, 1)
	assert.Equal(t, types.LoanData{
		CurrentBalance: 1234567.89,
		Grade:          "a",
		HomeOwnership:  "mortgage",
		Quarter:        "q1",
		Term:           "36 months",
		Year:           "2023",
	}, loans[0])
}

func TestCountNaN(t *testing.T) {
	loans := []types.LoanData{
		{CurrentBalance: 1},
		{CurrentBalance: math.NaN()},
		{CurrentBalance: math.NaN()},
	}
	assert.Equal(t, 2, CountNaN(loans))
	assert.Equal(t, 0, CountNaN(nil))
}
