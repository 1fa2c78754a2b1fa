package report

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loanagg/internal/types"
)

func sampleLoans() []types.LoanData {
	return []types.LoanData{
		{CurrentBalance: 1000, Grade: "a", HomeOwnership: "rent", Quarter: "q1", Term: "36 months", Year: "2023"},
		{CurrentBalance: 234.5, Grade: "a", HomeOwnership: "rent", Quarter: "q2", Term: "60 months", Year: "2023"},
		{CurrentBalance: 500, Grade: "b", HomeOwnership: "own", Quarter: "q1", Term: "36 months", Year: "2024"},
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{1234.5, "$1,234.50"},
		{999.999, "$1,000.00"},
		{1234567.891, "$1,234,567.89"},
		{-12, "-$12.00"},
		{-0.001, "$0.00"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "$Inf"},
		{math.Inf(-1), "-$Inf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in), "input %v", tt.in)
	}
}

func TestFormatMillions(t *testing.T) {
	assert.Equal(t, "$1.2M", FormatMillions(1_234_567))
	assert.Equal(t, "$0.0M", FormatMillions(0))
	assert.Equal(t, "$15.0M", FormatMillions(15_000_000))
	assert.Equal(t, "-$2.5M", FormatMillions(-2_500_000))
	assert.Equal(t, "NaN", FormatMillions(math.NaN()))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "1", groupThousands("1"))
	assert.Equal(t, "123", groupThousands("123"))
	assert.Equal(t, "1,234", groupThousands("1234"))
	assert.Equal(t, "123,456", groupThousands("123456"))
	assert.Equal(t, "1,234,567", groupThousands("1234567"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Grade A", GradeLabel("a"))
	assert.Equal(t, "Mortgage", Capitalize("mortgage"))
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Grade B", Label(types.FieldGrade, "b"))
	assert.Equal(t, "Q1", Label(types.FieldQuarter, "q1"))
	assert.Equal(t, "12.5", Label(types.FieldCurrentBalance, "12.5"))
}

func TestBuild(t *testing.T) {
	s, err := Build("loans.csv", sampleLoans(), types.FilterCriteria{HomeOwnership: "rent"}, types.FieldGrade)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Filtered)
	assert.Equal(t, 0, s.NaNBalances)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, types.GroupAggregate{Key: "a", Total: 1234.5, Count: 2}, s.Groups[0])
	assert.Equal(t, "Showing 2 records out of 3 total records", s.StatusLine())
}

func TestBuild_UnknownField(t *testing.T) {
	_, err := Build("loans.csv", sampleLoans(), types.FilterCriteria{}, types.Field("nope"))
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestStatusLine_NoData(t *testing.T) {
	s, err := Build("empty.csv", nil, types.FilterCriteria{}, types.FieldGrade)
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, s.StatusLine())
}

func TestDescribeCriteria(t *testing.T) {
	assert.Equal(t, "none", DescribeCriteria(types.FilterCriteria{}))
	assert.Equal(t, "home_ownership=rent, v_year=2023",
		DescribeCriteria(types.FilterCriteria{HomeOwnership: "rent", Year: "2023"}))
}

func TestChartData(t *testing.T) {
	groups := []types.GroupAggregate{
		{Key: "a", Total: 1234.5, Count: 2},
		{Key: "b", Total: math.NaN(), Count: 1},
	}

	points := ChartData(types.FieldGrade, groups)
	require.Len(t, points, 2)
	assert.Equal(t, "Grade A", points[0].Label)
	assert.Equal(t, "$1,234.50", points[0].Formatted)
	assert.Equal(t, 2, points[0].Count)
	assert.Equal(t, "NaN", points[1].Formatted)
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(sampleLoans())

	assert.Equal(t, []string{"own", "rent"}, opts.HomeOwnership)
	assert.Equal(t, []string{"q1", "q2"}, opts.Quarter)
	assert.Equal(t, []string{"36 months", "60 months"}, opts.Term)
	assert.Equal(t, []string{"2023", "2024"}, opts.Year)
}

func TestWriteText(t *testing.T) {
	s, err := Build("loans.csv", sampleLoans(), types.FilterCriteria{}, types.FieldGrade)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "loans.csv")
	assert.Contains(t, out, "Filters:     none")
	assert.Contains(t, out, "GROUP")
	assert.Regexp(t, `Grade A\s+\$1,234\.50\s+2`, out)
	assert.Regexp(t, `Grade B\s+\$500\.00\s+1`, out)
	assert.Contains(t, out, "Showing 3 records out of 3 total records")
	assert.NotContains(t, out, "non-numeric")
}

func TestWriteText_NoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Summary{Source: "empty.csv", GroupField: types.FieldGrade}))

	assert.Contains(t, buf.String(), NoDataMessage)
	assert.NotContains(t, buf.String(), "GROUP")
}

func TestWriteText_ReportsNaN(t *testing.T) {
	loans := append(sampleLoans(), types.LoanData{CurrentBalance: math.NaN(), Grade: "b"})
	s, err := Build("loans.csv", loans, types.FilterCriteria{}, types.FieldGrade)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, s))
	assert.Contains(t, buf.String(), "1 record(s) have a non-numeric balance")
	assert.Regexp(t, `Grade B\s+NaN\s+2`, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	loans := append(sampleLoans(), types.LoanData{CurrentBalance: math.NaN(), Grade: "c"})
	s, err := Build("loans.csv", loans, types.FilterCriteria{}, types.FieldGrade)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, WriteXLSX(path, s))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	cell := func(name string) string {
		v, err := f.GetCellValue(SummarySheet, name, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Group", cell("A1"))
	assert.Equal(t, "Total Balance", cell("C1"))
	assert.Equal(t, "a", cell("A2"))
	assert.Equal(t, "Grade A", cell("B2"))
	assert.Equal(t, "1234.5", cell("C2"))
	assert.Equal(t, "2", cell("D2"))
	assert.Equal(t, "NaN", cell("C4"))
	assert.Equal(t, "Filters: none", cell("A6"))
	assert.Equal(t, "Showing 4 records out of 4 total records", cell("A7"))
}
