// =============================================================================
// Loan Aggregator - Summary Reports
// =============================================================================
//
// This module turns aggregated loan data into the views an operator reads:
// a tab-aligned table, chart series and an XLSX workbook. The XML rendering
// lives in the xmlwriter package and consumes the same Summary.
//
// TEXT LAYOUT:
//   Source:     loans.csv
//   Grouped by: grade
//   Filters:    home_ownership=rent
//
//   GROUP    TOTAL BALANCE  RECORDS
//   Grade A  $1,234.50      2
//
//   Showing 2 records out of 3 total records
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/loanagg/internal/aggregate"
	"github.com/ginjaninja78/loanagg/internal/converter"
	"github.com/ginjaninja78/loanagg/internal/types"
)

// NoDataMessage is shown when the source has no records at all.
const NoDataMessage = "No loan data available"

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the aggregated view of one input.
type Summary struct {
	// Source is the input file the records came from.
	Source string

	// GroupField is the field the groups are keyed on.
	GroupField types.Field

	// Criteria is the filter that was applied.
	Criteria types.FilterCriteria

	// Total is the number of records before filtering.
	Total int

	// Filtered is the number of records that passed the filter.
	Filtered int

	// NaNBalances counts filtered records whose balance is not a number.
	NaNBalances int

	// Groups holds one entry per distinct key, sorted by key.
	Groups []types.GroupAggregate
}

// Build filters records by criteria and groups the result by field.
//
// RETURNS:
//   - The summary.
//   - ErrUnknownField if field is not a LoanData field.
func Build(source string, records []types.LoanData, criteria types.FilterCriteria, field types.Field) (Summary, error) {
	filtered := aggregate.Filter(records, criteria)

	groups, err := aggregate.GroupBy(filtered, field)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Source:      source,
		GroupField:  field,
		Criteria:    criteria,
		Total:       len(records),
		Filtered:    len(filtered),
		NaNBalances: converter.CountNaN(filtered),
		Groups:      groups,
	}, nil
}

// StatusLine returns the record count line shown under the table.
func (s Summary) StatusLine() string {
	if s.Total == 0 {
		return NoDataMessage
	}
	return fmt.Sprintf("Showing %d records out of %d total records", s.Filtered, s.Total)
}

// DescribeCriteria renders the non-empty constraints as "column=value"
// pairs, or "none".
func DescribeCriteria(c types.FilterCriteria) string {
	pairs := []struct{ name, value string }{
		{types.ColumnHomeOwnership, c.HomeOwnership},
		{types.ColumnQuarter, c.Quarter},
		{types.ColumnTerm, c.Term},
		{types.ColumnYear, c.Year},
	}

	var parts []string
	for _, p := range pairs {
		if p.value != "" {
			parts = append(parts, p.name+"="+p.value)
		}
	}

	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// CHART AND FILTER VIEWS
// =============================================================================

// ChartPoint is one bar of the balance chart.
type ChartPoint struct {
	Label     string
	Key       string
	Total     float64
	Formatted string
	Count     int
}

// ChartData returns one point per group, in group order.
func ChartData(field types.Field, groups []types.GroupAggregate) []ChartPoint {
	points := make([]ChartPoint, len(groups))

	for i, g := range groups {
		points[i] = ChartPoint{
			Label:     Label(field, g.Key),
			Key:       g.Key,
			Total:     g.Total,
			Formatted: FormatCurrency(g.Total),
			Count:     g.Count,
		}
	}

	return points
}

// Options holds the selectable values of every filterable field.
type Options struct {
	HomeOwnership []string
	Quarter       []string
	Term          []string
	Year          []string
}

// FilterOptions collects the distinct values of each filterable field.
func FilterOptions(records []types.LoanData) Options {
	distinct := func(f types.Field) []string {
		values, _ := aggregate.DistinctValues(records, f)
		return values
	}

	return Options{
		HomeOwnership: distinct(types.FieldHomeOwnership),
		Quarter:       distinct(types.FieldQuarter),
		Term:          distinct(types.FieldTerm),
		Year:          distinct(types.FieldYear),
	}
}

// =============================================================================
// TEXT OUTPUT
// =============================================================================

// WriteText writes the summary as an aligned table.
func WriteText(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Source:\t%s\n", s.Source)
	fmt.Fprintf(tw, "Grouped by:\t%s\n", s.GroupField)
	fmt.Fprintf(tw, "Filters:\t%s\n", DescribeCriteria(s.Criteria))
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.Total == 0 {
		_, err := fmt.Fprintf(w, "\n%s\n", NoDataMessage)
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(tw, "GROUP\tTOTAL BALANCE\tRECORDS")
	for _, p := range ChartData(s.GroupField, s.Groups) {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", p.Label, p.Formatted, p.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.NaNBalances > 0 {
		fmt.Fprintf(w, "\n%d record(s) have a non-numeric balance\n", s.NaNBalances)
	}

	_, err := fmt.Fprintf(w, "\n%s\n", s.StatusLine())
	return err
}
