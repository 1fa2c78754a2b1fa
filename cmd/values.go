package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loanagg/internal/aggregate"
	"github.com/ginjaninja78/loanagg/internal/converter"
	"github.com/ginjaninja78/loanagg/internal/pipeline"
	"github.com/ginjaninja78/loanagg/internal/report"
	"github.com/ginjaninja78/loanagg/internal/types"
)

var (
	valuesFile  string
	valuesField string
)

// valuesCmd lists the distinct cleaned values of a field, i.e. the choices
// a filter on that field can take.
var valuesCmd = &cobra.Command{
	Use:   "values",
	Short: "List the distinct values of a loan field",
	Long: `List the sorted distinct values a field takes in a loan export, after
cleaning. Without --field the choices for every filterable field are shown.

Fields: currentBalance, grade, homeOwnership, quarter, term, year`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if valuesFile == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := pipeline.ReadInput(valuesFile, appConfig.CSVSettings)
		if err != nil {
			return err
		}
		loans := converter.LoadRecords(data.Records, appConfig.StandardizationTable())
		out := cmd.OutOrStdout()

		if valuesField == "" {
			opts := report.FilterOptions(loans)
			fmt.Fprintf(out, "%s: %s\n", types.FieldHomeOwnership, strings.Join(opts.HomeOwnership, ", "))
			fmt.Fprintf(out, "%s: %s\n", types.FieldQuarter, strings.Join(opts.Quarter, ", "))
			fmt.Fprintf(out, "%s: %s\n", types.FieldTerm, strings.Join(opts.Term, ", "))
			fmt.Fprintf(out, "%s: %s\n", types.FieldYear, strings.Join(opts.Year, ", "))
			return nil
		}

		field, err := types.ParseField(valuesField)
		if err != nil {
			return err
		}

		values, err := aggregate.DistinctValues(loans, field)
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Fprintln(out, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(valuesCmd)

	valuesCmd.Flags().StringVar(&valuesFile, "file", "", "Loan export to read (.csv or .xlsx)")
	valuesCmd.Flags().StringVar(&valuesField, "field", "", "Field to list")
}
