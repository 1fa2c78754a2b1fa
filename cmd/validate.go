// =============================================================================
// Loan Aggregator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and, optionally, loan exports without aggregating anything.
//
// COMMAND USAGE:
//   loanagg validate                   # configuration only
//   loanagg validate --file loans.csv  # configuration and one export
//   loanagg validate --all             # configuration and every export
//
// Missing required columns fail the command. Row-level findings (missing
// values, non-numeric balances, malformed years) are printed as warnings.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loanagg/internal/pipeline"
	"github.com/ginjaninja78/loanagg/internal/validation"
	"github.com/ginjaninja78/loanagg/pkg/utils"
)

var (
	validateFile string
	validateAll  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and loan exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Configuration OK (input: %s, output: %s, group by: %s, format: %s)\n",
			appConfig.InputDir, appConfig.OutputDir, appConfig.GroupBy, appConfig.OutputFormat)

		var files []string
		switch {
		case validateFile != "":
			files = []string{validateFile}
		case validateAll:
			fm := utils.NewFileManager(appConfig.InputDir, appConfig.OutputDir, appConfig.ArchiveDir, false)
			found, err := fm.DiscoverInputFiles()
			if err != nil {
				return err
			}
			files = found
		}

		table := appConfig.StandardizationTable()
		invalid := 0

		for _, file := range files {
			data, err := pipeline.ReadInput(file, appConfig.CSVSettings)
			if err != nil {
				invalid++
				fmt.Fprintf(out, "\n%s: %v\n", file, err)
				continue
			}

			result := validation.Validate(data.Headers, data.Records, table)
			if !result.IsValid {
				invalid++
			}

			fmt.Fprintf(out, "\n%s: %d row(s), %d error(s), %d warning(s)\n",
				file, result.RowsChecked, result.ErrorCount, result.WarningCount)
			if len(result.Errors) > 0 {
				fmt.Fprint(out, validation.FormatErrors(result.Errors))
			}
		}

		if invalid > 0 {
			return fmt.Errorf("%d of %d file(s) failed validation", invalid, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFile, "file", "", "Loan export to check")
	validateCmd.Flags().BoolVar(&validateAll, "all", false, "Check every export in the input directory")
}
