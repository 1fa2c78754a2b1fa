// =============================================================================
// Loan Aggregator - Summarize Command
// =============================================================================
//
// This file defines the 'summarize' command, which runs the pipeline over one
// file or every export in the input directory.
//
// COMMAND USAGE:
//   loanagg summarize [flags]
//
// FLAGS:
//   --file           : Process only this file
//   --home-ownership : Keep only records with this home ownership
//   --quarter        : Keep only records from this quarter
//   --term           : Keep only records with this term
//   --year           : Keep only records from this year
//   --group-by       : Field to total by (default from config, "grade")
//   --format         : text, xml or xlsx
//   --dry-run        : Compute and print without writing or archiving
//
// Filter values are compared against cleaned data, so "RENT", " rent " and
// "rent" all select the same records.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loanagg/internal/normalizer"
	"github.com/ginjaninja78/loanagg/internal/pipeline"
	"github.com/ginjaninja78/loanagg/internal/report"
	"github.com/ginjaninja78/loanagg/internal/types"
	"github.com/ginjaninja78/loanagg/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	summarizeFile  string
	filterHome     string
	filterQuarter  string
	filterTerm     string
	filterYear     string
	groupByFlag    string
	formatFlag     string
	dryRun         bool
	writeRunReport bool
)

// =============================================================================
// SUMMARIZE COMMAND DEFINITION
// =============================================================================

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Total loan balances per grade",
	Long: `The summarize command reads loan exports, cleans them, applies the filters
and prints the total current balance per group.

Without --file every .csv and .xlsx file in the configured input directory is
processed concurrently. Errors in one file do not stop the others.

With --format xml or xlsx a report file is written to the output directory
for each input.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runSummarize(cmd)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summarizeFile, "file", "", "Process only this file")
	summarizeCmd.Flags().StringVar(&filterHome, "home-ownership", "", "Filter by home ownership")
	summarizeCmd.Flags().StringVar(&filterQuarter, "quarter", "", "Filter by quarter")
	summarizeCmd.Flags().StringVar(&filterTerm, "term", "", "Filter by term")
	summarizeCmd.Flags().StringVar(&filterYear, "year", "", "Filter by year")
	summarizeCmd.Flags().StringVar(&groupByFlag, "group-by", "", "Field to group by (grade, homeOwnership, quarter, term, year)")
	summarizeCmd.Flags().StringVar(&formatFlag, "format", "", "Output format: text, xml or xlsx")
	summarizeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute without writing outputs or archiving inputs")
	summarizeCmd.Flags().BoolVar(&writeRunReport, "run-report", false, "Write a run summary file to the output directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runSummarize(cmd *cobra.Command) error {
	startTime := time.Now()
	log := loggerFor(cmd)

	opts, err := summarizeOptions(cmd)
	if err != nil {
		return err
	}

	p := pipeline.New(appConfig, log)

	files, err := inputFiles(p)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No .csv or .xlsx files found in the input directory.")
		return nil
	}

	log.Info().Int("files", len(files)).Int("max_concurrency", appConfig.MaxConcurrency).Msg("starting run")

	results := p.RunAll(cmd.Context(), files, opts)

	out := cmd.OutOrStdout()
	failed := 0
	for i, result := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if !result.Success {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
			continue
		}
		if err := report.WriteText(out, result.Summary); err != nil {
			return err
		}
		if result.OutputFile != "" {
			fmt.Fprintf(out, "Report: %s\n", result.OutputFile)
		}
	}

	if writeRunReport && !opts.DryRun {
		path, err := writeRunSummary(p, runSummary(startTime, results))
		if err != nil {
			log.Warn().Err(err).Msg("failed to write run summary")
		} else {
			log.Info().Str("path", path).Msg("wrote run summary")
		}
	}

	log.Info().
		Int("files", len(results)).
		Int("failed", failed).
		Dur("elapsed", time.Since(startTime)).
		Msg("run complete")

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}
	return nil
}

// summarizeOptions layers command flags over the configured options. Filter
// flags are cleaned the same way record values are.
func summarizeOptions(cmd *cobra.Command) (pipeline.Options, error) {
	opts, err := pipeline.OptionsFromConfig(appConfig)
	if err != nil {
		return opts, err
	}

	flags := cmd.Flags()
	table := appConfig.StandardizationTable()

	overrides := []struct {
		flag   string
		column string
		value  string
		target *string
	}{
		{"home-ownership", types.ColumnHomeOwnership, filterHome, &opts.Criteria.HomeOwnership},
		{"quarter", types.ColumnQuarter, filterQuarter, &opts.Criteria.Quarter},
		{"term", types.ColumnTerm, filterTerm, &opts.Criteria.Term},
		{"year", types.ColumnYear, filterYear, &opts.Criteria.Year},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.target = normalizer.NormalizeValue(o.column, o.value, table)
		}
	}

	if flags.Changed("group-by") {
		field, err := types.ParseField(groupByFlag)
		if err != nil {
			return opts, err
		}
		opts.GroupBy = field
	}

	if flags.Changed("format") {
		switch formatFlag {
		case pipeline.FormatText, pipeline.FormatXML, pipeline.FormatXLSX:
			opts.Format = formatFlag
		default:
			return opts, fmt.Errorf("unknown format %q (want text, xml or xlsx)", formatFlag)
		}
	}

	opts.DryRun = dryRun
	return opts, nil
}

// inputFiles returns --file, or the exports in the input directory.
func inputFiles(p *pipeline.Pipeline) ([]string, error) {
	if summarizeFile != "" {
		if !utils.FileExists(summarizeFile) {
			return nil, fmt.Errorf("file not found: %s", summarizeFile)
		}
		return []string{summarizeFile}, nil
	}

	if _, err := os.Stat(appConfig.InputDir); err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}

	return p.Files().DiscoverInputFiles()
}

func writeRunSummary(p *pipeline.Pipeline, summary utils.ProcessingSummary) (string, error) {
	if err := p.Files().EnsureDirectories(); err != nil {
		return "", err
	}
	return utils.WriteSummaryLog(summary, appConfig.OutputDir)
}

// runSummary converts pipeline results into the run summary log shape.
func runSummary(start time.Time, results []pipeline.Result) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		StartTime:  start,
		EndTime:    time.Now(),
		TotalFiles: len(results),
	}

	for _, r := range results {
		if !r.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.FilePath,
				ErrorMessage: r.Error.Error(),
			})
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRecords += r.Summary.Total
		summary.MatchedRecords += r.Summary.Filtered
		summary.NaNBalances += r.Stats.NaNBalances
		summary.Findings += r.Stats.Findings
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   r.FilePath,
			OutputFile:  r.OutputFile,
			Records:     r.Summary.Total,
			Matched:     r.Summary.Filtered,
			Groups:      r.Stats.Groups,
			ProcessTime: r.Stats.ProcessingTime,
		})
	}

	return summary
}
