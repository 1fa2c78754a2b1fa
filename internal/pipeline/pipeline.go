// =============================================================================
// Loan Aggregator - Pipeline Module
// =============================================================================
//
// This module orchestrates the processing of a single loan export, from
// reading the file to writing the summary report.
//
// PIPELINE:
//   1. Read the input (CSV or XLSX) into RawRecords
//   2. Check headers and records, logging findings
//   3. Normalize and transform into LoanData
//   4. Filter and group
//   5. Write the report (XML or XLSX) and the findings log
//   6. Archive the input
//
// Steps 5 and 6 are skipped in dry-run mode. Text output writes no report
// file; the caller prints it from Result.Summary.
//
// CONCURRENCY:
//   A Pipeline holds no per-file state, so RunAll processes files in
//   parallel, bounded by the configured concurrency.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/loanagg/internal/config"
	"github.com/ginjaninja78/loanagg/internal/converter"
	"github.com/ginjaninja78/loanagg/internal/csvparser"
	"github.com/ginjaninja78/loanagg/internal/normalizer"
	"github.com/ginjaninja78/loanagg/internal/report"
	"github.com/ginjaninja78/loanagg/internal/types"
	"github.com/ginjaninja78/loanagg/internal/validation"
	"github.com/ginjaninja78/loanagg/internal/xlsxparser"
	"github.com/ginjaninja78/loanagg/internal/xmlwriter"
	"github.com/ginjaninja78/loanagg/pkg/utils"
)

// Output formats.
const (
	FormatText = "text"
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
)

// ErrUnsupportedInput is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedInput = errors.New("unsupported input file type")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the written report. Empty for text output,
	// dry runs and failures.
	OutputFile string

	// FindingsLog is the path to the findings log, if one was written.
	FindingsLog string

	// ArchivePath is where the input was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Summary holds the aggregated view.
	Summary report.Summary

	// Validation holds the input findings.
	Validation *validation.ValidationResult

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of non-blank data rows in the input.
	RowsRead int

	// ShortRows is the number of rows with fewer fields than headers.
	ShortRows int

	// RecordsMatched is the number of records that passed the filter.
	RecordsMatched int

	// Groups is the number of groups in the summary.
	Groups int

	// NaNBalances is the number of matched records with a non-numeric balance.
	NaNBalances int

	// Findings is the number of validation findings.
	Findings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls a run.
type Options struct {
	Criteria types.FilterCriteria
	GroupBy  types.Field
	Format   string
	DryRun   bool
}

// OptionsFromConfig returns the options configured in cfg. Configured
// filters are cleaned with the resolved standardization table.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	field, err := cfg.GroupField()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Criteria: normalizer.NormalizeCriteria(cfg.Filters, cfg.StandardizationTable()),
		GroupBy:  field,
		Format:   cfg.OutputFormat,
	}, nil
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline processes loan exports according to a configuration.
type Pipeline struct {
	cfg    *config.Config
	table  types.StandardizationTable
	files  *utils.FileManager
	logger zerolog.Logger
}

// New creates a Pipeline. The standardization table is resolved once here.
func New(cfg *config.Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		table:  cfg.StandardizationTable(),
		files:  utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir, cfg.ArchiveProcessed),
		logger: logger,
	}
}

// Files returns the file manager the pipeline writes through.
func (p *Pipeline) Files() *utils.FileManager {
	return p.files
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for one file.
//
// RETURNS:
//   - A Result describing the outcome. Failures are reported in
//     Result.Error rather than returned, so one bad file does not stop a
//     batch.
func (p *Pipeline) Run(ctx context.Context, filePath string, opts Options) Result {
	startTime := time.Now()
	result := Result{FilePath: filePath}
	log := p.logger.With().Str("file", filePath).Logger()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	log.Info().Msg("processing file")

	data, err := ReadInput(filePath, p.cfg.CSVSettings)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	result.Stats.RowsRead = len(data.Records)
	result.Stats.ShortRows = data.ShortRows
	log.Debug().Int("rows", len(data.Records)).Int("short_rows", data.ShortRows).Msg("parsed input")

	// =========================================================================
	// STEP 2: CHECK INPUT
	// =========================================================================
	// Findings never stop processing; they explain NaN totals and empty keys.

	result.Validation = validation.Validate(data.Headers, data.Records, p.table)
	result.Stats.Findings = len(result.Validation.Errors)

	for _, finding := range result.Validation.Errors {
		event := log.Debug()
		if finding.Severity == validation.SeverityError {
			event = log.Warn()
		}
		event.Str("rule", finding.Rule).Int("row", finding.RowNumber).Str("field", finding.Field).Msg(finding.Message)
	}
	if result.Validation.WarningCount > 0 {
		log.Warn().Int("warnings", result.Validation.WarningCount).Msg("input has warnings")
	}

	// =========================================================================
	// STEP 3: NORMALIZE AND TRANSFORM
	// =========================================================================

	loans := converter.LoadRecords(data.Records, p.table)

	// =========================================================================
	// STEP 4: FILTER AND GROUP
	// =========================================================================

	summary, err := report.Build(filePath, loans, opts.Criteria, opts.GroupBy)
	if err != nil {
		result.Error = fmt.Errorf("failed to aggregate: %w", err)
		return result
	}

	result.Summary = summary
	result.Stats.RecordsMatched = summary.Filtered
	result.Stats.Groups = len(summary.Groups)
	result.Stats.NaNBalances = summary.NaNBalances

	log.Info().
		Int("records", summary.Total).
		Int("matched", summary.Filtered).
		Int("groups", len(summary.Groups)).
		Int("nan_balances", summary.NaNBalances).
		Msg("aggregated")

	if opts.DryRun {
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUTS
	// =========================================================================

	outputPath, err := p.writeReport(summary, opts.Format)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	if outputPath != "" {
		log.Info().Str("output", outputPath).Msg("wrote report")
	}

	if logPath, err := p.writeFindings(filePath, result.Validation); err != nil {
		log.Warn().Err(err).Msg("failed to write findings log")
	} else {
		result.FindingsLog = logPath
	}

	// =========================================================================
	// STEP 6: ARCHIVE INPUT
	// =========================================================================

	if p.files.ArchiveOnSuccess {
		archived, err := p.files.ArchiveInputFile(filePath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to archive input")
		} else {
			result.ArchivePath = archived
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}

// RunAll processes files concurrently, at most cfg.MaxConcurrency at a time.
// Results are returned in the order of files.
func (p *Pipeline) RunAll(ctx context.Context, files []string, opts Options) []Result {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = p.Run(ctx, file, opts)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ReadInput reads a CSV or XLSX file, chosen by extension.
func ReadInput(filePath string, settings config.CSVSettings) (*csvparser.CSVData, error) {
	switch {
	case utils.HasExtension(filePath, ".csv"):
		return csvparser.Parse(filePath, settings)
	case utils.HasExtension(filePath, ".xlsx"):
		return xlsxparser.Parse(filePath, settings)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(filePath))
	}
}

// writeReport writes the summary in the requested format. Text output is
// left to the caller and yields an empty path.
func (p *Pipeline) writeReport(summary report.Summary, format string) (string, error) {
	if format == FormatText || format == "" {
		return "", nil
	}

	if err := p.files.EnsureDirectories(); err != nil {
		return "", err
	}

	name := utils.GenerateOutputFileName(p.cfg.OutputNameFormat, "."+format, map[string]string{
		"source": utils.SourceName(summary.Source),
	})
	outputPath := filepath.Join(p.cfg.OutputDir, name)

	switch format {
	case FormatXML:
		doc, err := xmlwriter.Generate(summary)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(outputPath, doc, 0644); err != nil {
			return "", err
		}
	case FormatXLSX:
		if err := report.WriteXLSX(outputPath, summary); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}

	return outputPath, nil
}

// writeFindings writes the findings log for an input next to its report.
func (p *Pipeline) writeFindings(filePath string, checks *validation.ValidationResult) (string, error) {
	if checks == nil || len(checks.Errors) == 0 {
		return "", nil
	}

	if err := p.files.EnsureDirectories(); err != nil {
		return "", err
	}

	entries := make([]utils.ErrorLogEntry, len(checks.Errors))
	for i, finding := range checks.Errors {
		entries[i] = utils.ErrorLogEntry{
			FileName:   filepath.Base(filePath),
			Severity:   finding.Severity,
			Rule:       finding.Rule,
			Message:    finding.Message,
			RowNumber:  finding.RowNumber,
			FieldName:  finding.Field,
			FieldValue: finding.Value,
		}
	}

	name := utils.GenerateOutputFileName("{source}_findings_{timestamp}", ".txt", map[string]string{
		"source": utils.SourceName(filePath),
	})
	return utils.WriteErrorLog(entries, p.cfg.OutputDir, name)
}
