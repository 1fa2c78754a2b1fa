package pipeline

import (
	"context"
	"encoding/xml"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/loanagg/internal/config"
	"github.com/ginjaninja78/loanagg/internal/report"
	"github.com/ginjaninja78/loanagg/internal/types"
)

const loansCSV = `v_year,v_quarter,grade_2,home_ownership,term,V1,extra
2023,Q1,A,MORTGAGE,36 months,"$1,000.00",x
2023,Q1,A,RENT,36 months,$250.50,y
2023,Q2,B, RENT ,60 months,$300,z
2024,Q1,B,OWN,36 months,n/a,w
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.ArchiveDir = filepath.Join(root, "archive")
	cfg.MaxConcurrency = 2

	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	return cfg
}

func writeInput(t *testing.T, cfg *config.Config, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func gradeOptions() Options {
	return Options{GroupBy: types.FieldGrade, Format: FormatText}
}

func TestRun_TextSummary(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, gradeOptions())
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Empty(t, result.OutputFile)

	s := result.Summary
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 4, s.Filtered)
	require.Len(t, s.Groups, 2)

	assert.Equal(t, "a", s.Groups[0].Key)
	assert.Equal(t, 1250.5, s.Groups[0].Total)
	assert.Equal(t, 2, s.Groups[0].Count)

	assert.Equal(t, "b", s.Groups[1].Key)
	assert.True(t, math.IsNaN(s.Groups[1].Total), "non-numeric balance poisons its group")
	assert.Equal(t, 1, result.Stats.NaNBalances)

	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
	assert.Equal(t, 1, result.Validation.WarningCount)
	assert.NotEmpty(t, result.FindingsLog)
	assert.FileExists(t, result.FindingsLog)
}

func TestRun_Filter(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	opts := gradeOptions()
	opts.Criteria = types.FilterCriteria{HomeOwnership: "rent"}
	opts.DryRun = true

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, opts)
	require.NoError(t, result.Error)

	s := result.Summary
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Filtered)
	assert.Equal(t, []types.GroupAggregate{
		{Key: "a", Total: 250.5, Count: 1},
		{Key: "b", Total: 300, Count: 1},
	}, s.Groups)
	assert.Empty(t, result.FindingsLog, "dry run writes nothing")
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_XMLOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputNameFormat = "{source}_summary"
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	opts := gradeOptions()
	opts.Format = FormatXML

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, opts)
	require.NoError(t, result.Error)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "loans_summary.xml"), result.OutputFile)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)

	var doc struct {
		Groups []struct {
			Key string `xml:"key,attr"`
		} `xml:"group"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "a", doc.Groups[0].Key)
}

func TestRun_XLSXOutputAndArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchiveProcessed = true
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	opts := gradeOptions()
	opts.Format = FormatXLSX

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, opts)
	require.NoError(t, result.Error)
	assert.True(t, strings.HasSuffix(result.OutputFile, ".xlsx"))

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.SummarySheet}, f.GetSheetList())

	assert.Equal(t, filepath.Join(cfg.ArchiveDir, "loans.csv"), result.ArchivePath)
	assert.NoFileExists(t, input)
}

func TestRun_EmptyFileFails(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "empty.csv", "")

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, gradeOptions())
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestRun_HeaderOnly(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "header.csv", "v_year,v_quarter,grade_2,home_ownership,term,V1\n")

	opts := gradeOptions()
	opts.DryRun = true

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, opts)
	require.NoError(t, result.Error)
	assert.Equal(t, 0, result.Summary.Total)
	assert.Empty(t, result.Summary.Groups)
	assert.Equal(t, report.NoDataMessage, result.Summary.StatusLine())
}

func TestRun_UnknownGroupField(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	opts := gradeOptions()
	opts.GroupBy = types.Field("color")

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, opts)
	assert.ErrorIs(t, result.Error, types.ErrUnknownField)
}

func TestRun_CanceledContext(t *testing.T) {
	cfg := testConfig(t)
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(cfg, zerolog.Nop()).Run(ctx, input, gradeOptions())
	assert.ErrorIs(t, result.Error, context.Canceled)
}

func TestRunAll_PreservesOrder(t *testing.T) {
	cfg := testConfig(t)
	files := []string{
		writeInput(t, cfg, "a.csv", loansCSV),
		writeInput(t, cfg, "b.csv", ""),
		writeInput(t, cfg, "c.csv", loansCSV),
	}

	opts := gradeOptions()
	opts.DryRun = true

	results := New(cfg, zerolog.Nop()).RunAll(context.Background(), files, opts)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, files[i], r.FilePath)
	}
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
}

func TestReadInput_Unsupported(t *testing.T) {
	_, err := ReadInput("loans.json", config.Default().CSVSettings)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.GroupBy = "term"
	cfg.Filters = types.FilterCriteria{Year: "2023"}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.FieldTerm, opts.GroupBy)
	assert.Equal(t, "2023", opts.Criteria.Year)
	assert.Equal(t, FormatText, opts.Format)
}

func TestOptionsFromConfig_CleansFilters(t *testing.T) {
	cfg := config.Default()
	cfg.Filters = types.FilterCriteria{HomeOwnership: " RENT ", Quarter: "Q1"}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.FilterCriteria{HomeOwnership: "rent", Quarter: "q1"}, opts.Criteria)
}

func TestRun_ConfigFilterFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("filters:\n  home_ownership: RENT\n"), 0644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	cfg.InputDir = filepath.Join(dir, "input")
	cfg.OutputDir = filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	input := writeInput(t, cfg, "loans.csv", loansCSV)

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	opts.DryRun = true

	result := New(cfg, zerolog.Nop()).Run(context.Background(), input, opts)
	require.NoError(t, result.Error)
	assert.Equal(t, "rent", result.Summary.Criteria.HomeOwnership)
	assert.Equal(t, 4, result.Summary.Total)
	assert.Equal(t, 2, result.Summary.Filtered)
}
