// =============================================================================
// Loan Aggregator - Configuration Module
// =============================================================================
//
// This module loads the application configuration.
//
// SOURCES (later sources win):
//   1. Built-in defaults (applyDefaults)
//   2. The YAML file given by --config (optional; a missing file is fine)
//   3. LOANAGG_* environment variables
//
// After loading, the configuration is validated with struct tags.
//
// EXAMPLE FILE:
//   input_dir: ./input
//   output_dir: ./output
//   output_format: xlsx
//   group_by: grade
//   filters:
//     term: 60 months
//   standardization:
//     home_ownership:
//       OWNED: own
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/loanagg/internal/normalizer"
	"github.com/ginjaninja78/loanagg/internal/types"
)

// EnvPrefix is the prefix for environment overrides, e.g. LOANAGG_LOG_LEVEL.
const EnvPrefix = "LOANAGG"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .csv and .xlsx files when no --file is given.
	// Default: "./input"
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`

	// OutputDir receives XML and XLSX reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`

	// ArchiveDir receives input files after a successful run when
	// ArchiveProcessed is set.
	// Default: "./input_archive"
	ArchiveDir string `yaml:"archive_dir" envconfig:"ARCHIVE_DIR"`

	// ArchiveProcessed moves processed input files into ArchiveDir.
	// Default: false
	ArchiveProcessed bool `yaml:"archive_processed" envconfig:"ARCHIVE_PROCESSED"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=1"`

	// GroupBy is the LoanData field the summary groups on.
	// Default: "grade"
	GroupBy string `yaml:"group_by" envconfig:"GROUP_BY" validate:"oneof=currentBalance grade homeOwnership quarter term year"`

	// Filters are the default filter criteria. Command-line flags override
	// individual fields.
	Filters types.FilterCriteria `yaml:"filters" envconfig:"FILTERS"`

	// CSVSettings controls tokenization of the input files.
	CSVSettings CSVSettings `yaml:"csv_settings" envconfig:"CSV"`

	// =========================================================================
	// STANDARDIZATION
	// =========================================================================

	// Standardization holds extra lookups, keyed by column name then by
	// value. Keys are cleaned on load, so "MORTGAGE" and "mortgage" are the
	// same key.
	Standardization types.StandardizationTable `yaml:"standardization" ignored:"true"`

	// ReplaceDefaultStandardization uses Standardization on its own instead
	// of merging it over normalizer.DefaultStandardization.
	ReplaceDefaultStandardization bool `yaml:"replace_default_standardization" envconfig:"REPLACE_DEFAULT_STANDARDIZATION"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat selects the report written for each input file.
	// Valid values: "text" (stdout only), "xml", "xlsx"
	// Default: "text"
	OutputFormat string `yaml:"output_format" envconfig:"OUTPUT_FORMAT" validate:"oneof=text xml xlsx"`

	// OutputNameFormat is the report file name pattern.
	// Placeholders: {uuid}, {timestamp}, {date}, {source}
	// Default: "{source}_summary_{timestamp}"
	OutputNameFormat string `yaml:"output_name_format" envconfig:"OUTPUT_NAME_FORMAT" validate:"required"`
}

// CSVSettings contains settings for tokenizing input files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"required"`

	// HeaderRows is the number of header rows; multiple rows are merged
	// column-wise with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows" envconfig:"HEADER_ROWS" validate:"gte=1"`

	// SheetName selects the worksheet for .xlsx inputs. Empty means the
	// first sheet.
	SheetName string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at path, overlays environment
// variables and validates the result.
//
// RETURNS:
//   - The loaded configuration. If path does not exist, defaults are used.
//   - An error if the file cannot be parsed or the result is invalid.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Run on defaults.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./input_archive"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.GroupBy == "" {
		cfg.GroupBy = string(types.FieldGrade)
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "{source}_summary_{timestamp}"
	}
	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.CSVSettings.HeaderRows == 0 {
		cfg.CSVSettings.HeaderRows = 1
	}
}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct-tag constraints of cfg.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// StandardizationTable returns the table the normalizer should use: the
// configured lookups merged over the default table, or on their own when
// ReplaceDefaultStandardization is set.
func (c *Config) StandardizationTable() types.StandardizationTable {
	configured := normalizer.CleanTable(c.Standardization)

	if c.ReplaceDefaultStandardization {
		return configured
	}

	return normalizer.MergeTables(normalizer.DefaultStandardization, configured)
}

// GroupField returns GroupBy as a types.Field.
func (c *Config) GroupField() (types.Field, error) {
	return types.ParseField(c.GroupBy)
}
