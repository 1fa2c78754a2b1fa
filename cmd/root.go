// =============================================================================
// Loan Aggregator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// shares the configuration and logger set up here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (loanagg)
//   ├── summarizeCmd (loanagg summarize)
//   ├── valuesCmd    (loanagg values)
//   ├── validateCmd  (loanagg validate)
//   └── versionCmd   (loanagg version)
//
// CONFIGURATION:
//   The config file is optional. Values are layered as
//   defaults < config file < LOANAGG_* environment < command flags.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loanagg/internal/config"
	"github.com/ginjaninja78/loanagg/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig is loaded before any subcommand runs.
var appConfig *config.Config

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loanagg",
	Short: "Loan Aggregator - Summarize loan balances from CSV and XLSX exports",
	Long: `Loan Aggregator reads loan exports, cleans every value, and totals the
current balance per grade (or any other loan field), optionally restricted to
a home ownership, quarter, term or year.

Example Usage:
  loanagg summarize --file loans.csv                # Print the grade table
  loanagg summarize --home-ownership rent --year 2023
  loanagg summarize --format xml                    # Every file in input_dir
  loanagg values --file loans.csv --field term      # Filter choices
  loanagg validate --file loans.csv                 # Report input problems`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		appConfig = cfg

		log := logger.New(cfg.LogLevel)
		cmd.SetContext(logger.WithContext(cmd.Context(), log))

		log.Debug().Str("config", cfgFile).Msg("configuration loaded")
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loggerFor returns the logger attached to the command's context.
func loggerFor(cmd *cobra.Command) zerolog.Logger {
	return logger.FromContext(cmd.Context())
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (optional)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
