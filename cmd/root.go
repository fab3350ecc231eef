// =============================================================================
// pain.001 Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (converter)
//   ├── processCmd (converter process)
//   ├── validateCmd (converter validate)
//   ├── schemasCmd (converter schemas)
//   └── versionCmd (converter version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose). Commands
//   that need the configuration load it themselves through loadConfig.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose switches logging to debug level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "converter",
	Short: "pain.001 Converter - Turn payment sheets into ISO 20022 credit transfer files",
	Long: `pain.001 Converter reads payment sheets (CSV or XLSX) exported from
accounting systems and writes ISO 20022 pain.001 credit transfer initiation
files for bulk upload to a bank.

Key Features:
  - Five schema variants: pain.001.003.03, pain.001.002.03, pain.001.001.09,
    and the Swiss pain.001.001.09.ch.03 and pain.001.001.03.ch.02
  - Debtor-specific configuration, column mapping and transformation rules
  - IBAN/BIC and SEPA character set validation with per-row error logs
  - Concurrent processing of input files
  - Automatic file archival on successful processing

Example Usage:
  converter process                    # Process all files in the input directory
  converter process --config ./my.yaml # Use a custom configuration file
  converter validate                   # Validate configuration without processing
  converter schemas                    # List supported schema variants`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called once by main.main().
// An interrupt cancels files that have not finished yet.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration and every debtor configuration.
//
// RETURNS:
//   - The main configuration.
//   - The debtor configurations keyed by debtor code.
//   - An error if any file cannot be loaded.
func loadConfig(path string) (*config.MainConfig, map[string]*config.DebtorConfig, error) {
	mainConfig, err := config.LoadMainConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	debtorConfigs, err := config.LoadDebtorConfigs(mainConfig.ConfigsDir, mainConfig.DefaultSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load debtor configs: %w", err)
	}

	return mainConfig, debtorConfigs, nil
}

// newLogger builds the zap-backed logger for a run.
func newLogger(mainConfig *config.MainConfig) (*logging.Logger, error) {
	return logging.New(logging.Options{
		Level:   mainConfig.LogLevel,
		File:    mainConfig.LogFile,
		Verbose: verbose,
	})
}
