// =============================================================================
// pain.001 Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts payment sheets to
// pain.001 files. It orchestrates the conversion pipeline for every file.
//
// COMMAND USAGE:
//   converter process [flags]
//
// FLAGS:
//   --dry-run : Validate and build without writing or archiving anything
//   --single  : Process only a single file (specify with --file)
//   --file    : Path to a specific file to process (used with --single)
//   --debtor  : Process only files for a specific debtor code
//
// PROCESSING PIPELINE:
//   1. Load configuration files
//   2. Discover CSV/XLSX files in the input directory
//   3. Match each file to a debtor configuration
//   4. Run the converter for each file, at most max_concurrency at a time
//   5. Print and write the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/converter"
	"github.com/ginjaninja78/pain001-converter/internal/logging"
	"github.com/ginjaninja78/pain001-converter/pkg/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errNoDebtor is reported for input files no debtor configuration matches.
var errNoDebtor = errors.New("no matching debtor configuration found")

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processOptions holds the flags of the process command.
type processOptions struct {
	dryRun     bool
	singleFile bool
	filePath   string
	debtorCode string
}

var processFlags processOptions

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert payment sheets to pain.001 files",
	Long: `The process command scans the input directory for CSV and XLSX files,
matches them to a debtor configuration, and writes one pain.001 file per input
in the debtor's schema variant.

Each file is processed independently; errors in one file do not affect the
others.

On successful processing:
  - The generated pain.001 file is placed in the output directory
  - The original sheet is moved to the input archive
  - A summary report is generated

On error:
  - An error log is created in the output directory
  - The original sheet remains in the input directory
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, debtorConfigs, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}

		logger, err := newLogger(mainConfig)
		if err != nil {
			return err
		}
		defer logger.Sync()

		summary, err := runProcess(cmd.Context(), mainConfig, debtorConfigs, processFlags, logger, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if summary.FailedFiles > 0 {
			return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&processFlags.dryRun,
		"dry-run",
		false,
		"Validate and build without writing output files",
	)

	processCmd.Flags().BoolVar(
		&processFlags.singleFile,
		"single",
		false,
		"Process only a single file (use with --file)",
	)

	processCmd.Flags().StringVar(
		&processFlags.filePath,
		"file",
		"",
		"Path to a specific file to process (used with --single)",
	)

	processCmd.Flags().StringVar(
		&processFlags.debtorCode,
		"debtor",
		"",
		"Process only files for a specific debtor code",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess converts every input file and reports the results.
//
// PARAMETERS:
//   - ctx: Cancels files that have not finished yet.
//   - mainConfig: The main configuration.
//   - debtorConfigs: The debtor configurations keyed by debtor code.
//   - opts: The command flags.
//   - logger: The logger handed to each converter.
//   - out: Where progress and the summary are printed.
//
// RETURNS:
//   - The processing summary.
//   - An error if the run could not start. Failed files are not errors here;
//     they are counted in the summary.
func runProcess(
	ctx context.Context,
	mainConfig *config.MainConfig,
	debtorConfigs map[string]*config.DebtorConfig,
	opts processOptions,
	logger *logging.Logger,
	out io.Writer,
) (utils.ProcessingSummary, error) {
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	fmt.Fprintln(out, "=== pain.001 Converter ===")
	fmt.Fprintf(out, "Loaded %d debtor configuration(s)\n", len(debtorConfigs))

	if opts.debtorCode != "" {
		debtor, ok := debtorConfigs[opts.debtorCode]
		if !ok {
			return summary, fmt.Errorf("unknown debtor code %q", opts.debtorCode)
		}
		debtorConfigs = map[string]*config.DebtorConfig{debtor.DebtorCode: debtor}
	}

	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	fm.UseTimestampSubdirs = mainConfig.ArchiveByDate
	if err := fm.EnsureDirectories(); err != nil {
		return summary, err
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := selectInputFiles(fm, opts)
	if err != nil {
		return summary, err
	}

	// A --debtor filter skips files of other debtors instead of failing them.
	var debtors []*config.DebtorConfig
	var files []string
	for _, file := range inputFiles {
		debtor := config.FindDebtor(file, debtorConfigs)
		if debtor == nil && opts.debtorCode != "" && !opts.singleFile {
			continue
		}
		files = append(files, file)
		debtors = append(debtors, debtor)
	}

	if len(files) == 0 {
		fmt.Fprintln(out, "No input files found.")
		summary.EndTime = time.Now()
		return summary, nil
	}
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(files))

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Each goroutine writes only its own slot of results.

	results := make([]converter.Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(mainConfig.MaxConcurrency, 1))

	for i, file := range files {
		i, file := i, file
		debtor := debtors[i]
		g.Go(func() error {
			if debtor == nil {
				results[i] = converter.Result{FilePath: file, Error: errNoDebtor}
				return nil
			}

			conv := converter.New(file, debtor, mainConfig,
				converter.WithLogger(logger.With("file", filepath.Base(file), "debtor", debtor.DebtorCode)),
				converter.WithDryRun(opts.dryRun),
				converter.WithFileManager(fm),
			)
			results[i] = conv.Run(gctx)
			return nil
		})
	}

	// Converters report failures in their Result, never as a group error.
	_ = g.Wait()

	// =========================================================================
	// STEP 3: COLLECT RESULTS
	// =========================================================================

	for _, result := range results {
		summary.TotalFiles++
		summary.TotalRows += result.Stats.RowsProcessed
		summary.RejectedRows += result.Stats.RejectedRows

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalTransactions += result.Stats.TransactionsCreated
		summary.TotalPaymentGroups += result.Stats.PaymentGroups
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:     result.FilePath,
			OutputFile:    result.OutputFile,
			Schema:        string(result.Variant),
			Rows:          result.Stats.RowsProcessed,
			Transactions:  result.Stats.TransactionsCreated,
			PaymentGroups: result.Stats.PaymentGroups,
			ControlSum:    result.Stats.ControlSum.StringFixed(2),
			ProcessTime:   result.Stats.ProcessingTime,
		})

		target := result.OutputFile
		if opts.dryRun {
			target = "(dry run)"
		}
		fmt.Fprintf(out, "  ✓ %s -> %s [%s, %d transaction(s), %s]\n",
			filepath.Base(result.FilePath), target, result.Variant,
			result.Stats.TransactionsCreated, result.Stats.ControlSum.StringFixed(2))
	}

	// =========================================================================
	// STEP 4: PRINT AND WRITE SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Transactions:    %d\n", summary.TotalTransactions)
	fmt.Fprintf(out, "Rejected rows:   %d\n", summary.RejectedRows)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !opts.dryRun {
		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
		if err != nil {
			logger.Warn("Failed to write summary log: %v", err)
		} else {
			fmt.Fprintf(out, "Summary written to %s\n", path)
		}
	}

	return summary, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// selectInputFiles returns the --file argument in single mode, otherwise
// every CSV/XLSX file in the input directory.
func selectInputFiles(fm *utils.FileManager, opts processOptions) ([]string, error) {
	if !opts.singleFile {
		files, err := fm.DiscoverInputFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to discover input files: %w", err)
		}
		return files, nil
	}

	if opts.filePath == "" {
		return nil, errors.New("--single requires --file")
	}
	info, err := os.Stat(opts.filePath)
	if err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input file %s is a directory", opts.filePath)
	}
	return []string{opts.filePath}, nil
}
