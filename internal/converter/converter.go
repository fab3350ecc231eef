// =============================================================================
// pain.001 Converter - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline for a single payment sheet,
// from CSV/XLSX parsing to the written pain.001 file.
//
// CONVERSION PIPELINE:
//   1. Parse the input sheet (CSV or XLSX)
//   2. Apply transformation rules to each row
//   3. Map rows to credit transfer transactions
//   4. Validate against the debtor's schema variant
//   5. Abort, or drop invalid rows when exclude_invalid_transactions is set
//   6. Build the pain.001 document
//   7. Write the output file and the error log for rejected rows
//   8. Archive the processed files
//
// CONCURRENCY:
//   A Converter owns its message and document tree. Several converters may
//   run at the same time; they share only read-only configuration.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/csvparser"
	"github.com/ginjaninja78/pain001-converter/internal/grouping"
	"github.com/ginjaninja78/pain001-converter/internal/message"
	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/ginjaninja78/pain001-converter/internal/xlsxparser"
	"github.com/ginjaninja78/pain001-converter/pkg/utils"
	"github.com/shopspring/decimal"
)

// Errors reported in Result.Error. Wrapped errors carry the details.
var (
	ErrUnsupportedInput = errors.New("unsupported input file type")
	ErrRowsRejected     = errors.New("rows failed validation")
	ErrNoTransactions   = errors.New("no transactions to pay")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Debtor is the code of the debtor configuration used.
	Debtor string

	// Variant is the schema variant the output was built for.
	Variant schema.Variant

	// OutputFile is the path to the generated pain.001 file.
	// Empty if processing failed or in dry-run mode.
	OutputFile string

	// ErrorLogFile is the path to the error log, if rows were rejected.
	ErrorLogFile string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Rejected lists every row problem found, whether the file failed or
	// the rows were dropped.
	Rejected []*RowError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows read from the sheet.
	RowsProcessed int

	// TransactionsCreated is the number of CdtTrfTxInf blocks written.
	TransactionsCreated int

	// PaymentGroups is the number of PmtInf blocks written.
	PaymentGroups int

	// RejectedRows is the number of distinct rows with problems.
	RejectedRows int

	// ControlSum is the total of all written transactions.
	ControlSum decimal.Decimal

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Logger is the logging interface used by the pipeline.
// internal/logging provides the zap-backed implementation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Converter handles the conversion of a single payment sheet.
type Converter struct {
	inputPath  string
	debtor     *config.DebtorConfig
	mainConfig *config.MainConfig
	files      *utils.FileManager
	logger     Logger
	dryRun     bool
	now        func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. Default: discard.
func WithLogger(l Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithDryRun builds and validates without writing or archiving anything.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// WithClock sets the clock for creation time and requested date checks.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithFileManager overrides the file manager derived from the main config.
func WithFileManager(fm *utils.FileManager) Option {
	return func(c *Converter) { c.files = fm }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the input CSV or XLSX file.
//   - debtor: The matching debtor configuration.
//   - mainConfig: The main application configuration.
//   - opts: Optional settings.
func New(inputPath string, debtor *config.DebtorConfig, mainConfig *config.MainConfig, opts ...Option) *Converter {
	c := &Converter{
		inputPath:  inputPath,
		debtor:     debtor,
		mainConfig: mainConfig,
		logger:     nopLogger{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.files == nil {
		c.files = utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
		c.files.UseTimestampSubdirs = mainConfig.ArchiveByDate
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file. It never panics on bad
// input; every failure is reported in the Result.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{
		FilePath: c.inputPath,
		Debtor:   c.debtor.DebtorCode,
		Variant:  c.debtor.Variant(),
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	c.logger.Info("Processing file %s for debtor %s (%s)", c.inputPath, c.debtor.DebtorCode, result.Variant)

	// =========================================================================
	// STEP 1: PARSE INPUT
	// =========================================================================

	table, err := c.readTable()
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		c.fail(&result)
		return result
	}
	result.Stats.RowsProcessed = len(table.Rows)
	c.logger.Debug("Parsed %d rows with headers %v", len(table.Rows), table.Headers)

	if err := c.checkColumns(table.Headers); err != nil {
		result.Error = err
		c.fail(&result)
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2 + 3: TRANSFORM AND MAP ROWS
	// =========================================================================

	transformer := NewTransformer(c.debtor.TransformationRules)
	mapper := NewMapper(c.debtor)

	msg := message.New(c.account(), message.WithClock(c.now))
	var rejected []*RowError
	var rowOfTransaction []int // rowOfTransaction[i] is the row of transaction i+1

	for i := range table.Rows {
		row := &table.Rows[i]

		if err := transformer.TransformRow(row); err != nil {
			rejected = append(rejected, &RowError{Row: row.Number, Message: err.Error()})
			continue
		}

		tx, rowErrs := mapper.MapRow(*row)
		if len(rowErrs) > 0 {
			rejected = append(rejected, rowErrs...)
			continue
		}

		msg.AddTransaction(tx)
		rowOfTransaction = append(rowOfTransaction, row.Number)
	}

	// =========================================================================
	// STEP 4 + 5: VALIDATE
	// =========================================================================

	variant := c.debtor.Variant()
	exclude := c.mainConfig.ExcludeInvalidTransactions

	if len(msg.Transactions()) == 0 {
		result.Rejected = rejected
		result.Error = ErrNoTransactions
		if len(rejected) > 0 && !exclude {
			result.Error = fmt.Errorf("%w: %d row(s), see error log", ErrRowsRejected, countRows(rejected))
		}
		c.fail(&result)
		return result
	}

	if exclude {
		kept, dropped, err := msg.ExcludeInvalid(variant)
		if err != nil {
			result.Rejected = rejected
			result.Error = fmt.Errorf("debtor account or message invalid: %w", err)
			c.fail(&result)
			return result
		}
		for _, e := range dropped {
			rejected = append(rejected, fromValidation(rowOfTransaction[e.TransactionIndex-1], e))
		}
		msg = kept
	} else {
		validated, err := msg.Validate(variant)
		if err != nil {
			result.Error = err
			return result
		}
		if len(validated.AccountErrors) > 0 {
			result.Rejected = rejected
			result.Error = fmt.Errorf("debtor account or message invalid: %w", validated.AccountErrors)
			c.fail(&result)
			return result
		}
		if !validated.Valid() {
			c.logger.Debug("Validation of %s failed:\n%s", c.inputPath, validation.FormatErrors(validated.Errors))
		}
		for _, e := range validated.Errors {
			rejected = append(rejected, fromValidation(rowOfTransaction[e.TransactionIndex-1], e))
		}
		if len(rejected) > 0 {
			result.Rejected = rejected
			result.Error = fmt.Errorf("%w: %d row(s), see error log", ErrRowsRejected, countRows(rejected))
			c.fail(&result)
			return result
		}
	}

	result.Rejected = rejected
	result.Stats.RejectedRows = countRows(rejected)
	if len(rejected) > 0 {
		c.logger.Warn("Dropping %d invalid row(s)", result.Stats.RejectedRows)
		for _, e := range rejected {
			c.logger.Warn("Rejected %s", e.Error())
		}
	}

	transactions := msg.Transactions()
	if len(transactions) == 0 {
		result.Error = ErrNoTransactions
		c.fail(&result)
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 6: BUILD DOCUMENT
	// =========================================================================

	document, err := msg.Build(variant)
	if err != nil {
		result.Error = fmt.Errorf("failed to build %s document: %w", variant, err)
		return result
	}

	result.Stats.TransactionsCreated = len(transactions)
	result.Stats.PaymentGroups = len(grouping.GroupTransactions(transactions))
	result.Stats.ControlSum = grouping.AmountTotal(transactions)
	c.logger.Debug("Built message %s: %d transaction(s) in %d payment group(s), control sum %s",
		msg.MessageID(), result.Stats.TransactionsCreated, result.Stats.PaymentGroups, result.Stats.ControlSum.StringFixed(2))

	if c.dryRun {
		c.logger.Info("Dry run: %s validated, nothing written", c.inputPath)
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 7: WRITE OUTPUT
	// =========================================================================

	outputPath, err := c.files.WriteOutputFile(c.outputFileName(), document)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	c.logger.Info("Wrote output to: %s", outputPath)

	c.writeErrorLog(&result, result.Rejected)

	// =========================================================================
	// STEP 8: ARCHIVE FILES
	// =========================================================================

	if _, err := c.files.ArchiveInputFile(c.inputPath); err != nil {
		c.logger.Warn("Failed to archive input file: %v", err)
	}
	if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
		c.logger.Warn("Failed to archive output file: %v", err)
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readTable dispatches on the file extension.
func (c *Converter) readTable() (*types.Table, error) {
	switch strings.ToLower(filepath.Ext(c.inputPath)) {
	case ".csv", ".txt":
		return csvparser.Parse(c.inputPath, c.debtor.CSVSettings)
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(c.inputPath, c.debtor.XLSXSettings)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(c.inputPath))
	}
}

// checkColumns fails when a mapped column is missing from the sheet.
func (c *Converter) checkColumns(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	m := c.debtor.ColumnMapping
	var missing []string
	for _, column := range []string{
		m.Reference, m.Name, m.IBAN, m.BIC, m.Amount, m.RequestedDate,
		m.Instruction, m.RemittanceInformation, m.BatchBooking, m.ServiceLevel,
	} {
		if column != "" && !present[column] {
			missing = append(missing, column)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("mapped column(s) missing from sheet: %s", strings.Join(missing, ", "))
	}
	return nil
}

// account returns the debtor account with the IBAN in compact form.
func (c *Converter) account() types.Account {
	return types.Account{
		Name: strings.TrimSpace(c.debtor.Account.Name),
		IBAN: validation.CompactIBAN(c.debtor.Account.IBAN),
		BIC:  strings.ToUpper(strings.TrimSpace(c.debtor.Account.BIC)),
	}
}

// outputFileName applies the configured output file format.
func (c *Converter) outputFileName() string {
	base := filepath.Base(c.inputPath)
	return utils.GenerateOutputFileName(c.mainConfig.OutputFileFormat, map[string]string{
		"debtor":   c.debtor.DebtorCode,
		"schema":   string(c.debtor.Variant()),
		"original": strings.TrimSuffix(base, filepath.Ext(base)),
	})
}

// fail logs the rejected rows of a failed file and writes its error log.
func (c *Converter) fail(result *Result) {
	result.Stats.RejectedRows = countRows(result.Rejected)
	for _, e := range result.Rejected {
		c.logger.Warn("Rejected %s", e.Error())
	}
	c.logger.Error("Processing %s failed: %v", c.inputPath, result.Error)

	rows := result.Rejected
	if len(rows) == 0 {
		rows = []*RowError{{Message: result.Error.Error()}}
	}
	c.writeErrorLog(result, rows)
}

// writeErrorLog writes rows to an error log in the output directory.
func (c *Converter) writeErrorLog(result *Result, rows []*RowError) {
	if c.dryRun || len(rows) == 0 {
		return
	}

	now := c.now()
	entries := make([]utils.ErrorLogEntry, 0, len(rows))
	for _, e := range rows {
		errorType := "validation"
		if e.Row == 0 {
			errorType = "file"
		}
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     filepath.Base(c.inputPath),
			ErrorType:    errorType,
			ErrorMessage: e.Message,
			RowNumber:    e.Row,
			Reference:    e.Reference,
			FieldName:    e.Field,
			FieldValue:   e.Value,
		})
	}

	path, err := utils.WriteErrorLog(entries, c.files.OutputDir, c.inputPath)
	if err != nil {
		c.logger.Warn("Failed to write error log: %v", err)
		return
	}
	result.ErrorLogFile = path
}

// countRows returns the number of distinct rows in errs.
func countRows(errs []*RowError) int {
	rows := make(map[int]bool)
	for _, e := range errs {
		rows[e.Row] = true
	}
	return len(rows)
}

// =============================================================================
// DEFAULT LOGGER
// =============================================================================

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
