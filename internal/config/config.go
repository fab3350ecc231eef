// =============================================================================
// pain.001 Converter - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the per-debtor
// configurations that describe how a payment sheet becomes a pain.001 message.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): directories, logging, output naming
//   2. Debtor Configs (configs/*.yaml): one file per debtor account
//
// LOADING:
//   Defaults are applied first, then the result is validated. A debtor
//   config naming an unknown schema variant is rejected at load time, not
//   when the first file is converted.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for payment sheets (CSV or XLSX).
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives generated pain.001 files and error logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveByDate files archives under YYYY/MM/DD sub-directories.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// ConfigsDir contains one YAML file per debtor.
	// Default: "./configs"
	ConfigsDir string `yaml:"configs_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stderr
	// only.
	// Default: "./logs/converter.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFileFormat defines the format for output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {debtor}    - Debtor code
	//   {schema}    - Schema variant, e.g. pain.001.001.09
	//   {original}  - Input file name without extension
	// Default: "{debtor}_{schema}_{timestamp}.xml"
	OutputFileFormat string `yaml:"output_file_format"`

	// DefaultSchema is used by debtor configs that do not name a schema.
	// Default: "pain.001.001.09"
	DefaultSchema string `yaml:"default_schema"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to process concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ExcludeInvalidTransactions drops rows that fail validation instead of
	// rejecting the whole file. Dropped rows are written to the error log.
	// Default: false
	ExcludeInvalidTransactions bool `yaml:"exclude_invalid_transactions"`
}

// =============================================================================
// DEBTOR CONFIGURATION STRUCTURE
// =============================================================================

// DebtorConfig describes one debtor account and the payment sheets paid
// from it.
type DebtorConfig struct {
	// DebtorName is used in logs and error messages.
	DebtorName string `yaml:"debtor_name"`

	// DebtorCode is a short code used as map key and in output file names.
	DebtorCode string `yaml:"debtor_code"`

	// FileMatchingPatterns are glob patterns matched against input file names.
	// Examples:
	//   - "acme_payroll_*.csv"
	//   - "*_suppliers_*.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Account is the debtor account every transaction is paid from.
	Account AccountConfig `yaml:"account"`

	// Schema is the pain.001 variant to produce.
	// Default: MainConfig.DefaultSchema
	Schema string `yaml:"schema"`

	// CSVSettings controls parsing of CSV input.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// XLSXSettings controls parsing of XLSX input.
	XLSXSettings XLSXSettings `yaml:"xlsx_settings"`

	// ColumnMapping maps transaction fields to sheet headers.
	ColumnMapping ColumnMapping `yaml:"column_mapping"`

	// DateFormat is the Go layout of the requested date column.
	// Default: "2006-01-02"
	DateFormat string `yaml:"date_format"`

	// DecimalSeparator of the amount column, "." or ",".
	// Default: "."
	DecimalSeparator string `yaml:"decimal_separator"`

	// TransformationRules are applied to raw cell values before mapping.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// variant is the parsed Schema, set on load.
	variant schema.Variant
}

// AccountConfig is the debtor account as written in YAML.
type AccountConfig struct {
	Name string `yaml:"name"`
	IBAN string `yaml:"iban"`
	BIC  string `yaml:"bic"`
}

// =============================================================================
// INPUT SETTINGS STRUCTURES
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are merged
	// column-wise with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row number where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding of the file: "UTF-8", "ISO-8859-1", "ISO-8859-15" or
	// "Windows-1252".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// XLSXSettings contains settings for parsing XLSX workbooks.
type XLSXSettings struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based row holding the column headers.
	// Default: 1
	HeaderRow int `yaml:"header_row"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRow + 1
	DataStartRow int `yaml:"data_start_row"`
}

// ColumnMapping names the sheet header that holds each transaction field.
// Empty entries mean the column is absent and the transaction default applies.
type ColumnMapping struct {
	Reference             string `yaml:"reference"`
	Name                  string `yaml:"name"`
	IBAN                  string `yaml:"iban"`
	BIC                   string `yaml:"bic"`
	Amount                string `yaml:"amount"`
	RequestedDate         string `yaml:"requested_date"`
	Instruction           string `yaml:"instruction"`
	RemittanceInformation string `yaml:"remittance_information"`
	BatchBooking          string `yaml:"batch_booking"`
	ServiceLevel          string `yaml:"service_level"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines a transformation to apply to a specific column.
type TransformationRule struct {
	// Field is the column header the actions apply to.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply.
	// Supported types:
	//   - "trim", "uppercase", "lowercase", "remove_spaces"
	//   - "prepend_string", "append_string"
	//   - "pad_zeros_to_length", "truncate"
	//   - "replace", "regex_replace"
	//   - "format_date"            (value "input_layout|output_layout")
	//   - "lookup", "lookup_with_default"
	//   - "if_empty_use_default", "if_empty_use_field"
	//   - "normalize_whitespace"
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used by "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable is used by the lookup transformations.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseMainConfig(data)
}

// ParseMainConfig parses, defaults and validates a main configuration.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.ConfigsDir == "" {
		config.ConfigsDir = "./configs"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/converter.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputFileFormat == "" {
		config.OutputFileFormat = "{debtor}_{schema}_{timestamp}.xml"
	}
	if config.DefaultSchema == "" {
		config.DefaultSchema = string(schema.Pain00100109)
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", config.LogLevel)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	variant, err := schema.Parse(config.DefaultSchema)
	if err != nil {
		return fmt.Errorf("default_schema: %w", err)
	}
	config.DefaultSchema = string(variant)

	return nil
}

// LoadDebtorConfigs loads all debtor configurations from a directory.
//
// PARAMETERS:
//   - configsDir: The directory containing debtor configuration files.
//   - defaultSchema: The schema used by debtors that do not name one.
//
// RETURNS:
//   - A map of debtor configurations, keyed by debtor code.
//   - An error if any file cannot be loaded or two files share a code.
func LoadDebtorConfigs(configsDir string, defaultSchema string) (map[string]*DebtorConfig, error) {
	configs := make(map[string]*DebtorConfig)

	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := LoadDebtorConfig(file, defaultSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		// Use debtor code as the key.
		// If no code is specified, use the file name.
		key := config.DebtorCode
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			config.DebtorCode = key
		}

		if _, exists := configs[key]; exists {
			return nil, fmt.Errorf("duplicate debtor code %q in %s", key, file)
		}
		configs[key] = config
	}

	return configs, nil
}

// LoadDebtorConfig loads a single debtor configuration file.
func LoadDebtorConfig(filePath string, defaultSchema string) (*DebtorConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseDebtorConfig(data, defaultSchema)
}

// ParseDebtorConfig parses, defaults and validates a debtor configuration.
func ParseDebtorConfig(data []byte, defaultSchema string) (*DebtorConfig, error) {
	var config DebtorConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	applyDebtorConfigDefaults(&config, defaultSchema)

	if err := validateDebtorConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDebtorConfigDefaults sets default values for a debtor configuration.
func applyDebtorConfigDefaults(config *DebtorConfig, defaultSchema string) {
	if config.Schema == "" {
		config.Schema = defaultSchema
	}
	if config.DateFormat == "" {
		config.DateFormat = "2006-01-02"
	}
	if config.DecimalSeparator == "" {
		config.DecimalSeparator = "."
	}

	// CSV settings defaults.
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}

	// XLSX settings defaults.
	if config.XLSXSettings.HeaderRow == 0 {
		config.XLSXSettings.HeaderRow = 1
	}
	if config.XLSXSettings.DataStartRow == 0 {
		config.XLSXSettings.DataStartRow = config.XLSXSettings.HeaderRow + 1
	}
}

// validateDebtorConfig validates a defaulted debtor configuration.
func validateDebtorConfig(config *DebtorConfig) error {
	variant, err := schema.Parse(config.Schema)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	config.variant = variant
	config.Schema = string(variant)

	var problems []string
	if strings.TrimSpace(config.Account.Name) == "" {
		problems = append(problems, "account.name is required")
	}
	if strings.TrimSpace(config.Account.IBAN) == "" {
		problems = append(problems, "account.iban is required")
	}
	if config.ColumnMapping.Name == "" {
		problems = append(problems, "column_mapping.name is required")
	}
	if config.ColumnMapping.IBAN == "" {
		problems = append(problems, "column_mapping.iban is required")
	}
	if config.ColumnMapping.Amount == "" {
		problems = append(problems, "column_mapping.amount is required")
	}
	if config.DecimalSeparator != "." && config.DecimalSeparator != "," {
		problems = append(problems, fmt.Sprintf("decimal_separator %q must be \".\" or \",\"", config.DecimalSeparator))
	}
	if config.CSVSettings.DataStartRow <= config.CSVSettings.HeaderRows {
		problems = append(problems, "csv_settings.data_start_row must follow the header rows")
	}
	if config.XLSXSettings.DataStartRow <= config.XLSXSettings.HeaderRow {
		problems = append(problems, "xlsx_settings.data_start_row must follow the header row")
	}
	for _, pattern := range config.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			problems = append(problems, fmt.Sprintf("file matching pattern %q: %v", pattern, err))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// =============================================================================
// DEBTOR MATCHING
// =============================================================================

// Variant returns the schema variant validated on load.
func (d *DebtorConfig) Variant() schema.Variant {
	return d.variant
}

// Matches reports whether a file name matches any of the debtor's patterns.
func (d *DebtorConfig) Matches(fileName string) bool {
	base := filepath.Base(fileName)
	for _, pattern := range d.FileMatchingPatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// FindDebtor returns the configuration matching the given file.
//
// MATCHING LOGIC:
//   Debtor codes are visited in sorted order, so a file matching several
//   debtors always resolves to the same one.
//
// RETURNS:
//   - The matching debtor configuration, or nil if no match is found.
func FindDebtor(filePath string, configs map[string]*DebtorConfig) *DebtorConfig {
	codes := make([]string, 0, len(configs))
	for code := range configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if configs[code].Matches(filePath) {
			return configs[code]
		}
	}
	return nil
}
