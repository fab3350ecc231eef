package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeDebtorYAML = `
debtor_name: Acme Payroll
debtor_code: ACME
file_matching_patterns:
  - "acme_*.csv"
  - "acme_*.xlsx"
account:
  name: Acme GmbH
  iban: DE89370400440532013000
  bic: COBADEFFXXX
schema: " PAIN.001.001.09.CH.03 "
column_mapping:
  reference: Ref
  name: Beneficiary
  iban: IBAN
  amount: Amount
transformation_rules:
  - field: IBAN
    actions:
      - type: remove_spaces
      - type: uppercase
`

func TestParseMainConfigDefaults(t *testing.T) {
	cfg, err := ParseMainConfig([]byte("input_dir: ./in\n"))
	require.NoError(t, err)

	assert.Equal(t, "./in", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "./configs", cfg.ConfigsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "{debtor}_{schema}_{timestamp}.xml", cfg.OutputFileFormat)
	assert.Equal(t, string(schema.Pain00100109), cfg.DefaultSchema)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.False(t, cfg.ExcludeInvalidTransactions)
}

func TestParseMainConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"log level", "log_level: chatty\n"},
		{"concurrency", "max_concurrency: -2\n"},
		{"schema", "default_schema: pain.001.001.02\n"},
		{"syntax", "input_dir: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMainConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := ParseMainConfig([]byte("default_schema: nope\n"))
	assert.ErrorIs(t, err, schema.ErrUnsupportedVariant)
}

func TestParseDebtorConfig(t *testing.T) {
	cfg, err := ParseDebtorConfig([]byte(acmeDebtorYAML), string(schema.Pain00100303))
	require.NoError(t, err)

	assert.Equal(t, schema.Pain00100109CH03, cfg.Variant())
	assert.Equal(t, "pain.001.001.09.ch.03", cfg.Schema)
	assert.Equal(t, "2006-01-02", cfg.DateFormat)
	assert.Equal(t, ".", cfg.DecimalSeparator)
	assert.Equal(t, ",", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "UTF-8", cfg.CSVSettings.Encoding)
	assert.Equal(t, 1, cfg.XLSXSettings.HeaderRow)
	assert.Equal(t, 2, cfg.XLSXSettings.DataStartRow)
	require.Len(t, cfg.TransformationRules, 1)
	assert.Equal(t, "remove_spaces", cfg.TransformationRules[0].Actions[0].Type)
}

func TestParseDebtorConfigUsesDefaultSchema(t *testing.T) {
	data := []byte(`
account: {name: Acme, iban: DE89370400440532013000}
column_mapping: {name: N, iban: I, amount: A}
`)
	cfg, err := ParseDebtorConfig(data, string(schema.Pain00100203))
	require.NoError(t, err)
	assert.Equal(t, schema.Pain00100203, cfg.Variant())
}

func TestParseDebtorConfigValidation(t *testing.T) {
	_, err := ParseDebtorConfig([]byte("schema: pain.001.009.99\n"), "")
	assert.ErrorIs(t, err, schema.ErrUnsupportedVariant)

	_, err = ParseDebtorConfig([]byte("decimal_separator: ';'\n"), string(schema.Pain00100303))
	require.Error(t, err)
	for _, want := range []string{"account.name", "account.iban", "column_mapping.name", "column_mapping.iban", "column_mapping.amount", "decimal_separator"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadDebtorConfigsAndFindDebtor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(acmeDebtorYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "globex.yml"), []byte(`
file_matching_patterns: ["globex_*.csv", "acme_special.csv"]
account: {name: Globex, iban: GB29NWBK60161331926819}
column_mapping: {name: N, iban: I, amount: A}
`), 0o644))

	configs, err := LoadDebtorConfigs(dir, string(schema.Pain00100303))
	require.NoError(t, err)
	require.Len(t, configs, 2)

	globex := configs["globex"]
	require.NotNil(t, globex, "file name is the fallback code")
	assert.Equal(t, "globex", globex.DebtorCode)
	assert.Equal(t, schema.Pain00100303, globex.Variant())

	assert.Same(t, configs["ACME"], FindDebtor("/in/acme_2026-10.csv", configs))
	assert.Same(t, globex, FindDebtor("globex_1.csv", configs))
	assert.Same(t, configs["ACME"], FindDebtor("acme_special.csv", configs), "sorted codes resolve overlaps")
	assert.Nil(t, FindDebtor("initech.csv", configs))
}

func TestLoadDebtorConfigsRejectsDuplicateCodes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(acmeDebtorYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(acmeDebtorYAML), 0o644))

	_, err := LoadDebtorConfigs(dir, "")
	assert.ErrorContains(t, err, "duplicate debtor code")
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
