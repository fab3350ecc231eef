package converter

import (
	"testing"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMapper(decimalSeparator string) *Mapper {
	return NewMapper(&config.DebtorConfig{
		ColumnMapping: config.ColumnMapping{
			Reference:             "Ref",
			Name:                  "Name",
			IBAN:                  "IBAN",
			BIC:                   "BIC",
			Amount:                "Amount",
			RequestedDate:         "Date",
			Instruction:           "Instr",
			RemittanceInformation: "Purpose",
			BatchBooking:          "Batch",
			ServiceLevel:          "Level",
		},
		DateFormat:       "02.01.2006",
		DecimalSeparator: decimalSeparator,
	})
}

func TestMapRow(t *testing.T) {
	tx, errs := testMapper(".").MapRow(types.Row{Number: 2, Fields: map[string]string{
		"Ref":     " X1 ",
		"Name":    "Alice",
		"IBAN":    "de89 3704 0044 0532 0130 00",
		"BIC":     "cobadeffxxx",
		"Amount":  "1,234.50",
		"Date":    "20.10.2026",
		"Instr":   "INSTR-1",
		"Purpose": "Invoice 17",
		"Batch":   "nein",
		"Level":   "urgp",
	}})

	require.Empty(t, errs)
	assert.Equal(t, "X1", tx.Reference)
	assert.Equal(t, "DE89370400440532013000", tx.IBAN)
	assert.Equal(t, "COBADEFFXXX", tx.BIC)
	assert.Equal(t, "1234.50", tx.Amount.StringFixed(2))
	assert.Equal(t, types.Date(2026, 10, 20), tx.RequestedDate)
	assert.Equal(t, "INSTR-1", tx.Instruction)
	assert.Equal(t, "Invoice 17", tx.RemittanceInformation)
	assert.False(t, tx.BatchBooking)
	assert.Equal(t, types.ServiceLevelURGP, tx.ServiceLevel)
}

func TestMapRowDefaults(t *testing.T) {
	tx, errs := testMapper(".").MapRow(types.Row{Number: 2, Fields: map[string]string{
		"Name":   "Alice",
		"IBAN":   "DE89370400440532013000",
		"Amount": "1",
	}})

	require.Empty(t, errs)
	assert.Equal(t, types.NotProvided, tx.Reference)
	assert.Equal(t, types.DefaultRequestedDate, tx.RequestedDate)
	assert.True(t, tx.BatchBooking)
	assert.Equal(t, types.ServiceLevelSEPA, tx.ServiceLevel)
}

func TestMapRowErrors(t *testing.T) {
	_, errs := testMapper(".").MapRow(types.Row{Number: 7, Fields: map[string]string{
		"Ref":    "X9",
		"Amount": "12,5,0.1.1",
		"Date":   "2026-10-20",
		"Batch":  "maybe",
	}})

	require.Len(t, errs, 3)
	for _, e := range errs {
		assert.Equal(t, 7, e.Row)
		assert.Equal(t, "X9", e.Reference)
	}
	assert.Equal(t, "amount", errs[0].Field)
	assert.Equal(t, "requested_date", errs[1].Field)
	assert.Equal(t, "batch_booking", errs[2].Field)
	assert.Equal(t, "row 7, field 'batch_booking': Value is not a boolean (value: 'maybe')", errs[2].Error())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw, sep, want string
	}{
		{"12.50", ".", "12.50"},
		{"1'234.50", ".", "1234.50"},
		{"1,234.50", ".", "1234.50"},
		{"1.234,50", ",", "1234.50"},
		{"1 234,5", ",", "1234.50"},
		{"1 000,00", ",", "1000.00"},
		{"-3", ".", "-3.00"},
	}
	for _, tt := range tests {
		amount, err := ParseAmount(tt.raw, tt.sep)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, amount.StringFixed(2), tt.raw)
	}

	_, err := ParseAmount("12 EUR", ".")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, raw := range []string{"1", "TRUE", "yes", "Y", "x", "Ja"} {
		v, err := ParseBool(raw)
		require.NoError(t, err, raw)
		assert.True(t, v, raw)
	}
	for _, raw := range []string{"0", "false", "No", "n", "Nein"} {
		v, err := ParseBool(raw)
		require.NoError(t, err, raw)
		assert.False(t, v, raw)
	}
	_, err := ParseBool("")
	assert.Error(t, err)
}

func TestFromValidation(t *testing.T) {
	e := fromValidation(4, &validation.ValidationError{
		Field:            "iban",
		Value:            "DE00",
		Message:          "Value is not a valid IBAN",
		TransactionIndex: 2,
		Reference:        "X2",
	})
	assert.Equal(t, &RowError{Row: 4, Reference: "X2", Field: "iban", Value: "DE00", Message: "Value is not a valid IBAN"}, e)
	assert.Equal(t, "row 4, field 'iban': Value is not a valid IBAN (value: 'DE00')", e.Error())
}
