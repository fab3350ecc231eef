package converter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/shopspring/decimal"
)

// RowError is a problem with one row of the input sheet. Row is the 1-based
// row number in the source file.
type RowError struct {
	Row       int
	Reference string
	Field     string
	Value     string
	Message   string
}

// Error implements the error interface.
func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, field '%s': %s (value: '%s')", e.Row, e.Field, e.Message, e.Value)
}

// fromValidation converts a validation error of the transaction built from
// row into a RowError.
func fromValidation(row int, err *validation.ValidationError) *RowError {
	return &RowError{
		Row:       row,
		Reference: err.Reference,
		Field:     err.Field,
		Value:     err.Value,
		Message:   err.Message,
	}
}

// Mapper turns sheet rows into transactions using a debtor's column mapping.
type Mapper struct {
	columns          config.ColumnMapping
	dateFormat       string
	decimalSeparator string
}

// NewMapper creates a Mapper for a debtor configuration.
func NewMapper(debtor *config.DebtorConfig) *Mapper {
	return &Mapper{
		columns:          debtor.ColumnMapping,
		dateFormat:       debtor.DateFormat,
		decimalSeparator: debtor.DecimalSeparator,
	}
}

// MapRow builds a transaction from a row. Only values that cannot be parsed
// at all (amount, date, batch booking flag) are reported here; business rules
// are left to validation. Defaults are applied through types.NewTransaction.
func (m *Mapper) MapRow(row types.Row) (types.Transaction, []*RowError) {
	var errs []*RowError
	cell := func(header string) string {
		if header == "" {
			return ""
		}
		return strings.TrimSpace(row.Fields[header])
	}
	fail := func(field, value, msg string) {
		errs = append(errs, &RowError{Row: row.Number, Field: field, Value: value, Message: msg})
	}

	in := types.TransactionInput{
		Reference:             cell(m.columns.Reference),
		Name:                  cell(m.columns.Name),
		IBAN:                  validation.CompactIBAN(cell(m.columns.IBAN)),
		BIC:                   strings.ToUpper(cell(m.columns.BIC)),
		Instruction:           cell(m.columns.Instruction),
		RemittanceInformation: cell(m.columns.RemittanceInformation),
		ServiceLevel:          types.ServiceLevel(strings.ToUpper(cell(m.columns.ServiceLevel))),
	}

	if raw := cell(m.columns.Amount); raw != "" {
		amount, err := ParseAmount(raw, m.decimalSeparator)
		if err != nil {
			fail("amount", raw, err.Error())
		}
		in.Amount = amount
	}

	if raw := cell(m.columns.RequestedDate); raw != "" {
		date, err := time.Parse(m.dateFormat, raw)
		if err != nil {
			fail("requested_date", raw, fmt.Sprintf("Date does not match format %s", m.dateFormat))
		}
		in.RequestedDate = date
	}

	if raw := cell(m.columns.BatchBooking); raw != "" {
		flag, err := ParseBool(raw)
		if err != nil {
			fail("batch_booking", raw, err.Error())
		}
		in.BatchBooking = &flag
	}

	tx := types.NewTransaction(in)
	for _, e := range errs {
		e.Reference = tx.Reference
	}
	return tx, errs
}

// ParseAmount parses an amount as typed in a sheet. Spaces and apostrophes
// (Swiss thousands separators) are ignored; the other separator of "." and
// "," is treated as a thousands separator.
//
// EXAMPLES:
//   ParseAmount("1'234.50", ".")  -> 1234.50
//   ParseAmount("1.234,50", ",")  -> 1234.50
func ParseAmount(raw, decimalSeparator string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(" ", "", "'", "", "\u00a0", "").Replace(strings.TrimSpace(raw))

	switch decimalSeparator {
	case ",":
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.New("Amount is not a number")
	}
	return amount, nil
}

// ParseBool accepts the spellings found in payment sheets.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "x", "ja":
		return true, nil
	case "0", "false", "no", "n", "nein":
		return false, nil
	default:
		return false, errors.New("Value is not a boolean")
	}
}
