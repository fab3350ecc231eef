// =============================================================================
// pain.001 Converter - Shared Types
// =============================================================================
//
// This package contains the payment records shared across modules to avoid
// import cycles. Types defined here are used by:
//   - validation
//   - grouping
//   - message
//   - converter, csvparser, xlsxparser
//
// LIFECYCLE:
//   Accounts and transactions are built by the caller, defaults are applied by
//   NewTransaction, and the records are treated as immutable afterwards.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE LEVEL
// =============================================================================

// ServiceLevel is the payment scheme code of a credit transfer.
type ServiceLevel string

const (
	// ServiceLevelSEPA is the standard SEPA credit transfer scheme.
	ServiceLevelSEPA ServiceLevel = "SEPA"

	// ServiceLevelURGP is an urgent (same day) payment.
	ServiceLevelURGP ServiceLevel = "URGP"
)

// Valid reports whether the service level is one of the known codes.
func (s ServiceLevel) Valid() bool {
	return s == ServiceLevelSEPA || s == ServiceLevelURGP
}

// =============================================================================
// DEFAULTS
// =============================================================================

// NotProvided is the placeholder used for missing references and agents.
const NotProvided = "NOTPROVIDED"

// DefaultRequestedDate marks a transaction to be executed as soon as possible.
// Requested date validation skips it.
var DefaultRequestedDate = Date(1999, time.January, 1)

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is the debtor account a message is sent from.
type Account struct {
	// Name is the account holder name. Required.
	Name string

	// IBAN is the debtor IBAN. Required.
	IBAN string

	// BIC is the debtor bank's BIC. Optional.
	BIC string
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is a single credit transfer to one creditor.
type Transaction struct {
	// Reference is emitted as the end-to-end identifier.
	Reference string

	// Name is the creditor name.
	Name string

	// IBAN is the creditor IBAN.
	IBAN string

	// BIC is the creditor bank's BIC. Optional.
	BIC string

	// Amount is the transferred amount. The currency comes from the schema.
	Amount decimal.Decimal

	// RequestedDate is the requested execution date (UTC midnight).
	RequestedDate time.Time

	// Instruction is an optional instruction identifier.
	Instruction string

	// RemittanceInformation is optional unstructured remittance text.
	RemittanceInformation string

	// BatchBooking asks the bank to book the group as one batch.
	BatchBooking bool

	// ServiceLevel is SEPA or URGP.
	ServiceLevel ServiceLevel
}

// TransactionInput carries caller-supplied transaction fields before defaults
// are applied. Zero values mean "not set".
type TransactionInput struct {
	Reference             string
	Name                  string
	IBAN                  string
	BIC                   string
	Amount                decimal.Decimal
	RequestedDate         time.Time
	Instruction           string
	RemittanceInformation string
	BatchBooking          *bool
	ServiceLevel          ServiceLevel
}

// NewTransaction builds a Transaction and fills in defaults:
//   - Reference:     NOTPROVIDED
//   - RequestedDate: DefaultRequestedDate
//   - BatchBooking:  true
//   - ServiceLevel:  SEPA
//
// No validation happens here; see the validation package.
func NewTransaction(in TransactionInput) Transaction {
	tx := Transaction{
		Reference:             in.Reference,
		Name:                  in.Name,
		IBAN:                  in.IBAN,
		BIC:                   in.BIC,
		Amount:                in.Amount,
		RequestedDate:         in.RequestedDate,
		Instruction:           in.Instruction,
		RemittanceInformation: in.RemittanceInformation,
		BatchBooking:          true,
		ServiceLevel:          in.ServiceLevel,
	}

	if tx.Reference == "" {
		tx.Reference = NotProvided
	}
	if tx.RequestedDate.IsZero() {
		tx.RequestedDate = DefaultRequestedDate
	} else {
		tx.RequestedDate = DateOf(tx.RequestedDate)
	}
	if in.BatchBooking != nil {
		tx.BatchBooking = *in.BatchBooking
	}
	if tx.ServiceLevel == "" {
		tx.ServiceLevel = ServiceLevelSEPA
	}

	return tx
}

// =============================================================================
// DATES
// =============================================================================

// Date returns the calendar date y-m-d at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// =============================================================================
// TABULAR INPUT
// =============================================================================

// Table is a parsed payment sheet (CSV or XLSX).
type Table struct {
	// Headers contains the column headers in sheet order.
	Headers []string

	// Rows contains the data rows.
	Rows []Row

	// SourceFile is the path of the file the table was read from.
	SourceFile string
}

// Row is one data row of a payment sheet.
type Row struct {
	// Number is the 1-based row number in the source file.
	Number int

	// Fields maps header -> cell value.
	Fields map[string]string
}
