// =============================================================================
// pain.001 Converter - Validation Engine
// =============================================================================
//
// This module validates debtor accounts and credit transfer transactions
// before they are grouped and assembled into a pain.001 message.
//
// VALIDATION STRATEGY:
//   1. Account-level: name, IBAN and BIC of the debtor
//   2. Transaction-level: field rules, service level, requested date
//   3. Schema-level: whether the transaction can be expressed in the target
//      schema variant at all
//
// ERROR HANDLING:
//   - Errors are collected, not thrown immediately
//   - Errors of one transaction never stop validation of its siblings
//   - The caller decides whether to abort the message or drop the offending
//     transactions before grouping
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELD LIMITS
// =============================================================================

const (
	maxNameLength        = 70
	maxReferenceLength   = 35
	maxInstructionLength = 35
	maxRemittanceLength  = 140
)

// maxAmount is the largest amount a single transfer may carry.
var maxAmount = decimal.RequireFromString("999999999.99")

// =============================================================================
// VALIDATION RULES
// =============================================================================

// Rule names reported in ValidationError.Rule.
const (
	RuleRequired            = "required"
	RuleMaxLength           = "max_length"
	RuleFormat              = "format"
	RuleAmount              = "amount"
	RuleServiceLevel        = "service_level"
	RuleRequestedDate       = "requested_date"
	RuleSchemaCompatibility = "schema_compatibility"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation error.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// TransactionIndex is the 1-based position of the transaction in the
	// message. Zero for account errors.
	TransactionIndex int

	// Reference is the end-to-end reference of the transaction, if any.
	Reference string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	subject := "Account"
	if e.TransactionIndex > 0 {
		subject = fmt.Sprintf("Transaction %d (%s)", e.TransactionIndex, e.Reference)
	}
	return fmt.Sprintf("%s, Field '%s': %s (value: '%s')", subject, e.Field, e.Message, e.Value)
}

// Errors is a set of validation errors usable as a single error value.
type Errors []*ValidationError

// Error implements the error interface.
func (errs Errors) Error() string {
	return FormatErrors(errs)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validating one message.
type ValidationResult struct {
	// Errors contains all validation errors in discovery order.
	Errors Errors

	// AccountErrors are the errors found on the debtor account.
	AccountErrors Errors

	// TransactionErrors maps a 1-based transaction index to its errors.
	TransactionErrors map[int]Errors

	// TransactionsValidated is the number of transactions inspected.
	TransactionsValidated int
}

// Valid is true when no error was found.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// InvalidTransactions returns the sorted 1-based indexes of failing transactions.
func (r *ValidationResult) InvalidTransactions() []int {
	indexes := make([]int, 0, len(r.TransactionErrors))
	for idx := range r.TransactionErrors {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// ReferenceDate is the earliest acceptable requested execution date.
	// Default: today.
	ReferenceDate time.Time

	// StopOnFirstError stops validation after the first failing transaction.
	StopOnFirstError bool
}

// Validator validates accounts and transactions against one schema variant.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator. A zero ReferenceDate means today.
func NewValidator(options ValidationOptions) *Validator {
	if options.ReferenceDate.IsZero() {
		options.ReferenceDate = time.Now()
	}
	options.ReferenceDate = types.DateOf(options.ReferenceDate)
	return &Validator{options: options}
}

// ValidateAll validates the account and every transaction for the given
// schema capabilities.
func (v *Validator) ValidateAll(account types.Account, transactions []types.Transaction, caps schema.Capabilities) *ValidationResult {
	result := &ValidationResult{
		TransactionErrors: make(map[int]Errors),
	}

	result.AccountErrors = ValidateAccount(account)
	result.Errors = append(result.Errors, result.AccountErrors...)

	for i, tx := range transactions {
		result.TransactionsValidated++
		index := i + 1

		txErrors := ValidateTransaction(tx, v.options.ReferenceDate)
		if !SchemaCompatible(tx, caps) {
			txErrors = append(txErrors, &ValidationError{
				Field:   "bic/service_level",
				Value:   fmt.Sprintf("%s/%s", tx.BIC, tx.ServiceLevel),
				Rule:    RuleSchemaCompatibility,
				Message: fmt.Sprintf("Transaction is incompatible with schema %s (requires BIC and service level SEPA)", caps.Variant),
			})
		}

		if len(txErrors) == 0 {
			continue
		}

		for _, e := range txErrors {
			e.TransactionIndex = index
			e.Reference = tx.Reference
		}
		result.TransactionErrors[index] = txErrors
		result.Errors = append(result.Errors, txErrors...)

		if v.options.StopOnFirstError {
			break
		}
	}

	return result
}

// =============================================================================
// ACCOUNT VALIDATION
// =============================================================================

// ValidateAccount validates the debtor account.
func ValidateAccount(account types.Account) Errors {
	var errs Errors

	errs = append(errs, validateName("name", account.Name)...)
	errs = append(errs, validateIBAN("iban", account.IBAN)...)
	errs = append(errs, validateBIC("bic", account.BIC)...)

	return errs
}

// =============================================================================
// TRANSACTION VALIDATION
// =============================================================================

// ValidateTransaction validates one transaction. It never modifies tx; the
// defaults must already have been applied by types.NewTransaction.
func ValidateTransaction(tx types.Transaction, referenceDate time.Time) Errors {
	var errs Errors

	errs = append(errs, validateName("name", tx.Name)...)
	errs = append(errs, validateIBAN("iban", tx.IBAN)...)
	errs = append(errs, validateBIC("bic", tx.BIC)...)
	errs = append(errs, validateAmount(tx.Amount)...)

	if tx.Reference == "" {
		errs = append(errs, required("reference"))
	} else if !IsValidIdentifier(tx.Reference) {
		errs = append(errs, &ValidationError{
			Field:   "reference",
			Value:   tx.Reference,
			Rule:    RuleFormat,
			Message: fmt.Sprintf("Reference must be 1-%d characters of the SEPA character set", maxReferenceLength),
		})
	}

	errs = append(errs, validateText("instruction", tx.Instruction, maxInstructionLength)...)
	errs = append(errs, validateText("remittance_information", tx.RemittanceInformation, maxRemittanceLength)...)

	if !tx.ServiceLevel.Valid() {
		errs = append(errs, &ValidationError{
			Field:   "service_level",
			Value:   string(tx.ServiceLevel),
			Rule:    RuleServiceLevel,
			Message: "Service level must be one of SEPA, URGP",
		})
	}

	reference := types.DateOf(referenceDate)
	if !tx.RequestedDate.Equal(types.DefaultRequestedDate) && tx.RequestedDate.Before(reference) {
		errs = append(errs, &ValidationError{
			Field:   "requested_date",
			Value:   tx.RequestedDate.Format("2006-01-02"),
			Rule:    RuleRequestedDate,
			Message: fmt.Sprintf("Requested date must not be before %s", reference.Format("2006-01-02")),
		})
	}

	return errs
}

// SchemaCompatible reports whether tx can be expressed in the schema variant.
// Variants accepting any transaction return true; all others need a creditor
// BIC and the SEPA service level.
func SchemaCompatible(tx types.Transaction, caps schema.Capabilities) bool {
	if caps.AcceptsAnyTransaction {
		return true
	}
	return tx.BIC != "" && tx.ServiceLevel == types.ServiceLevelSEPA
}

// =============================================================================
// FIELD VALIDATORS
// =============================================================================

func validateName(field, value string) Errors {
	if strings.TrimSpace(value) == "" {
		return Errors{required(field)}
	}
	return validateText(field, value, maxNameLength)
}

// validateText checks free text: at most limit characters, no control
// characters. XML 1.0 cannot carry most of them.
func validateText(field, value string, limit int) Errors {
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return Errors{{
			Field:   field,
			Value:   value,
			Rule:    RuleFormat,
			Message: "Value contains control characters",
		}}
	}
	return maxLength(field, value, limit)
}

func validateIBAN(field, value string) Errors {
	if value == "" {
		return Errors{required(field)}
	}
	if !IsValidIBAN(value) {
		return Errors{{
			Field:   field,
			Value:   value,
			Rule:    RuleFormat,
			Message: "Value is not a valid IBAN",
		}}
	}
	return nil
}

// validateBIC accepts an empty value; the BIC is optional everywhere.
func validateBIC(field, value string) Errors {
	if value == "" || IsValidBIC(value) {
		return nil
	}
	return Errors{{
		Field:   field,
		Value:   value,
		Rule:    RuleFormat,
		Message: "Value is not a valid BIC",
	}}
}

func validateAmount(amount decimal.Decimal) Errors {
	if !amount.IsPositive() {
		return Errors{{
			Field:   "amount",
			Value:   amount.String(),
			Rule:    RuleAmount,
			Message: "Amount must be greater than zero",
		}}
	}
	if amount.GreaterThan(maxAmount) {
		return Errors{{
			Field:   "amount",
			Value:   amount.String(),
			Rule:    RuleAmount,
			Message: fmt.Sprintf("Amount must not exceed %s", maxAmount.StringFixed(2)),
		}}
	}
	// InstdAmt carries two decimals and CtrlSum must equal their sum.
	// Trailing zeros ("12.500") are fine.
	if !amount.Equal(amount.Round(2)) {
		return Errors{{
			Field:   "amount",
			Value:   amount.String(),
			Rule:    RuleAmount,
			Message: "Amount must not have more than two decimal places",
		}}
	}
	return nil
}

func maxLength(field, value string, limit int) Errors {
	if n := utf8.RuneCountInString(value); n > limit {
		return Errors{{
			Field:   field,
			Value:   value,
			Rule:    RuleMaxLength,
			Message: fmt.Sprintf("Value exceeds maximum length of %d characters (actual: %d)", limit, n),
		}}
	}
	return nil
}

func required(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Rule:    RuleRequired,
		Message: fmt.Sprintf("Required field '%s' is empty", field),
	}
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
