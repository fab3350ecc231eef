package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/grouping"
	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/ginjaninja78/pain001-converter/internal/xmlwriter"
	"github.com/google/uuid"
)

// messageIDPrefix starts every generated message id.
const messageIDPrefix = "PAIN/"

// Message is one credit transfer initiation: a debtor account and the
// transactions to pay from it.
//
// Build only reads the message, so one Message may be built for several
// variants, also concurrently. Adding transactions while a build runs is not
// safe.
type Message struct {
	account      types.Account
	transactions []types.Transaction
	messageID    string
	now          func() time.Time
}

// Option configures a Message.
type Option func(*Message)

// WithMessageID overrides the generated message id. The id is checked
// (1-35 characters of the SEPA character set) when the message is validated.
func WithMessageID(id string) Option {
	return func(m *Message) {
		m.messageID = id
	}
}

// WithClock sets the time source used for CreDtTm and for the earliest
// acceptable requested date.
func WithClock(now func() time.Time) Option {
	return func(m *Message) {
		m.now = now
	}
}

// New creates an empty message for the given debtor account.
func New(account types.Account, opts ...Option) *Message {
	m := &Message{
		account: account,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.messageID == "" {
		m.messageID = NewMessageID()
	}
	return m
}

// NewMessageID returns a random message id such as "PAIN/9f0c3e1a2b4d5c6e7f80".
// The id leaves room for the "/<n>" suffix of payment information ids within
// the 35 character limit.
func NewMessageID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return messageIDPrefix + hex[:20]
}

// AddTransaction appends a transaction. Defaults must already be applied
// (see types.NewTransaction).
func (m *Message) AddTransaction(tx types.Transaction) {
	m.transactions = append(m.transactions, tx)
}

// Account returns the debtor account.
func (m *Message) Account() types.Account {
	return m.account
}

// MessageID returns the MsgId of the message.
func (m *Message) MessageID() string {
	return m.messageID
}

// Transactions returns a copy of the transactions in insertion order.
func (m *Message) Transactions() []types.Transaction {
	out := make([]types.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// Validate checks the message against a schema variant. The only error is
// schema.ErrUnsupportedVariant; validation findings are in the result.
func (m *Message) Validate(variant schema.Variant) (*validation.ValidationResult, error) {
	caps, err := schema.Lookup(variant)
	if err != nil {
		return nil, err
	}
	return m.validate(caps, m.now()), nil
}

func (m *Message) validate(caps schema.Capabilities, referenceDate time.Time) *validation.ValidationResult {
	v := validation.NewValidator(validation.ValidationOptions{ReferenceDate: referenceDate})
	result := v.ValidateAll(m.account, m.transactions, caps)

	var messageErrors validation.Errors
	if !validation.IsValidIdentifier(m.messageID) {
		messageErrors = append(messageErrors, &validation.ValidationError{
			Field:   "message_id",
			Value:   m.messageID,
			Rule:    validation.RuleFormat,
			Message: "Message id must be 1-35 characters of the SEPA character set",
		})
	}
	if len(m.transactions) == 0 {
		messageErrors = append(messageErrors, &validation.ValidationError{
			Field:   "transactions",
			Rule:    validation.RuleRequired,
			Message: "Message contains no transactions",
		})
	}

	result.AccountErrors = append(result.AccountErrors, messageErrors...)
	errs := make(validation.Errors, 0, len(messageErrors)+len(result.Errors))
	errs = append(errs, messageErrors...)
	result.Errors = append(errs, result.Errors...)
	return result
}

// ExcludeInvalid returns a copy of the message holding only the transactions
// that pass validation for variant, together with the errors of the dropped
// ones. Account and message level errors are not recoverable this way and are
// returned as the error value.
func (m *Message) ExcludeInvalid(variant schema.Variant) (*Message, validation.Errors, error) {
	result, err := m.Validate(variant)
	if err != nil {
		return nil, nil, err
	}

	kept := &Message{
		account:   m.account,
		messageID: m.messageID,
		now:       m.now,
	}

	var dropped validation.Errors
	for i, tx := range m.transactions {
		if errs, bad := result.TransactionErrors[i+1]; bad {
			dropped = append(dropped, errs...)
			continue
		}
		kept.transactions = append(kept.transactions, tx)
	}

	if len(result.AccountErrors) > 0 {
		return kept, dropped, result.AccountErrors
	}
	return kept, dropped, nil
}

// Document validates the message and assembles the element tree for variant.
//
// RETURNS:
//   - The <Document> tree.
//   - schema.ErrUnsupportedVariant (wrapped) for unknown variants.
//   - validation.Errors when any validation rule fails. Nothing is assembled
//     in that case.
func (m *Message) Document(variant schema.Variant) (*xmlwriter.Element, error) {
	caps, err := schema.Lookup(variant)
	if err != nil {
		return nil, err
	}

	now := m.now()

	result := m.validate(caps, now)
	if !result.Valid() {
		return nil, result.Errors
	}

	groups := grouping.GroupTransactions(m.transactions)
	header := Header{MessageID: m.messageID, CreatedAt: now}

	root, err := Assemble(header, m.account, groups, caps)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", variant, err)
	}
	return root, nil
}

// Build returns the serialized XML document for variant.
func (m *Message) Build(variant schema.Variant) ([]byte, error) {
	root, err := m.Document(variant)
	if err != nil {
		return nil, err
	}
	return xmlwriter.Marshal(root)
}
