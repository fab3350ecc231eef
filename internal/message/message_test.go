package message

import (
	"encoding/xml"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func acme() types.Account {
	return types.Account{Name: "Acme", IBAN: "DE89370400440532013000"}
}

func creditTransfer(ref, amount string) types.Transaction {
	return types.NewTransaction(types.TransactionInput{
		Reference:     ref,
		Name:          "Widget GmbH",
		IBAN:          "GB29NWBK60161331926819",
		BIC:           "DEUTDEFF",
		Amount:        decimal.RequireFromString(amount),
		RequestedDate: fixedNow.AddDate(0, 0, 1),
		ServiceLevel:  types.ServiceLevelSEPA,
	})
}

func TestBuildLegacyScenario(t *testing.T) {
	m := New(acme(), WithMessageID("MSG-1"), WithClock(clock))
	m.AddTransaction(creditTransfer("X1", "12.50"))

	out, err := m.Build(schema.Pain00100303)
	require.NoError(t, err)

	expected := `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.001.003.03" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="urn:iso:std:iso:20022:tech:xsd:pain.001.003.03 pain.001.003.03.xsd">
  <CstmrCdtTrfInitn>
    <GrpHdr>
      <MsgId>MSG-1</MsgId>
      <CreDtTm>2026-10-19T09:30:00</CreDtTm>
      <NbOfTxs>1</NbOfTxs>
      <CtrlSum>12.50</CtrlSum>
      <InitgPty>
        <Nm>Acme</Nm>
      </InitgPty>
    </GrpHdr>
    <PmtInf>
      <PmtInfId>MSG-1/1</PmtInfId>
      <PmtMtd>TRF</PmtMtd>
      <BtchBookg>true</BtchBookg>
      <NbOfTxs>1</NbOfTxs>
      <CtrlSum>12.50</CtrlSum>
      <PmtTpInf>
        <SvcLvl>
          <Cd>SEPA</Cd>
        </SvcLvl>
      </PmtTpInf>
      <ReqdExctnDt>2026-10-20</ReqdExctnDt>
      <Dbtr>
        <Nm>Acme</Nm>
      </Dbtr>
      <DbtrAcct>
        <Id>
          <IBAN>DE89370400440532013000</IBAN>
        </Id>
      </DbtrAcct>
      <DbtrAgt>
        <FinInstnId>
          <Othr>
            <Id>NOTPROVIDED</Id>
          </Othr>
        </FinInstnId>
      </DbtrAgt>
      <ChrgBr>SLEV</ChrgBr>
      <CdtTrfTxInf>
        <PmtId>
          <EndToEndId>X1</EndToEndId>
        </PmtId>
        <Amt>
          <InstdAmt Ccy="EUR">12.50</InstdAmt>
        </Amt>
        <CdtrAgt>
          <FinInstnId>
            <BIC>DEUTDEFF</BIC>
          </FinInstnId>
        </CdtrAgt>
        <Cdtr>
          <Nm>Widget GmbH</Nm>
        </Cdtr>
        <CdtrAcct>
          <Id>
            <IBAN>GB29NWBK60161331926819</IBAN>
          </Id>
        </CdtrAcct>
      </CdtTrfTxInf>
    </PmtInf>
  </CstmrCdtTrfInitn>
</Document>
`
	assert.Equal(t, expected, string(out))
}

func TestBuildProducesWellFormedXMLForEveryVariant(t *testing.T) {
	m := New(types.Account{Name: "Acme & Co", IBAN: "CH9300762011623852957", BIC: "UBSWCHZH80A"}, WithClock(clock))
	m.AddTransaction(creditTransfer("A-1", "10"))
	tx := creditTransfer("A-2", "20.01")
	tx.RemittanceInformation = "Invoice <42>"
	tx.Instruction = "INSTR-2"
	m.AddTransaction(tx)

	for _, v := range schema.All() {
		t.Run(string(v), func(t *testing.T) {
			out, err := m.Build(v)
			require.NoError(t, err)

			var doc struct {
				XMLName xml.Name
				Inner   struct {
					GrpHdr struct {
						MsgID   string `xml:"MsgId"`
						NbOfTxs int    `xml:"NbOfTxs"`
						CtrlSum string `xml:"CtrlSum"`
					} `xml:"GrpHdr"`
				} `xml:"CstmrCdtTrfInitn"`
			}
			require.NoError(t, xml.Unmarshal(out, &doc))

			caps, _ := schema.Lookup(v)
			assert.Equal(t, caps.Namespace, doc.XMLName.Space)
			assert.Equal(t, "Document", doc.XMLName.Local)
			assert.Equal(t, m.MessageID(), doc.Inner.GrpHdr.MsgID)
			assert.Equal(t, 2, doc.Inner.GrpHdr.NbOfTxs)
			assert.Equal(t, "30.01", doc.Inner.GrpHdr.CtrlSum)
			assert.Contains(t, string(out), "<Ustrd>Invoice &lt;42&gt;</Ustrd>")
		})
	}
}

func TestBuildUnsupportedVariantIsFatal(t *testing.T) {
	m := New(acme(), WithClock(clock))
	m.AddTransaction(creditTransfer("X1", "1"))

	out, err := m.Build(schema.Variant("pain.008.001.02"))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, schema.ErrUnsupportedVariant)

	_, err = m.Validate("nope")
	assert.ErrorIs(t, err, schema.ErrUnsupportedVariant)
}

func TestBuildReturnsValidationErrors(t *testing.T) {
	m := New(acme(), WithClock(clock))
	noBIC := creditTransfer("X1", "1")
	noBIC.BIC = ""
	m.AddTransaction(noBIC)

	// Accepted by the legacy variant that allows any transaction.
	_, err := m.Build(schema.Pain00100303)
	require.NoError(t, err)

	out, err := m.Build(schema.Pain00100109)
	assert.Nil(t, out)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, validation.RuleSchemaCompatibility, verrs[0].Rule)
	assert.Equal(t, 1, verrs[0].TransactionIndex)
}

func TestBuildRejectsEmptyMessageAndBadMessageID(t *testing.T) {
	m := New(acme(), WithMessageID("bad_id#"), WithClock(clock))

	_, err := m.Build(schema.Pain00100203)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	fields := []string{}
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"message_id", "transactions"}, fields)
}

func TestBuildRejectsUnrepresentableValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tx *types.Transaction)
		field  string
		rule   string
	}{
		{"sub-cent amounts", func(tx *types.Transaction) { tx.Amount = decimal.RequireFromString("10.005") }, "amount", validation.RuleAmount},
		{"control character in remittance", func(tx *types.Transaction) { tx.RemittanceInformation = "Inv\x0242" }, "remittance_information", validation.RuleFormat},
		{"control character in name", func(tx *types.Transaction) { tx.Name = "Widget\x0cGmbH" }, "name", validation.RuleFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(acme(), WithClock(clock))
			tx := creditTransfer("X1", "10")
			tt.mutate(&tx)
			m.AddTransaction(tx)
			m.AddTransaction(creditTransfer("X2", "10"))

			out, err := m.Build(schema.Pain00100303)
			assert.Nil(t, out)

			var verrs validation.Errors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
			assert.Equal(t, tt.rule, verrs[0].Rule)
		})
	}
}

func TestBuildControlSumMatchesInstructedAmounts(t *testing.T) {
	m := New(acme(), WithClock(clock))
	m.AddTransaction(creditTransfer("X1", "10.50"))
	m.AddTransaction(creditTransfer("X2", "12.500"))

	out, err := m.Build(schema.Pain00100203)
	require.NoError(t, err)

	var doc struct {
		CtrlSum string   `xml:"CstmrCdtTrfInitn>GrpHdr>CtrlSum"`
		Amounts []string `xml:"CstmrCdtTrfInitn>PmtInf>CdtTrfTxInf>Amt>InstdAmt"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))

	sum := decimal.Zero
	for _, a := range doc.Amounts {
		sum = sum.Add(decimal.RequireFromString(a))
	}
	assert.Equal(t, []string{"10.50", "12.50"}, doc.Amounts)
	assert.Equal(t, sum.StringFixed(2), doc.CtrlSum)
}

func TestValidateKeepsErrorListsIndependent(t *testing.T) {
	m := New(types.Account{Name: "Acme"}, WithMessageID("bad_id#"), WithClock(clock))

	result, err := m.Validate(schema.Pain00100303)
	require.NoError(t, err)

	fields := func(errs validation.Errors) []string {
		out := []string{}
		for _, e := range errs {
			out = append(out, e.Field)
		}
		return out
	}
	require.Equal(t, []string{"message_id", "transactions", "iban"}, fields(result.Errors))
	require.Equal(t, []string{"iban", "message_id", "transactions"}, fields(result.AccountErrors))

	extra := &validation.ValidationError{Field: "extra"}
	result.AccountErrors = append(result.AccountErrors, extra)
	result.Errors = append(result.Errors, extra)
	result.Errors[0] = extra

	assert.Equal(t, []string{"iban", "message_id", "transactions", "extra"}, fields(result.AccountErrors))
	assert.Equal(t, []string{"extra", "transactions", "iban", "extra"}, fields(result.Errors))
}

func TestBuildRejectsPastDates(t *testing.T) {
	m := New(acme(), WithClock(clock))
	tx := creditTransfer("X1", "1")
	tx.RequestedDate = types.Date(2026, time.October, 18)
	m.AddTransaction(tx)

	_, err := m.Build(schema.Pain00100303)
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, validation.RuleRequestedDate, verrs[0].Rule)
}

func TestExcludeInvalid(t *testing.T) {
	m := New(acme(), WithMessageID("MSG-2"), WithClock(clock))
	m.AddTransaction(creditTransfer("OK-1", "1"))
	urgent := creditTransfer("URG-1", "2")
	urgent.ServiceLevel = types.ServiceLevelURGP
	m.AddTransaction(urgent)
	m.AddTransaction(creditTransfer("OK-2", "3"))

	kept, dropped, err := m.ExcludeInvalid(schema.Pain00100109CH03)
	require.NoError(t, err)
	require.Len(t, dropped, 1)
	assert.Equal(t, "URG-1", dropped[0].Reference)

	refs := []string{}
	for _, tx := range kept.Transactions() {
		refs = append(refs, tx.Reference)
	}
	assert.Equal(t, []string{"OK-1", "OK-2"}, refs)
	assert.Equal(t, "MSG-2", kept.MessageID())
	assert.Len(t, m.Transactions(), 3, "original message untouched")

	_, err = kept.Build(schema.Pain00100109CH03)
	assert.NoError(t, err)
}

func TestExcludeInvalidReportsAccountErrors(t *testing.T) {
	m := New(types.Account{Name: "Acme"}, WithClock(clock))
	m.AddTransaction(creditTransfer("OK-1", "1"))

	kept, _, err := m.ExcludeInvalid(schema.Pain00100303)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'iban'")
	assert.Len(t, kept.Transactions(), 1)
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	assert.True(t, strings.HasPrefix(id, "PAIN/"))
	assert.Len(t, id, 25)
	assert.True(t, validation.IsValidIdentifier(id))
	assert.NotEqual(t, id, NewMessageID())
	assert.NotEmpty(t, New(acme()).MessageID())
}

func TestConcurrentBuildsAcrossVariants(t *testing.T) {
	m := New(acme(), WithClock(clock))
	for i := 0; i < 20; i++ {
		m.AddTransaction(creditTransfer("R", "1.10"))
	}

	var wg sync.WaitGroup
	results := make([][]byte, 0)
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		for _, v := range schema.All() {
			wg.Add(1)
			go func(v schema.Variant) {
				defer wg.Done()
				out, err := m.Build(v)
				assert.NoError(t, err)
				mu.Lock()
				results = append(results, out)
				mu.Unlock()
			}(v)
		}
	}
	wg.Wait()

	assert.Len(t, results, 10*len(schema.All()))
	for _, out := range results {
		assert.Contains(t, string(out), "<CtrlSum>22.00</CtrlSum>")
	}
}
