package message

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/pain001-converter/internal/grouping"
	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/ginjaninja78/pain001-converter/internal/xmlwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// variantTree returns the document of a two transaction message for variant,
// all transactions carrying level. Combinations the variant refuses are
// checked for the schema compatibility error and then assembled directly.
func variantTree(t *testing.T, variant schema.Variant, level types.ServiceLevel) *xmlwriter.Element {
	t.Helper()

	account := types.Account{Name: "Acme", IBAN: "CH9300762011623852957", BIC: "UBSWCHZH80A"}
	m := New(account, WithMessageID("MSG-3"), WithClock(clock))

	first := creditTransfer("E2E-1", "10.00")
	first.Instruction = "INSTR-1"
	first.RemittanceInformation = "Invoice 1"
	first.ServiceLevel = level
	second := creditTransfer("E2E-2", "5.25")
	second.ServiceLevel = level
	m.AddTransaction(first)
	m.AddTransaction(second)

	root, err := m.Document(variant)
	if err == nil {
		return root
	}

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "unexpected error: %v", err)
	for _, e := range verrs {
		require.Equal(t, validation.RuleSchemaCompatibility, e.Rule)
	}

	caps, err := schema.Lookup(variant)
	require.NoError(t, err)
	root, err = Assemble(Header{MessageID: m.MessageID(), CreatedAt: fixedNow}, account,
		grouping.GroupTransactions(m.Transactions()), caps)
	require.NoError(t, err)
	return root
}

func TestAssembleVariantDifferences(t *testing.T) {
	tests := []struct {
		variant       schema.Variant
		agent         string
		wrapsDate     bool
		currency      string
		dropsSEPACode bool
	}{
		{schema.Pain00100303, "BIC", false, "EUR", false},
		{schema.Pain00100203, "BIC", false, "EUR", false},
		{schema.Pain00100109, "BICFI", true, "EUR", false},
		{schema.Pain00100109CH03, "BICFI", true, "CHF", true},
		{schema.Pain00100103CH02, "BIC", false, "CHF", true},
	}
	require.Len(t, tests, len(schema.All()))

	for _, tt := range tests {
		for _, level := range []types.ServiceLevel{types.ServiceLevelSEPA, types.ServiceLevelURGP} {
			t.Run(string(tt.variant)+"/"+string(level), func(t *testing.T) {
				root := variantTree(t, tt.variant, level)

				payments := root.Child("CstmrCdtTrfInitn").ChildrenNamed("PmtInf")
				require.Len(t, payments, 1)
				pmtInf := payments[0]

				// Service level
				if tt.dropsSEPACode && level == types.ServiceLevelSEPA {
					assert.Nil(t, pmtInf.Child("PmtTpInf"))
				} else {
					code := pmtInf.Find("PmtTpInf/SvcLvl/Cd")
					require.NotNil(t, code)
					assert.Equal(t, string(level), code.Value)
				}

				// Requested execution date
				date := pmtInf.Child("ReqdExctnDt")
				require.NotNil(t, date)
				if tt.wrapsDate {
					require.NotNil(t, date.Child("Dt"))
					assert.Equal(t, "2026-10-20", date.Child("Dt").Value)
					assert.Empty(t, date.Value)
				} else {
					assert.Equal(t, "2026-10-20", date.Value)
					assert.Empty(t, date.Children)
				}

				// Agents
				other := "BIC"
				if tt.agent == "BIC" {
					other = "BICFI"
				}
				debtorAgent := pmtInf.Find("DbtrAgt/FinInstnId")
				require.NotNil(t, debtorAgent)
				require.NotNil(t, debtorAgent.Child(tt.agent))
				assert.Equal(t, "UBSWCHZH80A", debtorAgent.Child(tt.agent).Value)
				assert.Nil(t, debtorAgent.Child(other))

				transfers := pmtInf.ChildrenNamed("CdtTrfTxInf")
				require.Len(t, transfers, 2)
				for _, tx := range transfers {
					creditorAgent := tx.Find("CdtrAgt/FinInstnId")
					require.NotNil(t, creditorAgent)
					require.NotNil(t, creditorAgent.Child(tt.agent))
					assert.Equal(t, "DEUTDEFF", creditorAgent.Child(tt.agent).Value)
					assert.Nil(t, creditorAgent.Child(other))

					amount := tx.Find("Amt/InstdAmt")
					require.NotNil(t, amount)
					ccy, ok := amount.AttrValue("Ccy")
					assert.True(t, ok)
					assert.Equal(t, tt.currency, ccy)
				}

				// Optional transaction fields
				assert.Equal(t, "INSTR-1", transfers[0].Find("PmtId/InstrId").Value)
				assert.Equal(t, "E2E-1", transfers[0].Find("PmtId/EndToEndId").Value)
				assert.Equal(t, "Invoice 1", transfers[0].Find("RmtInf/Ustrd").Value)
				assert.Nil(t, transfers[1].Find("PmtId/InstrId"))
				assert.Equal(t, "E2E-2", transfers[1].Find("PmtId/EndToEndId").Value)
				assert.Nil(t, transfers[1].Child("RmtInf"))
			})
		}
	}
}

func TestAssembleDebtorAgentWithoutBIC(t *testing.T) {
	caps, err := schema.Lookup(schema.Pain00100109)
	require.NoError(t, err)

	groups := grouping.GroupTransactions([]types.Transaction{creditTransfer("X1", "1")})
	root, err := Assemble(Header{MessageID: "MSG-4", CreatedAt: fixedNow}, acme(), groups, caps)
	require.NoError(t, err)

	agent := root.Find("CstmrCdtTrfInitn/PmtInf/DbtrAgt/FinInstnId")
	require.NotNil(t, agent)
	assert.Nil(t, agent.Child("BICFI"))
	assert.Equal(t, types.NotProvided, agent.Find("Othr/Id").Value)
	assert.Equal(t, "MSG-4/1", root.Find("CstmrCdtTrfInitn/PmtInf/PmtInfId").Value)
}
