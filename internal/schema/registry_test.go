package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCapabilities(t *testing.T) {
	tests := []struct {
		variant    Variant
		field      string
		wrapsDate  bool
		omitsSEPA  bool
		acceptsAny bool
		currency   string
	}{
		{Pain00100303, "BIC", false, false, true, CurrencyEUR},
		{Pain00100203, "BIC", false, false, false, CurrencyEUR},
		{Pain00100109, "BICFI", true, false, false, CurrencyEUR},
		{Pain00100109CH03, "BICFI", true, true, false, CurrencyCHF},
		{Pain00100103CH02, "BIC", false, true, false, CurrencyCHF},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			caps, err := Lookup(tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, caps.Variant)
			assert.Equal(t, tt.field, caps.AgentFieldName())
			assert.Equal(t, tt.wrapsDate, caps.WrapsExecutionDate)
			assert.Equal(t, tt.omitsSEPA, caps.OmitsServiceLevelForSEPA)
			assert.Equal(t, tt.acceptsAny, caps.AcceptsAnyTransaction)
			assert.Equal(t, tt.currency, caps.Currency)
			assert.NotEmpty(t, caps.Namespace)
		})
	}
}

func TestLookupUnknownVariant(t *testing.T) {
	_, err := Lookup(Variant("pain.008.001.02"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))
}

func TestParse(t *testing.T) {
	v, err := Parse("  PAIN.001.001.09.CH.03 ")
	require.NoError(t, err)
	assert.Equal(t, Pain00100109CH03, v)

	_, err = Parse("pain.001.001.99")
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	all[0] = "mutated"
	assert.Equal(t, Pain00100303, All()[0])

	for _, v := range All() {
		_, err := Lookup(v)
		assert.NoError(t, err, "every listed variant has a table row")
	}
}
