package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTransactionDefaults(t *testing.T) {
	tx := NewTransaction(TransactionInput{
		Name:   "Creditor",
		IBAN:   "DE89370400440532013000",
		Amount: decimal.RequireFromString("1.00"),
	})

	assert.Equal(t, NotProvided, tx.Reference)
	assert.Equal(t, DefaultRequestedDate, tx.RequestedDate)
	assert.True(t, tx.BatchBooking)
	assert.Equal(t, ServiceLevelSEPA, tx.ServiceLevel)
}

func TestNewTransactionKeepsExplicitValues(t *testing.T) {
	batch := false
	when := time.Date(2026, time.November, 2, 15, 30, 0, 0, time.UTC)

	tx := NewTransaction(TransactionInput{
		Reference:     "X1",
		RequestedDate: when,
		BatchBooking:  &batch,
		ServiceLevel:  ServiceLevelURGP,
	})

	assert.Equal(t, "X1", tx.Reference)
	assert.Equal(t, Date(2026, time.November, 2), tx.RequestedDate)
	assert.False(t, tx.BatchBooking)
	assert.Equal(t, ServiceLevelURGP, tx.ServiceLevel)
}

func TestServiceLevelValid(t *testing.T) {
	assert.True(t, ServiceLevelSEPA.Valid())
	assert.True(t, ServiceLevelURGP.Valid())
	assert.False(t, ServiceLevel("NURG").Valid())
	assert.False(t, ServiceLevel("").Valid())
}
