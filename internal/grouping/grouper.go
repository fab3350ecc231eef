// =============================================================================
// pain.001 Converter - Transaction Grouper
// =============================================================================
//
// This module partitions credit transfer transactions into payment
// information groups. Every group becomes one <PmtInf> block.
//
// GROUPING LOGIC:
//   Transactions sharing requested date, batch booking flag and service level
//   belong to the same group. Groups keep the order in which their key was
//   first seen; transactions keep their input order within a group. Keys are
//   never sorted.
//
// =============================================================================

package grouping

import (
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/shopspring/decimal"
)

// GroupKey identifies a payment information group.
type GroupKey struct {
	RequestedDate time.Time
	BatchBooking  bool
	ServiceLevel  types.ServiceLevel
}

// KeyOf returns the group key of a transaction.
func KeyOf(tx types.Transaction) GroupKey {
	return GroupKey{
		RequestedDate: types.DateOf(tx.RequestedDate),
		BatchBooking:  tx.BatchBooking,
		ServiceLevel:  tx.ServiceLevel,
	}
}

// Group is one payment information group.
type Group struct {
	// Key is the shared key of all transactions in the group.
	Key GroupKey

	// Transactions are the members in input order.
	Transactions []types.Transaction
}

// GroupTransactions partitions transactions into groups.
//
// PARAMETERS:
//   - transactions: The validated transactions of one message.
//
// RETURNS:
//   - The groups in first-seen order. Every transaction appears in exactly
//     one group.
func GroupTransactions(transactions []types.Transaction) []Group {
	index := make(map[GroupKey]int)
	groups := []Group{} // Maintain order of first occurrence

	for _, tx := range transactions {
		key := KeyOf(tx)
		pos, exists := index[key]
		if !exists {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Transactions = append(groups[pos].Transactions, tx)
	}

	return groups
}

// AmountTotal returns the exact sum of the transaction amounts.
// Rounding to two decimals is left to serialisation.
func AmountTotal(transactions []types.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

// Total returns the exact sum of the group's amounts.
func (g Group) Total() decimal.Decimal {
	return AmountTotal(g.Transactions)
}
