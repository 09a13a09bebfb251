package ledger

import "banko/internal/core"

// SignedCents is the transaction's contribution to the account
// balance: the stored magnitude, negated for outflows. The is-negative
// flag is authoritative regardless of how the amount was entered.
func SignedCents(t core.Transaction) int64 {
	v := abs(t.Amount.Cents)
	if t.IsNegative {
		return -v
	}
	return v
}

// CreateDelta is the balance adjustment for recording t.
func CreateDelta(t core.Transaction) int64 {
	return SignedCents(t)
}

// UpdateDelta is the balance adjustment for replacing old with updated.
// Applied after CreateDelta(old), the account ends up exactly where a
// fresh CreateDelta(updated) would have put it.
func UpdateDelta(old, updated core.Transaction) int64 {
	return SignedCents(updated) - SignedCents(old)
}

// DeleteDelta is the balance adjustment for removing t.
func DeleteDelta(t core.Transaction) int64 {
	return -SignedCents(t)
}

// RecomputeCents derives the balance from scratch: the initial amount
// plus the signed contribution of every transaction. Used to repair or
// audit the incrementally maintained figure.
func RecomputeCents(initial int64, txs []core.Transaction) int64 {
	total := initial
	for _, t := range txs {
		total += SignedCents(t)
	}
	return total
}
