package models

import "fmt"

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	// StatusPending marks a transfer that has not been paid yet.
	StatusPending SettlementStatus = "pending"
	// StatusCompleted marks a transfer a user asserted as paid in real life.
	StatusCompleted SettlementStatus = "completed"
)

// ParseSettlementStatus converts a wire value to a SettlementStatus.
func ParseSettlementStatus(s string) (SettlementStatus, error) {
	switch SettlementStatus(s) {
	case StatusPending, StatusCompleted:
		return SettlementStatus(s), nil
	}
	return "", fmt.Errorf("unknown settlement status: %q", s)
}

// Settlement is a directed transfer that moves a debtor and a creditor toward zero.
//
// Completed settlements are not subtracted from later balance computations;
// balances always derive from payments alone.
type Settlement struct {
	// ID is empty until the settlement is persisted.
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromID is the participant who pays (debtor).
	FromID string

	// ToID is the participant who receives (creditor).
	ToID string

	// Amount is the transfer in yen. Always positive.
	Amount int64

	Status SettlementStatus

	// CreatedAt is the Unix timestamp when the settlement was persisted.
	CreatedAt int64
}

// Pair identifies the (from, to) direction of a settlement.
type Pair struct {
	From string
	To   string
}

// Pair returns the settlement's direction.
func (s *Settlement) Pair() Pair {
	return Pair{From: s.FromID, To: s.ToID}
}
