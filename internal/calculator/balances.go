package calculator

import "github.com/mmynk/warikan/internal/models"

// Balance is one participant's net position.
type Balance struct {
	ParticipantID string
	Amount        float64 // Positive = owed money, Negative = owes money
}

// Balances is an ordered list of net positions. Order is the participant
// order passed to ComputeBalances and drives tie-breaks in MatchSettlements.
type Balances []Balance

// Map returns the balances keyed by participant ID.
func (b Balances) Map() map[string]float64 {
	m := make(map[string]float64, len(b))
	for _, bal := range b {
		m[bal.ParticipantID] = bal.Amount
	}
	return m
}

// Sum returns the total of all balances. It is zero up to float error.
func (b Balances) Sum() float64 {
	var sum float64
	for _, bal := range b {
		sum += bal.Amount
	}
	return sum
}

// ComputeBalances derives every participant's net balance from raw payments.
//
// Algorithm:
// - Every participant starts at 0
// - The payer is credited the full amount
// - The amount is split evenly across the beneficiaries plus the payer,
//   and each target is debited its share (no intermediate rounding)
//
// Payments that reference IDs outside participants still count; those IDs are
// appended in first-seen order.
func ComputeBalances(participants []string, payments []models.Payment) Balances {
	index := make(map[string]int, len(participants))
	balances := make(Balances, 0, len(participants))
	slot := func(id string) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(balances)
		balances = append(balances, Balance{ParticipantID: id})
		return len(balances) - 1
	}
	for _, id := range participants {
		slot(id)
	}

	for i := range payments {
		payment := &payments[i]
		targets := payment.Targets()
		if len(targets) == 0 {
			continue
		}

		balances[slot(payment.PayerID)].Amount += float64(payment.Amount)

		share := float64(payment.Amount) / float64(len(targets))
		for _, id := range targets {
			balances[slot(id)].Amount -= share
		}
	}

	return balances
}
