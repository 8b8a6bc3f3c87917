package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/warikan/internal/models"
)

// epsilon is the magnitude below which a balance counts as settled.
const epsilon = 1e-6

type position struct {
	id     string
	amount float64
}

// MatchSettlements turns net balances into a short list of transfers using
// greedy matching: the largest creditor is paid by the largest debtors first.
//
// Creditors are visited in descending order and, for each, debtors in
// ascending order (most negative first). Equal balances keep their input
// order, so the output is deterministic. Amounts are rounded to whole yen
// only when a transfer is emitted; transfers that round to zero are dropped.
//
// The result holds at most C+D-1 transfers for C creditors and D debtors.
func MatchSettlements(balances Balances) []models.Settlement {
	var creditors, debtors []position
	for _, bal := range balances {
		switch {
		case bal.Amount > epsilon:
			creditors = append(creditors, position{id: bal.ParticipantID, amount: bal.Amount})
		case bal.Amount < -epsilon:
			debtors = append(debtors, position{id: bal.ParticipantID, amount: bal.Amount})
		}
	}
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount < debtors[j].amount })

	var settlements []models.Settlement
	for ci := range creditors {
		creditor := &creditors[ci]
		for di := range debtors {
			if creditor.amount <= epsilon {
				break
			}
			debtor := &debtors[di]
			if debtor.amount >= -epsilon {
				continue
			}

			amount := min(creditor.amount, -debtor.amount)
			if rounded := roundYen(amount); rounded > 0 {
				settlements = append(settlements, models.Settlement{
					FromID: debtor.id,
					ToID:   creditor.id,
					Amount: rounded,
					Status: models.StatusPending,
				})
			}

			creditor.amount -= amount
			debtor.amount += amount
		}
	}

	return settlements
}

// Settle computes the settlement list for a payment set.
func Settle(participants []string, payments []models.Payment) []models.Settlement {
	return MatchSettlements(ComputeBalances(participants, payments))
}

// roundYen rounds half away from zero to an integral yen amount.
func roundYen(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(0).IntPart()
}
