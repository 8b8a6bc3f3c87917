package reconcile

import (
	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
)

// Plan describes how to move persisted settlements to a computed set.
type Plan struct {
	// Keep are persisted settlements that already match a computed transfer.
	Keep []*models.Settlement

	// Insert are computed transfers with no matching persisted settlement.
	Insert []*models.Settlement

	// Delete are persisted settlements with no matching computed transfer.
	Delete []*models.Settlement

	// final lists Keep and Insert entries in computed order.
	final []*models.Settlement

	// current holds the IDs of the persisted settlements, in listing order.
	current []string
}

// Diff matches computed transfers against persisted settlements by (from, to)
// pair and amount. Computed settlements are copied; the inputs are not modified.
func Diff(groupID string, current []*models.Settlement, computed []models.Settlement) Plan {
	byPair := make(map[models.Pair][]*models.Settlement, len(current))
	for _, s := range current {
		byPair[s.Pair()] = append(byPair[s.Pair()], s)
	}
	used := make(map[*models.Settlement]bool, len(current))

	plan := Plan{current: make([]string, len(current))}
	for i, s := range current {
		plan.current[i] = s.ID
	}
	for i := range computed {
		want := computed[i]

		var match *models.Settlement
		for _, candidate := range byPair[want.Pair()] {
			if !used[candidate] && candidate.Amount == want.Amount {
				match = candidate
				break
			}
		}

		if match != nil {
			used[match] = true
			plan.Keep = append(plan.Keep, match)
			plan.final = append(plan.final, match)
			continue
		}

		insert := &models.Settlement{
			GroupID: groupID,
			FromID:  want.FromID,
			ToID:    want.ToID,
			Amount:  want.Amount,
			Status:  models.StatusPending,
		}
		plan.Insert = append(plan.Insert, insert)
		plan.final = append(plan.final, insert)
	}

	for _, s := range current {
		if !used[s] {
			plan.Delete = append(plan.Delete, s)
		}
	}
	return plan
}

// Settlements returns the settlement set after the plan is applied, in
// computed order. Inserted entries get their IDs once the plan is stored.
func (p Plan) Settlements() []*models.Settlement {
	return p.final
}

// HasWrites reports whether applying the plan changes anything, including
// only the listing order of kept settlements.
func (p Plan) HasWrites() bool {
	if len(p.Insert) > 0 || len(p.Delete) > 0 {
		return true
	}
	for i, s := range p.final {
		if s.ID != p.current[i] {
			return true
		}
	}
	return false
}

// StoragePlan converts the plan into the store's write set.
func (p Plan) StoragePlan() storage.SettlementPlan {
	ids := make([]string, len(p.Delete))
	for i, s := range p.Delete {
		ids[i] = s.ID
	}
	return storage.SettlementPlan{
		Current: p.current,
		Delete:  ids,
		Insert:  p.Insert,
		Order:   p.final,
	}
}
