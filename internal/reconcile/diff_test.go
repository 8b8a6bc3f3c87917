package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/warikan/internal/models"
)

func pending(from, to string, amount int64) models.Settlement {
	return models.Settlement{FromID: from, ToID: to, Amount: amount, Status: models.StatusPending}
}

func persisted(id, from, to string, amount int64, status models.SettlementStatus) *models.Settlement {
	return &models.Settlement{ID: id, GroupID: "g", FromID: from, ToID: to, Amount: amount, Status: status}
}

func TestDiffInitialComputation(t *testing.T) {
	plan := Diff("g", nil, []models.Settlement{pending("B", "A", 1000), pending("C", "A", 1000)})

	assert.Empty(t, plan.Keep)
	assert.Empty(t, plan.Delete)
	require.Len(t, plan.Insert, 2)
	for _, s := range plan.Insert {
		assert.Equal(t, "g", s.GroupID)
		assert.Equal(t, models.StatusPending, s.Status)
		assert.Empty(t, s.ID)
	}
	assert.True(t, plan.HasWrites())
}

func TestDiffPreservesCompletedWhenUnchanged(t *testing.T) {
	current := []*models.Settlement{
		persisted("s1", "B", "A", 1000, models.StatusCompleted),
		persisted("s2", "C", "A", 1000, models.StatusPending),
	}
	plan := Diff("g", current, []models.Settlement{pending("B", "A", 1000), pending("C", "A", 1000)})

	assert.False(t, plan.HasWrites())
	require.Len(t, plan.Settlements(), 2)
	assert.Equal(t, "s1", plan.Settlements()[0].ID)
	assert.Equal(t, models.StatusCompleted, plan.Settlements()[0].Status)
	assert.Equal(t, "s2", plan.Settlements()[1].ID)
}

func TestDiffAmountChangeDropsCompleted(t *testing.T) {
	current := []*models.Settlement{
		persisted("s1", "B", "A", 1000, models.StatusCompleted),
		persisted("s2", "C", "A", 1000, models.StatusPending),
	}
	plan := Diff("g", current, []models.Settlement{pending("B", "A", 2000), pending("C", "A", 2000)})

	assert.Empty(t, plan.Keep)
	require.Len(t, plan.Delete, 2)
	require.Len(t, plan.Insert, 2)
	for _, s := range plan.Settlements() {
		assert.Equal(t, int64(2000), s.Amount)
		assert.Equal(t, models.StatusPending, s.Status)
	}
	assert.ElementsMatch(t, []string{"s1", "s2"}, plan.StoragePlan().Delete)
}

func TestDiffRemovesVanishedPairs(t *testing.T) {
	current := []*models.Settlement{
		persisted("s1", "B", "A", 1000, models.StatusCompleted),
		persisted("s2", "C", "A", 500, models.StatusPending),
	}
	plan := Diff("g", current, []models.Settlement{pending("B", "A", 1000)})

	require.Len(t, plan.Keep, 1)
	assert.Equal(t, "s1", plan.Keep[0].ID)
	require.Len(t, plan.Delete, 1)
	assert.Equal(t, "s2", plan.Delete[0].ID)
	assert.Empty(t, plan.Insert)
}

func TestDiffDuplicatePersistedPair(t *testing.T) {
	current := []*models.Settlement{
		persisted("s1", "B", "A", 1000, models.StatusPending),
		persisted("s2", "B", "A", 1000, models.StatusCompleted),
	}
	plan := Diff("g", current, []models.Settlement{pending("B", "A", 1000)})

	require.Len(t, plan.Keep, 1)
	assert.Equal(t, "s1", plan.Keep[0].ID)
	require.Len(t, plan.Delete, 1)
	assert.Equal(t, "s2", plan.Delete[0].ID)
}

func TestDiffEverythingSettled(t *testing.T) {
	current := []*models.Settlement{persisted("s1", "B", "A", 1000, models.StatusCompleted)}
	plan := Diff("g", current, nil)

	assert.Empty(t, plan.Settlements())
	require.Len(t, plan.Delete, 1)
	assert.True(t, plan.HasWrites())
}

func TestDiffReversedPairIsNotAMatch(t *testing.T) {
	current := []*models.Settlement{persisted("s1", "A", "B", 1000, models.StatusCompleted)}
	plan := Diff("g", current, []models.Settlement{pending("B", "A", 1000)})

	assert.Empty(t, plan.Keep)
	assert.Len(t, plan.Insert, 1)
	assert.Len(t, plan.Delete, 1)
}

func TestDiffReorderOnlyIsAWrite(t *testing.T) {
	current := []*models.Settlement{
		persisted("s1", "B", "A", 1000, models.StatusPending),
		persisted("s2", "D", "C", 1000, models.StatusCompleted),
	}
	plan := Diff("g", current, []models.Settlement{pending("D", "C", 1000), pending("B", "A", 1000)})

	assert.Empty(t, plan.Insert)
	assert.Empty(t, plan.Delete)
	assert.True(t, plan.HasWrites())

	stored := plan.StoragePlan()
	assert.Equal(t, []string{"s1", "s2"}, stored.Current)
	require.Len(t, stored.Order, 2)
	assert.Equal(t, "s2", stored.Order[0].ID)
	assert.Equal(t, "s1", stored.Order[1].ID)
}

func TestDiffStoragePlanCarriesCurrentIDs(t *testing.T) {
	current := []*models.Settlement{
		persisted("s1", "B", "A", 1000, models.StatusPending),
		persisted("s2", "C", "A", 500, models.StatusPending),
	}
	plan := Diff("g", current, []models.Settlement{pending("B", "A", 1000), pending("C", "A", 700)})

	stored := plan.StoragePlan()
	assert.Equal(t, []string{"s1", "s2"}, stored.Current)
	assert.Equal(t, []string{"s2"}, stored.Delete)
	require.Len(t, stored.Order, 2)
	assert.Equal(t, "s1", stored.Order[0].ID)
	assert.Same(t, stored.Insert[0], stored.Order[1])

	initial := Diff("g", nil, []models.Settlement{pending("B", "A", 1000)}).StoragePlan()
	assert.NotNil(t, initial.Current)
	assert.Empty(t, initial.Current)
}
