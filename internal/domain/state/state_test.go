package state

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balanceInvariantHolds(b *BalanceLedger) bool {
	if b.RealBalance == nil {
		return true
	}
	return b.CurrentBalance == *b.RealBalance+b.AddedCredit-b.FakeSpent
}

func TestBalanceLedger_CaptureOnceAndSpend(t *testing.T) {
	b := NewBalanceLedger(500)

	require.True(t, b.CaptureReal(1000))
	assert.Equal(t, int64(1500), b.CurrentBalance)
	assert.True(t, balanceInvariantHolds(b))

	// Second capture is ignored.
	assert.False(t, b.CaptureReal(9999))
	assert.Equal(t, int64(1500), b.CurrentBalance)

	require.True(t, b.CanAfford(100))
	b.Spend(100)
	assert.Equal(t, int64(1400), b.CurrentBalance)
	assert.Equal(t, int64(100), b.FakeSpent)
	assert.True(t, balanceInvariantHolds(b))

	assert.False(t, b.CanAfford(2000))
}

func TestBalanceLedger_RebaseRederives(t *testing.T) {
	b := NewBalanceLedger(500)
	b.CaptureReal(1000)
	b.Spend(200)

	require.True(t, b.Rebase(800))
	assert.Equal(t, int64(1600), b.CurrentBalance)
	assert.True(t, balanceInvariantHolds(b))

	assert.False(t, b.Rebase(800), "unchanged credit is a no-op")
}

func TestInventoryLedger_RecordAndRemove(t *testing.T) {
	inv := NewInventoryLedger()

	inv.RecordPurchase("42", &PurchaseRecord{Details: ItemDetails{ID: 42}})
	inv.RecordPurchase("42", &PurchaseRecord{Details: ItemDetails{ID: 42}})
	assert.True(t, inv.Owned("42"))
	assert.Len(t, inv.BoughtItems["42"], 2)
	assert.Len(t, inv.BoughtItemsHistory["42"], 2)

	require.True(t, inv.RemoveOldest("42"))
	assert.Len(t, inv.BoughtItems["42"], 1)
	require.True(t, inv.RemoveOldest("42"))
	assert.False(t, inv.Owned("42"))

	// History never shrinks.
	assert.Len(t, inv.BoughtItemsHistory["42"], 2)

	assert.False(t, inv.RemoveOldest("42"))
}

func TestInventoryLedger_WearRequiresOwnership(t *testing.T) {
	inv := NewInventoryLedger()
	inv.RecordPurchase("10", &PurchaseRecord{Details: ItemDetails{ID: 10}})

	assert.True(t, inv.Wear(10, "10"))
	assert.False(t, inv.Wear(10, "10"), "already worn")
	assert.False(t, inv.Wear(20, "20"), "not owned")

	assert.Equal(t, []int64{10}, inv.CurrentlyWearing)
}

func TestInventoryLedger_WearingSelfHeals(t *testing.T) {
	inv := NewInventoryLedger()
	inv.RecordPurchase("10", &PurchaseRecord{Details: ItemDetails{ID: 10}})
	inv.RecordPurchase("20", &PurchaseRecord{Details: ItemDetails{ID: 20}})
	inv.Wear(10, "10")
	inv.Wear(20, "20")

	inv.RemoveAll("20")

	ids, pruned := inv.WearingIDs(func(id int64) string { return strconv.FormatInt(id, 10) })
	assert.True(t, pruned)
	assert.Equal(t, []int64{10}, ids)
	assert.Equal(t, []int64{10}, inv.CurrentlyWearing)

	_, pruned = inv.WearingIDs(func(id int64) string { return strconv.FormatInt(id, 10) })
	assert.False(t, pruned, "second read is already consistent")
}

func TestInventoryLedger_PendingDrainedOnce(t *testing.T) {
	inv := NewInventoryLedger()
	inv.EnqueuePending("77", &PendingPurchase{Action: "Purchase"})
	inv.EnqueuePending("77", &PendingPurchase{Action: "Purchase"})

	drained := inv.DrainPending("77")
	assert.Len(t, drained, 2)
	assert.Nil(t, inv.DrainPending("77"), "acknowledgements are served exactly once")
}

func TestInventoryLedger_Emotes(t *testing.T) {
	inv := NewInventoryLedger()
	inv.EquipEmote(5, 1)
	inv.EquipEmote(6, 2)

	require.True(t, inv.UnequipEmote(5))
	assert.False(t, inv.UnequipEmote(5))
	assert.Equal(t, []EmoteSlot{{AssetID: 6, Position: 2}}, inv.EmotesWearing)
}

func TestUserSession_ApplyCredentials(t *testing.T) {
	s := &UserSession{}
	assert.True(t, s.ApplyCookie("c1"))
	assert.False(t, s.ApplyCookie("c1"))
	assert.True(t, s.ApplyCookie("c2"))
	assert.False(t, s.ApplyCookie(""))

	assert.True(t, s.ApplyCSRFToken("t1"))
	assert.False(t, s.ApplyCSRFToken("t1"))

	assert.True(t, s.ApplyIdentity("1", "user", "false"))
	assert.False(t, s.ApplyIdentity("1", "user", "false"))
}

func TestAvatarComposition_WearingAssetIDs(t *testing.T) {
	a := &AvatarComposition{Wearing: map[string]any{
		"assets": []any{
			map[string]any{"id": float64(11)},
			map[string]any{"id": float64(22)},
			"garbage",
		},
	}}
	assert.Equal(t, []int64{11, 22}, a.WearingAssetIDs())
	assert.True(t, a.HasWearing())
	assert.False(t, a.HasRules())
}
