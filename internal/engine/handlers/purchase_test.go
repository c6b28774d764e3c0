package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolodev/xolo-go/internal/domain/state"
)

func TestPurchase_RequestBumpsExpectedPrice(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	h := NewPurchaseHandler(deps)

	ex := requestExchange(t, "POST",
		"https://apis.roblox.com/marketplace-sales/v1/item/uuid-1/purchase-item",
		`{"expectedPrice":100}`)
	claimed, err := h.HandleRequest(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.JSONEq(t, `{"expectedPrice":101}`, string(ex.RequestBody))
}

func TestPurchase_RequestLeavesFreeItemsAlone(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	h := NewPurchaseHandler(deps)

	ex := requestExchange(t, "POST",
		"https://apis.roblox.com/game-passes/v1/game-passes/55/purchase",
		`{"expectedPrice":0}`)
	claimed, err := h.HandleRequest(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.JSONEq(t, `{"expectedPrice":0}`, string(ex.RequestBody))
}

func TestPurchase_SettlesAgainstSimulatedBalance(t *testing.T) {
	deps, _, persist, audit := testDeps(t)
	deps.State.Balance = state.NewBalanceLedger(500)
	deps.State.Balance.CaptureReal(1000)
	deps.State.Caches.ItemInfo.Set("uuid-1", state.CatalogItem{
		ID: 42, Name: "Hat", ItemType: "Asset",
		CreatorTargetID: 7, CreatorType: "User", CreatorName: "maker",
	})
	h := NewPurchaseHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/marketplace-sales/v1/item/uuid-1/purchase-item",
		`{"expectedPrice":101}`,
		`{"purchased":false,"errorMessage":"PriceMismatch"}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	assert.Equal(t, int64(1400), deps.State.Balance.CurrentBalance)
	assert.Equal(t, int64(100), deps.State.Balance.FakeSpent)
	assert.True(t, deps.State.Inventory.Owned("42"))
	assert.Equal(t, `true`, ex.ResponseProbe("purchased").Raw)
	assert.Equal(t, "Purchase transaction success", ex.ResponseProbe("purchaseResult").String())
	assert.Len(t, audit.records, 1)
	assert.Equal(t, int64(-100), audit.records[0].Currency.Amount)
	assert.Positive(t, persist.saves)
}

func TestPurchase_UnaffordablePassesRealFailureThrough(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	deps.State.Balance = state.NewBalanceLedger(0)
	deps.State.Balance.CaptureReal(50)
	deps.State.Caches.ItemInfo.Set("uuid-1", state.CatalogItem{ID: 42, Name: "Hat", ItemType: "Asset"})
	h := NewPurchaseHandler(deps)

	failure := `{"purchased":false,"errorMessage":"InsufficientFunds"}`
	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/marketplace-sales/v1/item/uuid-1/purchase-item",
		`{"expectedPrice":101}`, failure)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, failure, ex.ResponseText())
	assert.False(t, deps.State.Inventory.Owned("42"))
	assert.Equal(t, int64(50), deps.State.Balance.CurrentBalance)
}

func TestPurchase_UnknownItemIsIgnored(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	deps.State.Balance.CaptureReal(1000)
	h := NewPurchaseHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/marketplace-sales/v1/item/uuid-unseen/purchase-item",
		`{"expectedPrice":101}`, `{}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestPurchase_ResaleMatchesRecordedListing(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	deps.State.Balance.CaptureReal(1000)
	deps.State.Caches.ItemInfo.Set("uuid-1", state.CatalogItem{
		ID: 42, Name: "Limited", ItemType: "Asset", CollectibleItemID: "uuid-1",
	})
	deps.State.Caches.ResellerFeed.Set("inst-9", state.ResaleListing{
		CollectibleItemInstanceID: "inst-9",
		CollectibleProductID:      "prod-9",
		Price:                     250,
		SerialNumber:              17,
		Seller:                    state.ResaleSeller{SellerID: 88, SellerType: "User", Name: "seller"},
	})
	h := NewPurchaseHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/marketplace-sales/v1/item/uuid-1/purchase-resale",
		`{"expectedPrice":251,"collectibleItemInstanceId":"inst-9"}`, `{}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	rec, ok := deps.State.Inventory.FirstRecord("42")
	require.True(t, ok)
	require.NotNil(t, rec.ResaleData)
	assert.Equal(t, "inst-9", rec.ResaleData.CollectibleItemInstanceID)
	assert.Equal(t, int64(88), rec.Agent.ID)
	require.NotNil(t, rec.Details.SerialNumber)
	assert.Equal(t, int64(17), *rec.Details.SerialNumber)
}

func TestPurchase_BundleExpandsConstituents(t *testing.T) {
	deps, rc, _, _ := testDeps(t)
	deps.State.Balance.CaptureReal(1000)
	deps.State.Caches.ItemInfo.Set("uuid-7", state.CatalogItem{
		ID: 7, Name: "Bundle", ItemType: "Bundle",
	})
	rc.assetDetails = map[int64]*state.CatalogItem{
		7: {
			ID: 7, Name: "Bundle", ItemType: "Bundle",
			BundledItems: []state.BundledItem{
				{ID: 1, Name: "LeftArm", Type: "Asset"},
				{ID: 2, Name: "Pose", Type: "UserOutfit"},
			},
		},
	}
	h := NewPurchaseHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/marketplace-sales/v1/item/uuid-7/purchase-item",
		`{"expectedPrice":101}`, `{}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	// Constituent assets satisfy ownership but stay out of history displays.
	assert.True(t, deps.State.Inventory.Owned("1"))
	constituent, _ := deps.State.Inventory.FirstRecord("1")
	assert.True(t, constituent.Ineffective)

	// Non-asset constituents pin their id onto the bundle record.
	bundleRec, _ := deps.State.Inventory.FirstRecord("7")
	assert.Equal(t, int64(2), bundleRec.SpecialID)
	assert.False(t, bundleRec.Ineffective)
}

func TestPurchase_DeveloperProductQueuesAcknowledgement(t *testing.T) {
	deps, _, _, audit := testDeps(t)
	deps.State.Balance.CaptureReal(1000)
	deps.State.Session.UserID = "123"
	deps.State.Caches.DeveloperProducts.Set("900", state.DeveloperProduct{
		ProductID: 900, Name: "Coins", UniverseID: 77,
	})
	deps.State.Caches.Universes.Set("77", state.UniverseInfo{
		Creator:     state.Agent{ID: 5, Type: "User", Name: "dev"},
		RootPlaceID: 4242,
		Name:        "Obby",
	})
	h := NewPurchaseHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/developer-products/v1/developer-products/900/purchase",
		`{"expectedPrice":26}`, `{}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	assert.Equal(t, int64(25), deps.State.Balance.FakeSpent)
	assert.True(t, ex.ResponseProbe("purchased").Bool())
	assert.Equal(t, "Success", ex.ResponseProbe("transactionStatus").String())

	pending := deps.State.Inventory.DrainPending("4242")
	require.Len(t, pending, 1)
	assert.Equal(t, "123", pending[0].PlayerID)
	assert.Equal(t, "Purchase", pending[0].Action)
	assert.Len(t, audit.records, 1)
}

func TestPurchase_DeveloperProductFreeSettleIgnored(t *testing.T) {
	deps, _, _, audit := testDeps(t)
	deps.State.Balance.CaptureReal(1000)
	deps.State.Session.UserID = "123"
	deps.State.Caches.DeveloperProducts.Set("900", state.DeveloperProduct{
		ProductID: 900, Name: "Coins", UniverseID: 77,
	})
	deps.State.Caches.Universes.Set("77", state.UniverseInfo{
		Creator:     state.Agent{ID: 5, Type: "User", Name: "dev"},
		RootPlaceID: 4242,
		Name:        "Obby",
	})
	h := NewPurchaseHandler(deps)
	balanceBefore := deps.State.Balance.CurrentBalance

	ex := exchangeWithResponse(t, "POST",
		"https://apis.roblox.com/developer-products/v1/developer-products/900/purchase",
		`{"expectedPrice":0}`, `{}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.Zero(t, deps.State.Balance.FakeSpent)
	assert.Equal(t, balanceBefore, deps.State.Balance.CurrentBalance)
	assert.Empty(t, deps.State.Inventory.DrainPending("4242"))
	assert.Empty(t, audit.records)
}

func TestPurchase_ReplayAccumulatesRecords(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	deps.State.Balance.CaptureReal(1000)
	deps.State.Caches.ItemInfo.Set("uuid-1", state.CatalogItem{ID: 42, Name: "Hat", ItemType: "Asset"})
	h := NewPurchaseHandler(deps)

	for i := 0; i < 2; i++ {
		ex := exchangeWithResponse(t, "POST",
			"https://apis.roblox.com/marketplace-sales/v1/item/uuid-1/purchase-item",
			`{"expectedPrice":101}`, `{}`)
		claimed, err := h.HandleResponse(context.Background(), ex)
		require.NoError(t, err)
		require.True(t, claimed)
	}

	assert.Len(t, deps.State.Inventory.BoughtItems["42"], 2)
	assert.Equal(t, int64(200), deps.State.Balance.FakeSpent)
}
