package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
)

// purchaseSuccess is the canonical success payload the platform's web client
// expects from an item purchase.
var purchaseSuccess = map[string]any{
	"purchaseResult": "Purchase transaction success",
	"purchased":      true,
	"pending":        false,
	"errorMessage":   nil,
}

// PurchaseHandler intercepts purchase attempts. On the request leg it bumps
// the declared price so the upstream purchase fails on a mismatch and no
// real money moves. On the response leg it restores the price, settles the
// purchase against the simulated ledger, and fabricates the success payload.
type PurchaseHandler struct {
	base
}

func NewPurchaseHandler(deps Deps) *PurchaseHandler {
	return &PurchaseHandler{base: newBase(deps)}
}

func (h *PurchaseHandler) Name() string { return "purchase" }

func isItemPurchase(ex *engine.Exchange) bool {
	return ex.URLContains("/marketplace-sales/v1/item/") &&
		(ex.URLContains("/purchase-item") || ex.URLContains("/purchase-resale"))
}

func isGamePassPurchase(ex *engine.Exchange) bool {
	return ex.URLContains("apis.roblox.com/game-passes/v1/game-passes/") && ex.URLContains("/purchase")
}

func isDeveloperProductPurchase(ex *engine.Exchange) bool {
	return ex.URLContains("apis.roblox.com/developer-products/v1/developer-products/") && ex.URLContains("/purchase")
}

// HandleRequest bumps expectedPrice by one on every purchase attempt. A zero
// price is left alone: free items go through for real. The exchange is
// claimed even when the body cannot be parsed, so a malformed purchase never
// falls through to another handler.
func (h *PurchaseHandler) HandleRequest(_ context.Context, ex *engine.Exchange) (bool, error) {
	if !isItemPurchase(ex) && !isGamePassPurchase(ex) && !isDeveloperProductPurchase(ex) {
		return false, nil
	}

	var body map[string]any
	if err := ex.RequestJSON(&body); err != nil {
		h.logger.Purchase().Error("Purchase request body unreadable", "url", ex.FullURL(), "error", err.Error())
		return true, nil
	}
	price, ok := body["expectedPrice"].(float64)
	if !ok || price == 0 {
		return true, nil
	}

	body["expectedPrice"] = price + 1
	if err := ex.SetRequestJSON(body); err != nil {
		h.logger.Purchase().Error("Purchase request rewrite failed", "url", ex.FullURL(), "error", err.Error())
	}
	h.logger.Purchase().Debug("Purchase price bumped", "url", ex.FullURL(), "expectedPrice", price)
	return true, nil
}

func (h *PurchaseHandler) HandleResponse(ctx context.Context, ex *engine.Exchange) (bool, error) {
	if isItemPurchase(ex) {
		return h.settleItemPurchase(ctx, ex)
	}
	if isDeveloperProductPurchase(ex) {
		return h.settleDeveloperProductPurchase(ex)
	}
	return false, nil
}

// settleItemPurchase handles catalog item and resale purchases. The item
// must already be in the info cache (its details page was viewed), and the
// restored price must be affordable against the simulated balance. Anything
// else lets the real, already-failed response through.
func (h *PurchaseHandler) settleItemPurchase(ctx context.Context, ex *engine.Exchange) (bool, error) {
	collectibleID := ex.PathSegment(1)
	info, ok := h.state.Caches.ItemInfo.Get(collectibleID)
	if !ok {
		return false, nil
	}

	var body map[string]any
	if err := ex.RequestJSON(&body); err != nil {
		return false, nil
	}
	rawPrice, ok := body["expectedPrice"].(float64)
	if !ok || rawPrice == 0 {
		return false, nil
	}

	price := int64(rawPrice) - 1
	if !h.state.Balance.CanAfford(price) {
		h.logger.Purchase().Info("Purchase unaffordable, passing real failure through",
			"item", collectibleID, "price", price)
		return false, nil
	}

	h.state.Balance.Spend(price)
	h.save()

	record := &state.PurchaseRecord{
		ID:              newRecordID(),
		IDHash:          newIDHash(),
		Created:         state.CurrentTimestamp(),
		TransactionType: "Purchase",
		Agent: state.Agent{
			ID:   info.CreatorTargetID,
			Type: info.CreatorType,
			Name: info.CreatorName,
		},
		Details: state.ItemDetails{
			ID:   info.ID,
			Name: info.Name,
			Type: info.ItemType,
		},
		Currency:      &state.CurrencyAmount{Amount: -price, Type: "Robux"},
		PurchaseToken: newPurchaseToken(),
	}

	if instanceID, ok := body["collectibleItemInstanceId"].(string); ok {
		listing, found := h.state.Caches.ResellerFeed.Get(instanceID)
		if !found {
			h.logger.Purchase().Error("Resale instance unknown", "instanceId", instanceID)
			return false, nil
		}
		serial := listing.SerialNumber
		record.Agent = state.Agent{
			ID:   listing.Seller.SellerID,
			Type: listing.Seller.SellerType,
			Name: listing.Seller.Name,
		}
		record.Details.CollectibleItemID = collectibleID
		record.Details.SerialNumber = &serial
		record.ResaleData = &listing
	}

	key := itemKey(info.ID)
	h.state.Inventory.RecordPurchase(key, record)
	h.save()
	h.recordAudit(record)
	h.logger.Purchase().Info("Purchase settled",
		"item", info.Name, "itemId", info.ID, "price", price, "balance", h.state.Balance.CurrentBalance)

	if strings.EqualFold(info.ItemType, "Bundle") {
		h.expandBundle(ctx, key, record)
	}

	if err := ex.SetResponseJSON(purchaseSuccess); err != nil {
		return false, err
	}
	return true, nil
}

// expandBundle records every constituent of a purchased bundle. Asset
// constituents get their own ineffective records so ownership checks pass
// without polluting balance or history; non-asset constituents are pinned
// onto the bundle's own records as a special id.
func (h *PurchaseHandler) expandBundle(ctx context.Context, bundleKey string, bundleRecord *state.PurchaseRecord) {
	details, err := h.remote.AssetDetails(ctx, bundleRecord.Details.ID, "bundle")
	if err != nil || details == nil {
		if err != nil {
			h.logger.Purchase().Error("Bundle expansion fetch failed", "bundle", bundleKey, "error", err.Error())
		}
		return
	}

	for _, constituent := range details.BundledItems {
		if constituent.Type == "Asset" {
			h.state.Inventory.RecordPurchase(itemKey(constituent.ID), &state.PurchaseRecord{
				ID:              newRecordID(),
				IDHash:          newIDHash(),
				Created:         state.CurrentTimestamp(),
				TransactionType: "Purchase",
				Agent:           bundleRecord.Agent,
				Details: state.ItemDetails{
					ID:   constituent.ID,
					Name: constituent.Name,
					Type: constituent.Type,
				},
				PurchaseToken: newPurchaseToken(),
				Ineffective:   true,
			})
			h.save()
			continue
		}
		for _, rec := range h.state.Inventory.BoughtItems[bundleKey] {
			if rec.SpecialID == 0 {
				rec.SpecialID = constituent.ID
			}
		}
	}
}

// settleDeveloperProductPurchase settles a consumable purchase and queues
// the acknowledgement the experience will poll for.
func (h *PurchaseHandler) settleDeveloperProductPurchase(ex *engine.Exchange) (bool, error) {
	var body map[string]any
	if err := ex.RequestJSON(&body); err != nil {
		return false, nil
	}
	rawPrice, ok := body["expectedPrice"].(float64)
	if !ok || rawPrice == 0 {
		return false, nil
	}

	price := int64(rawPrice) - 1
	if !h.state.Balance.CanAfford(price) {
		return false, nil
	}

	productID, err := strconv.ParseInt(ex.PathSegment(1), 10, 64)
	if err != nil {
		return false, nil
	}
	product, ok := h.state.Caches.DeveloperProducts.Get(itemKey(productID))
	if !ok {
		return false, nil
	}
	universe, ok := h.state.Caches.Universes.Get(itemKey(product.UniverseID))
	if !ok {
		return false, nil
	}

	h.state.Balance.Spend(price)

	record := &state.PurchaseRecord{
		ID:              newRecordID(),
		IDHash:          newIDHash(),
		Created:         state.CurrentTimestamp(),
		TransactionType: "Purchase",
		Agent:           universe.Creator,
		Details: state.ItemDetails{
			ID:   product.ProductID,
			Name: product.Name,
			Type: "DeveloperProduct",
			Place: &state.PlaceDetails{
				PlaceID: universe.RootPlaceID,
				Name:    universe.Name,
			},
		},
		Currency:      &state.CurrencyAmount{Amount: -price, Type: "Robux"},
		PurchaseToken: newPurchaseToken(),
	}
	h.state.Inventory.RecordPurchase(itemKey(productID), record)

	receipt := newPurchaseToken()
	h.state.Inventory.EnqueuePending(itemKey(universe.RootPlaceID), &state.PendingPurchase{
		PlayerID: h.state.Session.UserID,
		Receipt:  receipt,
		ActionArgs: []state.KeyValue{
			{Key: "productId", Value: productID},
			{Key: "currencyTypeId", Value: "1"},
			{Key: "unitPrice", Value: price},
		},
		Action: "Purchase",
	})
	h.save()
	h.recordAudit(record)
	h.logger.Purchase().Info("Consumable purchase settled",
		"product", product.Name, "productId", productID, "price", price)

	if err := ex.SetResponseJSON(map[string]any{
		"purchased":         true,
		"transactionStatus": "Success",
		"productId":         product.ProductID,
		"price":             price,
		"receipt":           receipt,
		"success":           true,
	}); err != nil {
		return false, err
	}
	return true, nil
}
