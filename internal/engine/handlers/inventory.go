package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
)

// InventoryHandler makes the simulated inventory visible everywhere the
// platform lists ownership: profile collections, inventory pages, ownership
// probes, catalog detail pages, reseller listings, and the consumable
// acknowledgement poll.
type InventoryHandler struct {
	base
}

func NewInventoryHandler(deps Deps) *InventoryHandler {
	return &InventoryHandler{base: newBase(deps)}
}

func (h *InventoryHandler) Name() string { return "inventory" }

func (h *InventoryHandler) HandleRequest(context.Context, *engine.Exchange) (bool, error) {
	return false, nil
}

func (h *InventoryHandler) HandleResponse(ctx context.Context, ex *engine.Exchange) (bool, error) {
	switch {
	case ex.URLContains("inventory.roblox.com/v1/collections/items/"):
		return h.collectionsItem(ctx, ex)
	case ex.URLContains("apis.roblox.com/showcases-api/v1/users/profile/robloxcollections-json?userId="+h.state.Session.UserID) && h.state.Session.UserID != "":
		return h.showcaseCollections(ex)
	case ex.URLContains("inventory.roblox.com/v1/users/") && ex.URLContains("/is-owned"):
		return h.isOwned(ex)
	case ex.URLContains("apis.roblox.com/profile-platform-api/v1/profiles/get"):
		return h.profileGet(ex)
	case h.state.Session.UserID != "" && ex.URLContains("inventory.roblox.com/v2/users/"+h.state.Session.UserID+"/inventory"):
		return h.userInventory(ctx, ex)
	case h.state.Session.UserID != "" && ex.URLContains("catalog.roblox.com/v1/users/"+h.state.Session.UserID+"/bundles/1"):
		return h.userBundles(ctx, ex)
	case ex.URLContains("inventory.roblox.com/v2/inventory/asset/"):
		return h.deleteAsset(ex)
	case ex.URLContains("apis.roblox.com/experience-store/v1/universes/") && ex.URLContains("/store"):
		return h.recordStoreProducts(ex)
	case ex.URLContains("games.roblox.com/v1/games?universeIds="):
		return h.recordUniverses(ex)
	case ex.URLContains("apis.roblox.com/developer-products/v1/developer-products/") && ex.URLContains("/details"):
		return h.recordProductDetails(ex)
	case ex.URLContains("apis.roblox.com/developer-products/v1/game-transactions") &&
		ex.URLContains("locationType=ExperienceDetailPage") && ex.URLContains("status=pending"):
		return h.pendingTransactions(ex)
	case ex.URLContains("catalog.roblox.com/v1/catalog/items/") && ex.URLContains("/details") && ex.URLContains("?itemType="):
		return h.catalogItemDetails(ctx, ex)
	case ex.URLContains("apis.roblox.com/marketplace-items/v1/items/details"):
		return h.marketplaceItemDetails(ctx, ex)
	case ex.URLContains("apis.roblox.com/marketplace-sales/v1/item/") && ex.URLContains("/resellers"):
		return h.resellerListing(ex)
	case ex.URLContains("apis.roblox.com/marketplace-sales/v1/item/") && ex.URLContains("/resellable-instances"):
		return h.resellableInstances(ex)
	case ex.URLContains("avatar.roblox.com/v1/avatar-inventory"):
		return h.avatarInventory(ctx, ex)
	}
	return false, nil
}

// orderedKeys returns the owned item keys sorted by acquisition time of the
// oldest record, newest first when desc is set.
func (h *InventoryHandler) orderedKeys(desc bool) []string {
	keys := make([]string, 0, len(h.state.Inventory.BoughtItems))
	for key := range h.state.Inventory.BoughtItems {
		keys = append(keys, key)
	}
	created := func(key string) string {
		records := h.state.Inventory.BoughtItems[key]
		if len(records) == 0 {
			return ""
		}
		return records[0].Created
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := created(keys[i]), created(keys[j])
		if ci == cj {
			return keys[i] < keys[j]
		}
		if desc {
			return ci > cj
		}
		return ci < cj
	})
	return keys
}

// ownedBatchItems builds the catalog batch query for the owned items, taken
// from each key's oldest record.
func (h *InventoryHandler) ownedBatchItems(keys []string, assetsOnly bool) []remote.BatchItem {
	var items []remote.BatchItem
	for _, key := range keys {
		rec, ok := h.state.Inventory.FirstRecord(key)
		if !ok {
			continue
		}
		if assetsOnly && rec.Details.Type != "Asset" {
			continue
		}
		items = append(items, remote.BatchItem{ID: rec.Details.ID, ItemType: rec.Details.Type})
	}
	return items
}

// collectionsItem serves profile-collection add and remove for simulated
// items. Adds are built from live thumbnail and catalog data so the injected
// row renders like a real one.
func (h *InventoryHandler) collectionsItem(ctx context.Context, ex *engine.Exchange) (bool, error) {
	segments := strings.Split(strings.Trim(ex.Path(), "/"), "/")
	idx := -1
	for i, s := range segments {
		if s == "items" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+2 >= len(segments) {
		return false, nil
	}
	assetType := strings.ToLower(segments[idx+1])
	key := segments[idx+2]

	if !h.state.Inventory.Owned(key) {
		return true, nil
	}
	ex.Status = http.StatusOK

	itemID, _ := strconv.ParseInt(key, 10, 64)
	if ex.Method == http.MethodDelete {
		h.state.Inventory.RemoveProfileItem(itemID)
		h.save()
		return true, nil
	}

	rec, _ := h.state.Inventory.FirstRecord(key)
	thumb, err := h.remote.ItemThumbnail(ctx, itemID, assetType)
	if err != nil || thumb == nil {
		return true, err
	}
	thumbURL := ""
	if data, ok := thumb["data"].([]any); ok && len(data) > 0 {
		if entry, ok := data[0].(map[string]any); ok {
			thumbURL, _ = entry["imageUrl"].(string)
		}
	}
	if thumbURL == "" {
		return true, nil
	}

	info, err := h.remote.AssetDetails(ctx, itemID, assetType)
	if err != nil || info == nil {
		return true, err
	}

	section := "catalog"
	if assetType == "bundle" {
		section = "bundles"
	}
	h.state.Inventory.ProfileItems = append(h.state.Inventory.ProfileItems, state.ProfileItem{
		ID:          itemID,
		AssetSeoURL: fmt.Sprintf("https://www.roblox.com/%s/%d/%s", section, itemID, strings.ReplaceAll(rec.Details.Name, " ", "-")),
		Thumbnail: state.ProfileThumbnail{
			Final:        true,
			URL:          thumbURL,
			EndpointType: "Avatar",
		},
		Name:        rec.Details.Name,
		Description: info.Description,
		AssetType:   assetType,
	})
	h.save()
	return true, nil
}

func (h *InventoryHandler) showcaseCollections(ex *engine.Exchange) (bool, error) {
	if len(h.state.Inventory.ProfileItems) == 0 {
		return false, nil
	}
	var listing []any
	if err := ex.ResponseJSON(&listing); err != nil {
		return false, nil
	}
	injected := make([]any, 0, len(h.state.Inventory.ProfileItems)+len(listing))
	for _, item := range h.state.Inventory.ProfileItems {
		injected = append(injected, item)
	}
	injected = append(injected, listing...)
	return true, ex.SetResponseJSON(injected)
}

// isOwned answers ownership probes for simulated items, matching the probed
// asset type against the stored record's type.
func (h *InventoryHandler) isOwned(ex *engine.Exchange) (bool, error) {
	segments := strings.Split(strings.Trim(strings.ToLower(ex.Path()), "/"), "/")
	idx := -1
	for i, s := range segments {
		if s == "items" {
			idx = i
			break
		}
	}
	if idx < 0 || idx+2 >= len(segments) {
		return false, nil
	}
	assetType := segments[idx+1]
	key := segments[idx+2]

	rec, ok := h.state.Inventory.FirstRecord(key)
	if !ok {
		return false, nil
	}
	if rec.Details.Type != "" && !strings.EqualFold(rec.Details.Type, assetType) {
		return false, nil
	}

	ex.Status = http.StatusOK
	ex.SetResponseText("true")
	return true, nil
}

// profileGet injects simulated collections and currently-wearing entries
// into the user's own profile payload.
func (h *InventoryHandler) profileGet(ex *engine.Exchange) (bool, error) {
	var profile map[string]any
	if err := ex.ResponseJSON(&profile); err != nil {
		return false, nil
	}

	profileID := fmt.Sprintf("%v", profile["profileId"])
	if profileID == h.state.Session.UserID && h.state.Session.UserID != "" {
		components, _ := profile["components"].(map[string]any)

		if collections, ok := components["Collections"].(map[string]any); ok {
			assets, _ := collections["assets"].([]any)
			for _, item := range h.state.Inventory.ProfileItems {
				assets = append(assets, map[string]any{
					"assetId":  item.ID,
					"itemType": capitalizeFirst(item.AssetType),
				})
			}
			collections["assets"] = assets
		}

		if wearing, ok := components["CurrentlyWearing"].(map[string]any); ok {
			assets, _ := wearing["assets"].([]any)
			ids, pruned := h.state.Inventory.WearingIDs(itemKey)
			if pruned {
				h.save()
			}
			for _, id := range ids {
				assets = append([]any{map[string]any{"assetId": id, "itemType": "Asset"}}, assets...)
			}
			wearing["assets"] = assets
		}
	}

	return true, ex.SetResponseJSON(profile)
}

// userInventory injects simulated items into the category inventory pages
// and the emote inventory.
func (h *InventoryHandler) userInventory(ctx context.Context, ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	data, _ := payload["data"].([]any)

	if ex.Query().Get("assetTypes") == "EmoteAnimation" {
		keys := h.orderedKeys(true)
		infos, err := h.remote.AssetDetailsBatch(ctx, h.ownedBatchItems(keys, true))
		if err != nil {
			return false, err
		}
		for _, info := range infos {
			if info.AssetType != emoteAssetType {
				continue
			}
			rec, ok := h.state.Inventory.FirstRecord(itemKey(info.ID))
			if !ok {
				continue
			}
			data = append([]any{map[string]any{
				"assetId":   info.ID,
				"name":      info.Name,
				"assetType": "EmoteAnimation",
				"created":   rec.Created,
			}}, data...)
		}
	} else {
		categoryID, err := strconv.Atoi(ex.PathSegment(0))
		if err != nil {
			return false, nil
		}
		desc := ex.Query().Get("sortOrder") == "Desc"
		keys := h.orderedKeys(desc)
		infos, err := h.remote.AssetDetailsBatch(ctx, h.ownedBatchItems(keys, false))
		if err != nil {
			return false, err
		}
		for _, info := range infos {
			if info.AssetType != categoryID {
				continue
			}
			for _, rec := range h.state.Inventory.BoughtItems[itemKey(info.ID)] {
				entry := map[string]any{
					"userAssetId":               newUserAssetID(),
					"assetId":                   info.ID,
					"assetName":                 info.Name,
					"collectibleItemId":         nullableString(info.CollectibleItemID),
					"collectibleItemInstanceId": newInstanceID(),
					"serialNumber":              nil,
					"owner": map[string]any{
						"userId":                     h.state.Session.UserID,
						"username":                   h.state.Session.UserName,
						"buildersClubMembershipType": "None",
					},
					"created": rec.Created,
					"updated": rec.Created,
				}
				data = append([]any{entry}, data...)
			}
		}
	}

	payload["data"] = data
	return true, ex.SetResponseJSON(payload)
}

// userBundles injects simulated bundles into the owned-bundles listing.
func (h *InventoryHandler) userBundles(ctx context.Context, ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	data, _ := payload["data"].([]any)

	desc := ex.Query().Get("sortOrder") == "Desc"
	keys := h.orderedKeys(desc)
	infos, err := h.remote.AssetDetailsBatch(ctx, h.ownedBatchItems(keys, false))
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info.BundleType == 0 {
			continue
		}
		for range h.state.Inventory.BoughtItems[itemKey(info.ID)] {
			entry := map[string]any{
				"id":         info.ID,
				"name":       info.Name,
				"bundleType": "BodyParts",
				"creator": map[string]any{
					"id":               info.CreatorTargetID,
					"name":             info.CreatorName,
					"type":             info.CreatorType,
					"hasVerifiedBadge": info.CreatorHasVerifiedBadge,
				},
			}
			if desc {
				data = append([]any{entry}, data...)
			} else {
				data = append(data, entry)
			}
		}
	}

	payload["data"] = data
	return true, ex.SetResponseJSON(payload)
}

// deleteAsset honors inventory deletion of simulated items, dropping one
// record per delete.
func (h *InventoryHandler) deleteAsset(ex *engine.Exchange) (bool, error) {
	if ex.Method != http.MethodDelete {
		return false, nil
	}
	key := ex.PathSegment(0)
	if !h.state.Inventory.Owned(key) {
		return false, nil
	}
	ex.Status = http.StatusOK
	h.state.Inventory.RemoveOldest(key)
	h.save()
	return true, nil
}

// recordStoreProducts caches the developer products advertised by an
// experience store page for later purchase settlement.
func (h *InventoryHandler) recordStoreProducts(ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	products, ok := payload["developerProducts"].([]any)
	if !ok {
		return true, nil
	}
	universeID, _ := strconv.ParseInt(ex.PathSegment(1), 10, 64)
	for _, raw := range products {
		product, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := product["DeveloperProductId"].(float64)
		if !ok {
			continue
		}
		name, _ := product["Name"].(string)
		h.state.Caches.DeveloperProducts.Set(itemKey(int64(id)), state.DeveloperProduct{
			ProductID:  int64(id),
			Name:       name,
			UniverseID: universeID,
		})
	}
	return true, nil
}

// recordUniverses caches universe creator metadata from game listings.
func (h *InventoryHandler) recordUniverses(ex *engine.Exchange) (bool, error) {
	var payload struct {
		Data []struct {
			ID      int64       `json:"id"`
			Creator state.Agent `json:"creator"`
			RootID  int64       `json:"rootPlaceId"`
			Name    string      `json:"name"`
		} `json:"data"`
	}
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	for _, game := range payload.Data {
		h.state.Caches.Universes.Set(itemKey(game.ID), state.UniverseInfo{
			Creator:     game.Creator,
			RootPlaceID: game.RootID,
			Name:        game.Name,
		})
	}
	return true, nil
}

// recordProductDetails caches a single developer product's details.
func (h *InventoryHandler) recordProductDetails(ex *engine.Exchange) (bool, error) {
	var payload struct {
		ProductID  float64 `json:"ProductId"`
		TargetID   int64   `json:"TargetId"`
		Name       string  `json:"Name"`
		UniverseID int64   `json:"UniverseId"`
	}
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	h.state.Caches.DeveloperProducts.Set(itemKey(int64(payload.ProductID)), state.DeveloperProduct{
		ProductID:  payload.TargetID,
		Name:       payload.Name,
		UniverseID: payload.UniverseID,
	})
	return true, nil
}

// pendingTransactions serves queued consumable acknowledgements exactly
// once, draining the queue as it answers.
func (h *InventoryHandler) pendingTransactions(ex *engine.Exchange) (bool, error) {
	placeID := ex.Query().Get("placeId")
	pending := h.state.Inventory.DrainPending(placeID)
	if len(pending) == 0 {
		return false, nil
	}
	var listing []any
	if err := ex.ResponseJSON(&listing); err != nil {
		return false, nil
	}
	for _, p := range pending {
		listing = append(listing, p)
	}
	h.save()
	return true, ex.SetResponseJSON(listing)
}

// catalogItemDetails rewrites ownership on catalog detail pages, caches the
// item's details for purchase settlement, and recomputes the lowest resale
// price excluding instances already simulated as bought.
func (h *InventoryHandler) catalogItemDetails(ctx context.Context, ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	var info state.CatalogItem
	if err := ex.ResponseJSON(&info); err != nil {
		return false, nil
	}

	key := itemKey(info.ID)
	owned := h.state.Inventory.Owned(key)
	if owned {
		if ownedFlag, ok := payload["owned"].(bool); ok && !ownedFlag {
			payload["owned"] = true
		}
		if purchasable, ok := payload["isPurchasable"].(bool); ok && purchasable && payload["itemRestrictions"] == nil {
			payload["isPurchasable"] = false
		}
		if bundled, ok := payload["bundledItems"].([]any); ok {
			for _, raw := range bundled {
				if item, ok := raw.(map[string]any); ok {
					item["owned"] = true
				}
			}
		}
	}

	cacheKey := info.CollectibleItemID
	if cacheKey == "" {
		cacheKey = key
	}
	h.state.Caches.ItemInfo.Set(cacheKey, info)

	if owned && info.LowestResalePrice != 0 && info.CollectibleItemID != "" {
		if listing := h.lowestUnownedResale(ctx, key, info.CollectibleItemID); listing != nil {
			payload["lowestPrice"] = listing.Price
			payload["lowestResalePrice"] = listing.Price
			h.state.Caches.LowestResale.Set(info.CollectibleItemID, *listing)
		}
	}

	return true, ex.SetResponseJSON(payload)
}

// lowestUnownedResale fetches the live reseller list and returns the
// cheapest listing whose instance is not already simulated as bought.
func (h *InventoryHandler) lowestUnownedResale(ctx context.Context, key, collectibleItemID string) *state.ResaleListing {
	resp, err := h.remote.Resellers(ctx, collectibleItemID)
	if err != nil || resp == nil {
		return nil
	}
	bought := h.boughtInstanceIDs(key)
	data, _ := resp["data"].([]any)
	for _, raw := range data {
		listing := parseResaleListing(raw)
		if listing == nil {
			continue
		}
		if !bought[listing.CollectibleItemInstanceID] {
			return listing
		}
	}
	return nil
}

func (h *InventoryHandler) boughtInstanceIDs(key string) map[string]bool {
	bought := make(map[string]bool)
	for _, rec := range h.state.Inventory.BoughtItems[key] {
		if rec.ResaleData != nil {
			bought[rec.ResaleData.CollectibleItemInstanceID] = true
		}
	}
	return bought
}

func parseResaleListing(raw any) *state.ResaleListing {
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	listing := &state.ResaleListing{}
	listing.CollectibleItemInstanceID, _ = entry["collectibleItemInstanceId"].(string)
	if listing.CollectibleItemInstanceID == "" {
		return nil
	}
	listing.CollectibleProductID, _ = entry["collectibleProductId"].(string)
	listing.CollectibleItemID, _ = entry["collectibleItemId"].(string)
	if price, ok := entry["price"].(float64); ok {
		listing.Price = int64(price)
	}
	if serial, ok := entry["serialNumber"].(float64); ok {
		listing.SerialNumber = int64(serial)
	}
	if seller, ok := entry["seller"].(map[string]any); ok {
		if id, ok := seller["sellerId"].(float64); ok {
			listing.Seller.SellerID = int64(id)
		}
		listing.Seller.SellerType, _ = seller["sellerType"].(string)
		listing.Seller.Name, _ = seller["name"].(string)
	}
	return listing
}

// marketplaceItemDetails rewrites the lowest-resale pointers on marketplace
// item listings for items whose cheapest instance was simulated as bought.
func (h *InventoryHandler) marketplaceItemDetails(ctx context.Context, ex *engine.Exchange) (bool, error) {
	var listing []any
	if err := ex.ResponseJSON(&listing); err != nil {
		return false, nil
	}

	for _, raw := range listing {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, hasResale := item["lowestAvailableResaleProductId"]; !hasResale {
			continue
		}
		targetID, ok := item["itemTargetId"].(float64)
		if !ok || !h.state.Inventory.Owned(itemKey(int64(targetID))) {
			continue
		}
		collectibleID, _ := item["collectibleItemId"].(string)
		if collectibleID == "" {
			continue
		}
		lowest := h.lowestUnownedResale(ctx, itemKey(int64(targetID)), collectibleID)
		if lowest == nil {
			continue
		}
		item["lowestAvailableResaleProductId"] = lowest.CollectibleProductID
		item["lowestAvailableResaleItemInstanceId"] = lowest.CollectibleItemInstanceID
		item["lowestPrice"] = lowest.Price
		item["lowestResalePrice"] = lowest.Price
	}

	return true, ex.SetResponseJSON(listing)
}

// resellerListing hides already-bought instances from reseller pages and
// records every new listing so a later purchase can match its instance.
func (h *InventoryHandler) resellerListing(ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	data, ok := payload["data"].([]any)
	if !ok || len(data) == 0 {
		return false, nil
	}

	collectibleID := ex.PathSegment(1)
	bought := make(map[string]bool)
	for key, records := range h.state.Inventory.BoughtItems {
		if len(records) == 0 || records[0].Details.CollectibleItemID != collectibleID {
			continue
		}
		for id := range h.boughtInstanceIDs(key) {
			bought[id] = true
		}
	}

	var filtered []any
	for _, raw := range data {
		listing := parseResaleListing(raw)
		if listing == nil || bought[listing.CollectibleItemInstanceID] {
			continue
		}
		if h.state.Caches.SeenResellers.Add(listing.CollectibleItemInstanceID) {
			h.state.Caches.ResellerFeed.Set(listing.CollectibleItemInstanceID, *listing)
		}
		filtered = append(filtered, raw)
	}

	payload["data"] = filtered
	return true, ex.SetResponseJSON(payload)
}

// resellableInstances appends the simulated holdings of a collectible to its
// resellable-instances listing.
func (h *InventoryHandler) resellableInstances(ex *engine.Exchange) (bool, error) {
	collectibleID := ex.PathSegment(1)
	for _, records := range h.state.Inventory.BoughtItems {
		if len(records) == 0 || records[0].ResaleData == nil {
			continue
		}
		if records[0].Details.CollectibleItemID != collectibleID {
			continue
		}

		var payload map[string]any
		if err := ex.ResponseJSON(&payload); err != nil {
			return false, nil
		}
		instances, _ := payload["itemInstances"].([]any)
		for _, rec := range records {
			if rec.ResaleData == nil {
				continue
			}
			instances = append(instances, map[string]any{
				"collectibleInstanceId": rec.ResaleData.CollectibleItemInstanceID,
				"collectibleItemId":     rec.Details.CollectibleItemID,
				"collectibleProductId":  rec.ResaleData.CollectibleProductID,
				"serialNumber":          rec.Details.SerialNumber,
				"isHeld":                true,
				"saleState":             "OffSale",
				"price":                 0,
			})
		}
		payload["itemInstances"] = instances
		return true, ex.SetResponseJSON(payload)
	}
	return false, nil
}

// avatarInventory injects simulated items into the avatar editor's
// inventory, honoring its subtype filters. Bundles surface as outfits, and a
// bundle constituent sharing the bundle's name stands in for its item id.
func (h *InventoryHandler) avatarInventory(ctx context.Context, ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	items, _ := payload["avatarInventoryItems"].([]any)

	subtypeFilter := make(map[int]bool)
	for param, values := range ex.Query() {
		if !strings.Contains(param, "ItemSubType") {
			continue
		}
		for _, v := range values {
			if subtype, err := strconv.Atoi(v); err == nil {
				subtypeFilter[subtype] = true
			}
		}
	}

	keys := h.orderedKeys(true)
	infos, err := h.remote.AssetDetailsBatch(ctx, h.ownedBatchItems(keys, false))
	if err != nil {
		return false, err
	}

	for _, info := range infos {
		itemType := info.ItemType
		if itemType == "Bundle" {
			itemType = "Outfit"
		}
		var specialID int64
		if itemType == "Outfit" {
			for _, constituent := range info.BundledItems {
				if constituent.Name == info.Name {
					specialID = constituent.ID
				}
			}
		}
		bundleType := info.BundleType
		if bundleType == 2 {
			bundleType = 5
		}

		subType := info.AssetType
		if subType == 0 {
			subType = bundleType
		}
		if len(subtypeFilter) == 0 {
			if info.AssetType == emoteAssetType {
				continue
			}
		} else if !subtypeFilter[subType] {
			continue
		}

		records := h.state.Inventory.BoughtItems[itemKey(info.ID)]
		if len(records) == 0 {
			continue
		}
		displayID := info.ID
		if specialID != 0 {
			displayID = specialID
		}
		categoryType := 2
		if info.ItemType == "Asset" {
			categoryType = 1
		}
		items = append([]any{map[string]any{
			"itemId": displayID,
			"itemCategory": map[string]any{
				"itemType":    categoryType,
				"itemSubType": subType,
			},
			"itemName":        info.Name,
			"acquisitionTime": records[len(records)-1].Created,
		}}, items...)
	}

	payload["avatarInventoryItems"] = items
	return true, ex.SetResponseJSON(payload)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
