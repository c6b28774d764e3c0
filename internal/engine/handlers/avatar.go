package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
	"github.com/xolodev/xolo-go/pkg/config"
)

// AvatarHandler keeps the rendered avatar consistent with the simulated
// wardrobe: it injects simulated assets into avatar state reads, reconciles
// equip requests, and replaces CDN thumbnail bytes with composites rendered
// from the merged equipped set.
type AvatarHandler struct {
	base
}

func NewAvatarHandler(deps Deps) *AvatarHandler {
	return &AvatarHandler{base: newBase(deps)}
}

func (h *AvatarHandler) Name() string { return "avatar" }

func isBypassed(ex *engine.Exchange) bool {
	return ex.RequestHeader.Get(remote.BypassHeader) != ""
}

func (h *AvatarHandler) HandleRequest(_ context.Context, ex *engine.Exchange) (bool, error) {
	if ex.URLContains("avatar.roblox.com/v1/avatar/render") {
		if isBypassed(ex) {
			return false, nil
		}
		return h.mergeRenderRequest(ex)
	}

	if ex.URLContains("rbxcdn.com/30DAY-") {
		// Cached thumbnails would mask the composite swap on the response leg.
		ex.RequestHeader.Set("cache-control", "no-cache, no-store, must-revalidate, max-age=0")
		ex.RequestHeader.Set("pragma", "no-cache")
		for _, header := range []string{"If-Modified-Since", "If-None-Match", "If-Range"} {
			ex.RequestHeader.Del(header)
		}
		return true, nil
	}

	return false, nil
}

// mergeRenderRequest adds the simulated equipped assets to an outgoing
// render request so the platform renders the merged set.
func (h *AvatarHandler) mergeRenderRequest(ex *engine.Exchange) (bool, error) {
	var body map[string]any
	if err := ex.RequestJSON(&body); err != nil {
		return false, nil
	}

	definition, ok := body["avatarDefinition"].(map[string]any)
	if !ok {
		definition = make(map[string]any)
		body["avatarDefinition"] = definition
	}
	assets, _ := definition["assets"].([]any)

	present := make(map[int64]bool)
	for _, raw := range assets {
		if asset, ok := raw.(map[string]any); ok {
			if id, ok := asset["id"].(float64); ok {
				present[int64(id)] = true
			}
		}
	}
	for _, id := range h.state.Inventory.CurrentlyWearing {
		if !present[id] {
			assets = append(assets, map[string]any{"id": id})
		}
	}
	definition["assets"] = assets

	return true, ex.SetRequestJSON(body)
}

func (h *AvatarHandler) HandleResponse(ctx context.Context, ex *engine.Exchange) (bool, error) {
	switch {
	case (ex.URLContains("avatar.roblox.com/v1/avatar") && !ex.URLContains("/v2/")) ||
		ex.URLContains("avatar.roblox.com/v2/avatar/avatar"):
		if isBypassed(ex) {
			return false, nil
		}
		return h.injectAvatarState(ctx, ex)
	case ex.URLContains("avatar.roblox.com/v2/avatar/set-wearing-assets"):
		return h.reconcileWearing(ctx, ex)
	case ex.URLContains("avatar.roblox.com/v2/outfits/create"):
		return h.rescueOutfitCreate(ex)
	case ex.URLContains("thumbnails.roblox.com/v1/batch"):
		return h.captureBatchThumbnails(ex)
	case h.state.Session.UserID != "" && ex.URLContains("thumbnails.roblox.com/v1/users/avatar-3d?userId="+h.state.Session.UserID):
		return h.captureAvatar3D(ex)
	case ex.URLContains("rbxcdn.com/30DAY-"):
		return h.serveComposite(ctx, ex)
	case ex.URLContains("avatar.roblox.com/v1/users/") && ex.URLContains("/currently-wearing"):
		return h.injectCurrentlyWearing(ex)
	case ex.URLContains("avatar.roblox.com/v1/emotes"):
		return h.handleEmotes(ex)
	}
	return false, nil
}

// injectAvatarState merges simulated assets and emotes into avatar state
// reads, self-heals the wearing list, and reverse-syncs real equipment back
// into the simulated list.
func (h *AvatarHandler) injectAvatarState(ctx context.Context, ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	isV2 := ex.URLContains("v2/avatar/avatar")

	h.state.Avatar.Wearing = payload

	assets, _ := payload["assets"].([]any)
	present := make(map[int64]bool)
	for _, raw := range assets {
		if asset, ok := raw.(map[string]any); ok {
			if id, ok := asset["id"].(float64); ok {
				present[int64(id)] = true
			}
		}
	}

	wearing, pruned := h.state.Inventory.WearingIDs(itemKey)
	if pruned {
		h.state.Caches.InvalidateRenders()
		h.save()
	}

	var missing []remote.BatchItem
	for _, id := range wearing {
		if present[id] {
			continue
		}
		if rec, ok := h.state.Inventory.FirstRecord(itemKey(id)); ok {
			missing = append(missing, remote.BatchItem{ID: rec.Details.ID, ItemType: rec.Details.Type})
		}
	}
	typeByID := make(map[int64]int)
	if len(missing) > 0 {
		infos, err := h.remote.AssetDetailsBatch(ctx, missing)
		if err == nil {
			for _, info := range infos {
				typeByID[info.ID] = info.AssetType
			}
		}
	}

	for _, id := range wearing {
		if present[id] {
			continue
		}
		rec, ok := h.state.Inventory.FirstRecord(itemKey(id))
		if !ok {
			continue
		}
		assetType := typeByID[id]
		entry := map[string]any{
			"id":   id,
			"name": rec.Details.Name,
			"assetType": map[string]any{
				"id":   assetType,
				"name": assetTypeName(assetType),
			},
			"currentVersionId": newVersionID(),
		}
		if isV2 && isAccessoryType(assetType) {
			entry["meta"] = map[string]any{
				"order":   newAccessoryOrder(),
				"version": 1,
			}
		}
		assets = append(assets, entry)
		present[id] = true
	}

	// Reverse sync: anything really worn that we also simulate as owned
	// joins the simulated wearing list.
	for _, raw := range assets {
		asset, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := asset["id"].(float64)
		if !ok {
			continue
		}
		if h.state.Inventory.Wear(int64(id), itemKey(int64(id))) {
			h.save()
		}
	}
	payload["assets"] = assets

	if isV2 {
		emotes, _ := payload["emotes"].([]any)
		existing := make(map[int64]bool)
		for _, raw := range emotes {
			if emote, ok := raw.(map[string]any); ok {
				if id, ok := emote["assetId"].(float64); ok {
					existing[int64(id)] = true
				}
			}
		}
		for _, slot := range h.state.Inventory.EmotesWearing {
			if existing[slot.AssetID] {
				continue
			}
			rec, ok := h.state.Inventory.FirstRecord(itemKey(slot.AssetID))
			if !ok {
				continue
			}
			emotes = append(emotes, map[string]any{
				"assetId":   slot.AssetID,
				"assetName": rec.Details.Name,
				"position":  slot.Position,
			})
			existing[slot.AssetID] = true
		}
		payload["emotes"] = emotes
	}

	return true, ex.SetResponseJSON(payload)
}

// reconcileWearing applies an equip request against the simulated wardrobe:
// simulated assets are pulled out of the platform's invalid list, the
// wearing list converges to the requested set, and the render cache is
// invalidated at most once per reconciliation.
func (h *AvatarHandler) reconcileWearing(ctx context.Context, ex *engine.Exchange) (bool, error) {
	if ex.Method != http.MethodPost {
		return true, nil
	}

	var request struct {
		AssetIDs []int64 `json:"assetIds"`
	}
	if err := ex.RequestJSON(&request); err != nil {
		return true, nil
	}
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}

	invalidated := false
	invalidate := func() {
		if !invalidated {
			h.state.Caches.InvalidateRenders()
			invalidated = true
		}
	}

	requested := make(map[int64]bool, len(request.AssetIDs))
	passed := make(map[int64]bool)
	for _, id := range request.AssetIDs {
		requested[id] = true
		if h.state.Inventory.Owned(itemKey(id)) {
			passed[id] = true
			if h.state.Inventory.Wear(id, itemKey(id)) {
				invalidate()
			}
		}
	}

	if rawInvalid, ok := payload["invalidAssetIds"].([]any); ok {
		var keptInvalid []any
		for _, raw := range rawInvalid {
			idFloat, isNum := raw.(float64)
			id := int64(idFloat)
			if isNum && h.state.Inventory.Owned(itemKey(id)) {
				payload["success"] = true
				passed[id] = true
				if h.state.Inventory.Wear(id, itemKey(id)) {
					invalidate()
					h.save()
				}
				if invalidAssets, ok := payload["invalidAssets"].([]any); ok {
					var kept []any
					for _, rawAsset := range invalidAssets {
						if asset, ok := rawAsset.(map[string]any); ok {
							if assetID, ok := asset["id"].(float64); ok && int64(assetID) == id {
								continue
							}
						}
						kept = append(kept, rawAsset)
					}
					payload["invalidAssets"] = kept
				}
				continue
			}
			keptInvalid = append(keptInvalid, raw)
		}
		payload["invalidAssetIds"] = keptInvalid
	}

	removed := false
	for _, worn := range append([]int64(nil), h.state.Inventory.CurrentlyWearing...) {
		if passed[worn] {
			continue
		}
		if h.state.Inventory.Unwear(worn) {
			invalidate()
			removed = true
		}
	}
	if removed {
		h.save()
	}

	if err := ex.SetResponseJSON(payload); err != nil {
		return true, err
	}

	if avatar, err := h.remote.CurrentAvatar(ctx); err == nil && avatar != nil {
		h.state.Avatar.Wearing = avatar
	}
	return true, nil
}

// rescueOutfitCreate forces success on outfit saves the platform rejected
// only because they contain simulated assets.
func (h *AvatarHandler) rescueOutfitCreate(ex *engine.Exchange) (bool, error) {
	if ex.Status == http.StatusOK {
		return false, nil
	}
	var request struct {
		Assets []struct {
			ID int64 `json:"id"`
		} `json:"assets"`
	}
	if err := ex.RequestJSON(&request); err != nil {
		return false, nil
	}
	for _, asset := range request.Assets {
		if h.state.Inventory.Wearing(asset.ID) {
			ex.Status = http.StatusOK
			ex.SetResponseText("{}")
			return true, nil
		}
	}
	return false, nil
}

// captureBatchThumbnails remembers the CDN URLs of the user's own avatar
// thumbnails so the matching CDN fetches can be answered with composites.
func (h *AvatarHandler) captureBatchThumbnails(ex *engine.Exchange) (bool, error) {
	userID, err := strconv.ParseInt(h.state.Session.UserID, 10, 64)
	if err != nil {
		return true, nil
	}
	var payload struct {
		Data []struct {
			TargetID int64  `json:"targetId"`
			ImageURL string `json:"imageUrl"`
		} `json:"data"`
	}
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	for _, entry := range payload.Data {
		if entry.TargetID == userID && entry.ImageURL != "" {
			if !h.state.Caches.RenderURLs.Contains(entry.ImageURL) {
				h.state.Caches.RenderURLs.Append(entry.ImageURL)
			}
		}
	}
	return true, nil
}

func (h *AvatarHandler) captureAvatar3D(ex *engine.Exchange) (bool, error) {
	userID, err := strconv.ParseInt(h.state.Session.UserID, 10, 64)
	if err != nil {
		return true, nil
	}
	var payload struct {
		TargetID int64  `json:"targetId"`
		ImageURL string `json:"imageUrl"`
	}
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	if payload.TargetID == userID && payload.ImageURL != "" {
		if !h.state.Caches.RenderURLs.Contains(payload.ImageURL) {
			h.state.Caches.RenderURLs.Append(payload.ImageURL)
		}
	}
	return true, nil
}

// serveComposite swaps the bytes of an avatar thumbnail CDN fetch for a
// composite render of the merged equipped set. Renders are cached per URL
// until the equipped set changes. Caching headers are stripped either way so
// the browser re-fetches after an equip.
func (h *AvatarHandler) serveComposite(ctx context.Context, ex *engine.Exchange) (bool, error) {
	url := ex.FullURL()
	for _, capturedURL := range h.state.Caches.RenderURLs.Items() {
		if !strings.Contains(capturedURL, url) {
			continue
		}

		if cached, ok := h.state.Caches.Renders.Get(url); ok {
			ex.SetResponseRaw(cached, ex.ResponseHeader.Get("Content-Type"))
			break
		}

		parts := strings.Split(strings.TrimRight(url, "/"), "/")
		avatarType := ""
		resolution := "500x500"
		if len(parts) >= 5 {
			avatarType = parts[len(parts)-3]
			resolution = parts[len(parts)-5] + "x" + parts[len(parts)-4]
		}

		render, err := h.remote.RenderComposite(ctx,
			h.state.Avatar.Wearing,
			h.state.Inventory.CurrentlyWearing,
			h.state.Avatar.Rules,
			!strings.Contains(url, "Obj"),
			resolution,
			avatarType != "AvatarHeadshot")
		if err != nil {
			h.logger.Avatar().Error("Composite render failed", "url", url, "error", err.Error())
			break
		}
		if render != nil {
			h.state.Caches.Renders.Set(url, render)
			ex.SetResponseRaw(render, ex.ResponseHeader.Get("Content-Type"))
		}
		break
	}

	ex.ResponseHeader.Set("cache-control", "no-store, no-cache, must-revalidate, max-age=0")
	ex.ResponseHeader.Set("pragma", "no-cache")
	ex.ResponseHeader.Set("expires", "0")
	ex.ResponseHeader.Del("Last-Modified")
	ex.ResponseHeader.Del("ETag")
	return true, nil
}

// injectCurrentlyWearing prepends the simulated equipped assets to the
// currently-wearing listing.
func (h *AvatarHandler) injectCurrentlyWearing(ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		payload = make(map[string]any)
	}

	raw, _ := payload["assetIds"].([]any)
	existing := make(map[int64]bool)
	var ids []int64
	for _, entry := range raw {
		if id, ok := entry.(float64); ok {
			existing[int64(id)] = true
			ids = append(ids, int64(id))
		}
	}

	wearing, pruned := h.state.Inventory.WearingIDs(itemKey)
	if pruned {
		h.save()
	}
	for _, id := range wearing {
		if !existing[id] {
			ids = append([]int64{id}, ids...)
			existing[id] = true
		}
	}

	payload["assetIds"] = ids
	return true, ex.SetResponseJSON(payload)
}

// handleEmotes serves the emote wheel: GET injects simulated emotes, POST
// equips into a slot, DELETE unequips.
func (h *AvatarHandler) handleEmotes(ex *engine.Exchange) (bool, error) {
	switch ex.Method {
	case http.MethodGet:
		var listing []any
		if err := ex.ResponseJSON(&listing); err != nil {
			return false, nil
		}
		for _, slot := range h.state.Inventory.EmotesWearing {
			rec, ok := h.state.Inventory.FirstRecord(itemKey(slot.AssetID))
			if !ok {
				continue
			}
			listing = append(listing, map[string]any{
				"assetId":   slot.AssetID,
				"assetName": rec.Details.Name,
				"position":  slot.Position,
			})
		}
		return true, ex.SetResponseJSON(listing)

	case http.MethodPost:
		assetID, err := strconv.ParseInt(ex.PathSegment(1), 10, 64)
		if err != nil || !h.state.Inventory.Owned(itemKey(assetID)) {
			return false, nil
		}
		position, _ := strconv.Atoi(ex.PathSegment(0))
		ex.Status = http.StatusOK
		h.state.Inventory.EquipEmote(assetID, position)
		h.save()
		ex.SetResponseText("{}")
		return true, nil

	case http.MethodDelete:
		assetID, err := strconv.ParseInt(ex.PathSegment(1), 10, 64)
		if err != nil || !h.state.Inventory.Owned(itemKey(assetID)) {
			return false, nil
		}
		ex.Status = http.StatusOK
		if h.state.Inventory.UnequipEmote(assetID) {
			h.save()
		}
		return true, nil
	}
	return false, nil
}

func assetTypeName(id int) string {
	if name, ok := assetTypeNames[id]; ok {
		return name
	}
	return "Unknown"
}

func isAccessoryType(id int) bool {
	for _, t := range config.AccessoryAssetTypes {
		if t == id {
			return true
		}
	}
	return false
}
