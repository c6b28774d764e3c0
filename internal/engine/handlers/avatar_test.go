package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
)

func TestAvatar_RenderRequestMergesSimulatedAssets(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	ownItem(deps.State, 42, "Hat", "Asset")
	deps.State.Inventory.Wear(42, "42")
	h := NewAvatarHandler(deps)

	ex := requestExchange(t, "POST",
		"https://avatar.roblox.com/v1/avatar/render",
		`{"avatarDefinition":{"assets":[{"id":1}]}}`)
	claimed, err := h.HandleRequest(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	var body map[string]any
	require.NoError(t, ex.RequestJSON(&body))
	assets := body["avatarDefinition"].(map[string]any)["assets"].([]any)
	require.Len(t, assets, 2)
	assert.Equal(t, float64(42), assets[1].(map[string]any)["id"])
}

func TestAvatar_RenderRequestSkippedWhenBypassed(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	h := NewAvatarHandler(deps)

	ex := requestExchange(t, "POST",
		"https://avatar.roblox.com/v1/avatar/render", `{}`)
	ex.RequestHeader.Set(remote.BypassHeader, "1")
	claimed, err := h.HandleRequest(context.Background(), ex)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestAvatar_ThumbnailRequestStripsCacheValidators(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	h := NewAvatarHandler(deps)

	ex := requestExchange(t, "GET",
		"https://tr.rbxcdn.com/30DAY-abc123/150/150/AvatarHeadshot/Webp/noFilter", "")
	ex.RequestHeader.Set("If-None-Match", `"etag"`)
	claimed, err := h.HandleRequest(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Empty(t, ex.RequestHeader.Get("If-None-Match"))
	assert.Contains(t, ex.RequestHeader.Get("cache-control"), "no-cache")
}

func TestAvatar_StateInjectsWornSimulatedAssets(t *testing.T) {
	deps, rc, _, _ := testDeps(t)
	ownItem(deps.State, 42, "Cool Hat", "Asset")
	deps.State.Inventory.Wear(42, "42")
	ownItem(deps.State, 50, "Shirt", "Asset")
	rc.batchDetails = []state.CatalogItem{{ID: 42, Name: "Cool Hat", AssetType: 8}}
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "GET",
		"https://avatar.roblox.com/v1/avatar",
		"", `{"assets":[{"id":50,"name":"Shirt"}]}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	var payload map[string]any
	require.NoError(t, ex.ResponseJSON(&payload))
	assets := payload["assets"].([]any)
	require.Len(t, assets, 2)
	injected := assets[1].(map[string]any)
	assert.Equal(t, float64(42), injected["id"])
	assert.Equal(t, "Hat", injected["assetType"].(map[string]any)["name"])

	// Anything really worn that is also simulated as owned joins the
	// simulated wearing list.
	assert.True(t, deps.State.Inventory.Wearing(50))
}

func TestAvatar_StateSkippedWhenBypassed(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "GET",
		"https://avatar.roblox.com/v1/avatar", "", `{"assets":[]}`)
	ex.RequestHeader.Set(remote.BypassHeader, "1")
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestAvatar_ReconcileConvergesWearingList(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	ownItem(deps.State, 10, "A", "Asset")
	ownItem(deps.State, 20, "B", "Asset")
	deps.State.Inventory.Wear(10, "10")
	deps.State.Inventory.Wear(20, "20")
	deps.State.Caches.Renders.Set("some-url", []byte("stale"))
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://avatar.roblox.com/v2/avatar/set-wearing-assets",
		`{"assetIds":[10]}`,
		`{"success":false,"invalidAssetIds":[10],"invalidAssets":[{"id":10}]}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	assert.Equal(t, []int64{10}, deps.State.Inventory.CurrentlyWearing)
	assert.True(t, ex.ResponseProbe("success").Bool())
	assert.Empty(t, ex.ResponseProbe("invalidAssetIds").Array())
	assert.Empty(t, ex.ResponseProbe("invalidAssets").Array())
	assert.Equal(t, 0, deps.State.Caches.Renders.Len())
}

func TestAvatar_OutfitCreateRescuedForSimulatedAssets(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	ownItem(deps.State, 42, "Hat", "Asset")
	deps.State.Inventory.Wear(42, "42")
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://avatar.roblox.com/v2/outfits/create",
		`{"assets":[{"id":42}]}`, `{"errors":[{"code":1}]}`)
	ex.Status = 403
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, 200, ex.Status)
	assert.Equal(t, "{}", ex.ResponseText())
}

func TestAvatar_BatchThumbnailsCaptureOwnRenderURLs(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	deps.State.Session.UserID = "123"
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://thumbnails.roblox.com/v1/batch", "",
		`{"data":[
			{"targetId":123,"imageUrl":"https://tr.rbxcdn.com/30DAY-own/150/150/AvatarHeadshot/Webp/noFilter"},
			{"targetId":456,"imageUrl":"https://tr.rbxcdn.com/30DAY-other/150/150/AvatarHeadshot/Webp/noFilter"}
		]}`)
	_, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)

	items := deps.State.Caches.RenderURLs.Items()
	require.Len(t, items, 1)
	assert.Contains(t, items[0], "30DAY-own")
}

func TestAvatar_CompositeServedAndCachedPerURL(t *testing.T) {
	deps, rc, _, _ := testDeps(t)
	url := "https://tr.rbxcdn.com/30DAY-own/150/150/AvatarHeadshot/Webp/noFilter"
	deps.State.Caches.RenderURLs.Append(url)
	rc.render = []byte("composite-bytes")
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "GET", url, "", "real-cdn-bytes")
	ex.ResponseHeader.Set("ETag", `"e1"`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, "composite-bytes", string(ex.ResponseBody))
	assert.Equal(t, 1, rc.renderCalls)
	assert.Empty(t, ex.ResponseHeader.Get("ETag"))
	assert.Contains(t, ex.ResponseHeader.Get("cache-control"), "no-store")

	// Until the equipped set changes, the same URL is answered from cache.
	ex = exchangeWithResponse(t, "GET", url, "", "real-cdn-bytes")
	claimed, err = h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, "composite-bytes", string(ex.ResponseBody))
	assert.Equal(t, 1, rc.renderCalls)
}

func TestAvatar_CurrentlyWearingInjectionSelfHeals(t *testing.T) {
	deps, _, persist, _ := testDeps(t)
	ownItem(deps.State, 42, "Hat", "Asset")
	deps.State.Inventory.Wear(42, "42")
	// A stale id with no backing record gets pruned on read.
	deps.State.Inventory.CurrentlyWearing = append(deps.State.Inventory.CurrentlyWearing, 99)
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "GET",
		"https://avatar.roblox.com/v1/users/123/currently-wearing",
		"", `{"assetIds":[50]}`)
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	require.True(t, claimed)

	var payload struct {
		AssetIDs []int64 `json:"assetIds"`
	}
	require.NoError(t, ex.ResponseJSON(&payload))
	assert.Equal(t, []int64{42, 50}, payload.AssetIDs)
	assert.Equal(t, []int64{42}, deps.State.Inventory.CurrentlyWearing)
	assert.Positive(t, persist.saves)
}

func TestAvatar_EmoteWheel(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	ownItem(deps.State, 42, "Wave", "Asset")
	h := NewAvatarHandler(deps)

	equip := exchangeWithResponse(t, "POST",
		"https://avatar.roblox.com/v1/emotes/42/2", "", `{"errors":[]}`)
	equip.Status = 403
	claimed, err := h.HandleResponse(context.Background(), equip)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, 200, equip.Status)
	assert.Equal(t, "{}", equip.ResponseText())

	list := exchangeWithResponse(t, "GET",
		"https://avatar.roblox.com/v1/emotes", "", `[]`)
	claimed, err = h.HandleResponse(context.Background(), list)
	require.NoError(t, err)
	require.True(t, claimed)
	var listing []map[string]any
	require.NoError(t, list.ResponseJSON(&listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "Wave", listing[0]["assetName"])
	assert.Equal(t, float64(2), listing[0]["position"])

	unequip := exchangeWithResponse(t, "DELETE",
		"https://avatar.roblox.com/v1/emotes/42/2", "", "")
	claimed, err = h.HandleResponse(context.Background(), unequip)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Empty(t, deps.State.Inventory.EmotesWearing)
}

func TestAvatar_EmoteEquipRequiresOwnership(t *testing.T) {
	deps, _, _, _ := testDeps(t)
	h := NewAvatarHandler(deps)

	ex := exchangeWithResponse(t, "POST",
		"https://avatar.roblox.com/v1/emotes/42/2", "", `{"errors":[]}`)
	ex.Status = 403
	claimed, err := h.HandleResponse(context.Background(), ex)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, 403, ex.Status)
}
