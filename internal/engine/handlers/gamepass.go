package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
)

// GamePassHandler covers the game-pass surface, which still lives in
// server-rendered HTML: it scrapes product ids off detail pages, rewrites
// owned passes to look owned, settles pass purchases, and honors ownership
// revocation.
type GamePassHandler struct {
	base
}

func NewGamePassHandler(deps Deps) *GamePassHandler {
	return &GamePassHandler{base: newBase(deps)}
}

func (h *GamePassHandler) Name() string { return "gamepass" }

func (h *GamePassHandler) HandleRequest(context.Context, *engine.Exchange) (bool, error) {
	return false, nil
}

var (
	gamePassPagePattern   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?roblox\.com/game-pass/\d+(?:/|$)`)
	itemContainerPattern  = regexp.MustCompile(`<div[^>]*id="item-container"[^>]*>`)
	productIDPattern      = regexp.MustCompile(`data-product-id="(\d+)"`)
	deleteIDPattern       = regexp.MustCompile(`data-delete-id="(\d+)"`)
	itemIDAttrPattern     = regexp.MustCompile(`data-item-id="(\d+)"`)
	sellerNamePattern     = regexp.MustCompile(`data-seller-name="([^"]*)"`)
	itemNameAttrPattern   = regexp.MustCompile(`data-item-name="([^"]*)"`)
	containerUserPattern  = regexp.MustCompile(`data-user[-]?id="(\d+)"`)
	purchaseButtonPattern = regexp.MustCompile(`(?s)<button[^>]*PurchaseButton[^>]*>.*?</button>`)
	priceContainerPattern = regexp.MustCompile(`<div[^>]*class="[^"]*price-container-text[^"]*"[^>]*>`)
	nameContainerPattern  = regexp.MustCompile(`<div[^>]*class="[^"]*item-name-container[^"]*"[^>]*>\s*<div[^>]*>`)
	passHrefPattern       = regexp.MustCompile(`/game-pass/(\d+)/`)
	creatorIDPattern      = regexp.MustCompile(`<span[^>]*verified-badge-icon[^>]*>`)
	creatorIDAttrPattern  = regexp.MustCompile(`data-creatorid="(\d+)"`)
	descriptionPattern    = regexp.MustCompile(`(?s)<p[^>]*id="item-details-description"[^>]*>(.*?)</p>`)
	assetInfoLinkPattern  = regexp.MustCompile(`(?s)<a[^>]*text-name[^>]*>`)
	hrefPattern           = regexp.MustCompile(`href="([^"]*)"`)
	anchorTextPattern     = regexp.MustCompile(`(?s)<a[^>]*text-name[^>]*>(.*?)</a>`)
)

func (h *GamePassHandler) HandleResponse(ctx context.Context, ex *engine.Exchange) (bool, error) {
	url := ex.FullURL()
	switch {
	case gamePassPagePattern.MatchString(url):
		return h.rewritePassPage(ex)
	case ex.URLContains("roblox.com/games/getgamepassesinnerpartial"):
		return h.rewritePassListing(ex)
	case ex.URLContains("apis.roblox.com/game-passes/v1/game-passes/") && ex.URLContains("/purchase"):
		return h.settlePassPurchase(ctx, ex)
	case ex.URLContains("apis.roblox.com/game-passes/v1/game-passes/") && ex.URLContains(":revokeownership"):
		return h.revokeOwnership(ex)
	case ex.URLContains("apis.roblox.com/game-passes/v1/users/") && ex.URLContains("/game-passes"):
		return h.injectPassInventory(ex)
	}
	return false, nil
}

// rewritePassPage scrapes the product id off a pass detail page and, when
// the pass is simulated as owned, rewrites the page to the owned look:
// owned label, inventory button instead of the buy button, availability
// line, and a context menu with inventory deletion.
func (h *GamePassHandler) rewritePassPage(ex *engine.Exchange) (bool, error) {
	html := ex.ResponseText()

	container := itemContainerPattern.FindString(html)
	if container != "" {
		productID := firstMatch(productIDPattern, container)
		deleteID := firstMatch(deleteIDPattern, container)
		if productID != "" && deleteID != "" {
			h.state.Caches.GamePassProducts.Set(productID, deleteID)
		}
	}

	passID := firstMatch(passHrefPattern, ex.Path()+"/")
	if passID == "" || !h.state.Inventory.Owned(passID) {
		return true, nil
	}

	pageUserID := "0"
	if container != "" {
		if uid := firstMatch(containerUserPattern, container); uid != "" {
			pageUserID = uid
		}
	}

	if !strings.Contains(html, `id="item-context-menu"`) && container != "" {
		menu := `<div id="item-context-menu">` +
			`<button class="rbx-menu-item item-context-menu btn-generic-more-sm" data-toggle="popover" data-bind="popover-content"><span class="icon-more"></span></button>` +
			`<div class="rbx-popover-content" data-toggle="popover-content"><ul class="dropdown-menu" role="menu">` +
			`<li><button role="button" id="delete-item">Delete from Inventory</button></li>` +
			fmt.Sprintf(`<li><a id="report-item" href="https://www.roblox.com/report-abuse/?targetId=%s&submitterId=0&abuseVector=gamepass">Report Item</a></li>`, passID) +
			`</ul></div></div>`
		html = strings.Replace(html, container, container+menu, 1)
	}

	if loc := priceContainerPattern.FindStringIndex(html); loc != nil && !strings.Contains(html, "item-first-line") {
		html = html[:loc[1]] +
			`<div class="item-first-line">This item is available in your inventory.</div>` +
			html[loc[1]:]
	}

	if purchaseButtonPattern.MatchString(html) {
		link := fmt.Sprintf(`<a id="inventory-button" href="https://www.roblox.com/users/%s/inventory" class="btn-fixed-width-lg btn-control-md" data-button-action="inventory">Inventory</a>`, pageUserID)
		html = replaceFirst(purchaseButtonPattern, html, link)
	}

	if loc := nameContainerPattern.FindStringIndex(html); loc != nil && !strings.Contains(html, "Item Owned") {
		owned := `<div class="divider">&nbsp;</div>` +
			`<div class="label-checkmark"><span class="icon-checkmark-white-bold"></span></div>` +
			`<span>Item Owned</span>`
		html = html[:loc[1]] + owned + html[loc[1]:]
	}

	ex.SetResponseText(html)
	return true, nil
}

// rewritePassListing processes the pass cards of a game detail page:
// product ids get cached, and owned cards lose their buy button for an
// Owned marker.
func (h *GamePassHandler) rewritePassListing(ex *engine.Exchange) (bool, error) {
	html := ex.ResponseText()

	cards := strings.Split(html, "<li")
	for i, card := range cards {
		if i == 0 {
			continue
		}
		passID := firstMatch(passHrefPattern, card)
		if passID == "" {
			continue
		}
		if productID := firstMatch(productIDPattern, card); productID != "" {
			h.state.Caches.GamePassProducts.Set(productID, passID)
		}
		if !h.state.Inventory.Owned(passID) {
			continue
		}
		card = replaceFirst(purchaseButtonPattern, card, "")
		if idx := strings.Index(card, "store-card-footer"); idx >= 0 {
			if end := strings.Index(card[idx:], "</div>"); end >= 0 {
				insert := idx + end
				card = card[:insert] + "<h5>Owned</h5>" + card[insert:]
			}
		}
		cards[i] = card
	}

	ex.SetResponseText(strings.Join(cards, "<li"))
	return true, nil
}

// settlePassPurchase settles a game-pass purchase: the restored price is
// charged against the simulated ledger and the pass detail page is scraped
// live for the metadata the synthetic record and inventory entry need.
func (h *GamePassHandler) settlePassPurchase(ctx context.Context, ex *engine.Exchange) (bool, error) {
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

	productID := ex.PathSegment(1)
	passKey, ok := h.state.Caches.GamePassProducts.Get(productID)
	if !ok {
		return false, nil
	}
	passID, err := strconv.ParseInt(passKey, 10, 64)
	if err != nil {
		return false, nil
	}

	h.state.Balance.Spend(price)

	page, err := h.remote.GamePassPage(ctx, passID)
	if err != nil {
		h.logger.Purchase().Error("Pass page fetch failed", "passId", passID, "error", err.Error())
	}
	scraped := scrapePassPage(page)

	record := &state.PurchaseRecord{
		ID:              newRecordID(),
		IDHash:          newIDHash(),
		Created:         state.CurrentTimestamp(),
		TransactionType: "Purchase",
		Agent: state.Agent{
			ID:   scraped.creatorID,
			Type: scraped.creatorType(),
			Name: scraped.creatorName,
		},
		Details: state.ItemDetails{
			ID:   passID,
			Name: scraped.passName,
			Type: "GamePass",
			Place: &state.PlaceDetails{
				PlaceID: scraped.gameID,
				Name:    scraped.gameName,
			},
		},
		Currency:      &state.CurrencyAmount{Amount: -price, Type: "Robux"},
		PurchaseToken: newPurchaseToken(),
	}
	h.state.Inventory.RecordPurchase(passKey, record)

	if scraped.iconAssetID != 0 {
		h.state.Inventory.GamepassInventory = append(h.state.Inventory.GamepassInventory, state.GamePassEntry{
			GamePassID:  passID,
			IconAssetID: scraped.iconAssetID,
			Name:        scraped.passName,
			Description: scraped.description,
			IsForSale:   true,
			Price:       price,
			Creator: state.GamePassCreator{
				CreatorType: scraped.creatorType(),
				CreatorID:   scraped.creatorID,
				Name:        scraped.creatorName,
			},
		})
	}
	h.save()
	h.recordAudit(record)
	h.logger.Purchase().Info("Game pass purchase settled",
		"pass", scraped.passName, "passId", passID, "price", price)

	productIDNum, _ := strconv.ParseInt(productID, 10, 64)
	return true, ex.SetResponseJSON(map[string]any{
		"purchased":            true,
		"reason":               "Success",
		"productId":            productIDNum,
		"currency":             1,
		"price":                price,
		"assetId":              scraped.iconAssetID,
		"assetName":            scraped.passName,
		"assetType":            "Game Pass",
		"assetTypeDisplayName": "Pass",
		"assetIsWearable":      false,
		"sellerName":           scraped.creatorName,
		"transactionVerb":      "bought",
		"isMultiPrivateSale":   false,
	})
}

func (h *GamePassHandler) revokeOwnership(ex *engine.Exchange) (bool, error) {
	last := ex.PathSegment(0)
	passKey := strings.SplitN(last, ":", 2)[0]
	if !h.state.Inventory.Owned(passKey) {
		return false, nil
	}
	h.state.Inventory.RemoveAll(passKey)
	h.save()
	ex.Status = http.StatusOK
	return true, nil
}

func (h *GamePassHandler) injectPassInventory(ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return false, nil
	}
	passes, _ := payload["gamePasses"].([]any)
	injected := make([]any, 0, len(h.state.Inventory.GamepassInventory)+len(passes))
	for _, entry := range h.state.Inventory.GamepassInventory {
		injected = append(injected, entry)
	}
	injected = append(injected, passes...)
	payload["gamePasses"] = injected
	return true, ex.SetResponseJSON(payload)
}

// passPageData is what a pass detail page yields for purchase settlement.
type passPageData struct {
	gameID      int64
	gameName    string
	creatorID   int64
	creatorName string
	passName    string
	iconAssetID int64
	description string
	isGroup     bool
}

func (p passPageData) creatorType() string {
	if p.isGroup {
		return "Group"
	}
	return "User"
}

func scrapePassPage(page string) passPageData {
	var data passPageData
	if page == "" {
		return data
	}

	if idx := strings.Index(page, `class="asset-info`); idx >= 0 {
		section := page[idx:]
		if anchor := assetInfoLinkPattern.FindString(section); anchor != "" {
			href := firstMatch(hrefPattern, anchor)
			parts := strings.Split(strings.TrimRight(href, "/"), "/")
			if len(parts) > 0 {
				data.gameID, _ = strconv.ParseInt(parts[len(parts)-1], 10, 64)
			}
		}
		if m := anchorTextPattern.FindStringSubmatch(section); m != nil {
			data.gameName = strings.TrimSpace(stripTags(m[1]))
		}
	}

	if container := itemContainerPattern.FindString(page); container != "" {
		if id := firstMatch(itemIDAttrPattern, container); id != "" {
			data.iconAssetID, _ = strconv.ParseInt(id, 10, 64)
		}
		data.creatorName = firstMatch(sellerNamePattern, container)
		data.passName = firstMatch(itemNameAttrPattern, container)
	}

	if badge := creatorIDPattern.FindString(page); badge != "" {
		if id := firstMatch(creatorIDAttrPattern, badge); id != "" {
			data.creatorID, _ = strconv.ParseInt(id, 10, 64)
		}
	}

	if m := descriptionPattern.FindStringSubmatch(page); m != nil {
		data.description = strings.TrimSpace(stripTags(m[1]))
	}

	data.isGroup = strings.Contains(page, "/communities/")
	return data
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string { return tagPattern.ReplaceAllString(s, "") }

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) < 2 {
		return ""
	}
	return m[1]
}

func replaceFirst(re *regexp.Regexp, s, replacement string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + replacement + s[loc[1]:]
}
