// Package remote performs the engine's own upstream API calls: catalog
// lookups, reseller feeds, avatar state, and composite rendering. Responses
// feed the correlation caches; a missing upstream resource is reported as
// absence, not as an error.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/pkg/config"
)

// BypassHeader marks requests originating from the engine itself so the
// proxy layer forwards them untouched instead of rewriting them again.
const BypassHeader = "X-Xolo-Internal"

const securityCookie = ".ROBLOSECURITY"

// BatchItem is one entry of a batched catalog details request.
type BatchItem struct {
	ID       int64  `json:"id"`
	ItemType string `json:"itemType"`
}

// Client calls the upstream platform APIs with the credentials captured from
// live traffic. All methods take the deadline from ctx on top of the
// client-wide timeout.
type Client struct {
	http    *http.Client
	session *state.UserSession
	logger  *logging.ChanneledLogger
}

// NewClient creates a client bound to the shared session credentials.
func NewClient(session *state.UserSession, logger *logging.ChanneledLogger) *Client {
	return &Client{
		http:    &http.Client{Timeout: config.RemoteTimeout},
		session: session,
		logger:  logger,
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, url, err)
	}
	req.Header.Set(BypassHeader, "true")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Cookie != "" {
		req.AddCookie(&http.Cookie{Name: securityCookie, Value: c.session.Cookie})
	}
	if c.session.CSRFToken != "" {
		req.Header.Set("x-csrf-token", c.session.CSRFToken)
	}
	return req, nil
}

// getJSON fetches url and decodes the response into out. A 404 returns
// (false, nil): the resource does not exist upstream and the caller should
// treat that as absence.
func (c *Client) getJSON(ctx context.Context, url string, out any) (bool, error) {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) postJSON(ctx context.Context, url string, payload, out any) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) (bool, error) {
	start := time.Now()
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Remote().Debug("Upstream call failed", "method", method, "url", url, "error", err.Error())
		return false, fmt.Errorf("upstream call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Remote().Debug("Upstream returned non-success", "method", method, "url", url, "status", resp.StatusCode)
		return false, fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	c.logger.Remote().Debug("Upstream call completed", "method", method, "url", url, "duration", time.Since(start))
	return true, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// AvatarRules fetches the avatar rules document used for body-color mapping
// during rendering.
func (c *Client) AvatarRules(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	ok, err := c.getJSON(ctx, "https://avatar.roblox.com/v1/avatar-rules", &out)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// CurrentAvatar fetches the user's real equipped avatar.
func (c *Client) CurrentAvatar(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	ok, err := c.getJSON(ctx, "https://avatar.roblox.com/v1/avatar", &out)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// Resellers fetches the reseller listing page for a collectible item.
func (c *Client) Resellers(ctx context.Context, collectibleItemID string) (map[string]any, error) {
	url := fmt.Sprintf("https://apis.roblox.com/marketplace-sales/v1/item/%s/resellers?cursor=&limit=100", collectibleItemID)
	var out map[string]any
	ok, err := c.getJSON(ctx, url, &out)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// MarketplaceItemDetails resolves a collectible item id to its marketplace
// details record, or nil when upstream does not know it.
func (c *Client) MarketplaceItemDetails(ctx context.Context, collectibleItemID string) (map[string]any, error) {
	var out []map[string]any
	payload := map[string]any{"itemIds": []string{collectibleItemID}}
	ok, err := c.postJSON(ctx, "https://apis.roblox.com/marketplace-items/v1/items/details", payload, &out)
	if err != nil || !ok || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

// AssetDetails fetches the catalog details of one item. Returns nil without
// error when the item does not exist.
func (c *Client) AssetDetails(ctx context.Context, itemID int64, itemType string) (*state.CatalogItem, error) {
	url := fmt.Sprintf("https://catalog.roblox.com/v1/catalog/items/%d/details?itemType=%s", itemID, capitalize(itemType))
	var out state.CatalogItem
	ok, err := c.getJSON(ctx, url, &out)
	if err != nil || !ok {
		return nil, err
	}
	return &out, nil
}

// AssetDetailsBatch fetches catalog details for many items, chunked to the
// configured batch size. Items upstream does not know are simply absent from
// the result.
func (c *Client) AssetDetailsBatch(ctx context.Context, items []BatchItem) ([]state.CatalogItem, error) {
	var all []state.CatalogItem
	for begin := 0; begin < len(items); begin += config.BatchChunkSize {
		end := begin + config.BatchChunkSize
		if end > len(items) {
			end = len(items)
		}

		var out struct {
			Data []state.CatalogItem `json:"data"`
		}
		ok, err := c.postJSON(ctx, "https://catalog.roblox.com/v1/catalog/items/details",
			map[string]any{"items": items[begin:end]}, &out)
		if err != nil {
			return all, err
		}
		if ok {
			all = append(all, out.Data...)
		}
	}
	return all, nil
}

// ItemThumbnail fetches the thumbnail listing for an asset or bundle.
func (c *Client) ItemThumbnail(ctx context.Context, itemID int64, itemType string) (map[string]any, error) {
	var url string
	switch strings.ToLower(itemType) {
	case "asset":
		url = fmt.Sprintf("https://thumbnails.roblox.com/v1/assets?assetIds=%d&format=png&isCircular=false&size=140x140", itemID)
	case "bundle":
		url = fmt.Sprintf("https://thumbnails.roblox.com/v1/bundles/thumbnails?bundleIds=%d&format=png&isCircular=false&size=150x150", itemID)
	default:
		return nil, nil
	}
	var out map[string]any
	ok, err := c.getJSON(ctx, url, &out)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// GamePassProductInfo fetches product info for a game pass.
func (c *Client) GamePassProductInfo(ctx context.Context, gamePassID int64) (map[string]any, error) {
	url := fmt.Sprintf("https://apis.roblox.com/game-passes/v1/game-passes/%d/product-info", gamePassID)
	var out map[string]any
	ok, err := c.getJSON(ctx, url, &out)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

// GamePassPage fetches the HTML detail page of a game pass, the only place
// its product id is published.
func (c *Client) GamePassPage(ctx context.Context, gamePassID int64) (string, error) {
	url := fmt.Sprintf("https://www.roblox.com/game-pass/%d/", gamePassID)
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, url)
	}

	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read game pass page: %w", err)
	}
	return string(page), nil
}
