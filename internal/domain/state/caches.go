package state

import (
	"github.com/xolodev/xolo-go/internal/infrastructure/caching"
	"github.com/xolodev/xolo-go/pkg/config"
)

// CacheStore groups the correlation caches. Each cache covers one domain of
// short-lived data that must survive across unrelated exchanges: a page load
// reveals a product id that a later purchase request has to resolve.
type CacheStore struct {
	// GamePassProducts maps a scraped product id to its game-pass item id.
	GamePassProducts *caching.BoundedCache[string] `json:"gamePassProducts"`
	// DeveloperProducts maps a consumable product id to its universe mapping.
	DeveloperProducts *caching.BoundedCache[DeveloperProduct] `json:"developerProducts"`
	// Universes maps a universe id to creator and root-place metadata.
	Universes *caching.BoundedCache[UniverseInfo] `json:"universes"`
	// ItemInfo maps a collectible item id (or plain item id) to catalog details.
	ItemInfo *caching.BoundedCache[CatalogItem] `json:"itemInfo"`
	// LowestResale maps a collectible item id to its cheapest unbought listing.
	LowestResale *caching.BoundedCache[ResaleListing] `json:"lowestResale"`
	// ResellerFeed maps a resale instance id to its listing for purchase-time lookup.
	ResellerFeed *caching.BoundedCache[ResaleListing] `json:"resellerFeed"`
	// SeenResellers deduplicates resale instance ids already recorded.
	SeenResellers *caching.SeenSet `json:"seenResellers"`
	// RenderURLs remembers recently observed avatar thumbnail URLs.
	RenderURLs *caching.BoundedList[string] `json:"renderUrls"`

	// Renders holds composited image bytes keyed by request URL. Never persisted.
	Renders *caching.BoundedCache[[]byte] `json:"-"`
}

// NewCacheStore creates every cache at its configured capacity.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		GamePassProducts:  caching.NewBoundedCache[string](config.GamePassProductCacheSize),
		DeveloperProducts: caching.NewBoundedCache[DeveloperProduct](config.DeveloperProductCacheSize),
		Universes:         caching.NewBoundedCache[UniverseInfo](config.UniverseCacheSize),
		ItemInfo:          caching.NewBoundedCache[CatalogItem](config.ItemInfoCacheSize),
		LowestResale:      caching.NewBoundedCache[ResaleListing](config.LowestResaleCacheSize),
		ResellerFeed:      caching.NewBoundedCache[ResaleListing](config.ResellerFeedCacheSize),
		SeenResellers:     caching.NewSeenSet(),
		RenderURLs:        caching.NewBoundedList[string](config.RenderURLListSize),
		Renders:           caching.NewBoundedCache[[]byte](config.RenderCacheSize),
	}
}

// EnsureInitialized replaces any nil cache with an empty one at configured
// capacity, so a partially populated snapshot still loads cleanly.
func (c *CacheStore) EnsureInitialized() {
	if c.GamePassProducts == nil {
		c.GamePassProducts = caching.NewBoundedCache[string](config.GamePassProductCacheSize)
	}
	if c.DeveloperProducts == nil {
		c.DeveloperProducts = caching.NewBoundedCache[DeveloperProduct](config.DeveloperProductCacheSize)
	}
	if c.Universes == nil {
		c.Universes = caching.NewBoundedCache[UniverseInfo](config.UniverseCacheSize)
	}
	if c.ItemInfo == nil {
		c.ItemInfo = caching.NewBoundedCache[CatalogItem](config.ItemInfoCacheSize)
	}
	if c.LowestResale == nil {
		c.LowestResale = caching.NewBoundedCache[ResaleListing](config.LowestResaleCacheSize)
	}
	if c.ResellerFeed == nil {
		c.ResellerFeed = caching.NewBoundedCache[ResaleListing](config.ResellerFeedCacheSize)
	}
	if c.SeenResellers == nil {
		c.SeenResellers = caching.NewSeenSet()
	}
	if c.RenderURLs == nil {
		c.RenderURLs = caching.NewBoundedList[string](config.RenderURLListSize)
	}
	if c.Renders == nil {
		c.Renders = caching.NewBoundedCache[[]byte](config.RenderCacheSize)
	}
}

// InvalidateRenders drops every cached composite image. Called when the
// equipped set changes so stale composites are never served.
func (c *CacheStore) InvalidateRenders() {
	c.Renders.Clear()
}
