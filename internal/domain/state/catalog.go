package state

// BundledItem is one constituent of a purchasable bundle.
type BundledItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CatalogItem is the slice of a catalog details payload the engine needs to
// synthesize purchase records and ownership rewrites.
type CatalogItem struct {
	ID                      int64         `json:"id"`
	ItemType                string        `json:"itemType"`
	Name                    string        `json:"name"`
	Description             string        `json:"description"`
	CreatorTargetID         int64         `json:"creatorTargetId"`
	CreatorName             string        `json:"creatorName"`
	CreatorType             string        `json:"creatorType"`
	CreatorHasVerifiedBadge bool          `json:"creatorHasVerifiedBadge"`
	CollectibleItemID       string        `json:"collectibleItemId,omitempty"`
	LowestResalePrice       int64         `json:"lowestResalePrice,omitempty"`
	AssetType               int           `json:"assetType,omitempty"`
	BundleType              int           `json:"bundleType,omitempty"`
	BundledItems            []BundledItem `json:"bundledItems,omitempty"`
}

// UniverseInfo is the cached creator/game metadata for one universe.
type UniverseInfo struct {
	Creator     Agent  `json:"creator"`
	RootPlaceID int64  `json:"rootPlaceId"`
	Name        string `json:"name"`
}

// DeveloperProduct is the cached mapping of a consumable product to its
// universe.
type DeveloperProduct struct {
	ProductID  int64  `json:"productId"`
	Name       string `json:"name"`
	UniverseID int64  `json:"universeId"`
}

// ResaleSeller identifies who listed a resale instance.
type ResaleSeller struct {
	SellerID   int64  `json:"sellerId"`
	SellerType string `json:"sellerType"`
	Name       string `json:"name"`
}

// ResaleListing is one for-sale unit of a limited collectible, keyed by its
// unique instance id.
type ResaleListing struct {
	CollectibleItemInstanceID string       `json:"collectibleItemInstanceId"`
	CollectibleProductID      string       `json:"collectibleProductId"`
	CollectibleItemID         string       `json:"collectibleItemId,omitempty"`
	Price                     int64        `json:"price"`
	SerialNumber              int64        `json:"serialNumber"`
	Seller                    ResaleSeller `json:"seller"`
}
