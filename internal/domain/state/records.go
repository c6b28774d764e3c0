package state

// Agent identifies the counterparty of a synthetic transaction record, either
// the item's creator or the reseller it was bought from.
type Agent struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// PlaceDetails ties a record to the experience it was bought in. Present on
// developer-product and game-pass records only.
type PlaceDetails struct {
	PlaceID    int64  `json:"placeId"`
	UniverseID int64  `json:"universeId"`
	Name       string `json:"name"`
}

// ItemDetails describes the acquired item inside a purchase record.
type ItemDetails struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Type              string        `json:"type"`
	CollectibleItemID string        `json:"collectibleItemId,omitempty"`
	SerialNumber      *int64        `json:"serialNumber,omitempty"`
	Place             *PlaceDetails `json:"place,omitempty"`
}

// CurrencyAmount is the signed currency delta a record carries.
type CurrencyAmount struct {
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
}

// PurchaseRecord is one synthetic acquisition. Records flagged Ineffective
// are bundle constituents: they satisfy ownership checks but are excluded
// from balance and transaction-history displays.
type PurchaseRecord struct {
	ID              int64           `json:"id"`
	IDHash          string          `json:"idHash"`
	Created         string          `json:"created"`
	TransactionType string          `json:"transactionType"`
	IsPending       bool            `json:"isPending"`
	Agent           Agent           `json:"agent"`
	Details         ItemDetails     `json:"details"`
	Currency        *CurrencyAmount `json:"currency,omitempty"`
	PurchaseToken   string          `json:"purchaseToken"`
	ResaleData      *ResaleListing  `json:"resaleData,omitempty"`
	SpecialID       int64           `json:"specialId,omitempty"`
	Ineffective     bool            `json:"ineffective,omitempty"`
}

// KeyValue is one acknowledgement action argument.
type KeyValue struct {
	Key   string `json:"Key"`
	Value any    `json:"Value"`
}

// PendingPurchase is a queued consumable-purchase acknowledgement served by
// the game-transactions polling endpoint.
type PendingPurchase struct {
	PlayerID       string     `json:"playerId"`
	PlaceID        int64      `json:"placeId"`
	GameInstanceID string     `json:"gameInstanceId"`
	Receipt        string     `json:"receipt"`
	ActionArgs     []KeyValue `json:"actionArgs"`
	Action         string     `json:"action"`
}

// EmoteSlot is one equipped emote and its wheel position.
type EmoteSlot struct {
	AssetID  int64 `json:"assetId"`
	Position int   `json:"position"`
}

// ProfileThumbnail mirrors the thumbnail block of an injected collection row.
type ProfileThumbnail struct {
	Final        bool    `json:"final"`
	URL          string  `json:"url"`
	RetryURL     *string `json:"retryUrl"`
	UserID       int64   `json:"userId"`
	EndpointType string  `json:"endpointType"`
}

// ProfileItem is a synthetic profile-collection listing row.
type ProfileItem struct {
	ID                   int64            `json:"id"`
	AssetSeoURL          string           `json:"assetSeoUrl"`
	Thumbnail            ProfileThumbnail `json:"thumbnail"`
	Name                 string           `json:"name"`
	FormatName           *string          `json:"formatName"`
	Description          string           `json:"description"`
	AssetRestrictionIcon *string          `json:"assetRestrictionIcon"`
	HasPremiumBenefit    bool             `json:"hasPremiumBenefit"`
	AssetAttribution     *string          `json:"assetAttribution"`
	AssetType            string           `json:"assetType"`
}

// GamePassCreator identifies the seller of a synthetic game-pass entry.
type GamePassCreator struct {
	CreatorType string `json:"creatorType"`
	CreatorID   int64  `json:"creatorId"`
	Name        string `json:"name"`
}

// GamePassEntry is a synthetic game-pass inventory listing row.
type GamePassEntry struct {
	GamePassID  int64           `json:"gamePassId"`
	IconAssetID int64           `json:"iconAssetId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsForSale   bool            `json:"isForSale"`
	Price       int64           `json:"price"`
	Creator     GamePassCreator `json:"creator"`
}
