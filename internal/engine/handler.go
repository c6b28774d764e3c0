package engine

import (
	"context"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
)

// Handler rewrites one slice of traffic. HandleRequest runs before the
// exchange is forwarded upstream, HandleResponse after the upstream reply
// arrives. The boolean reports a claim: a claiming handler stops the chain
// for that exchange. A handler that recognizes an exchange but has nothing
// to change still claims it.
type Handler interface {
	Name() string
	HandleRequest(ctx context.Context, ex *Exchange) (bool, error)
	HandleResponse(ctx context.Context, ex *Exchange) (bool, error)
}

// RemoteClient is the upstream API surface handlers are allowed to call.
// Absence of an upstream resource comes back as a nil result with nil error.
type RemoteClient interface {
	AvatarRules(ctx context.Context) (map[string]any, error)
	CurrentAvatar(ctx context.Context) (map[string]any, error)
	Resellers(ctx context.Context, collectibleItemID string) (map[string]any, error)
	MarketplaceItemDetails(ctx context.Context, collectibleItemID string) (map[string]any, error)
	AssetDetails(ctx context.Context, itemID int64, itemType string) (*state.CatalogItem, error)
	AssetDetailsBatch(ctx context.Context, items []remote.BatchItem) ([]state.CatalogItem, error)
	ItemThumbnail(ctx context.Context, itemID int64, itemType string) (map[string]any, error)
	GamePassProductInfo(ctx context.Context, gamePassID int64) (map[string]any, error)
	GamePassPage(ctx context.Context, gamePassID int64) (string, error)
	RenderComposite(ctx context.Context, wearing map[string]any, currentlyWearing []int64, rules map[string]any, is2D bool, size string, fullAvatar bool) ([]byte, error)
}

// Persister flushes state after externally consequential mutations. Handlers
// call it fire-and-forget; persistence failures never fail an exchange.
type Persister interface {
	SaveState(st *state.ApplicationState)
}

// Auditor appends purchase records to the durable audit trail.
type Auditor interface {
	RecordPurchase(record *state.PurchaseRecord) error
}
