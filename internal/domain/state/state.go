package state

import "github.com/xolodev/xolo-go/pkg/config"

// ApplicationState is the aggregate root shared by the router and every
// handler. It is constructed once at startup (from a persisted snapshot or
// defaults), mutated in place, and flushed to durable storage after any
// externally consequential change.
type ApplicationState struct {
	Session   *UserSession       `json:"user"`
	Balance   *BalanceLedger     `json:"balance"`
	Inventory *InventoryLedger   `json:"inventory"`
	Avatar    *AvatarComposition `json:"avatar"`
	Caches    *CacheStore        `json:"cache"`
}

// NewApplicationState creates a default-initialized state.
func NewApplicationState() *ApplicationState {
	return &ApplicationState{
		Session:   &UserSession{},
		Balance:   NewBalanceLedger(config.AddedCredit),
		Inventory: NewInventoryLedger(),
		Avatar:    &AvatarComposition{},
		Caches:    NewCacheStore(),
	}
}

// Normalize repairs a state loaded from a snapshot: nil sections become
// defaults and caches are re-created at configured capacity when missing.
func (s *ApplicationState) Normalize() {
	if s.Session == nil {
		s.Session = &UserSession{}
	}
	if s.Balance == nil {
		s.Balance = NewBalanceLedger(config.AddedCredit)
	}
	if s.Inventory == nil {
		s.Inventory = NewInventoryLedger()
	} else {
		if s.Inventory.BoughtItems == nil {
			s.Inventory.BoughtItems = make(map[string][]*PurchaseRecord)
		}
		if s.Inventory.BoughtItemsHistory == nil {
			s.Inventory.BoughtItemsHistory = make(map[string][]*PurchaseRecord)
		}
		if s.Inventory.PendingProducts == nil {
			s.Inventory.PendingProducts = make(map[string][]*PendingPurchase)
		}
	}
	if s.Avatar == nil {
		s.Avatar = &AvatarComposition{}
	}
	if s.Caches == nil {
		s.Caches = NewCacheStore()
	} else {
		s.Caches.EnsureInitialized()
	}
}
