package services

import (
	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/messaging"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/infrastructure/persistence"
	"github.com/xolodev/xolo-go/pkg/config"
)

// StateSummary is the dashboard's read model of the shared state.
type StateSummary struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	Premium        string `json:"premium"`
	BalanceKnown   bool   `json:"balanceKnown"`
	RealBalance    int64  `json:"realBalance"`
	CurrentBalance int64  `json:"currentBalance"`
	AddedCredit    int64  `json:"addedCredit"`
	FakeSpent      int64  `json:"fakeSpent"`
	OwnedItems     int    `json:"ownedItems"`
	OwnedUnits     int    `json:"ownedUnits"`
	GamePasses     int    `json:"gamePasses"`
	ProfileItems   int    `json:"profileItems"`
	WearingAssets  int    `json:"wearingAssets"`
	EmotesEquipped int    `json:"emotesEquipped"`
	AuditedRecords int64  `json:"auditedRecords"`
}

// CacheStatus reports the fill level of one correlation cache.
type CacheStatus struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
}

// StateService exposes the shared state to the dashboard. Every access goes
// through the engine lock so dashboard reads never observe a half-applied
// exchange.
type StateService struct {
	engine    *EngineService
	state     *state.ApplicationState
	snapshots *persistence.SnapshotStore
	audit     *persistence.AuditLog
	events    messaging.EventSink
	logger    *logging.ChanneledLogger
}

func NewStateService(
	eng *EngineService,
	st *state.ApplicationState,
	snapshots *persistence.SnapshotStore,
	audit *persistence.AuditLog,
	events messaging.EventSink,
	logger *logging.ChanneledLogger,
) *StateService {
	if events == nil {
		events = messaging.NopSink{}
	}
	return &StateService{
		engine:    eng,
		state:     st,
		snapshots: snapshots,
		audit:     audit,
		events:    events,
		logger:    logger,
	}
}

// Summary builds a point-in-time view of the ledger and inventory.
func (s *StateService) Summary() StateSummary {
	var out StateSummary
	s.engine.Do(func() {
		out = StateSummary{
			UserID:         s.state.Session.UserID,
			UserName:       s.state.Session.UserName,
			Premium:        s.state.Session.Premium,
			BalanceKnown:   s.state.Balance.Captured(),
			CurrentBalance: s.state.Balance.CurrentBalance,
			AddedCredit:    s.state.Balance.AddedCredit,
			FakeSpent:      s.state.Balance.FakeSpent,
			OwnedItems:     len(s.state.Inventory.BoughtItems),
			GamePasses:     len(s.state.Inventory.GamepassInventory),
			ProfileItems:   len(s.state.Inventory.ProfileItems),
			WearingAssets:  len(s.state.Inventory.CurrentlyWearing),
			EmotesEquipped: len(s.state.Inventory.EmotesWearing),
		}
		if s.state.Balance.RealBalance != nil {
			out.RealBalance = *s.state.Balance.RealBalance
		}
		for _, records := range s.state.Inventory.BoughtItems {
			out.OwnedUnits += len(records)
		}
	})
	if s.audit != nil {
		if n, err := s.audit.Count(); err == nil {
			out.AuditedRecords = n
		}
	}
	return out
}

// Ledger returns the full purchase history, newest first within each item.
func (s *StateService) Ledger() map[string][]*state.PurchaseRecord {
	out := make(map[string][]*state.PurchaseRecord)
	s.engine.Do(func() {
		for itemID, records := range s.state.Inventory.BoughtItemsHistory {
			copied := make([]*state.PurchaseRecord, len(records))
			copy(copied, records)
			out[itemID] = copied
		}
	})
	return out
}

// Caches reports the fill level of every correlation cache.
func (s *StateService) Caches() []CacheStatus {
	var out []CacheStatus
	s.engine.Do(func() {
		c := s.state.Caches
		out = []CacheStatus{
			{Name: "gamePassProducts", Size: c.GamePassProducts.Len(), Capacity: c.GamePassProducts.Capacity()},
			{Name: "developerProducts", Size: c.DeveloperProducts.Len(), Capacity: c.DeveloperProducts.Capacity()},
			{Name: "universes", Size: c.Universes.Len(), Capacity: c.Universes.Capacity()},
			{Name: "itemInfo", Size: c.ItemInfo.Len(), Capacity: c.ItemInfo.Capacity()},
			{Name: "lowestResale", Size: c.LowestResale.Len(), Capacity: c.LowestResale.Capacity()},
			{Name: "resellerFeed", Size: c.ResellerFeed.Len(), Capacity: c.ResellerFeed.Capacity()},
			{Name: "seenResellers", Size: c.SeenResellers.Len(), Capacity: 0},
			{Name: "renderUrls", Size: c.RenderURLs.Len(), Capacity: c.RenderURLs.Capacity()},
			{Name: "renders", Size: c.Renders.Len(), Capacity: c.Renders.Capacity()},
		}
	})
	return out
}

// ForceSave flushes the snapshot immediately.
func (s *StateService) ForceSave() error {
	var err error
	s.engine.Do(func() {
		err = s.snapshots.Save(s.state)
	})
	if err == nil {
		s.events.Publish(messaging.NewEvent("snapshot", map[string]any{"action": "saved"}))
	}
	return err
}

// Reset clears the simulated ledger and inventory while keeping the captured
// session credentials, then saves. The audit trail is untouched.
func (s *StateService) Reset() error {
	var err error
	s.engine.Do(func() {
		s.state.Balance = state.NewBalanceLedger(config.AddedCredit)
		s.state.Inventory = state.NewInventoryLedger()
		s.state.Avatar = &state.AvatarComposition{}
		s.state.Caches = state.NewCacheStore()
		err = s.snapshots.Save(s.state)
	})
	s.logger.Dashboard().Info("State reset", "keptSession", s.state.Session.UserID != "")
	s.events.Publish(messaging.NewEvent("state", map[string]any{"action": "reset"}))
	return err
}
