package state

// InventoryLedger tracks everything the user appears to own. BoughtItems maps
// item id to the ordered purchase records for that item; BoughtItemsHistory
// mirrors every record ever created and never shrinks, so transaction history
// stays stable when bundle expansion or deletion consumes live records.
type InventoryLedger struct {
	BoughtItems        map[string][]*PurchaseRecord  `json:"boughtItems"`
	BoughtItemsHistory map[string][]*PurchaseRecord  `json:"boughtItemsHistory"`
	PendingProducts    map[string][]*PendingPurchase `json:"pendingProducts"`
	GamepassInventory  []GamePassEntry               `json:"gamepassInventory"`
	ProfileItems       []ProfileItem                 `json:"profileItems"`
	CurrentlyWearing   []int64                       `json:"currentlyWearing"`
	EmotesWearing      []EmoteSlot                   `json:"emotesWearing"`
}

// NewInventoryLedger creates an empty ledger.
func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{
		BoughtItems:        make(map[string][]*PurchaseRecord),
		BoughtItemsHistory: make(map[string][]*PurchaseRecord),
		PendingProducts:    make(map[string][]*PendingPurchase),
	}
}

// Owned reports whether at least one record exists for itemID.
func (inv *InventoryLedger) Owned(itemID string) bool {
	return len(inv.BoughtItems[itemID]) > 0
}

// FirstRecord returns the oldest surviving record for itemID.
func (inv *InventoryLedger) FirstRecord(itemID string) (*PurchaseRecord, bool) {
	records := inv.BoughtItems[itemID]
	if len(records) == 0 {
		return nil, false
	}
	return records[0], true
}

// RecordPurchase appends a record to both the live ledger and the append-only
// history mirror.
func (inv *InventoryLedger) RecordPurchase(itemID string, record *PurchaseRecord) {
	inv.BoughtItems[itemID] = append(inv.BoughtItems[itemID], record)
	inv.BoughtItemsHistory[itemID] = append(inv.BoughtItemsHistory[itemID], record)
}

// RemoveOldest deletes the single oldest record for itemID, dropping the key
// entirely when it was the last unit. History is untouched.
func (inv *InventoryLedger) RemoveOldest(itemID string) bool {
	records := inv.BoughtItems[itemID]
	if len(records) == 0 {
		return false
	}
	if len(records) == 1 {
		delete(inv.BoughtItems, itemID)
		return true
	}
	inv.BoughtItems[itemID] = records[1:]
	return true
}

// RemoveAll deletes every record for itemID. History is untouched.
func (inv *InventoryLedger) RemoveAll(itemID string) bool {
	if _, exists := inv.BoughtItems[itemID]; !exists {
		return false
	}
	delete(inv.BoughtItems, itemID)
	return true
}

// RemoveProfileItem drops the injected profile row for itemID, if present.
func (inv *InventoryLedger) RemoveProfileItem(itemID int64) bool {
	for i, item := range inv.ProfileItems {
		if item.ID == itemID {
			inv.ProfileItems = append(inv.ProfileItems[:i], inv.ProfileItems[i+1:]...)
			return true
		}
	}
	return false
}

// Wearing reports whether assetID is currently equipped.
func (inv *InventoryLedger) Wearing(assetID int64) bool {
	for _, id := range inv.CurrentlyWearing {
		if id == assetID {
			return true
		}
	}
	return false
}

// Wear equips assetID if owned and not already worn. Returns whether the
// wearing list changed.
func (inv *InventoryLedger) Wear(assetID int64, itemKey string) bool {
	if !inv.Owned(itemKey) || inv.Wearing(assetID) {
		return false
	}
	inv.CurrentlyWearing = append(inv.CurrentlyWearing, assetID)
	return true
}

// Unwear removes assetID from the wearing list. Returns whether it was worn.
func (inv *InventoryLedger) Unwear(assetID int64) bool {
	for i, id := range inv.CurrentlyWearing {
		if id == assetID {
			inv.CurrentlyWearing = append(inv.CurrentlyWearing[:i], inv.CurrentlyWearing[i+1:]...)
			return true
		}
	}
	return false
}

// WearingIDs returns the equipped asset ids after self-healing: any id whose
// purchase records have disappeared is pruned. The returned slice is the
// pruned list itself; the second result reports whether pruning happened.
// Wearing-list membership must always be a subset of BoughtItems keys, and
// this is the single place that enforces it.
func (inv *InventoryLedger) WearingIDs(keyFor func(int64) string) ([]int64, bool) {
	pruned := false
	kept := inv.CurrentlyWearing[:0]
	for _, id := range inv.CurrentlyWearing {
		if inv.Owned(keyFor(id)) {
			kept = append(kept, id)
		} else {
			pruned = true
		}
	}
	inv.CurrentlyWearing = kept
	out := make([]int64, len(kept))
	copy(out, kept)
	return out, pruned
}

// EquipEmote appends an emote slot when the asset is owned.
func (inv *InventoryLedger) EquipEmote(assetID int64, position int) {
	inv.EmotesWearing = append(inv.EmotesWearing, EmoteSlot{AssetID: assetID, Position: position})
}

// UnequipEmote removes the first slot holding assetID.
func (inv *InventoryLedger) UnequipEmote(assetID int64) bool {
	for i, slot := range inv.EmotesWearing {
		if slot.AssetID == assetID {
			inv.EmotesWearing = append(inv.EmotesWearing[:i], inv.EmotesWearing[i+1:]...)
			return true
		}
	}
	return false
}

// EnqueuePending queues a consumable acknowledgement under its place id.
func (inv *InventoryLedger) EnqueuePending(placeID string, pending *PendingPurchase) {
	inv.PendingProducts[placeID] = append(inv.PendingProducts[placeID], pending)
}

// DrainPending removes and returns every queued acknowledgement for placeID,
// so each one is served exactly once.
func (inv *InventoryLedger) DrainPending(placeID string) []*PendingPurchase {
	pending := inv.PendingProducts[placeID]
	if len(pending) == 0 {
		return nil
	}
	delete(inv.PendingProducts, placeID)
	return pending
}
