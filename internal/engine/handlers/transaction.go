package handlers

import (
	"context"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/pkg/config"
)

// TransactionHandler keeps the transaction pages consistent with the
// simulated ledger: spent totals shrink by the simulated spend, the added
// credit shows up as an old group payout, and simulated purchases appear in
// purchase history.
type TransactionHandler struct {
	base
}

func NewTransactionHandler(deps Deps) *TransactionHandler {
	return &TransactionHandler{base: newBase(deps)}
}

func (h *TransactionHandler) Name() string { return "transaction" }

func (h *TransactionHandler) HandleRequest(context.Context, *engine.Exchange) (bool, error) {
	return false, nil
}

func (h *TransactionHandler) HandleResponse(_ context.Context, ex *engine.Exchange) (bool, error) {
	if !ex.URLContains("apis.roblox.com/transaction-records/v1/users/") {
		return false, nil
	}

	switch {
	case ex.URLContains("transaction-totals"):
		return h.rewriteTotals(ex)
	case ex.URLContains("/transactions") && ex.URLContains("transactionType=Purchase"):
		return h.appendPurchases(ex)
	case ex.URLContains("/transactions") && ex.URLContains("transactionType=GroupPayout"):
		return h.injectPayout(ex)
	}
	return false, nil
}

// rewriteTotals subtracts the simulated spend from the outgoing totals and,
// on windows wide enough to include the payout, adds the credit to the
// incoming totals.
func (h *TransactionHandler) rewriteTotals(ex *engine.Exchange) (bool, error) {
	var totals map[string]any
	if err := ex.ResponseJSON(&totals); err != nil {
		return true, nil
	}

	adjust := func(field string, delta int64) {
		if v, ok := totals[field].(float64); ok {
			totals[field] = int64(v) + delta
		}
	}
	adjust("purchasesTotal", -h.state.Balance.FakeSpent)
	adjust("outgoingRobuxTotal", -h.state.Balance.FakeSpent)

	if ex.URLContains("timeFrame=Month") || ex.URLContains("timeFrame=Year") {
		adjust("groupPayoutsTotal", config.AddedCredit)
		adjust("incomingRobuxTotal", config.AddedCredit)
	}

	return true, ex.SetResponseJSON(totals)
}

// appendPurchases adds every effective simulated purchase to the purchase
// history. Bundle constituents are skipped; only the bundle itself shows.
func (h *TransactionHandler) appendPurchases(ex *engine.Exchange) (bool, error) {
	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	data, _ := payload["data"].([]any)

	for _, records := range h.state.Inventory.BoughtItemsHistory {
		for _, rec := range records {
			if rec.Ineffective {
				continue
			}
			data = append(data, rec)
		}
	}

	payload["data"] = data
	return true, ex.SetResponseJSON(payload)
}

// injectPayout inserts a synthetic group payout covering the added credit,
// dated two months back and placed to preserve the page's descending time
// order. A full page (100 rows) with nothing older is left untouched.
func (h *TransactionHandler) injectPayout(ex *engine.Exchange) (bool, error) {
	created := state.MonthsAgo(2)
	payout := &state.PurchaseRecord{
		ID:              newRecordID(),
		IDHash:          newIDHash(),
		TransactionType: "Group Revenue Payout",
		Created:         created,
		Agent: state.Agent{
			ID:   config.PayoutGroupID,
			Type: "Group",
			Name: config.PayoutGroupName,
		},
		Currency: &state.CurrencyAmount{Amount: config.AddedCredit, Type: "Robux"},
	}

	var payload map[string]any
	if err := ex.ResponseJSON(&payload); err != nil {
		return true, nil
	}
	data, _ := payload["data"].([]any)

	payoutTime, err := state.ParseTimestamp(created)
	if err != nil {
		return true, nil
	}

	inserted := false
	for i, raw := range data {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		entryCreated, _ := entry["created"].(string)
		entryTime, err := state.ParseTimestamp(entryCreated)
		if err != nil {
			continue
		}
		if payoutTime.After(entryTime) {
			data = append(data[:i], append([]any{payout}, data[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		if len(data) == 100 {
			return true, nil
		}
		data = append(data, payout)
	}

	payload["data"] = data
	return true, ex.SetResponseJSON(payload)
}
