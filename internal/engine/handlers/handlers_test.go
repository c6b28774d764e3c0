package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
)

type fakeRemote struct {
	assetDetails map[int64]*state.CatalogItem
	batchDetails []state.CatalogItem
	resellers    map[string]map[string]any
	thumbnails   map[int64]map[string]any
	passPages    map[int64]string
	render       []byte
	renderCalls  int
	avatar       map[string]any
}

func (f *fakeRemote) AvatarRules(context.Context) (map[string]any, error)   { return nil, nil }
func (f *fakeRemote) CurrentAvatar(context.Context) (map[string]any, error) { return f.avatar, nil }

func (f *fakeRemote) Resellers(_ context.Context, id string) (map[string]any, error) {
	return f.resellers[id], nil
}

func (f *fakeRemote) MarketplaceItemDetails(context.Context, string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeRemote) AssetDetails(_ context.Context, id int64, _ string) (*state.CatalogItem, error) {
	return f.assetDetails[id], nil
}

func (f *fakeRemote) AssetDetailsBatch(context.Context, []remote.BatchItem) ([]state.CatalogItem, error) {
	return f.batchDetails, nil
}

func (f *fakeRemote) ItemThumbnail(_ context.Context, id int64, _ string) (map[string]any, error) {
	return f.thumbnails[id], nil
}

func (f *fakeRemote) GamePassProductInfo(context.Context, int64) (map[string]any, error) {
	return nil, nil
}

func (f *fakeRemote) GamePassPage(_ context.Context, id int64) (string, error) {
	return f.passPages[id], nil
}

func (f *fakeRemote) RenderComposite(context.Context, map[string]any, []int64, map[string]any, bool, string, bool) ([]byte, error) {
	f.renderCalls++
	return f.render, nil
}

type fakePersister struct{ saves int }

func (p *fakePersister) SaveState(*state.ApplicationState) { p.saves++ }

type fakeAuditor struct{ records []*state.PurchaseRecord }

func (a *fakeAuditor) RecordPurchase(r *state.PurchaseRecord) error {
	a.records = append(a.records, r)
	return nil
}

func testDeps(t *testing.T) (Deps, *fakeRemote, *fakePersister, *fakeAuditor) {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{OutputToConsole: false})
	require.NoError(t, err)
	rc := &fakeRemote{}
	persist := &fakePersister{}
	audit := &fakeAuditor{}
	return Deps{
		State:   state.NewApplicationState(),
		Remote:  rc,
		Persist: persist,
		Audit:   audit,
		Logger:  logger,
	}, rc, persist, audit
}

func requestExchange(t *testing.T, method, rawURL, body string) *engine.Exchange {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return engine.NewExchange(method, u, make(http.Header), []byte(body))
}

func exchangeWithResponse(t *testing.T, method, rawURL, requestBody, responseBody string) *engine.Exchange {
	t.Helper()
	ex := requestExchange(t, method, rawURL, requestBody)
	ex.Status = http.StatusOK
	ex.ResponseHeader = make(http.Header)
	ex.ResponseBody = []byte(responseBody)
	return ex
}

func ownItem(st *state.ApplicationState, id int64, name, itemType string) *state.PurchaseRecord {
	rec := &state.PurchaseRecord{
		ID:              id,
		Created:         state.CurrentTimestamp(),
		TransactionType: "Purchase",
		Details:         state.ItemDetails{ID: id, Name: name, Type: itemType},
		Currency:        &state.CurrencyAmount{Amount: -10, Type: "Robux"},
	}
	st.Inventory.RecordPurchase(itemKey(id), rec)
	return rec
}
