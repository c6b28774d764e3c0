package engine

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
)

type fakeRemote struct {
	rules  map[string]any
	avatar map[string]any
}

func (f *fakeRemote) AvatarRules(context.Context) (map[string]any, error)    { return f.rules, nil }
func (f *fakeRemote) CurrentAvatar(context.Context) (map[string]any, error)  { return f.avatar, nil }
func (f *fakeRemote) Resellers(context.Context, string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeRemote) MarketplaceItemDetails(context.Context, string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeRemote) AssetDetails(context.Context, int64, string) (*state.CatalogItem, error) {
	return nil, nil
}

func (f *fakeRemote) AssetDetailsBatch(context.Context, []remote.BatchItem) ([]state.CatalogItem, error) {
	return nil, nil
}

func (f *fakeRemote) ItemThumbnail(context.Context, int64, string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeRemote) GamePassProductInfo(context.Context, int64) (map[string]any, error) {
	return nil, nil
}
func (f *fakeRemote) GamePassPage(context.Context, int64) (string, error) { return "", nil }

func (f *fakeRemote) RenderComposite(context.Context, map[string]any, []int64, map[string]any, bool, string, bool) ([]byte, error) {
	return nil, nil
}

type fakePersister struct{ saves int }

func (p *fakePersister) SaveState(*state.ApplicationState) { p.saves++ }

type scriptedHandler struct {
	name          string
	claimRequest  bool
	claimResponse bool
	err           error
	requestCalls  int
	responseCalls int
}

func (h *scriptedHandler) Name() string { return h.name }

func (h *scriptedHandler) HandleRequest(context.Context, *Exchange) (bool, error) {
	h.requestCalls++
	return h.claimRequest, h.err
}

func (h *scriptedHandler) HandleResponse(context.Context, *Exchange) (bool, error) {
	h.responseCalls++
	return h.claimResponse, h.err
}

func newTestRouter(t *testing.T, st *state.ApplicationState, handlers ...Handler) (*Router, *fakePersister) {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{OutputToConsole: false})
	require.NoError(t, err)
	persist := &fakePersister{}
	return NewRouter(st, &fakeRemote{}, persist, logger, handlers...), persist
}

func responseExchange(t *testing.T, rawURL, body string) *Exchange {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	ex := NewExchange(http.MethodGet, u, make(http.Header), nil)
	ex.Status = http.StatusOK
	ex.ResponseHeader = make(http.Header)
	ex.ResponseBody = []byte(body)
	return ex
}

func TestRouter_CurrencyCaptureAndRewrite(t *testing.T) {
	st := state.NewApplicationState()
	st.Balance = state.NewBalanceLedger(500)
	router, persist := newTestRouter(t, st)

	ex := responseExchange(t, "https://economy.roblox.com/v1/users/123/currency", `{"robux":1000}`)
	require.True(t, router.HandleResponse(context.Background(), ex))

	assert.Equal(t, int64(1500), st.Balance.CurrentBalance)
	assert.JSONEq(t, `{"robux":1500}`, string(ex.ResponseBody))
	assert.Equal(t, 1, persist.saves)

	// Later readbacks keep serving the simulated balance without recapture.
	ex = responseExchange(t, "https://economy.roblox.com/v1/users/123/currency", `{"robux":40}`)
	require.True(t, router.HandleResponse(context.Background(), ex))
	assert.Equal(t, int64(1500), st.Balance.CurrentBalance)
	assert.JSONEq(t, `{"robux":1500}`, string(ex.ResponseBody))
	assert.Equal(t, 1, persist.saves)
}

func TestRouter_PageBalanceRewrite(t *testing.T) {
	st := state.NewApplicationState()
	st.Balance = state.NewBalanceLedger(500)
	router, _ := newTestRouter(t, st)

	page := `<div id="ItemPurchaseAjaxData" data-user-balance-robux="1000"></div>`
	ex := responseExchange(t, "https://www.roblox.com/catalog/42/hat", page)
	router.HandleResponse(context.Background(), ex)

	assert.Equal(t, int64(1500), st.Balance.CurrentBalance)
	assert.Contains(t, ex.ResponseText(), `data-user-balance-robux="1500"`)
}

func TestRouter_IdentityCapture(t *testing.T) {
	st := state.NewApplicationState()
	router, persist := newTestRouter(t, st)

	page := `<meta name="user-data" data-userid="123" data-name="builderman" data-ispremiumuser="true">`
	ex := responseExchange(t, "https://www.roblox.com/home", page)
	router.HandleResponse(context.Background(), ex)

	assert.Equal(t, "123", st.Session.UserID)
	assert.Equal(t, "builderman", st.Session.UserName)
	assert.Equal(t, "true", st.Session.Premium)
	assert.Equal(t, 1, persist.saves)

	// Unchanged identity does not trigger another save.
	router.HandleResponse(context.Background(), responseExchange(t, "https://www.roblox.com/home", page))
	assert.Equal(t, 1, persist.saves)
}

func TestRouter_CredentialCapture(t *testing.T) {
	st := state.NewApplicationState()
	router, persist := newTestRouter(t, st)

	u, _ := url.Parse("https://www.roblox.com/home")
	header := make(http.Header)
	header.Set("Cookie", ".ROBLOSECURITY=secret")
	header.Set("x-csrf-token", "tok")
	ex := NewExchange(http.MethodGet, u, header, nil)

	router.HandleRequest(context.Background(), ex)
	assert.Equal(t, "secret", st.Session.Cookie)
	assert.Equal(t, "tok", st.Session.CSRFToken)
	assert.Equal(t, 1, persist.saves)
}

func TestRouter_FirstClaimStopsChain(t *testing.T) {
	st := state.NewApplicationState()
	first := &scriptedHandler{name: "first", claimResponse: true}
	second := &scriptedHandler{name: "second"}
	router, _ := newTestRouter(t, st, first, second)

	ex := responseExchange(t, "https://example.com/x", "{}")
	require.True(t, router.HandleResponse(context.Background(), ex))
	assert.Equal(t, 1, first.responseCalls)
	assert.Equal(t, 0, second.responseCalls)
}

func TestRouter_HandlerErrorIsIsolated(t *testing.T) {
	st := state.NewApplicationState()
	failing := &scriptedHandler{name: "failing", err: errors.New("boom")}
	next := &scriptedHandler{name: "next", claimResponse: true}
	router, _ := newTestRouter(t, st, failing, next)

	ex := responseExchange(t, "https://example.com/x", "{}")
	require.True(t, router.HandleResponse(context.Background(), ex))
	assert.Equal(t, 1, failing.responseCalls)
	assert.Equal(t, 1, next.responseCalls)
}

func TestExchange_PathSegment(t *testing.T) {
	u, _ := url.Parse("https://apis.roblox.com/game-passes/v1/game-passes/991/product-info")
	ex := NewExchange(http.MethodGet, u, nil, nil)
	assert.Equal(t, "product-info", ex.PathSegment(0))
	assert.Equal(t, "991", ex.PathSegment(1))
	assert.Equal(t, "", ex.PathSegment(10))
}
