package routes

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xolodev/xolo-go/internal/application/container"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/pkg/config"
)

func newTestServer(t *testing.T, password string) (*container.Container, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	config.StatePath = filepath.Join(dir, "state.json")
	config.AuditDBPath = filepath.Join(dir, "audit.db")
	config.DashboardPassword = password
	config.DashboardSecret = "test-secret"

	loggerCfg := logging.DefaultLoggerConfig()
	loggerCfg.OutputToConsole = false
	logger, err := logging.NewChanneledLogger(loggerCfg)
	require.NoError(t, err)

	c, err := container.NewContainer(logger)
	require.NoError(t, err)
	t.Cleanup(func() { c.Audit.Close() })

	return c, SetupRoutes(c)
}

func doRequest(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, password string) string {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/auth/login", `{"password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := gjson.Get(w.Body.String(), "token").String()
	require.NotEmpty(t, token)
	return token
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	_, router := newTestServer(t, "hunter2")

	w := doRequest(router, http.MethodGet, "/api/state", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsInvalidToken(t *testing.T) {
	_, router := newTestServer(t, "hunter2")

	w := doRequest(router, http.MethodGet, "/api/state", "", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_OpenWhenNoPassword(t *testing.T) {
	_, router := newTestServer(t, "")

	w := doRequest(router, http.MethodGet, "/api/state", "", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	_, router := newTestServer(t, "hunter2")

	w := doRequest(router, http.MethodPost, "/api/auth/login", `{"password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_TokenGrantsAccess(t *testing.T) {
	_, router := newTestServer(t, "hunter2")

	token := login(t, router, "hunter2")
	w := doRequest(router, http.MethodGet, "/api/state", "", token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStateSummary_ReflectsLedger(t *testing.T) {
	c, router := newTestServer(t, "hunter2")

	c.Engine.Do(func() {
		c.State.Session.ApplyIdentity("123", "builder", "true")
		c.State.Balance.CaptureReal(1000)
		c.State.Balance.Spend(100)
	})

	token := login(t, router, "hunter2")
	w := doRequest(router, http.MethodGet, "/api/state", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	require.Equal(t, "123", gjson.Get(body, "userId").String())
	require.True(t, gjson.Get(body, "balanceKnown").Bool())
	require.Equal(t, int64(1000), gjson.Get(body, "realBalance").Int())
	require.Equal(t, int64(100), gjson.Get(body, "fakeSpent").Int())
	require.Equal(t, 1000+config.AddedCredit-100, gjson.Get(body, "currentBalance").Int())
}

func TestReset_ClearsLedgerKeepsSession(t *testing.T) {
	c, router := newTestServer(t, "hunter2")

	c.Engine.Do(func() {
		c.State.Session.ApplyIdentity("123", "builder", "true")
		c.State.Balance.CaptureReal(1000)
		c.State.Balance.Spend(100)
	})

	token := login(t, router, "hunter2")
	w := doRequest(router, http.MethodPost, "/api/state/reset", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/state", "", token)
	body := w.Body.String()
	require.Equal(t, "123", gjson.Get(body, "userId").String())
	require.False(t, gjson.Get(body, "balanceKnown").Bool())
	require.Zero(t, gjson.Get(body, "fakeSpent").Int())
}

func TestCaches_ListsEveryCache(t *testing.T) {
	_, router := newTestServer(t, "")

	w := doRequest(router, http.MethodGet, "/api/state/caches", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(9), gjson.Get(w.Body.String(), "caches.#").Int())
}
