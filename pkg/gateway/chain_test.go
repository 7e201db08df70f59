package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplesuite/peoplesuite-core/internal/testutil"
	"github.com/peoplesuite/peoplesuite-core/pkg/gateway"
	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

func testChainConfig() gateway.Config {
	return gateway.Config{
		FrontendOrigin:    "https://app.peoplesuite.io",
		AllowedOrigins:    []string{"https://admin.peoplesuite.io"},
		PublicPaths:       []string{"/health", "/docs"},
		SkipRoutes:        []string{"POST /v1/applicants"},
		RelaySkipPrefixes: []string{"/v1/exports"},
		SessionCookieName: "PSESSION",
		SessionTTL:        12 * time.Hour,
	}
}

// forwardRecorder captures the request the chain forwards downstream.
type forwardRecorder struct {
	forwarded *http.Request
	calls     int
}

func (f *forwardRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.forwarded = r
		f.calls++
		w.WriteHeader(http.StatusOK)
	})
}

func newTestChain(t *testing.T, cfg gateway.Config) (*gateway.SecurityChain, *gateway.MemoryTokenStore) {
	t.Helper()
	store := gateway.NewMemoryTokenStore()
	chain, err := gateway.NewSecurityChain(cfg, store)
	require.NoError(t, err)
	return chain, store
}

func TestNewSecurityChain_RequiresFrontendOrigin(t *testing.T) {
	cfg := testChainConfig()
	cfg.FrontendOrigin = ""

	_, err := gateway.NewSecurityChain(cfg, gateway.NewMemoryTokenStore())
	testutil.RequireErrorCode(t, err, pserr.CodeValidationRequired)
}

func TestNewSecurityChain_RejectsMalformedSkipRoute(t *testing.T) {
	cfg := testChainConfig()
	cfg.SkipRoutes = []string{"/v1/applicants"} // missing method

	_, err := gateway.NewSecurityChain(cfg, gateway.NewMemoryTokenStore())
	testutil.RequireErrorCode(t, err, pserr.CodeValidation)
}

func TestChain_PublicPathForwardedWithoutCredential(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, rec.calls)
}

func TestChain_DefaultPolicyDeniesAnonymous(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	req := httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, rec.calls, "unauthenticated requests must not be forwarded")
}

func TestChain_SkipRouteIsMethodScoped(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	// POST /v1/applicants is exempt: public application submission.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/applicants", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// GET on the same path stays protected.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/applicants", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChain_BearerHeaderForwardedVerbatim(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	req := httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec.forwarded)
	assert.Equal(t, "Bearer caller-token", rec.forwarded.Header.Get("Authorization"))
}

func TestChain_SessionCookieExchangedForToken(t *testing.T) {
	cfg := testChainConfig()
	chain, store := newTestChain(t, cfg)
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	require.NoError(t, store.Put(context.Background(), "session-1", "stored-token", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec.forwarded)
	assert.Equal(t, "Bearer stored-token", rec.forwarded.Header.Get("Authorization"))
}

func TestChain_UnknownSessionIs401(t *testing.T) {
	cfg := testChainConfig()
	chain, _ := newTestChain(t, cfg)
	handler := chain.Handler((&forwardRecorder{}).handler())

	req := httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: "stale-session"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChain_RelaySkipForwardsWithoutAttaching(t *testing.T) {
	cfg := testChainConfig()
	chain, store := newTestChain(t, cfg)
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	require.NoError(t, store.Put(context.Background(), "session-1", "stored-token", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/payroll.csv", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: "session-1"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, rec.forwarded)
	assert.Empty(t, rec.forwarded.Header.Get("Authorization"))
}

func TestChain_CORSAllowedOrigin(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	handler := chain.Handler((&forwardRecorder{}).handler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.peoplesuite.io")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "https://app.peoplesuite.io", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestChain_CORSUnknownOriginGetsNoHeaders(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	handler := chain.Handler((&forwardRecorder{}).handler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestChain_PreflightAnsweredAtEdge(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())
	rec := &forwardRecorder{}
	handler := chain.Handler(rec.handler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/employees", nil)
	req.Header.Set("Origin", "https://app.peoplesuite.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, rec.calls, "preflight must not be forwarded")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestChain_LoginLogoutLifecycle(t *testing.T) {
	cfg := testChainConfig()
	chain, store := newTestChain(t, cfg)
	ctx := context.Background()

	w := httptest.NewRecorder()
	sessionID, err := chain.Login(ctx, w, "issued-token")
	require.NoError(t, err)

	token, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, cfg.SessionCookieName, cookie.Name)
	assert.Equal(t, sessionID, cookie.Value)
	assert.True(t, cookie.Secure, "cross-origin session cookie must be Secure")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, int(cfg.SessionTTL.Seconds()), cookie.MaxAge)

	// Logout removes the session and expires the cookie.
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: sessionID})
	w = httptest.NewRecorder()
	require.NoError(t, chain.Logout(w, req))

	_, err = store.Get(ctx, sessionID)
	testutil.RequireErrorCode(t, err, pserr.CodeNotFound)

	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestChain_LoginRejectsEmptyToken(t *testing.T) {
	chain, _ := newTestChain(t, testChainConfig())

	_, err := chain.Login(context.Background(), httptest.NewRecorder(), "")
	testutil.RequireErrorCode(t, err, pserr.CodeValidation)
}
