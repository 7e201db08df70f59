// Package testutil provides shared test helpers for the PeopleSuite core
// library: platform-error assertions, environment manipulation, temp config
// files, token minting, and a stub accounts service.
//
// All helpers accept [testing.TB] and call t.Helper() so failures report
// the caller's file and line.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// SigningKey is the HS256 key used by all unit tests. 32 bytes, matching
// the codec's minimum key length.
const SigningKey = "unit-test-signing-key-0123456789"

// RequireErrorCode halts the test if err is nil, is not a platform
// *pserr.Error, or does not carry the expected code.
func RequireErrorCode(t testing.TB, err error, code pserr.Code, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	platformErr, ok := pserr.AsError(err)
	require.True(t, ok, "expected *pserr.Error, got %T: %v", err, err)
	require.Equal(t, code, platformErr.Code,
		"error code mismatch: got %q, want %q (message: %s)",
		platformErr.Code, code, platformErr.Message)
}

// AssertErrorCode records a failure (without halting) if err does not
// carry the expected platform error code. Useful in table-driven tests.
func AssertErrorCode(t testing.TB, err error, code pserr.Code, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	platformErr, ok := pserr.AsError(err)
	if !assert.True(t, ok, "expected *pserr.Error, got %T: %v", err, err) {
		return false
	}
	return assert.Equal(t, code, platformErr.Code,
		"error code mismatch: got %q, want %q (message: %s)",
		platformErr.Code, code, platformErr.Message)
}

// SetEnv sets an environment variable and restores the previous value
// (or unsets it) when the test completes. Do not combine with
// t.Parallel() unless every test uses a unique variable name.
func SetEnv(t testing.TB, key, value string) {
	t.Helper()
	prev, existed := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value), "failed to set env var %s", key)
	t.Cleanup(func() {
		if existed {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

// TempConfigFile writes content to a file with the given extension
// (".yaml", ".json") inside t.TempDir() and returns its path.
func TempConfigFile(t testing.TB, content, ext string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config"+ext)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600),
		"failed to write temp config file %s", path)
	return path
}

// MintToken signs an HS256 token with [SigningKey] for the given email,
// issued now and expiring after ttl. A negative ttl produces an already
// expired token.
func MintToken(t testing.TB, email string, ttl time.Duration) string {
	t.Helper()
	return MintTokenWithKey(t, SigningKey, email, ttl)
}

// MintTokenWithKey signs an HS256 token with an explicit key, for tests
// that need a signature mismatch against the codec under test.
func MintTokenWithKey(t testing.TB, key, email string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"iss": "peoplesuite",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err, "failed to sign test token")
	return token
}

// AccountsUser is one user record served by the stub accounts service.
type AccountsUser struct {
	Email       string
	FirstName   string
	EmployeeID  int64
	Active      bool
	OrgID       int64
	OrgName     string
	OrgEmail    string
	Permissions []string
}

// AccountsStub is a fake accounts service backed by httptest.Server.
// It answers GET /v1/users/email/{email} with the registered user
// records and records the Authorization header of the last request so
// relay behavior can be asserted.
type AccountsStub struct {
	Server *httptest.Server

	mu       sync.Mutex
	lastAuth string
	requests int
}

// LastAuthorization returns the Authorization header of the most recent
// lookup request. Safe for concurrent use.
func (s *AccountsStub) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// Requests returns the number of lookup requests served so far.
func (s *AccountsStub) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// NewAccountsStub starts a stub accounts service serving the given
// users, keyed by email. The server is closed when the test finishes.
func NewAccountsStub(t testing.TB, users ...AccountsUser) *AccountsStub {
	t.Helper()

	byEmail := make(map[string]AccountsUser, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}

	stub := &AccountsStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.lastAuth = r.Header.Get("Authorization")
		stub.requests++
		stub.mu.Unlock()

		const prefix = "/v1/users/email/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		email := strings.TrimPrefix(r.URL.Path, prefix)

		user, ok := byEmail[email]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"active":     user.Active,
			"email":      user.Email,
			"firstName":  user.FirstName,
			"employeeId": user.EmployeeID,
			"organizations": map[string]any{
				"id":    user.OrgID,
				"name":  user.OrgName,
				"email": user.OrgEmail,
			},
			"roles": []map[string]any{
				{"permissions": user.Permissions},
			},
		})
	}))
	t.Cleanup(stub.Server.Close)
	return stub
}
