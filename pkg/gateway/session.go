package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// TokenStore maps browser session IDs to bearer tokens. The gateway
// writes an entry at login, reads it on every session-authenticated
// request, and deletes it at logout. Entries expire after their TTL.
type TokenStore interface {
	// Put stores the bearer token under the session ID for ttl.
	Put(ctx context.Context, sessionID, bearerToken string, ttl time.Duration) error

	// Get returns the bearer token for the session ID, or
	// [pserr.CodeNotFound] when the session is unknown or expired.
	Get(ctx context.Context, sessionID string) (string, error)

	// Delete removes the session. Deleting an unknown session is not an
	// error.
	Delete(ctx context.Context, sessionID string) error
}

// NewSessionID returns a fresh unguessable session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// MemoryTokenStore is an in-process TokenStore for single-replica
// deployments and tests. Expired entries are dropped lazily on read.
// Safe for concurrent use.
type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{entries: make(map[string]memoryEntry)}
}

// Put implements [TokenStore].
func (s *MemoryTokenStore) Put(_ context.Context, sessionID, bearerToken string, ttl time.Duration) error {
	if sessionID == "" {
		return pserr.New(pserr.CodeValidation, "gateway: session ID must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{
		token:     bearerToken,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get implements [TokenStore].
func (s *MemoryTokenStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return "", pserr.New(pserr.CodeNotFound, "gateway: unknown session")
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return "", pserr.New(pserr.CodeNotFound, "gateway: session expired")
	}
	return entry.token, nil
}

// Delete implements [TokenStore].
func (s *MemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// WriteSessionCookie sets the browser session cookie. The frontend is
// served from a different origin than the gateway, so the cookie must be
// SameSite=None — which in turn mandates Secure. HttpOnly keeps it away
// from scripts, and MaxAge is bounded by the session TTL.
func WriteSessionCookie(w http.ResponseWriter, cfg Config, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

// ClearSessionCookie expires the browser session cookie at logout.
func ClearSessionCookie(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
