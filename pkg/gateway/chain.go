package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

const (
	allowedMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowedHeaders  = "Authorization, Content-Type"
	preflightMaxAge = "600"
)

// SecurityChain is the gateway's request policy pipeline. Each request
// is classified, in order, as:
//
//  1. CORS preflight — answered at the edge, never forwarded
//  2. public — forwarded without authentication
//  3. skip route — a method-scoped exemption, forwarded without
//     authentication (CORS headers still apply)
//  4. default — requires a credential: either a bearer header, which is
//     forwarded verbatim, or a session cookie, which is exchanged for
//     the stored bearer token; otherwise the request stops here with 401
//
// Routes are secure by default: a newly added route that matches no
// public path and no skip route requires authentication without anyone
// opting it in.
type SecurityChain struct {
	config     Config
	store      TokenStore
	skipRoutes []skipRoute
	logger     *slog.Logger
}

// NewSecurityChain validates the configuration and builds the chain.
// An unconfigured frontend origin fails here, at startup.
func NewSecurityChain(config Config, store TokenStore) (*SecurityChain, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pserr.New(pserr.CodeInternalConfiguration,
			"gateway: security chain requires a token store")
	}
	routes, err := parseSkipRoutes(config.SkipRoutes)
	if err != nil {
		return nil, err
	}
	return &SecurityChain{
		config:     config,
		store:      store,
		skipRoutes: routes,
		logger:     slog.Default(),
	}, nil
}

// Handler wraps the forwarding handler with the security chain.
func (c *SecurityChain) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.applyCORS(w, r) {
			return
		}

		if c.publicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		for _, route := range c.skipRoutes {
			if route.matches(r) {
				next.ServeHTTP(w, r)
				return
			}
		}

		// Default policy: a credential is mandatory.
		if r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := c.sessionToken(r)
		if err != nil {
			c.logger.WarnContext(r.Context(), "request denied at gateway",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("code", string(pserr.GetCode(err))),
			)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("authentication required"))
			return
		}

		if c.relaySkipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		forwarded := r.Clone(r.Context())
		forwarded.Header.Set("Authorization", "Bearer "+token)
		next.ServeHTTP(w, forwarded)
	})
}

// applyCORS sets CORS headers for allowed origins and answers preflight
// requests. Returns true when the request was fully handled.
func (c *SecurityChain) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Add("Vary", "Origin")

	origin := r.Header.Get("Origin")
	if c.config.originAllowed(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.Header().Set("Access-Control-Max-Age", preflightMaxAge)
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// sessionToken exchanges the request's session cookie for its stored
// bearer token.
func (c *SecurityChain) sessionToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.config.SessionCookieName)
	if err != nil {
		return "", pserr.New(pserr.CodeCredentialMissing,
			"gateway: request carries neither bearer header nor session cookie")
	}
	return c.store.Get(r.Context(), cookie.Value)
}

func (c *SecurityChain) publicPath(path string) bool {
	for _, prefix := range c.config.PublicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (c *SecurityChain) relaySkipped(path string) bool {
	for _, prefix := range c.config.RelaySkipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Login creates a browser session for the given bearer token and sets
// the session cookie. Called by the gateway's login handler once the
// accounts service has issued a token.
func (c *SecurityChain) Login(ctx context.Context, w http.ResponseWriter, bearerToken string) (string, error) {
	if bearerToken == "" {
		return "", pserr.New(pserr.CodeValidation, "gateway: cannot create a session without a token")
	}
	sessionID := NewSessionID()
	if err := c.store.Put(ctx, sessionID, bearerToken, c.config.SessionTTL); err != nil {
		return "", err
	}
	WriteSessionCookie(w, c.config, sessionID)
	return sessionID, nil
}

// Logout deletes the request's session, if any, and clears the cookie.
func (c *SecurityChain) Logout(w http.ResponseWriter, r *http.Request) error {
	ClearSessionCookie(w, c.config)
	cookie, err := r.Cookie(c.config.SessionCookieName)
	if err != nil {
		return nil
	}
	return c.store.Delete(r.Context(), cookie.Value)
}

// NewServiceProxy returns a reverse proxy forwarding to a backing
// service, for use as the handler behind the security chain.
func NewServiceProxy(target string) (http.Handler, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, pserr.Wrapf(err, pserr.CodeInternalConfiguration,
			"gateway: invalid proxy target %q", target)
	}
	proxy := httputil.NewSingleHostReverseProxy(parsed)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Default().ErrorContext(r.Context(), "proxy to backing service failed",
			slog.String("target", parsed.Host),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy, nil
}
