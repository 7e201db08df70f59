// Package gateway implements the edge security chain of the PeopleSuite
// platform: CORS for the browser frontend, per-route security policies,
// cookie-based browser sessions, and credential attachment for requests
// forwarded to the backing services.
//
// The gateway is the single entry point for browsers. It terminates the
// session cookie, exchanges it for the caller's bearer token, and relays
// that token to the target service — which then runs its own
// authentication gate (pkg/auth) before handling the request.
package gateway

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// Config holds the gateway's security settings. FrontendOrigin is
// required: a gateway without its CORS configuration must refuse to
// start rather than come up serving a frontend that cannot reach it.
type Config struct {
	// FrontendOrigin is the browser origin of the platform frontend,
	// e.g. "https://app.peoplesuite.io".
	FrontendOrigin string `json:"frontend_origin" yaml:"frontend_origin" env:"GATEWAY_FRONTEND_ORIGIN" required:"true"`

	// AllowedOrigins lists additional origins granted CORS access
	// (admin consoles, preview deployments).
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" env:"GATEWAY_ALLOWED_ORIGINS"`

	// PublicPaths are URL path prefixes served without any
	// authentication: health probes and API documentation.
	PublicPaths []string `json:"public_paths" yaml:"public_paths" env:"GATEWAY_PUBLIC_PATHS" envDefault:"/health,/docs,/openapi.json"`

	// SkipRoutes are method-scoped routes exempt from the default
	// authentication policy, written as "METHOD /path/prefix". The
	// method match is exact, so "POST /v1/applicants" exempts the
	// public application-submission endpoint while GET /v1/applicants
	// remains protected.
	SkipRoutes []string `json:"skip_routes" yaml:"skip_routes" env:"GATEWAY_SKIP_ROUTES"`

	// RelaySkipPrefixes lists path prefixes forwarded without attaching
	// the session's bearer token.
	RelaySkipPrefixes []string `json:"relay_skip_prefixes" yaml:"relay_skip_prefixes" env:"GATEWAY_RELAY_SKIP_PREFIXES"`

	// SessionCookieName is the name of the browser session cookie.
	SessionCookieName string `json:"session_cookie_name" yaml:"session_cookie_name" env:"GATEWAY_SESSION_COOKIE" envDefault:"PSESSION"`

	// SessionTTL is the lifetime of browser sessions and their cookie.
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" env:"GATEWAY_SESSION_TTL" envDefault:"12h"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.FrontendOrigin == "" {
		return pserr.New(pserr.CodeValidationRequired,
			"gateway: frontend origin is not configured; refusing to start without CORS settings")
	}
	if c.SessionCookieName == "" {
		return pserr.New(pserr.CodeValidation, "gateway: session cookie name must not be empty")
	}
	if c.SessionTTL <= 0 {
		return pserr.New(pserr.CodeValidation, "gateway: session TTL must be positive")
	}
	if _, err := parseSkipRoutes(c.SkipRoutes); err != nil {
		return err
	}
	return nil
}

// skipRoute is one parsed "METHOD /prefix" entry.
type skipRoute struct {
	method string
	prefix string
}

func (r skipRoute) matches(req *http.Request) bool {
	return req.Method == r.method && strings.HasPrefix(req.URL.Path, r.prefix)
}

func parseSkipRoutes(entries []string) ([]skipRoute, error) {
	routes := make([]skipRoute, 0, len(entries))
	for _, entry := range entries {
		method, prefix, ok := strings.Cut(strings.TrimSpace(entry), " ")
		if !ok || method == "" || !strings.HasPrefix(prefix, "/") {
			return nil, pserr.Newf(pserr.CodeValidation,
				"gateway: skip route %q is not of the form %q", entry, "METHOD /path")
		}
		routes = append(routes, skipRoute{
			method: strings.ToUpper(method),
			prefix: prefix,
		})
	}
	return routes, nil
}

// originAllowed reports whether the Origin header value is granted CORS
// access. Matching is exact; "*" in AllowedOrigins admits everything.
func (c *Config) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if origin == c.FrontendOrigin {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf("gateway.Config{FrontendOrigin:%s Public:%v Skip:%v Cookie:%s TTL:%s}",
		c.FrontendOrigin, c.PublicPaths, c.SkipRoutes, c.SessionCookieName, c.SessionTTL)
}
