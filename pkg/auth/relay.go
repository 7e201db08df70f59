package auth

import (
	"net/http"
	"strings"
)

// HeaderAuthorization is the HTTP header carrying the bearer credential.
const HeaderAuthorization = "Authorization"

const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token portion of an Authorization
// header value, or "" when the header is absent or not a bearer scheme.
// The scheme keyword is matched case-insensitively per RFC 6750; the
// token itself is returned verbatim.
func ExtractBearerToken(headerValue string) string {
	if len(headerValue) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(headerValue[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return headerValue[len(bearerPrefix):]
}

// RelayTransport is an http.RoundTripper that attaches the inbound
// request's bearer token (stored in the context by the authentication
// gate) to outbound requests, so service-to-service calls act on behalf
// of the original caller.
//
// The relay is verbatim and idempotent: the token is copied unchanged,
// and a request that already carries an Authorization header is never
// overwritten. Requests whose URL path starts with a configured skip
// prefix, and requests whose context carries no token, pass through
// untouched.
type RelayTransport struct {
	wrapped      http.RoundTripper
	skipPrefixes []string
}

// NewRelayTransport wraps a transport with credential relay. A nil
// transport defaults to http.DefaultTransport. skipPrefixes lists URL
// path prefixes that must go out without a relayed credential, e.g.
// webhook endpoints of external systems that must never see a platform
// token.
func NewRelayTransport(wrapped http.RoundTripper, skipPrefixes ...string) *RelayTransport {
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return &RelayTransport{wrapped: wrapped, skipPrefixes: skipPrefixes}
}

// RoundTrip implements http.RoundTripper. Per its contract the request
// is not mutated; when a credential is attached the request is cloned.
func (t *RelayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderAuthorization) != "" {
		return t.wrapped.RoundTrip(req)
	}
	if t.skipped(req.URL.Path) {
		return t.wrapped.RoundTrip(req)
	}
	token, ok := TokenFromContext(req.Context())
	if !ok {
		return t.wrapped.RoundTrip(req)
	}

	relayed := req.Clone(req.Context())
	relayed.Header.Set(HeaderAuthorization, bearerPrefix+token)
	return t.wrapped.RoundTrip(relayed)
}

func (t *RelayTransport) skipped(path string) bool {
	for _, prefix := range t.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// NewRelayClient returns an *http.Client whose transport relays the
// caller's credential. Services use it for all intra-platform calls.
func NewRelayClient(skipPrefixes ...string) *http.Client {
	return &http.Client{Transport: NewRelayTransport(nil, skipPrefixes...)}
}
