package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// PermissionDeniedMessage is the body of every permission denial. The
// wording is identical across all services and all denial causes so that
// responses reveal nothing about which permissions a resource requires.
const PermissionDeniedMessage = "You do not have the required permissions to access this resource"

// Gate is the authentication gate every PeopleSuite service mounts in
// front of its handlers. For each request it verifies the bearer token
// with the [Codec], resolves the caller's current identity through the
// [IdentityResolver], and populates the request context. Paths on the
// allow list and CORS preflight requests bypass the gate entirely.
//
// Denials are two-tier: requests without a verifiable token get 401,
// requests with a verified token whose identity cannot be resolved, or
// whose account is inactive, get 403.
type Gate struct {
	codec     *Codec
	resolver  IdentityResolver
	allowList []string
	logger    *slog.Logger
	tracer    trace.Tracer
}

// GateOption configures a [Gate].
type GateOption func(*Gate)

// WithAllowList sets URL path prefixes that bypass authentication:
// health probes, API documentation, and other endpoints that must be
// reachable anonymously.
func WithAllowList(prefixes ...string) GateOption {
	return func(g *Gate) { g.allowList = prefixes }
}

// WithLogger sets the logger for denial and gate-failure log lines.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

// NewGate creates an authentication gate.
func NewGate(codec *Codec, resolver IdentityResolver, opts ...GateOption) *Gate {
	g := &Gate{
		codec:    codec,
		resolver: resolver,
		logger:   slog.Default(),
		tracer:   otel.Tracer("peoplesuite-core/auth"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware wraps a handler with the authentication gate. On success
// the wrapped handler runs exactly once with the identity and raw token
// in its request context; on denial it does not run at all and the
// response carries only a terse fixed message.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || g.allowed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx, span := g.tracer.Start(r.Context(), "auth.Gate",
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		token := ExtractBearerToken(r.Header.Get(HeaderAuthorization))
		if token == "" {
			g.deny(w, r, span, http.StatusUnauthorized, "authentication required",
				pserr.New(pserr.CodeCredentialMissing, "auth: no bearer token on request"))
			return
		}

		claims, err := g.codec.Decode(token)
		if err != nil {
			g.deny(w, r, span, http.StatusUnauthorized, "invalid token", err)
			return
		}

		identity, err := g.resolver.ResolveByEmail(ctx, claims.Email, token)
		if err != nil {
			// The token verified but the platform cannot vouch for the
			// caller: unknown account, resolver outage, or a rejected
			// relayed credential. All collapse to 403 on the wire; the
			// precise cause goes to the log and the span.
			g.deny(w, r, span, http.StatusForbidden, "access denied", err)
			return
		}

		if !identity.Active() {
			g.deny(w, r, span, http.StatusForbidden, "access denied",
				pserr.Newf(pserr.CodeAccountInactive,
					"auth: account for %s is inactive", claims.Email))
			return
		}

		span.SetAttributes(attribute.String("enduser.id", identity.Email()))

		ctx = ContextWithIdentity(ctx, identity)
		ctx = ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) allowed(path string) bool {
	for _, prefix := range g.allowList {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// deny writes a terse denial response and logs the precise cause. The
// response body never includes the underlying error.
func (g *Gate) deny(w http.ResponseWriter, r *http.Request, span trace.Span, status int, message string, cause error) {
	code := pserr.GetCode(cause)
	span.SetAttributes(
		attribute.Int("http.response.status_code", status),
		attribute.String("auth.denial_code", string(code)),
	)
	span.RecordError(cause)

	g.logger.WarnContext(r.Context(), "request denied by authentication gate",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("code", string(code)),
		slog.String("error", cause.Error()),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// RequirePermission wraps a handler with a permission check. The caller
// must hold at least one of the listed codes (OR semantics); a handler
// protected with RequirePermission() and no codes admits any
// authenticated caller.
//
// The middleware only reads the identity placed in the context by
// [Gate.Middleware]. A request that reaches it without one — a route
// mistakenly mounted outside the gate — is denied, never let through.
// Every denial responds 403 with [PermissionDeniedMessage] regardless of
// cause.
func RequirePermission(codes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				denyPermission(w, r, "no identity in request context")
				return
			}
			if len(codes) > 0 && !identity.Permissions().HasAny(codes...) {
				denyPermission(w, r, "caller holds none of the required permission codes")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyPermission(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Default().WarnContext(r.Context(), "request denied by permission gate",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("reason", reason),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(PermissionDeniedMessage))
}
