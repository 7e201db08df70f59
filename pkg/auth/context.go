package auth

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// contextKey is a private type for context values set by this package.
// Values keyed by it cannot collide with, or be read by, other packages:
// identity enters and leaves the context only through the functions
// below.
type contextKey int

const (
	identityKey contextKey = iota
	rawTokenKey
)

// ContextWithIdentity returns a child context carrying the resolved
// identity. Installed by the authentication gates after a request
// passes; handlers and interceptors downstream read it back with
// [IdentityFromContext].
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity stored in the context, or
// (nil, false) when the request did not pass an authentication gate.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// MustIdentityFromContext returns the identity stored in the context,
// panicking if absent. For handlers that are only ever reachable through
// the authentication gate, where a missing identity is a wiring bug.
func MustIdentityFromContext(ctx context.Context) *Identity {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		panic("auth: no identity in context; is the handler behind the authentication gate?")
	}
	return identity
}

// ContextWithToken returns a child context carrying the verified raw
// bearer token, so outbound calls made while handling the request can
// relay the caller's credential verbatim.
func ContextWithToken(ctx context.Context, rawToken string) context.Context {
	return context.WithValue(ctx, rawTokenKey, rawToken)
}

// TokenFromContext returns the raw bearer token stored in the context,
// or ("", false) when none is present.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(rawTokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// TraceIDFromContext returns the current OpenTelemetry trace ID, or ""
// when the context carries no recording span. Handy for correlating an
// authentication denial log line with the distributed trace.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// SpanIDFromContext returns the current OpenTelemetry span ID, or ""
// when the context carries no recording span.
func SpanIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.HasSpanID() {
		return ""
	}
	return spanCtx.SpanID().String()
}
