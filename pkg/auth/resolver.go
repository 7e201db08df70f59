package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// maxResolverResponseSize bounds the accounts service response body.
const maxResolverResponseSize = 1 << 20

// IdentityResolver resolves a verified token subject into the caller's
// current identity and permissions. Implementations must not cache
// results: the platform promises that deactivating an account or
// revoking a permission takes effect on the very next request.
type IdentityResolver interface {
	// ResolveByEmail looks up the identity for the given email. The
	// rawToken is the caller's own bearer credential, relayed so the
	// accounts service can apply its usual authentication to the lookup.
	//
	// Failure codes:
	//   - pserr.CodeIdentityNotFound    — no account for this email
	//   - pserr.CodeAuthentication      — the accounts service rejected
	//     the relayed credential
	//   - pserr.CodeResolverTimeout     — the lookup deadline elapsed
	//   - pserr.CodeResolverUnavailable — transport failure or an
	//     unexpected accounts response
	ResolveByEmail(ctx context.Context, email, rawToken string) (*Identity, error)
}

// HTTPClient is the subset of *http.Client the resolver needs, accepted
// as an interface so tests can substitute a failing transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResolverConfig configures the [AccountsResolver].
type ResolverConfig struct {
	// BaseURL is the accounts service base URL, e.g.
	// "http://accounts.peoplesuite.svc.cluster.local:8080".
	BaseURL string `json:"base_url" yaml:"base_url" env:"ACCOUNTS_BASE_URL" required:"true"`

	// Timeout caps each identity lookup. The lookup sits on the hot path
	// of every authenticated request, so it must never hang on a slow
	// accounts service.
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"ACCOUNTS_TIMEOUT" envDefault:"10s"`
}

// Validate implements config.Validator.
func (c *ResolverConfig) Validate() error {
	if c.BaseURL == "" {
		return pserr.New(pserr.CodeValidation, "auth: resolver base URL must not be empty")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return pserr.Wrapf(err, pserr.CodeValidation,
			"auth: resolver base URL %q is not a valid URL", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return pserr.New(pserr.CodeValidation, "auth: resolver timeout must be positive")
	}
	return nil
}

// AccountsResolver resolves identities against the accounts service's
// GET /v1/users/email/{email} endpoint. It performs no caching and is
// safe for concurrent use.
type AccountsResolver struct {
	config ResolverConfig
	client HTTPClient
	tracer trace.Tracer
}

var _ IdentityResolver = (*AccountsResolver)(nil)

// NewAccountsResolver creates an AccountsResolver after validating the
// configuration. The HTTP client carries no client-level timeout of its
// own; the per-lookup deadline comes from the config.
func NewAccountsResolver(config ResolverConfig) (*AccountsResolver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AccountsResolver{
		config: config,
		client: &http.Client{},
		tracer: otel.Tracer("peoplesuite-core/auth"),
	}, nil
}

// NewAccountsResolverWithClient is NewAccountsResolver with an explicit
// HTTP client, for tests and for callers that need custom transports.
func NewAccountsResolverWithClient(config ResolverConfig, client HTTPClient) (*AccountsResolver, error) {
	resolver, err := NewAccountsResolver(config)
	if err != nil {
		return nil, err
	}
	resolver.client = client
	return resolver, nil
}

// userRecord is the wire shape of an accounts service user response.
type userRecord struct {
	Active        bool         `json:"active"`
	Email         string       `json:"email"`
	FirstName     string       `json:"firstName"`
	EmployeeID    int64        `json:"employeeId"`
	Organizations Organization `json:"organizations"`
	Roles         []struct {
		Permissions []string `json:"permissions"`
	} `json:"roles"`
}

// ResolveByEmail implements [IdentityResolver].
func (r *AccountsResolver) ResolveByEmail(ctx context.Context, email, rawToken string) (*Identity, error) {
	if email == "" {
		return nil, pserr.New(pserr.CodeValidation, "auth: cannot resolve an empty email")
	}

	ctx, span := r.tracer.Start(ctx, "auth.ResolveByEmail",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("peer.service", "accounts")),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	lookupURL := strings.TrimSuffix(r.config.BaseURL, "/") +
		"/v1/users/email/" + url.PathEscape(email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, r.fail(span, pserr.Wrap(err, pserr.CodeInternal,
			"auth: failed to build identity lookup request"))
	}
	req.Header.Set("Accept", "application/json")
	if rawToken != "" {
		req.Header.Set(HeaderAuthorization, bearerPrefix+rawToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, r.fail(span, pserr.Wrapf(err, pserr.CodeResolverTimeout,
				"auth: identity lookup exceeded %s deadline", r.config.Timeout))
		}
		return nil, r.fail(span, pserr.Wrap(err, pserr.CodeResolverUnavailable,
			"auth: accounts service is unreachable"))
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, r.fail(span, pserr.Newf(pserr.CodeAuthentication,
			"auth: accounts service rejected the relayed credential (status %d)", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, r.fail(span, pserr.Newf(pserr.CodeIdentityNotFound,
			"auth: no account found for the token subject"))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, r.fail(span, pserr.Newf(pserr.CodeResolverUnavailable,
			"auth: accounts service returned unexpected status %d", resp.StatusCode))
	}

	var record userRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResolverResponseSize)).Decode(&record); err != nil {
		return nil, r.fail(span, pserr.Wrap(err, pserr.CodeResolverUnavailable,
			"auth: failed to decode accounts service response"))
	}
	if record.Email == "" {
		return nil, r.fail(span, pserr.New(pserr.CodeResolverUnavailable,
			"auth: accounts service response is missing the email field"))
	}

	identity, err := NewIdentity(
		record.Email,
		record.FirstName,
		record.EmployeeID,
		record.Active,
		record.Organizations,
		NewPermissionSet(flattenRoles(record.Roles)...),
	)
	if err != nil {
		return nil, r.fail(span, pserr.Wrap(err, pserr.CodeInternal,
			"auth: failed to construct identity"))
	}

	span.SetAttributes(
		attribute.Bool("auth.account_active", identity.Active()),
		attribute.Int("auth.permission_count", identity.Permissions().Len()),
	)
	return identity, nil
}

// fail records the error on the span and passes it through.
func (r *AccountsResolver) fail(span trace.Span, err *pserr.Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	return err
}

// flattenRoles merges the permission codes of all roles into one slice.
// Duplicates across roles are fine; the permission set deduplicates.
func flattenRoles(roles []struct {
	Permissions []string `json:"permissions"`
}) []string {
	var all []string
	for _, role := range roles {
		all = append(all, role.Permissions...)
	}
	return all
}
