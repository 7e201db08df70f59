// Package auth implements the federated authentication and permission
// enforcement layer shared by every PeopleSuite service and the edge
// gateway.
//
// Request flow:
//
// A client presents a bearer token in the Authorization header. The
// gateway relays the credential to the target service, whose
// authentication gate ([Gate.Middleware]) verifies the token signature
// with the platform [Codec], resolves the caller's current identity and
// permissions through an [IdentityResolver] backed by the accounts
// service, and stores the result in the request context. The permission
// gate ([RequirePermission]) then checks the handler's declared permission
// codes against the resolved set before the handler runs. Outbound calls
// made while handling the request carry the same bearer token via
// [RelayTransport] (HTTP) or the client interceptors (gRPC), so every hop
// in a service chain re-verifies trust independently.
//
// Security properties:
//
// Token claims are never trusted for authorization data — only the
// accounts service is authoritative for active-status and permissions,
// and it is consulted on every request so that a revoked permission or a
// deactivated account takes effect immediately. Identity is carried in
// the request's context.Context and nowhere else; concurrent requests
// are fully isolated.
package auth

import (
	"errors"
)

// Organization describes the organization a resolved identity belongs to,
// as reported by the accounts service.
type Organization struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity is the resolved identity of an authenticated caller: who they
// are, which organization they belong to, whether the account is active,
// and the flattened set of permission codes granted through their roles.
//
// Identity is immutable after creation and safe for concurrent use.
type Identity struct {
	email       string
	displayName string
	employeeID  int64
	active      bool
	org         Organization
	permissions *PermissionSet
}

// NewIdentity creates an Identity. The email is required; it is the key
// the platform uses for identity resolution and audit.
func NewIdentity(email, displayName string, employeeID int64, active bool, org Organization, permissions *PermissionSet) (*Identity, error) {
	if email == "" {
		return nil, errors.New("auth: identity email must not be empty")
	}
	if permissions == nil {
		permissions = NewPermissionSet()
	}
	return &Identity{
		email:       email,
		displayName: displayName,
		employeeID:  employeeID,
		active:      active,
		org:         org,
		permissions: permissions,
	}, nil
}

// Email returns the caller's email address, the platform-wide identity key.
func (i *Identity) Email() string { return i.email }

// DisplayName returns the caller's display name.
func (i *Identity) DisplayName() string { return i.displayName }

// EmployeeID returns the caller's employee identifier.
func (i *Identity) EmployeeID() int64 { return i.employeeID }

// Active reports whether the account is active in the accounts service.
// The authentication gate rejects requests from inactive accounts even
// when their token verifies.
func (i *Identity) Active() bool { return i.active }

// Organization returns the caller's organization descriptor.
func (i *Identity) Organization() Organization { return i.org }

// Permissions returns the caller's permission set, flattened across all
// of their roles.
func (i *Identity) Permissions() *PermissionSet { return i.permissions }

// PermissionSet is an immutable set of permission codes. Codes are short
// opaque strings (see codes.go) compared only by exact equality — there
// is deliberately no wildcard or hierarchy semantics, so an authorization
// decision is always a plain set-membership check.
//
// PermissionSet is safe for concurrent read access after construction.
type PermissionSet struct {
	codes map[string]struct{}
	all   []string
}

// NewPermissionSet creates a PermissionSet from the given codes,
// deduplicating and dropping empty strings. A nil or empty input produces
// a valid, empty set.
func NewPermissionSet(codes ...string) *PermissionSet {
	ps := &PermissionSet{
		codes: make(map[string]struct{}, len(codes)),
	}
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, exists := ps.codes[code]; exists {
			continue
		}
		ps.codes[code] = struct{}{}
		ps.all = append(ps.all, code)
	}
	return ps
}

// Has reports whether the set contains the exact code.
func (ps *PermissionSet) Has(code string) bool {
	_, ok := ps.codes[code]
	return ok
}

// HasAny reports whether the set contains at least one of the given
// codes. This is the OR semantics of protected-operation declarations:
// a handler listing several codes admits a caller holding any one of
// them. An empty argument list returns false.
func (ps *PermissionSet) HasAny(codes ...string) bool {
	for _, code := range codes {
		if ps.Has(code) {
			return true
		}
	}
	return false
}

// Codes returns a defensive copy of the set's codes in insertion order.
func (ps *PermissionSet) Codes() []string {
	copied := make([]string, len(ps.all))
	copy(copied, ps.all)
	return copied
}

// Len returns the number of unique codes in the set.
func (ps *PermissionSet) Len() int {
	return len(ps.all)
}
