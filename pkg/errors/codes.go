package errors

// Code is a machine-readable error code. Codes follow the pattern
// CATEGORY_XXX where CATEGORY is a short identifier (AUTH, AUTHZ, VAL, …)
// and XXX is a three-digit number. The category alone determines the HTTP
// status an error maps to; the full code pins down the exact condition for
// logs and dashboards.
//
// Codes are stable once assigned and are never reused for a different
// condition.
type Code string

// Error code categories and their HTTP mappings:
//
//	VAL_xxx     - Validation errors (400 Bad Request)
//	AUTH_xxx    - Authentication errors (401 Unauthorized)
//	AUTHZ_xxx   - Authorization errors (403 Forbidden)
//	NF_xxx      - Not found errors (404 Not Found)
//	INT_xxx     - Internal errors (500 Internal Server Error)
//	UNAVAIL_xxx - Service unavailable (503 Service Unavailable)
//	TIMEOUT_xxx - Timeout errors (504 Gateway Timeout)
const (
	// Validation errors (VAL_xxx) - HTTP 400

	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required field or setting is missing.
	CodeValidationRequired Code = "VAL_002"

	// Authentication errors (AUTH_xxx) - HTTP 401
	// Raised by the authentication gate before any handler runs.

	// CodeAuthentication indicates a general authentication failure.
	CodeAuthentication Code = "AUTH_001"

	// CodeCredentialMissing indicates the request carried no bearer credential.
	CodeCredentialMissing Code = "AUTH_002"

	// CodeTokenMalformed indicates the bearer token could not be parsed.
	CodeTokenMalformed Code = "AUTH_003"

	// CodeTokenSignature indicates the token signature did not verify
	// under the platform signing key.
	CodeTokenSignature Code = "AUTH_004"

	// CodeTokenExpired indicates the token's expiry has passed.
	CodeTokenExpired Code = "AUTH_005"

	// Authorization errors (AUTHZ_xxx) - HTTP 403
	// Raised after the caller's identity verified but access is denied.

	// CodeAuthorization indicates a general authorization failure.
	CodeAuthorization Code = "AUTHZ_001"

	// CodePermissionDenied indicates the caller holds none of the
	// permission codes a protected operation requires.
	CodePermissionDenied Code = "AUTHZ_002"

	// CodeAccountInactive indicates the resolved account exists but is
	// deactivated in the accounts service.
	CodeAccountInactive Code = "AUTHZ_003"

	// Not found errors (NF_xxx) - HTTP 404

	// CodeNotFound indicates a general not found error.
	CodeNotFound Code = "NF_001"

	// CodeIdentityNotFound indicates the accounts service has no user
	// record for the email carried in the token.
	CodeIdentityNotFound Code = "NF_002"

	// Internal errors (INT_xxx) - HTTP 500

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalConfiguration indicates a configuration error detected
	// at startup or load time.
	CodeInternalConfiguration Code = "INT_002"

	// Unavailable errors (UNAVAIL_xxx) - HTTP 503

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeResolverUnavailable indicates the accounts service could not be
	// reached or answered with an unexpected status.
	CodeResolverUnavailable Code = "UNAVAIL_002"

	// Timeout errors (TIMEOUT_xxx) - HTTP 504

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeResolverTimeout indicates the identity lookup against the
	// accounts service exceeded its deadline.
	CodeResolverTimeout Code = "TIMEOUT_002"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
