package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// maxTokenLength bounds the compact serialization accepted by the codec.
// Anything larger is rejected before parsing.
const maxTokenLength = 8192

// minSigningKeyLength is the minimum HS256 key length in bytes.
const minSigningKeyLength = 32

// Secret is a string that redacts itself in logs, format verbs, and
// text/JSON marshaling. Use it for the shared signing key and any other
// credential carried in configuration so that a dumped config struct
// never leaks key material.
type Secret string

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// String implements fmt.Stringer, returning a redaction marker.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer so %#v does not leak the secret.
func (s Secret) GoString() string { return "auth.Secret(\"[REDACTED]\")" }

// MarshalText redacts the secret in text-based encodings (JSON, YAML).
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Claims is the verified content of a platform token. Tokens carry
// identity only — the email in the subject claim. Permissions, names,
// and active-status are deliberately absent: they are resolved fresh
// from the accounts service on every request.
type Claims struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CodecConfig configures the platform token [Codec]. The signing key is
// shared by every service: each one verifies tokens locally without a
// call to the issuer.
type CodecConfig struct {
	// SigningKey is the shared HS256 key. Minimum 32 bytes.
	SigningKey Secret `json:"signing_key" yaml:"signing_key" env:"AUTH_SIGNING_KEY" required:"true"`

	// Issuer is the expected "iss" claim on verified tokens and the
	// claim stamped on issued ones.
	Issuer string `json:"issuer" yaml:"issuer" env:"AUTH_ISSUER" envDefault:"peoplesuite"`

	// TokenTTL is the lifetime of tokens minted by [Codec.Issue].
	TokenTTL time.Duration `json:"token_ttl" yaml:"token_ttl" env:"AUTH_TOKEN_TTL" envDefault:"24h"`

	// ClockSkew is the leeway applied to time-based claims during
	// verification, absorbing clock drift between services.
	ClockSkew time.Duration `json:"clock_skew" yaml:"clock_skew" env:"AUTH_CLOCK_SKEW" envDefault:"30s"`
}

// Validate implements config.Validator.
func (c *CodecConfig) Validate() error {
	if len(c.SigningKey) < minSigningKeyLength {
		return pserr.Newf(pserr.CodeValidation,
			"auth: signing key must be at least %d bytes", minSigningKeyLength)
	}
	if c.Issuer == "" {
		return pserr.New(pserr.CodeValidation, "auth: issuer must not be empty")
	}
	if c.TokenTTL <= 0 {
		return pserr.New(pserr.CodeValidation, "auth: token TTL must be positive")
	}
	if c.ClockSkew < 0 {
		return pserr.New(pserr.CodeValidation, "auth: clock skew must not be negative")
	}
	return nil
}

// Codec verifies and mints platform bearer tokens (HS256 JWTs). Decode
// is a pure function of the token string and the clock: no network, no
// shared mutable state. Codec is safe for concurrent use.
type Codec struct {
	config CodecConfig
	parser *jwt.Parser
}

// NewCodec creates a Codec after validating the configuration. Only the
// HS256 algorithm is accepted during verification; a token claiming any
// other algorithm (including "none") fails as malformed.
func NewCodec(config CodecConfig) (*Codec, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Codec{
		config: config,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(config.Issuer),
			jwt.WithLeeway(config.ClockSkew),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Decode verifies a compact token and returns its claims. Failures are
// distinguishable by code so that gates can log precise denial reasons:
//
//   - [pserr.CodeTokenMalformed] — not a parseable JWT, wrong algorithm,
//     oversized, or missing required claims
//   - [pserr.CodeTokenSignature] — well-formed but signed with a
//     different key
//   - [pserr.CodeTokenExpired] — verified signature, expired lifetime
func (c *Codec) Decode(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, pserr.New(pserr.CodeTokenMalformed, "auth: empty token")
	}
	if len(tokenString) > maxTokenLength {
		return Claims{}, pserr.Newf(pserr.CodeTokenMalformed,
			"auth: token exceeds maximum length of %d bytes", maxTokenLength)
	}

	token, err := c.parser.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) {
			return []byte(c.config.SigningKey), nil
		})
	if err != nil {
		return Claims{}, classifyTokenError(err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return Claims{}, pserr.New(pserr.CodeTokenMalformed,
			"auth: token is missing the subject claim")
	}

	decoded := Claims{Email: claims.Subject}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		decoded.ExpiresAt = claims.ExpiresAt.Time
	}
	return decoded, nil
}

// Issue mints a token for the given email, valid for the configured TTL.
// Used by the accounts service at login; every other service only
// verifies.
func (c *Codec) Issue(email string) (string, error) {
	if email == "" {
		return "", pserr.New(pserr.CodeValidation, "auth: cannot issue a token without an email")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    c.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(c.config.SigningKey))
	if err != nil {
		return "", pserr.Wrap(err, pserr.CodeInternal, "auth: failed to sign token")
	}
	return signed, nil
}

// classifyTokenError maps golang-jwt parse errors onto the platform's
// distinguishable token failure codes. Expiry is checked first: an
// expired token also fails other claim checks and the expired code is
// the most useful one to surface.
func classifyTokenError(err error) *pserr.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return pserr.Wrap(err, pserr.CodeTokenExpired, "auth: token has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return pserr.Wrap(err, pserr.CodeTokenSignature, "auth: token signature verification failed")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return pserr.Wrap(err, pserr.CodeTokenMalformed, "auth: token is malformed")
	default:
		return pserr.Wrap(err, pserr.CodeTokenMalformed, "auth: token validation failed")
	}
}
