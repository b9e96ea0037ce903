// Package token issues and validates the signed session tokens handed out
// after an interactive login. Tokens are HS256-signed JWTs whose tenant claim
// binds them to the tenant they were issued for.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "cardgate/pkg/domainerrors"
)

// SessionClaims is the decoded body of a session token. A value is only
// authentic after signature verification and the issuer, audience, subject
// and expiry checks have all passed.
type SessionClaims struct {
	Name   string   `json:"name,omitempty"`
	Roles  []string `json:"roles"`
	Tenant string   `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

const defaultLeeway = 10 * time.Second

// Codec signs and validates session tokens. Its configuration is immutable
// after construction; the signing secret lives for the process lifetime.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time

	onIssue    func()
	onValidate func(outcome string)
}

// Option configures a Codec.
type Option func(*Codec)

// WithLeeway overrides the clock-skew tolerance applied to time-based checks.
func WithLeeway(leeway time.Duration) Option {
	return func(c *Codec) {
		if leeway >= 0 {
			c.leeway = leeway
		}
	}
}

// WithClock injects a time source. Tests use this to pin validation time.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver registers callbacks for issued tokens and validation outcomes
// ("valid", "expired", "bad_signature", "malformed"), typically metrics
// counters.
func WithObserver(onIssue func(), onValidate func(outcome string)) Option {
	return func(c *Codec) {
		c.onIssue = onIssue
		c.onValidate = onValidate
	}
}

// New creates a Codec with the process-wide secret and the issuer/audience
// pair every incoming token must carry.
func New(secret, issuer, audience string, ttl time.Duration, opts ...Option) *Codec {
	c := &Codec{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		leeway:   defaultLeeway,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the given subject. Roles may be empty but never
// null on the wire. The jti is freshly generated per call, so no two tokens
// ever share an identifier. The not-before claim is backdated by the leeway
// so a token is immediately valid on hosts whose clock runs slightly behind.
func (c *Codec) Issue(subject, displayName string, roles []string, tenantID string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	now := c.now().UTC()

	claims := SessionClaims{
		Name:   displayName,
		Roles:  roles,
		Tenant: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-c.leeway)),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign session token")
	}
	if c.onIssue != nil {
		c.onIssue()
	}
	return signed, nil
}

// Validate parses and verifies a session token. Failures carry exactly one of
// three codes: token_expired, token_invalid_signature, or token_malformed
// (structural problems including a missing required claim or an
// issuer/audience mismatch).
func (c *Codec) Validate(tokenString string) (*SessionClaims, error) {
	claims := new(SessionClaims)

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.secret, nil
	},
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			c.observe("expired")
			return nil, dErrors.New(dErrors.CodeTokenExpired, "token expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			c.observe("bad_signature")
			return nil, dErrors.New(dErrors.CodeTokenInvalidSignature, "invalid token signature")
		default:
			c.observe("malformed")
			return nil, dErrors.New(dErrors.CodeTokenMalformed, "invalid token")
		}
	}
	if !parsed.Valid {
		c.observe("bad_signature")
		return nil, dErrors.New(dErrors.CodeTokenInvalidSignature, "invalid token signature")
	}
	if claims.Subject == "" {
		c.observe("malformed")
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "token missing subject")
	}

	c.observe("valid")
	return claims, nil
}

func (c *Codec) observe(outcome string) {
	if c.onValidate != nil {
		c.onValidate(outcome)
	}
}
