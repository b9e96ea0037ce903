package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cardgate/pkg/domainerrors"
)

const (
	testSecret   = "test-signing-key"
	testIssuer   = "cardgate-test"
	testAudience = "cardgate-api-test"
	testLeeway   = 10 * time.Second
)

// fixedClock lets tests move validation time deterministically.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func newTestCodec(clock *fixedClock) *Codec {
	opts := []Option{WithLeeway(testLeeway)}
	if clock != nil {
		opts = append(opts, WithClock(clock.now))
	}
	return New(testSecret, testIssuer, testAudience, time.Hour, opts...)
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	codec := newTestCodec(nil)

	tokenString, err := codec.Issue("user-42", "alice", []string{"Comercio", "Caja"}, "20-12345678-9")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := codec.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, []string{"Comercio", "Caja"}, claims.Roles)
	assert.Equal(t, "20-12345678-9", claims.Tenant)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestIssue_NilRolesBecomeEmptySet(t *testing.T) {
	codec := newTestCodec(nil)

	tokenString, err := codec.Issue("user-1", "bob", nil, "t1")
	require.NoError(t, err)

	claims, err := codec.Validate(tokenString)
	require.NoError(t, err)
	assert.NotNil(t, claims.Roles)
	assert.Empty(t, claims.Roles)
}

func TestIssue_UniqueTokenIdentifiers(t *testing.T) {
	codec := newTestCodec(nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tokenString, err := codec.Issue("user-1", "bob", nil, "t1")
		require.NoError(t, err)
		claims, err := codec.Validate(tokenString)
		require.NoError(t, err)
		assert.False(t, seen[claims.ID], "jti collision")
		seen[claims.ID] = true
	}
}

func TestValidate_LeewayBoundary(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{t: issued}
	codec := newTestCodec(clock)

	tokenString, err := codec.Issue("user-1", "bob", nil, "t1")
	require.NoError(t, err)

	expiry := issued.Add(time.Hour)

	t.Run("inside leeway succeeds", func(t *testing.T) {
		clock.t = expiry.Add(testLeeway - time.Second)
		_, err := codec.Validate(tokenString)
		require.NoError(t, err)
	})

	t.Run("beyond leeway expires", func(t *testing.T) {
		clock.t = expiry.Add(testLeeway + time.Second)
		_, err := codec.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenExpired))
	})
}

func TestValidate_WrongSecret(t *testing.T) {
	codec := newTestCodec(nil)
	other := New("completely-different-key", testIssuer, testAudience, time.Hour)

	tokenString, err := other.Issue("user-1", "bob", nil, "t1")
	require.NoError(t, err)

	_, err = codec.Validate(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenInvalidSignature))
}

func TestValidate_IssuerAudienceMismatch(t *testing.T) {
	codec := newTestCodec(nil)

	t.Run("wrong issuer", func(t *testing.T) {
		other := New(testSecret, "someone-else", testAudience, time.Hour)
		tokenString, err := other.Issue("user-1", "bob", nil, "t1")
		require.NoError(t, err)

		_, err = codec.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := New(testSecret, testIssuer, "other-api", time.Hour)
		tokenString, err := other.Issue("user-1", "bob", nil, "t1")
		require.NoError(t, err)

		_, err = codec.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})
}

func TestValidate_MissingRequiredClaims(t *testing.T) {
	codec := newTestCodec(nil)
	now := time.Now()

	sign := func(t *testing.T, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}

	base := func() SessionClaims {
		return SessionClaims{
			Roles: []string{},
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    testIssuer,
				Audience:  jwt.ClaimStrings{testAudience},
				Subject:   "user-1",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
	}

	t.Run("missing expiry", func(t *testing.T) {
		claims := base()
		claims.ExpiresAt = nil
		_, err := codec.Validate(sign(t, claims))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})

	t.Run("missing issuer", func(t *testing.T) {
		claims := base()
		claims.Issuer = ""
		_, err := codec.Validate(sign(t, claims))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})

	t.Run("missing audience", func(t *testing.T) {
		claims := base()
		claims.Audience = nil
		_, err := codec.Validate(sign(t, claims))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := base()
		claims.Subject = ""
		_, err := codec.Validate(sign(t, claims))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})
}

func TestValidate_RejectsAlgorithmConfusion(t *testing.T) {
	codec := newTestCodec(nil)
	now := time.Now()

	claims := SessionClaims{
		Roles: []string{},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	t.Run("alg none rejected", func(t *testing.T) {
		tokenString, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})

	t.Run("hs512 header rejected", func(t *testing.T) {
		tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
			SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = codec.Validate(tokenString)
		require.Error(t, err)
	})
}

func TestValidate_Garbage(t *testing.T) {
	codec := newTestCodec(nil)
	for _, input := range []string{"", "...", "a.b.c", "header.payload"} {
		_, err := codec.Validate(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	}
}

func TestObserverOutcomes(t *testing.T) {
	issued := 0
	outcomes := map[string]int{}
	codec := New(testSecret, testIssuer, testAudience, time.Hour,
		WithLeeway(testLeeway),
		WithObserver(func() { issued++ }, func(outcome string) { outcomes[outcome]++ }),
	)

	tokenString, err := codec.Issue("user-1", "", nil, "20-12345678-9")
	require.NoError(t, err)
	assert.Equal(t, 1, issued)

	_, err = codec.Validate(tokenString)
	require.NoError(t, err)

	_, err = codec.Validate("garbage")
	require.Error(t, err)

	other := New("other-secret", testIssuer, testAudience, time.Hour)
	foreign, err := other.Issue("user-1", "", nil, "20-12345678-9")
	require.NoError(t, err)
	_, err = codec.Validate(foreign)
	require.Error(t, err)

	assert.Equal(t, 1, outcomes["valid"])
	assert.Equal(t, 1, outcomes["malformed"])
	assert.Equal(t, 1, outcomes["bad_signature"])
}
