package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newCodec(t *testing.T, secret string, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec([]byte(secret), 7*24*time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestNewCodec_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(nil, time.Hour)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = NewCodec([]byte("k"), 0)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: base}
	c := newCodec(t, "super-secret", clock)

	for _, id := range []models.Identity{
		{ID: "user-123", Email: "a@b.com", Role: models.RoleUser},
		{ID: "0b6f", Email: "Admin@Example.com", Role: models.RoleAdmin},
	} {
		tok, err := c.Issue(id)
		require.NoError(t, err)

		got, err := c.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestVerify_ValidForWholeWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: base}
	c := newCodec(t, "k", clock)
	id := models.Identity{ID: "u1", Email: "a@b.com", Role: models.RoleUser}

	tok, err := c.Issue(id)
	require.NoError(t, err)

	clock.t = base.Add(7*24*time.Hour - time.Second)
	_, err = c.Verify(tok)
	require.NoError(t, err)

	clock.t = base.Add(7*24*time.Hour + time.Second)
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestIssue_ExpiryIsSevenDays(t *testing.T) {
	t.Parallel()

	c := newCodec(t, "k", &fakeClock{t: base})
	tok, err := c.Issue(models.Identity{ID: "u1", Email: "a@b.com", Role: models.RoleUser})
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.True(t, claims.IssuedAt.Time.Equal(base))
	assert.True(t, claims.ExpiresAt.Time.Equal(base.Add(7*24*time.Hour)))
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, 7*24*time.Hour, c.TTL())
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: base}
	tok, err := newCodec(t, "right-secret", clock).Issue(models.Identity{ID: "u2", Email: "a@b.com", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = newCodec(t, "wrong-secret", clock).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_AnySingleBitFlipRejected(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: base}
	c := newCodec(t, "k", clock)
	tok, err := c.Issue(models.Identity{ID: "u3", Email: "a@b.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	for i, part := range parts {
		raw, err := base64.RawURLEncoding.DecodeString(part)
		require.NoError(t, err)

		for bit := 0; bit < len(raw)*8; bit += 7 {
			flipped := append([]byte(nil), raw...)
			flipped[bit/8] ^= 1 << (bit % 8)

			mutated := append([]string(nil), parts...)
			mutated[i] = base64.RawURLEncoding.EncodeToString(flipped)

			_, err := c.Verify(strings.Join(mutated, "."))
			require.ErrorIs(t, err, common.ErrInvalidToken, "part %d bit %d", i, bit)
		}
	}
}

func TestVerify_UniformFailure(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: base}
	c := newCodec(t, "k", clock)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour))},
		Role:             "USER",
	})
	noneTok, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	sign := func(claims Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	cases := map[string]string{
		"empty":       "",
		"malformed":   "not.a.jwt",
		"alg none":    noneTok,
		"no expiry":   sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}, Role: "USER"}),
		"no subject":  sign(Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour))}, Role: "USER"}),
		"bad role":    sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour))}, Role: "ROOT"}),
		"future iat":  sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", IssuedAt: jwt.NewNumericDate(base.Add(time.Hour)), ExpiresAt: jwt.NewNumericDate(base.Add(2 * time.Hour))}, Role: "USER"}),
		"expired now": sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(base.Add(-time.Second))}, Role: "USER"}),
	}

	for name, tok := range cases {
		_, err := c.Verify(tok)
		assert.Equal(t, common.ErrInvalidToken, err, name)
	}
}
