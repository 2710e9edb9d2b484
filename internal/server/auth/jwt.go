// Package auth issues and verifies the signed session tokens carried in the
// session cookie.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims: the standard set plus the email and
// role of the subject.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Codec signs and verifies session tokens with a single HS256 key.
// It is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec returns a Codec, or an error wrapping common.ErrConfiguration
// when the secret is empty or the ttl is not positive.
func NewCodec(secret []byte, ttl time.Duration, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty token secret", common.ErrConfiguration)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", common.ErrConfiguration)
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL is the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for id that expires TTL after now.
func (c *Codec) Issue(id models.Identity) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Email: id.Email,
		Role:  string(id.Role),
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// identity it carries. Every failure is reported as common.ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (models.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, common.ErrInvalidToken
	}

	role, ok := models.ParseRole(claims.Role)
	if claims.Subject == "" || !ok {
		return models.Identity{}, common.ErrInvalidToken
	}

	return models.Identity{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}
