// Package token signs and verifies stateless session tokens.
//
// A token carries {subject, role, iat, exp, jti} signed with a server-held
// HMAC secret. Verification is stateless: there is no server-side session
// store and no revocation list, so a token stays cryptographically valid
// until its embedded expiry even after logout. This is a documented
// tradeoff, not a bug.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saasify/saasify-api/internal/crypto"
)

// MinSecretLength is the minimum accepted HMAC secret length in bytes.
const MinSecretLength = 32

// Claims is the decoded payload of a session token.
type Claims struct {
	// Subject is the user ID the token was issued to.
	Subject string `json:"sub"`

	// Role is the user's role at issuance time. A later role change does
	// not affect already-issued tokens until they expire or are reissued.
	Role string `json:"role"`

	JTI string `json:"jti"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens.
type Codec struct {
	secret    []byte
	clockSkew time.Duration
}

// Option configures a Codec.
type Option func(*Codec)

// WithClockSkew sets the leeway allowed when validating time claims.
func WithClockSkew(d time.Duration) Option {
	return func(c *Codec) {
		c.clockSkew = d
	}
}

// NewCodec creates a Codec signing with HMAC-SHA256.
func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
	}

	c := &Codec{secret: []byte(secret)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue builds and signs a token for the given subject and role, valid for
// ttl from now.
func (c *Codec) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()

	jti, err := crypto.TokenID()
	if err != nil {
		return "", err
	}

	claims := &Claims{
		Subject: subject,
		Role:    role,
		JTI:     jti,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify validates the signature and time claims of a token.
// Failures map to ErrExpired, ErrNotYetValid, ErrInvalidSignature, or
// ErrMalformed; on success the decoded claims are returned.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		// Pin the algorithm so a token claiming "none" or an asymmetric
		// method cannot trick verification.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return c.secret, nil
	}, jwt.WithLeeway(c.clockSkew))

	if err != nil {
		return nil, mapJWTError(err)
	}

	if !parsed.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// mapJWTError maps jwt/v5 library errors to this package's sentinels.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}
