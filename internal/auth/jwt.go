// Package auth issues and verifies the short-lived access tokens that
// authenticate API calls.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSigningKey is returned when the codec has no key to sign with.
var ErrNoSigningKey = errors.New("jwt signing key is empty")

// Claims are the claims carried by an access token: sub is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Verification is the result of checking a token. Invalid tokens are not
// errors: Valid is false and the other fields are zero.
type Verification struct {
	Username  string
	ExpiresAt time.Time
	Valid     bool
}

// Option configures a JWTManager.
type Option func(*JWTManager)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

// JWTManager signs and checks HS256 access tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager creates a manager that signs with secret and issues tokens
// valid for accessTTL.
func NewJWTManager(secret string, accessTTL time.Duration, opts ...Option) *JWTManager {
	m := &JWTManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AccessTTL reports how long issued tokens stay valid.
func (m *JWTManager) AccessTTL() time.Duration { return m.accessTTL }

// Issue signs a token for username, valid from issuedAt until
// issuedAt + AccessTTL.
func (m *JWTManager) Issue(username string, issuedAt time.Time) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSigningKey
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. A token is valid while
// now < exp. Malformed, wrongly signed, non-HS256 and expired tokens all come
// back as Valid=false with a nil error.
func (m *JWTManager) Verify(token string) (Verification, error) {
	if len(m.secret) == 0 {
		return Verification{}, ErrNoSigningKey
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Verification{}, nil
	}

	exp := claims.ExpiresAt.Time
	// jwt/v5 accepts now == exp; the boundary here is exclusive.
	if !m.now().Before(exp) {
		return Verification{}, nil
	}

	return Verification{Username: claims.Subject, ExpiresAt: exp, Valid: true}, nil
}

// VerifyFor is Verify plus a check that the token belongs to username.
func (m *JWTManager) VerifyFor(token, username string) (bool, error) {
	v, err := m.Verify(token)
	if err != nil {
		return false, err
	}
	return v.Valid && v.Username == username, nil
}
