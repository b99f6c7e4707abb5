package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newManager(clock *fakeClock) *JWTManager {
	return NewJWTManager(testSecret, 15*time.Minute, WithClock(clock.Now))
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	m := newManager(clock)

	token, err := m.Issue("alice", issued)
	require.NoError(t, err)

	v, err := m.Verify(token)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, issued.Add(15*time.Minute).Unix(), v.ExpiresAt.Unix())
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	m := newManager(clock)

	token, err := m.Issue("alice", issued)
	require.NoError(t, err)

	clock.t = issued.Add(15*time.Minute - time.Second)
	v, err := m.Verify(token)
	require.NoError(t, err)
	assert.True(t, v.Valid, "one second before exp")

	clock.t = issued.Add(15 * time.Minute)
	v, err = m.Verify(token)
	require.NoError(t, err)
	assert.False(t, v.Valid, "exactly at exp")

	clock.t = issued.Add(16 * time.Minute)
	v, err = m.Verify(token)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Empty(t, v.Username)
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	now := time.Now()
	m := NewJWTManager(testSecret, 15*time.Minute)

	other := NewJWTManager("another-secret-another-secret-xx", 15*time.Minute)
	foreign, err := other.Issue("alice", now)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "alice",
	}}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong key":    foreign,
		"alg none":     unsigned,
		"other alg":    hs512,
		"missing exp":  noExp,
		"two segments": "a.b",
	} {
		t.Run(name, func(t *testing.T) {
			v, err := m.Verify(token)
			require.NoError(t, err)
			assert.False(t, v.Valid)
		})
	}
}

func TestVerifyFor(t *testing.T) {
	now := time.Now()
	m := NewJWTManager(testSecret, 15*time.Minute)

	token, err := m.Issue("alice", now)
	require.NoError(t, err)

	ok, err := m.VerifyFor(token, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.VerifyFor(token, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptySecret(t *testing.T) {
	m := NewJWTManager("", time.Minute)

	_, err := m.Issue("alice", time.Now())
	assert.ErrorIs(t, err, ErrNoSigningKey)

	_, err = m.Verify("anything")
	assert.ErrorIs(t, err, ErrNoSigningKey)
}
