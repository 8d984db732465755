package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedVerifier(t *testing.T, issuer string, now time.Time) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier("test-secret", issuer)
	require.NoError(t, err)
	v.now = func() time.Time { return now }
	return v
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v := fixedVerifier(t, "easyaudit", now)

	raw, err := v.Sign("admin", time.Hour)
	require.NoError(t, err)

	tok, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "admin", Username(tok))
}

func TestJWTVerifier_SubjectFallback(t *testing.T) {
	now := time.Now()
	v := fixedVerifier(t, "", now)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "jane",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tok, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "jane", Username(tok))
}

func TestJWTVerifier_Rejects(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v := fixedVerifier(t, "easyaudit", now)

	expired, err := fixedVerifier(t, "easyaudit", now.Add(-2*time.Hour)).Sign("admin", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := fixedVerifier(t, "someone-else", now).Sign("admin", time.Hour)
	require.NoError(t, err)
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "admin"}).SignedString([]byte("other"))
	require.NoError(t, err)
	noName, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "easyaudit"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":        "  ",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong issuer": otherIssuer,
		"wrong key":    otherKey,
		"no username":  noName,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(raw)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "")
	assert.Error(t, err)
}
