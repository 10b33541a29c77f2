package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeToken builds a signed HS256 token with the given claims. The inspector
// never checks the signature, so the signing key is irrelevant.
func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("inspector-test-key"))
	require.NoError(t, err)
	return signed
}

func TestTokenInspector_IsValid(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inspector := NewTokenInspectorWithClock(func() time.Time { return now })

	t.Run("future expiry is valid", func(t *testing.T) {
		token := makeToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
		assert.True(t, inspector.IsValid(token))
	})

	t.Run("past expiry is invalid", func(t *testing.T) {
		token := makeToken(t, jwt.MapClaims{"exp": now.Add(-time.Second).Unix()})
		assert.False(t, inspector.IsValid(token))
	})

	t.Run("expiry exactly now is invalid", func(t *testing.T) {
		// Validity requires exp strictly greater than the current time.
		token := makeToken(t, jwt.MapClaims{"exp": now.Unix()})
		assert.False(t, inspector.IsValid(token))
	})

	t.Run("expiry one second ahead is valid", func(t *testing.T) {
		token := makeToken(t, jwt.MapClaims{"exp": now.Add(time.Second).Unix()})
		assert.True(t, inspector.IsValid(token))
	})

	t.Run("missing exp claim is invalid", func(t *testing.T) {
		token := makeToken(t, jwt.MapClaims{"sub": "someone"})
		assert.False(t, inspector.IsValid(token))
	})

	t.Run("signature is not checked", func(t *testing.T) {
		token := makeToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
		tampered := token[:len(token)-4] + "AAAA"
		assert.True(t, inspector.IsValid(tampered))
	})
}

func TestTokenInspector_IsValidMalformedInput(t *testing.T) {
	inspector := NewTokenInspector()

	malformed := []string{
		"",
		"not.a.jwt",
		"a.b",
		"only-one-segment",
		"a.b.c.d",
		"!!!.###.$$$",
	}
	for _, token := range malformed {
		assert.False(t, inspector.IsValid(token), "expected invalid for input: %q", token)
	}
}

func TestTokenInspector_ExpiresAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inspector := NewTokenInspectorWithClock(func() time.Time { return now })

	t.Run("extracts expiration instant", func(t *testing.T) {
		exp := now.Add(30 * time.Minute)
		token := makeToken(t, jwt.MapClaims{"exp": exp.Unix()})

		got, ok := inspector.ExpiresAt(token)
		assert.True(t, ok)
		assert.Equal(t, exp.Unix(), got.Unix())
	})

	t.Run("expired tokens still expose their expiry", func(t *testing.T) {
		// Scheduling logic needs the instant even when it lies in the past.
		exp := now.Add(-time.Hour)
		token := makeToken(t, jwt.MapClaims{"exp": exp.Unix()})

		got, ok := inspector.ExpiresAt(token)
		assert.True(t, ok)
		assert.Equal(t, exp.Unix(), got.Unix())
	})

	t.Run("missing exp claim yields no instant", func(t *testing.T) {
		token := makeToken(t, jwt.MapClaims{"sub": "someone"})
		_, ok := inspector.ExpiresAt(token)
		assert.False(t, ok)
	})

	t.Run("malformed token yields no instant", func(t *testing.T) {
		_, ok := inspector.ExpiresAt("not.a.jwt")
		assert.False(t, ok)

		_, ok = inspector.ExpiresAt("")
		assert.False(t, ok)
	})
}
