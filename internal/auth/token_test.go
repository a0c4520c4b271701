package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims *IdentityClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseTokenRoundTrip(t *testing.T) {
	parser := NewTokenParser("test-secret", "review-gin")

	signed := signToken(t, "test-secret", &IdentityClaims{
		Sub:               "user-1",
		PreferredUsername: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "review-gin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := parser.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "alice", claims.DisplayName())
}

func TestParseTokenRejectsBadSignature(t *testing.T) {
	parser := NewTokenParser("test-secret", "")

	signed := signToken(t, "wrong-secret", &IdentityClaims{Sub: "user-1"})

	_, err := parser.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	parser := NewTokenParser("test-secret", "review-gin")

	signed := signToken(t, "test-secret", &IdentityClaims{
		Sub:              "user-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})

	_, err := parser.ParseToken(signed)
	assert.ErrorContains(t, err, "issuer")
}

func TestParseTokenRejectsExpired(t *testing.T) {
	parser := NewTokenParser("test-secret", "")

	signed := signToken(t, "test-secret", &IdentityClaims{
		Sub: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := parser.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRequiresSubject(t *testing.T) {
	parser := NewTokenParser("test-secret", "")

	signed := signToken(t, "test-secret", &IdentityClaims{})

	_, err := parser.ParseToken(signed)
	assert.ErrorContains(t, err, "subject")
}

func TestParserDisabledWithoutSecret(t *testing.T) {
	parser := NewTokenParser("", "review-gin")

	assert.False(t, parser.Enabled())

	_, err := parser.ParseToken("anything")
	assert.Error(t, err)
}

func TestDisplayNameFallback(t *testing.T) {
	claims := &IdentityClaims{Sub: "user-1"}
	assert.Equal(t, "user-1", claims.DisplayName())

	claims.PreferredUsername = "alice"
	assert.Equal(t, "alice", claims.DisplayName())

	claims.Name = "Alice Liu"
	assert.Equal(t, "Alice Liu", claims.DisplayName())
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := ExtractBearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	// 前缀大小写不敏感
	token, ok = ExtractBearerToken("bearer xyz")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = ExtractBearerToken("")
	assert.False(t, ok)

	_, ok = ExtractBearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)
}
