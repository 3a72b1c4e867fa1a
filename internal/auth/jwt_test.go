package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotrace/ecotrace/internal/auth"
)

const (
	testIssuer   = "https://api.ecotrace.dev"
	testAudience = "ecotrace-api"
)

func newJWT(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{SigningKey: key, Issuer: issuer, Audience: audience})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newJWT("test-secret-key-for-testing-only", testIssuer, testAudience)

	token, expiresAt, err := svc.GenerateAccessToken("usr_test123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_test123", claims.UserID)
	assert.Equal(t, "usr_test123", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
}

func TestJWTService_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "k",
		Issuer:     testIssuer,
		Audience:   testAudience,
		Now:        func() time.Time { return issued },
	})
	token, _, err := svc.GenerateAccessToken("usr_1")
	require.NoError(t, err)

	_, err = newJWT("k", testIssuer, testAudience).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_Rejects(t *testing.T) {
	good := newJWT("key-one", testIssuer, testAudience)
	token, _, err := good.GenerateAccessToken("usr_1")
	require.NoError(t, err)

	tests := []struct {
		name      string
		validator *auth.JWTService
		token     string
	}{
		{"empty token", good, ""},
		{"malformed token", good, "not.a.valid.jwt"},
		{"wrong signing key", newJWT("key-two", testIssuer, testAudience), token},
		{"wrong issuer", newJWT("key-one", "someone-else", testAudience), token},
		{"wrong audience", newJWT("key-one", testIssuer, "other-api"), token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.validator.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	token1, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	token2, err := auth.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, token1)
}
