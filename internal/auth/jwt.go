package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sessions use two tokens. The access token is a short-lived HS256 JWT sent
// as a Bearer header or in the token cookie. The refresh token is opaque,
// stored server side and rotated on every use; logout revokes one refresh
// token and logout-all revokes every token of the user. Access tokens stay
// valid until they expire.

// Token lifetimes.
const (
	AccessTokenExpiry  = 1 * time.Hour
	RefreshTokenExpiry = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of refresh tokens (256 bits).
	RefreshTokenLength = 32
)

// Token errors.
var (
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrAccessTokenExpired  = errors.New("access token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token has expired")
)

// JWTClaims are the claims of an access token.
type JWTClaims struct {
	jwt.RegisteredClaims

	UserID string `json:"uid"`
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// JWTService issues and validates access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        now,
	}
}

// GenerateAccessToken creates a signed access token for userID.
func (s *JWTService) GenerateAccessToken(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        randomToken(16),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken parses tokenString and returns its claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// GenerateRefreshToken creates a new opaque refresh token.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, RefreshTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
