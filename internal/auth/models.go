// Package auth provides email/password accounts and API tokens for EcoTrace.
package auth

import (
	"time"

	"github.com/ecotrace/ecotrace/internal/api/models"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SignupInput is the data needed to create an account.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// TokenResponse is returned after a successful login or refresh.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user"`
}

// RefreshToken is a stored opaque refresh token.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Valid reports whether the token can still be exchanged at now.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// ValidationError represents signup or login validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Field + " " + e.Errors[0].Message
	}
	return "validation failed"
}
