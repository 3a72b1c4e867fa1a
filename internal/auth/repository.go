package auth

import (
	"context"
	"errors"
)

// Repository errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("an account with this email already exists")
)

// UserRepository stores accounts. Emails are compared case-insensitively.
type UserRepository interface {
	// Create stores a new user. It returns ErrEmailTaken for a duplicate email.
	Create(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// RefreshTokenRepository stores refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error

	// FindByToken returns ErrInvalidRefreshToken for an unknown token.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke is a no-op for unknown or already revoked tokens.
	Revoke(ctx context.Context, token string) error

	RevokeAllForUser(ctx context.Context, userID string) error
}
