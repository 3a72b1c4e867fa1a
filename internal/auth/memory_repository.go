package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryUserRepository is an in-memory implementation of UserRepository.
// This is intended for testing. Production should use PostgresUserRepository.
type InMemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*User
	byEmail map[string]string // normalized email -> user ID
}

// NewInMemoryUserRepository creates a new in-memory user repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user.
func (r *InMemoryUserRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return ErrEmailTaken
	}

	cpy := *user
	r.users[user.ID] = &cpy
	r.byEmail[key] = user.ID
	return nil
}

// FindByID finds a user by ID.
func (r *InMemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cpy := *user
	return &cpy, nil
}

// FindByEmail finds a user by email.
func (r *InMemoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cpy := *r.users[id]
	return &cpy, nil
}

// InMemoryRefreshTokenRepository is an in-memory implementation of RefreshTokenRepository.
type InMemoryRefreshTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*RefreshToken
	byUser map[string][]string
}

// NewInMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{
		tokens: make(map[string]*RefreshToken),
		byUser: make(map[string][]string),
	}
}

// Create stores a new refresh token.
func (r *InMemoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *token
	r.tokens[token.Token] = &cpy
	r.byUser[token.UserID] = append(r.byUser[token.UserID], token.Token)
	return nil
}

// FindByToken finds a refresh token by its value.
func (r *InMemoryRefreshTokenRepository) FindByToken(_ context.Context, value string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[value]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}
	cpy := *token
	return &cpy, nil
}

// Revoke marks a refresh token as revoked.
func (r *InMemoryRefreshTokenRepository) Revoke(_ context.Context, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := r.tokens[value]; ok && token.RevokedAt == nil {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

// RevokeAllForUser revokes every refresh token of a user.
func (r *InMemoryRefreshTokenRepository) RevokeAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, value := range r.byUser[userID] {
		if token, ok := r.tokens[value]; ok && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ UserRepository         = (*InMemoryUserRepository)(nil)
	_ RefreshTokenRepository = (*InMemoryRefreshTokenRepository)(nil)
)
