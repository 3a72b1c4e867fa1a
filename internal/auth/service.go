package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/models"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService  *JWTService
	UserRepo    UserRepository
	RefreshRepo RefreshTokenRepository
	Logger      zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service provides account and token operations.
type Service struct {
	jwtService  *JWTService
	userRepo    UserRepository
	refreshRepo RefreshTokenRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		jwtService:  cfg.JWTService,
		userRepo:    cfg.UserRepo,
		refreshRepo: cfg.RefreshRepo,
		logger:      cfg.Logger,
		now:         now,
	}
}

// Signup creates an account. It does not sign the user in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if errs := validateSignup(in); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:           "usr_" + uuid.New().String()[:22],
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("account created")
	return user, nil
}

func validateSignup(in SignupInput) []models.FieldError {
	var errs []models.FieldError

	if in.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required", Code: "REQUIRED"})
	}
	if in.Email == "" {
		errs = append(errs, models.FieldError{Field: "email", Message: "is required", Code: "REQUIRED"})
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		errs = append(errs, models.FieldError{Field: "email", Message: "is not a valid address", Code: "INVALID_FORMAT"})
	}
	if in.Password == "" {
		errs = append(errs, models.FieldError{Field: "password", Message: "is required", Code: "REQUIRED"})
	} else if len(in.Password) < MinPasswordLength {
		errs = append(errs, models.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
			Code:    "TOO_SHORT",
		})
	}
	if in.ConfirmPassword == "" {
		errs = append(errs, models.FieldError{Field: "confirmPassword", Message: "is required", Code: "REQUIRED"})
	} else if in.Password != in.ConfirmPassword {
		errs = append(errs, models.FieldError{Field: "confirmPassword", Message: "passwords do not match", Code: "MISMATCH"})
	}

	return errs
}

// Login verifies credentials and issues a token pair.
// An unknown email yields ErrUserNotFound, a wrong password ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var errs []models.FieldError
	if strings.TrimSpace(email) == "" {
		errs = append(errs, models.FieldError{Field: "email", Message: "is required", Code: "REQUIRED"})
	}
	if password == "" {
		errs = append(errs, models.FieldError{Field: "password", Message: "is required", Code: "REQUIRED"})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

// RefreshAccessToken exchanges a refresh token for a new token pair.
// The presented token is revoked.
func (s *Service) RefreshAccessToken(ctx context.Context, value string) (*TokenResponse, error) {
	token, err := s.refreshRepo.FindByToken(ctx, value)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if token.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !token.Valid(s.now()) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if err := s.refreshRepo.Revoke(ctx, value); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	return s.generateTokens(ctx, user)
}

// ValidateAccessToken validates an access token and returns the user ID.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.jwtService.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// RevokeRefreshToken revokes a single refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, value string) error {
	return s.refreshRepo.Revoke(ctx, value)
}

// RevokeAllTokens revokes every refresh token of a user.
func (s *Service) RevokeAllTokens(ctx context.Context, userID string) error {
	return s.refreshRepo.RevokeAllForUser(ctx, userID)
}

func (s *Service) generateTokens(ctx context.Context, user *User) (*TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	value, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	refresh := &RefreshToken{
		ID:        uuid.New().String(),
		Token:     value,
		UserID:    user.ID,
		ExpiresAt: now.Add(RefreshTokenExpiry),
		CreatedAt: now,
	}
	if err := s.refreshRepo.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(expiresAt.Sub(now).Seconds()),
		RefreshToken: value,
		User:         user,
	}, nil
}
