package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ecotrace/ecotrace/internal/api/middleware"
	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/api/response"
	"github.com/ecotrace/ecotrace/internal/auth"
)

// SignupSwitch reports whether new accounts may be created.
type SignupSwitch interface {
	SignupEnabled(ctx context.Context) bool
}

// AuthHandlerConfig holds configuration for the auth handler.
type AuthHandlerConfig struct {
	Service *auth.Service
	Signup  SignupSwitch
	// SecureCookie marks the session cookie Secure. Enable it in production.
	SecureCookie bool
	Logger       zerolog.Logger
}

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	service      *auth.Service
	signup       SignupSwitch
	secureCookie bool
	logger       zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:      cfg.Service,
		signup:       cfg.Signup,
		secureCookie: cfg.SecureCookie,
		logger:       cfg.Logger,
	}
}

// Signup handles POST /v1/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.signup != nil && !h.signup.SignupEnabled(r.Context()) {
		response.Forbidden(w, r, "signup is currently disabled")
		return
	}

	var req models.SignupRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	user, err := h.service.Signup(r.Context(), auth.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			response.ValidationFailed(w, r, verr.Errors)
		case errors.Is(err, auth.ErrEmailTaken):
			response.Conflict(w, r, "an account with this email already exists")
		default:
			h.logger.Error().Err(err).Msg("signup failed")
			response.InternalError(w, r, "signup failed")
		}
		return
	}

	response.Created(w, r, "/v1/me", toUser(user))
}

// Login handles POST /v1/auth/login. The access token is returned in the body
// and set as the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			response.ValidationFailed(w, r, verr.Errors)
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			response.Unauthorized(w, r, "invalid email or password")
		default:
			h.logger.Error().Err(err).Msg("login failed")
			response.InternalError(w, r, "login failed")
		}
		return
	}

	h.setSessionCookie(w, tokens)
	response.JSON(w, r, http.StatusOK, tokens)
}

// RefreshToken handles POST /v1/auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if req.RefreshToken == "" {
		response.ValidationFailed(w, r, []models.FieldError{{Field: "refreshToken", Message: "is required", Code: "required"}})
		return
	}

	tokens, err := h.service.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			response.Unauthorized(w, r, "invalid refresh token")
		case errors.Is(err, auth.ErrRefreshTokenExpired):
			response.Unauthorized(w, r, "refresh token has expired")
		case errors.Is(err, auth.ErrUserNotFound):
			response.Unauthorized(w, r, "user not found")
		default:
			h.logger.Error().Err(err).Msg("token refresh failed")
			response.InternalError(w, r, "token refresh failed")
		}
		return
	}

	h.setSessionCookie(w, tokens)
	response.JSON(w, r, http.StatusOK, tokens)
}

// Logout handles POST /v1/auth/logout. It revokes the refresh token when one
// is sent and always clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := response.Decode(w, r, &req); err != nil && !errors.Is(err, response.ErrEmptyBody) {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	if req.RefreshToken != "" {
		if err := h.service.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil &&
			!errors.Is(err, auth.ErrInvalidRefreshToken) {
			h.logger.Error().Err(err).Msg("revoking refresh token failed")
			response.InternalError(w, r, "logout failed")
			return
		}
	}

	h.clearSessionCookie(w)
	response.NoContent(w, r)
}

// LogoutAll handles POST /v1/auth/logout-all. Requires authentication.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	if err := h.service.RevokeAllTokens(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("revoking all tokens failed")
		response.InternalError(w, r, "logout failed")
		return
	}

	h.clearSessionCookie(w)
	response.NoContent(w, r)
}

// Verify handles GET /v1/auth/verify. It never fails: a missing or bad token
// is reported as not valid.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromRequest(r)
	valid := false
	if token != "" {
		_, err := h.service.ValidateAccessToken(token)
		valid = err == nil
	}
	response.JSON(w, r, http.StatusOK, models.Verify{Valid: valid})
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.NotFound(w, r, "user not found")
			return
		}
		h.logger.Error().Err(err).Msg("loading user failed")
		response.InternalError(w, r, "failed to load user")
		return
	}
	response.JSON(w, r, http.StatusOK, toUser(user))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, tokens *auth.TokenResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
