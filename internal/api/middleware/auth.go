package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ecotrace/ecotrace/internal/api/models"
	"github.com/ecotrace/ecotrace/internal/auth"
)

// SessionCookie is the name of the cookie carrying the access token.
const SessionCookie = "token"

// userIDKey is the context key for the authenticated user ID.
type userIDKey struct{}

// TokenValidator resolves an access token to a user ID.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth rejects requests without a valid access token. The token is read from
// the Authorization header or, failing that, from the session cookie.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := TokenFromRequest(r)
			if token == "" {
				writeUnauthorized(w, r, detail)
				return
			}

			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, r, "invalid access token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// TokenFromRequest extracts the access token. When none is found the second
// value explains why.
func TokenFromRequest(r *http.Request) (string, string) {
	if header := r.Header.Get("Authorization"); header != "" {
		const bearerPrefix = "Bearer "
		if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return "", "invalid authorization header format"
		}
		token := strings.TrimSpace(header[len(bearerPrefix):])
		if token == "" {
			return "", "missing bearer token"
		}
		return token, ""
	}

	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, ""
	}
	return "", "missing authorization header"
}

// writeUnauthorized writes a 401 Unauthorized response.
// The response package imports middleware, so it cannot be used here.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns an empty string if not authenticated.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}
