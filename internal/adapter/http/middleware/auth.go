package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// UserContextKey is the context key for the authenticated user
	UserContextKey ContextKey = "user"
)

// AuthMiddleware rejects requests without a valid bearer token. A missing
// or malformed header is 401; a token that fails verification is 403.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(strings.TrimSpace(token))
			if err != nil {
				message := "invalid token"
				if errors.Is(err, domain.ErrExpiredToken) {
					message = "token expired"
				}
				writeError(w, http.StatusForbidden, message)
				return
			}

			user := claims.ActingUser()
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Int64("user_code", user.Code)
			})

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUserCode rejects authenticated requests whose token carries no
// user code. Ledger postings need one to attribute the entry.
func RequireUserCode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user.Code <= 0 {
			writeError(w, http.StatusForbidden, domain.ErrMissingUserCode.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user domain.ActingUser) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) (domain.ActingUser, bool) {
	user, ok := ctx.Value(UserContextKey).(domain.ActingUser)
	return user, ok
}
