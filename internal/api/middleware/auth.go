package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/service"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// Auth gates protected routes. It extracts the bearer token, verifies it,
// resolves the subject to a live user row and attaches the user to the
// request context. Any failure along the way is a 401 before business logic
// runs.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("ERROR [middleware.Auth] missing authorization header")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("ERROR [middleware.Auth] invalid authorization header format")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			user, err := Authenticate(r.Context(), authService, parts[1])
			if err != nil {
				log.Printf("ERROR [middleware.Auth] authentication failed: %v", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Authenticate resolves a raw access token to a live user record. Shared by
// the HTTP middleware and the websocket upgrade path, which carries the
// token in a query parameter. A valid token whose user has since been
// deleted fails closed.
func Authenticate(ctx context.Context, authService *service.AuthService, token string) (*domain.User, error) {
	userID, err := authService.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	return authService.GetUserByID(ctx, userID)
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// CurrentUser reads the authenticated user attached by Auth.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok
}
