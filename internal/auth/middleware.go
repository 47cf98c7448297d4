package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/user"
)

type contextKey struct{}

// UserFromContext returns the authenticated account set by Middleware.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*user.User)
	return u, ok
}

// ContextWithUser is used by handler tests to inject an authenticated user.
func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// Middleware verifies the bearer token and resolves it to an application
// account, provisioning one on first sight.
func Middleware(verifier *Verifier, users *user.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				slog.Debug("rejected token", "error", err)
				respond.Error(w, http.StatusUnauthorized, "invalid token")

				return
			}

			u, err := users.GetOrCreate(r.Context(), claims.Subject, claims.Email)
			if err != nil {
				slog.Error("failed to resolve user", "error", err)
				respond.Error(w, http.StatusInternalServerError, "internal error")

				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
		})
	}
}
