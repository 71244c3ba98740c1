package middleware

import (
	"context"
	"net/http"

	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/auth"
)

type identityKey struct{}

// TokenValidator resolves a bearer token to an authenticated identity.
// Satisfied by *users.Service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Identity, error)
}

// BearerAuth requires a valid bearer token and stores the resolved identity
// in the request context. Missing, malformed, expired, and revoked tokens
// all produce the same 401 body.
func BearerAuth(tokens TokenValidator, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, env)
				return
			}

			identity, err := tokens.ValidateToken(r.Context(), token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, env)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin rejects callers whose identity is not an admin. Must run
// after BearerAuth.
func RequireAdmin(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", nil, env)
				return
			}
			if !auth.IsAdmin(identity.Role) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Admin access required", nil, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithIdentity stores an identity in the context. Exported for tests.
func ContextWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated identity, or nil when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if ctx == nil {
		return nil
	}
	if identity, ok := ctx.Value(identityKey{}).(*auth.Identity); ok {
		return identity
	}
	return nil
}
