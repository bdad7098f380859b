package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	authkit "github.com/pme360/authkit"
	"github.com/pme360/authkit/jwt"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by [RequireAuth] or
// [OptionalAuth], if any.
func IdentityFromContext(ctx context.Context) (*authkit.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*authkit.Identity)
	return identity, ok
}

func withIdentity(ctx context.Context, identity *authkit.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// envelope is the platform's uniform response body shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// RequireAuth resolves the bearer access token into an identity attached
// to the request context, rejecting with 401 when the token is missing,
// invalid, or expired. Verification is stateless: no session-store access.
func RequireAuth(engine *authkit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}

			token, ok := jwt.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}

			identity, ok := engine.ValidateAccess(token)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid bearer token is present
// and otherwise lets the request through unauthenticated. Used for routes
// that personalize output for logged-in users but stay public.
func OptionalAuth(engine *authkit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine != nil {
				if token, ok := jwt.ExtractBearer(r.Header.Get("Authorization")); ok {
					if identity, ok := engine.ValidateAccess(token); ok {
						r = r.WithContext(withIdentity(r.Context(), identity))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
