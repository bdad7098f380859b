package middleware

import (
	"net/http"

	authkit "github.com/pme360/authkit"
)

// RequireVerified rejects requests whose identity has not completed
// account verification. Must run after [RequireAuth].
func RequireVerified() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}
			if !identity.Verified {
				writeError(w, http.StatusForbidden, "account verification required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireProfileType rejects identities whose profile type is not in the
// allowed set. Must run after [RequireAuth].
func RequireProfileType(allowed ...authkit.ProfileType) func(http.Handler) http.Handler {
	set := make(map[authkit.ProfileType]struct{}, len(allowed))
	for _, p := range allowed {
		set[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}
			if _, ok := set[identity.ProfileType]; !ok {
				writeError(w, http.StatusForbidden, "insufficient profile type")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnership rejects requests whose identity does not own the
// addressed resource. resourceUserID extracts the owner's user id from
// the request (path parameter, query, or body, as the route chooses).
// Must run after [RequireAuth].
func RequireOwnership(resourceUserID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}
			if owner := resourceUserID(r); owner == "" || identity.ID != owner {
				writeError(w, http.StatusForbidden, "not the resource owner")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
