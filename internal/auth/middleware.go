package auth

import (
	"context"
	"net/http"
)

// CookieName is the HttpOnly cookie carrying the JWT. HttpOnly keeps the
// token out of reach of page JavaScript, so an XSS bug can't exfiltrate it.
const CookieName = "token"

// contextKey is an unexported type for context keys in this package.
// A package-private key type means only this package can read or write the
// identity value, so no other package can collide with or shadow it.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication on owner-only routes.
//
// It reads the JWT from the "token" cookie, verifies it, and stores the
// bound email in the request context. The two failure modes get distinct
// statuses, matching what the web client expects:
//
//	no cookie at all        → 401 {"error":"unauthenticated", ...}
//	invalid/expired token   → 403 {"error":"forbidden", ...}
//
// Handlers behind this middleware still perform their own ownership
// comparison via AssertOwner; being authenticated is necessary, not
// sufficient.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				// http.ErrNoCookie: the request carries no credential
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}

			email, err := tokens.Verify(cookie.Value)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "forbidden", "invalid or expired credential")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated email from the request
// context. Returns ("", false) when the request is anonymous.
func IdentityFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(identityKey).(string)
	return email, ok && email != ""
}

// writeAuthError emits the fixed-shape JSON error the middleware uses.
// The middleware can't import the handler package (it would be an import
// cycle), so it writes the same {"error","message"} shape by hand.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
