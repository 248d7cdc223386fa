package middleware

import (
	"net/http"
	"strings"

	"github.com/kwanzatukule/marketplace/pkg/auth"
	"github.com/kwanzatukule/marketplace/pkg/response"
)

// TokenVerifier is satisfied by *auth.Issuer.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores the
// verified claims in the request context.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				response.Unauthorized(w, "Missing Authorization Header")
				return
			}

			claims, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// UserIDFromCtx returns the authenticated user id.
func UserIDFromCtx(r *http.Request) (uint, bool) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return 0, false
	}
	return c.UserID, true
}

// RoleFromCtx returns the authenticated user's role.
func RoleFromCtx(r *http.Request) (string, bool) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	return c.Role, true
}
