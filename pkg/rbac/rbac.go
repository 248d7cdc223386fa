// Package rbac provides role-based access control middleware.
package rbac

import (
	"net/http"

	"github.com/kwanzatukule/marketplace/pkg/middleware"
	"github.com/kwanzatukule/marketplace/pkg/response"
)

// HasRole allows only users holding one of roles. middleware.Auth must run first.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok || !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

