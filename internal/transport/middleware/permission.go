package middleware

import (
	"log/slog"
	"net/http"
)

// RequireRoles gates a route on the caller holding any of the given role
// claims. With verification disabled (no auth user in context) the gate is
// open, matching the development mode of the Authenticator.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			hasRole := false
			for _, required := range roles {
				for _, userRole := range user.Roles {
					if userRole == required {
						hasRole = true
						break
					}
				}
				if hasRole {
					break
				}
			}

			if !hasRole {
				slog.Warn("Access denied: user lacks required role",
					"user_id", user.ID,
					"required_roles", roles,
					"user_roles", user.Roles)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
