package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/construction-crm/internal"
	"github.com/frahmantamala/construction-crm/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// AuthUser is the identity asserted by the external identity provider.
// This service only verifies tokens; issuing and session handling live in
// the auth collaborator.
type AuthUser struct {
	ID    string
	Name  string
	Roles []string
}

type authCtxKey string

const authUserKey authCtxKey = "auth_user"

func UserFromContext(ctx context.Context) (*AuthUser, bool) {
	user, ok := ctx.Value(authUserKey).(*AuthUser)
	return user, ok
}

// Authenticator verifies the Bearer token against the IdP's shared secret
// and injects the asserted identity into the request context. An empty
// secret disables verification, for local development only.
func Authenticator(secret string, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := extractBearer(r)
			if tokenString == "" {
				lg.Warn("missing bearer token", "path", r.URL.Path)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				lg.Warn("token verification failed", "path", r.URL.Path, "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user := userFromClaims(token.Claims)
			ctx := context.WithValue(r.Context(), authUserKey, user)
			ctx = internal.ContextWithUserID(ctx, user.ID)
			ctx = logger.With(ctx, "userID", user.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return authHeader[7:]
}

func userFromClaims(claims jwt.Claims) *AuthUser {
	user := &AuthUser{}

	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return user
	}

	if sub, ok := mapClaims["sub"].(string); ok {
		user.ID = sub
	}
	if name, ok := mapClaims["name"].(string); ok {
		user.Name = name
	}
	if rawRoles, ok := mapClaims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				user.Roles = append(user.Roles, role)
			}
		}
	}

	return user
}
