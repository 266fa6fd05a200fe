package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// AdminValidator validates bearer tokens presented on guarded admin routes.
type AdminValidator interface {
	ValidateToken(tokenString string) (*AdminClaims, error)
}

// AdminClaims carries the identity asserted by an admin token.
type AdminClaims struct {
	Principal string
	Role      string
}

// RoleOwner is the only role accepted on admin escape hatches.
const RoleOwner = "owner"

type contextKeyAdminPrincipal struct{}

// ContextKeyAdminPrincipal is exported for use in handlers.
var ContextKeyAdminPrincipal = contextKeyAdminPrincipal{}

// GetAdminPrincipal retrieves the authenticated admin principal from the context.
func GetAdminPrincipal(ctx context.Context) string {
	p, ok := ctx.Value(ContextKeyAdminPrincipal).(string)
	if !ok {
		return ""
	}
	return p
}

// RequireAdmin guards the rarely-used owner escape hatches (pause, unpause,
// emergency withdraw). Every rejection is logged; these routes see almost no
// legitimate traffic, so noise is acceptable.
func RequireAdmin(validator AdminValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "admin access without bearer token",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "admin access with invalid token",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
					"error", err,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Role != RoleOwner {
				logger.WarnContext(ctx, "admin access with insufficient role",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
					"role", claims.Role,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"owner role required"}`))
				return
			}

			ctx = context.WithValue(ctx, ContextKeyAdminPrincipal, claims.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
