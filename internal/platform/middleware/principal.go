package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"veilfund/pkg/domain"
)

// HeaderPrincipal carries the wallet-style principal asserted by the caller.
// Verifying the binding between a request and its principal is the wallet
// layer's job; the ledger only needs a stable identity string.
const HeaderPrincipal = "X-Veilfund-Principal"

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handlers.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the caller principal from the context.
func GetPrincipal(ctx context.Context) domain.Principal {
	p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal)
	if !ok {
		return ""
	}
	return p
}

// RequirePrincipal rejects requests that do not assert a caller principal.
func RequirePrincipal(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, err := domain.ParsePrincipal(r.Header.Get(HeaderPrincipal))
			if err != nil {
				logger.WarnContext(ctx, "request without principal",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				writeUnauthorized(w, "Missing "+HeaderPrincipal+" header")
				return
			}
			ctx = context.WithValue(ctx, ContextKeyPrincipal, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
