package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyClientIP struct{}
type contextKeyClientDevice struct{}

// ClientMetadata extracts the client IP and a coarse device summary from the
// request and adds them to the context. Events attach the summary so operators
// can spot automated griefing of the oracle queue without logging raw headers.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIPFromRequest(r))
		ctx = context.WithValue(ctx, contextKeyClientDevice{}, deviceSummary(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// GetClientDevice retrieves the device summary from the context.
func GetClientDevice(ctx context.Context) string {
	if d, ok := ctx.Value(contextKeyClientDevice{}).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client metadata into a context. Useful for service
// unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, device string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP)
	ctx = context.WithValue(ctx, contextKeyClientDevice{}, device)
	return ctx
}

func deviceSummary(uaHeader string) string {
	if uaHeader == "" {
		return "unknown"
	}
	ua := useragent.New(uaHeader)
	if ua.Bot() {
		return "bot"
	}
	name, _ := ua.Browser()
	parts := []string{}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if name != "" {
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "/")
}

func clientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
