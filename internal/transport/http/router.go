// Package httptransport assembles the root router: module handlers, health
// probes, and the metrics endpoint.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	redisplatform "veilfund/internal/platform/redis"
	"veilfund/pkg/platform/httputil"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter mounts all module handlers plus the operational endpoints. The
// redis client may be nil; readiness then reports only the process itself.
func NewRouter(logger *slog.Logger, redis *redisplatform.Client, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if redis != nil {
			if err := redis.Health(req.Context()); err != nil {
				logger.WarnContext(req.Context(), "readiness check failed", "error", err.Error())
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"redis":  "unreachable",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
