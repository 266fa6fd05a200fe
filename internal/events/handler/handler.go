// Package handler exposes the per-campaign event feed.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veilfund/internal/events"
	"veilfund/internal/platform/middleware"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/platform/httputil"
)

// Handler serves the event feed from the event store.
type Handler struct {
	logger *slog.Logger
	store  events.Store
}

// New creates a new events Handler.
func New(store events.Store, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, store: store}
}

// Register registers the event feed route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(er chi.Router) {
		er.Use(middleware.Recovery(h.logger))
		er.Use(middleware.RequestID)
		er.Use(middleware.Logger(h.logger))
		er.Use(middleware.Timeout(15 * time.Second))
		er.Get("/campaigns/{campaignID}/events", h.handleListByCampaign)
	})
}

func (h *Handler) handleListByCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, err := domain.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	evs, err := h.store.ListByCampaign(ctx, campaignID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list events",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list events"))
		return
	}
	if evs == nil {
		evs = []events.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, evs)
}
