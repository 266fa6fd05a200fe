// Package handler exposes the owner escape hatches behind admin token auth.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veilfund/internal/admin"
	"veilfund/internal/platform/middleware"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/platform/httputil"
)

// Service defines the admin operations the handler depends on.
type Service interface {
	Pause(ctx context.Context, actor domain.Principal) error
	Resume(ctx context.Context, actor domain.Principal) error
	EmergencyWithdraw(ctx context.Context, actor, to domain.Principal) (uint64, error)
	Status(ctx context.Context) admin.Status
}

// Handler handles admin endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Service
	validator middleware.AdminValidator
}

// New creates a new admin Handler.
func New(service Service, validator middleware.AdminValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator,
	}
}

// Register registers the admin routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(ar chi.Router) {
		ar.Use(middleware.Recovery(h.logger))
		ar.Use(middleware.RequestID)
		ar.Use(middleware.Logger(h.logger))
		ar.Use(middleware.Timeout(15 * time.Second))
		ar.Use(middleware.ClientMetadata)
		ar.Use(middleware.RequireAdmin(h.validator, h.logger))

		ar.Post("/admin/pause", h.handlePause)
		ar.Post("/admin/resume", h.handleResume)
		ar.Post("/admin/emergency-withdraw", h.handleEmergencyWithdraw)
		ar.Get("/admin/status", h.handleStatus)
	})
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := domain.Principal(middleware.GetAdminPrincipal(ctx))
	if err := h.service.Pause(ctx, actor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logAdminAction(ctx, "donations paused")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := domain.Principal(middleware.GetAdminPrincipal(ctx))
	if err := h.service.Resume(ctx, actor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logAdminAction(ctx, "donations resumed")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := domain.Principal(middleware.GetAdminPrincipal(ctx))

	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	to, err := domain.ParsePrincipal(req.To)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	amount, err := h.service.EmergencyWithdraw(ctx, actor, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logAdminAction(ctx, "emergency withdrawal")
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := h.service.Status(ctx)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"paused":   st.Paused,
		"escrowed": st.Escrowed,
	})
}

// logAdminAction records who did what from where. Escape hatches see almost no
// traffic, so the extra detail is free.
func (h *Handler) logAdminAction(ctx context.Context, action string) {
	h.logger.WarnContext(ctx, action,
		"request_id", middleware.GetRequestID(ctx),
		"actor", middleware.GetAdminPrincipal(ctx),
		"client_ip", middleware.GetClientIP(ctx),
		"client_device", middleware.GetClientDevice(ctx),
	)
}
