// Package handler exposes the campaign registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veilfund/internal/campaign"
	"veilfund/internal/platform/metrics"
	"veilfund/internal/platform/middleware"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/platform/httputil"
)

// Service defines the campaign operations the handler depends on.
type Service interface {
	Create(ctx context.Context, in campaign.CreateInput) (*campaign.Campaign, error)
	Update(ctx context.Context, id domain.CampaignID, caller domain.Principal, in campaign.UpdateInput) (*campaign.Campaign, error)
	Complete(ctx context.Context, id domain.CampaignID, caller domain.Principal) error
	AllowOrganizerDecrypt(ctx context.Context, id domain.CampaignID, caller domain.Principal) error
	RevealTotals(ctx context.Context, id domain.CampaignID, caller domain.Principal) error
	Get(ctx context.Context, id domain.CampaignID) (*campaign.Campaign, error)
	ListAll(ctx context.Context) ([]*campaign.Campaign, error)
	ListActive(ctx context.Context) ([]*campaign.Campaign, error)
	ListByOrganizer(ctx context.Context, organizer, caller domain.Principal) ([]*campaign.Campaign, error)
	DonorCount(ctx context.Context, id domain.CampaignID) (uint64, error)
}

// Handler handles campaign endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

// New creates a new campaign Handler.
func New(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: m,
	}
}

// Register registers the campaign routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(cr chi.Router) {
		cr.Use(middleware.Recovery(h.logger))
		cr.Use(middleware.RequestID)
		cr.Use(middleware.Logger(h.logger))
		cr.Use(middleware.Timeout(15 * time.Second))
		cr.Use(middleware.Latency(h.metrics))

		cr.Get("/campaigns", h.handleListAll)
		cr.Get("/campaigns/active", h.handleListActive)
		cr.Get("/campaigns/{campaignID}", h.handleGet)
		cr.Get("/campaigns/{campaignID}/donor-count", h.handleDonorCount)

		cr.Group(func(pr chi.Router) {
			pr.Use(middleware.ContentTypeJSON)
			pr.Use(middleware.RequirePrincipal(h.logger))
			pr.Post("/campaigns", h.handleCreate)
			pr.Patch("/campaigns/{campaignID}", h.handleUpdate)
			pr.Post("/campaigns/{campaignID}/complete", h.handleComplete)
			pr.Post("/campaigns/{campaignID}/allow-decrypt", h.handleAllowDecrypt)
			pr.Post("/campaigns/{campaignID}/reveal", h.handleReveal)
		})

		cr.With(middleware.RequirePrincipal(h.logger)).
			Get("/organizers/{organizer}/campaigns", h.handleListByOrganizer)
	})
}

type createRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ImageRef        string `json:"image_ref"`
	Target          uint64 `json:"target"`
	DurationSeconds int64  `json:"duration_seconds"`
	Category        string `json:"category"`
}

type campaignResponse struct {
	ID                  string    `json:"id"`
	Organizer           string    `json:"organizer"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	ImageRef            string    `json:"image_ref,omitempty"`
	Target              uint64    `json:"target"`
	Deadline            time.Time `json:"deadline"`
	Category            string    `json:"category"`
	TotalHandle         string    `json:"total_handle"`
	CountHandle         string    `json:"count_handle"`
	DonorCount          uint64    `json:"donor_count"`
	Active              bool      `json:"active"`
	Completed           bool      `json:"completed"`
	FinalAmountRevealed bool      `json:"final_amount_revealed"`
	Milestones          [4]uint64 `json:"milestones"`
	CreatedAt           time.Time `json:"created_at"`
}

// toResponse exposes accumulator handles but never ciphertext payloads.
func toResponse(c *campaign.Campaign) campaignResponse {
	return campaignResponse{
		ID:                  c.ID.String(),
		Organizer:           c.Organizer.String(),
		Title:               c.Title,
		Description:         c.Description,
		ImageRef:            c.ImageRef,
		Target:              c.Target,
		Deadline:            c.Deadline,
		Category:            string(c.Category),
		TotalHandle:         string(c.EncryptedTotal.Handle),
		CountHandle:         string(c.EncryptedCount.Handle),
		DonorCount:          c.DonorCount,
		Active:              c.Active,
		Completed:           c.Completed,
		FinalAmountRevealed: c.FinalAmountRevealed,
		Milestones:          c.Milestones,
		CreatedAt:           c.CreatedAt,
	}
}

func toResponseList(cs []*campaign.Campaign) []campaignResponse {
	out := make([]campaignResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toResponse(c))
	}
	return out
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.Create(ctx, campaign.CreateInput{
		Organizer:   caller,
		Title:       req.Title,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		Target:      req.Target,
		Duration:    time.Duration(req.DurationSeconds) * time.Second,
		Category:    category,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create campaign")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ImageRef    string `json:"image_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.service.Update(ctx, id, middleware.GetPrincipal(ctx), campaign.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		ImageRef:    req.ImageRef,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update campaign")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	if err := h.service.Complete(ctx, id, middleware.GetPrincipal(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "failed to complete campaign")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAllowDecrypt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	if err := h.service.AllowOrganizerDecrypt(ctx, id, middleware.GetPrincipal(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "failed to grant decrypt access")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	if err := h.service.RevealTotals(ctx, id, middleware.GetPrincipal(ctx)); err != nil {
		h.writeServiceError(ctx, w, err, "failed to reveal totals")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load campaign")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) handleDonorCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.campaignID(w, r)
	if !ok {
		return
	}
	n, err := h.service.DonorCount(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load donor count")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"donor_count": n})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cs, err := h.service.ListAll(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list campaigns")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponseList(cs))
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cs, err := h.service.ListActive(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list active campaigns")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponseList(cs))
}

func (h *Handler) handleListByOrganizer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organizer, err := domain.ParsePrincipal(chi.URLParam(r, "organizer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cs, err := h.service.ListByOrganizer(ctx, organizer, middleware.GetPrincipal(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list organizer campaigns")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponseList(cs))
}

func (h *Handler) campaignID(w http.ResponseWriter, r *http.Request) (domain.CampaignID, bool) {
	id, err := domain.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
