// Package handler exposes donation intake, the oracle callback, and the
// history read paths over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veilfund/internal/donation"
	"veilfund/internal/fhe"
	"veilfund/internal/oracle"
	"veilfund/internal/platform/metrics"
	"veilfund/internal/platform/middleware"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/platform/httputil"
)

// Service defines the donation operations the handler depends on.
type Service interface {
	Donate(ctx context.Context, in donation.DonateInput) (domain.RequestID, error)
	DonatePublic(ctx context.Context, donor domain.Principal, campaignID domain.CampaignID, amount uint64) error
	VerifyCallback(ctx context.Context, requestID domain.RequestID, amount uint64, sigs []oracle.Signature) error
	RecentDonations(ctx context.Context, campaignID domain.CampaignID, limit int) ([]donation.Record, error)
	DonationsBy(ctx context.Context, donor, caller domain.Principal) ([]donation.Record, error)
}

// Handler handles donation endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

// New creates a new donation Handler.
func New(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: m,
	}
}

// Register registers the donation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(dr chi.Router) {
		dr.Use(middleware.Recovery(h.logger))
		dr.Use(middleware.RequestID)
		dr.Use(middleware.Logger(h.logger))
		dr.Use(middleware.Timeout(15 * time.Second))
		dr.Use(middleware.Latency(h.metrics))

		dr.Get("/campaigns/{campaignID}/donations", h.handleRecent)

		// The oracle callback authenticates with threshold signatures inside
		// the service, not with a caller principal.
		dr.With(middleware.ContentTypeJSON).Post("/oracle/verify", h.handleVerifyCallback)

		dr.Group(func(pr chi.Router) {
			pr.Use(middleware.RequirePrincipal(h.logger))
			pr.With(middleware.ContentTypeJSON).Post("/donations", h.handleDonate)
			pr.With(middleware.ContentTypeJSON).Post("/donations/public", h.handleDonatePublic)
			pr.Get("/donors/{donor}/donations", h.handleDonationsBy)
		})
	})
}

type donateRequest struct {
	CampaignID string `json:"campaign_id"`
	Amount     uint64 `json:"amount"`
	Payload    []byte `json:"payload"`
	Proof      struct {
		Salt   []byte `json:"salt"`
		Digest []byte `json:"digest"`
	} `json:"proof"`
	Anonymous bool `json:"anonymous"`
}

type donateResponse struct {
	RequestID uint64 `json:"request_id"`
	Status    string `json:"status"`
}

type verifyRequest struct {
	RequestID  uint64             `json:"request_id"`
	Amount     uint64             `json:"amount"`
	Signatures []oracle.Signature `json:"signatures"`
}

type recordResponse struct {
	Donor      string    `json:"donor"`
	CampaignID string    `json:"campaign_id"`
	Timestamp  time.Time `json:"timestamp"`
	Anonymous  bool      `json:"anonymous"`
	Public     bool      `json:"public"`
}

func toRecordResponses(recs []donation.Record) []recordResponse {
	out := make([]recordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordResponse{
			Donor:      rec.Donor.String(),
			CampaignID: rec.CampaignID.String(),
			Timestamp:  rec.Timestamp,
			Anonymous:  rec.Anonymous,
			Public:     rec.Public,
		})
	}
	return out
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor := middleware.GetPrincipal(ctx)

	var req donateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	campaignID, err := domain.ParseCampaignID(req.CampaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	requestID, err := h.service.Donate(ctx, donation.DonateInput{
		Donor:       donor,
		CampaignID:  campaignID,
		Transferred: req.Amount,
		Payload:     req.Payload,
		Proof:       fhe.Proof{Salt: req.Proof.Salt, Digest: req.Proof.Digest},
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to accept donation")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, donateResponse{
		RequestID: uint64(requestID),
		Status:    "pending_verification",
	})
}

func (h *Handler) handleDonatePublic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor := middleware.GetPrincipal(ctx)

	var req struct {
		CampaignID string `json:"campaign_id"`
		Amount     uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	campaignID, err := domain.ParseCampaignID(req.CampaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DonatePublic(ctx, donor, campaignID, req.Amount); err != nil {
		h.writeServiceError(ctx, w, err, "failed to accept public donation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerifyCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err := h.service.VerifyCallback(ctx, domain.RequestID(req.RequestID), req.Amount, req.Signatures)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidSignature) {
			h.logger.WarnContext(ctx, "oracle callback rejected",
				"request_id", req.RequestID,
			)
		}
		h.writeServiceError(ctx, w, err, "failed to process verification callback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, err := domain.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := h.service.RecentDonations(ctx, campaignID, limit)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list donations")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponses(recs))
}

func (h *Handler) handleDonationsBy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donor, err := domain.ParsePrincipal(chi.URLParam(r, "donor"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	recs, err := h.service.DonationsBy(ctx, donor, middleware.GetPrincipal(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list donor history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponses(recs))
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
