package campaign

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"veilfund/internal/acl"
	campaignmetrics "veilfund/internal/campaign/metrics"
	"veilfund/internal/events"
	"veilfund/internal/fhe"
	"veilfund/internal/oracle"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/platform/sentinel"
)

// Clock is injected for deadline checks so tests control time.
type Clock func() time.Time

// Service owns campaign lifecycle and the read paths over the registry.
type Service struct {
	store   Store
	backend fhe.Backend
	grants  acl.Registry
	gateway oracle.Gateway
	events  *events.Publisher
	metrics *campaignmetrics.Metrics
	logger  *slog.Logger
	clock   Clock
	// auditor may read any organizer's campaign index.
	auditor domain.Principal
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *campaignmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithAuditor(p domain.Principal) Option {
	return func(s *Service) { s.auditor = p }
}

func NewService(store Store, backend fhe.Backend, grants acl.Registry, gateway oracle.Gateway, publisher *events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		backend: backend,
		grants:  grants,
		gateway: gateway,
		events:  publisher,
		logger:  slog.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries everything needed to open a campaign.
type CreateInput struct {
	Organizer   domain.Principal
	Title       string
	Description string
	ImageRef    string
	Target      uint64
	Duration    time.Duration
	Category    domain.Category
}

// Create validates input, initializes encrypted accumulators to zero, and
// registers the campaign on both index lists. The id is content-derived, so
// the same organizer reusing a title is a conflict, not a new campaign.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Campaign, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title must not be empty")
	}
	if in.Target == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "target amount must be positive")
	}
	if in.Duration <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "duration must be positive")
	}

	encTotal, err := s.backend.EncryptZero()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize encrypted total")
	}
	encCount, err := s.backend.EncryptZero()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize encrypted count")
	}

	now := s.clock()
	c := &Campaign{
		ID:             domain.DeriveCampaignID(in.Title, in.Organizer),
		Organizer:      in.Organizer,
		Title:          in.Title,
		Description:    in.Description,
		ImageRef:       in.ImageRef,
		Target:         in.Target,
		Deadline:       now.Add(in.Duration),
		Category:       in.Category,
		EncryptedTotal: encTotal,
		EncryptedCount: encCount,
		Active:         true,
		Milestones:     computeMilestones(in.Target),
		CreatedAt:      now,
	}

	// The ledger grants itself decrypt rights so it can keep folding
	// donations into the accumulators.
	if err := s.grants.Grant(ctx, encTotal.Handle, domain.PrincipalLedger); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to self-grant on total")
	}
	if err := s.grants.Grant(ctx, encCount.Handle, domain.PrincipalLedger); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to self-grant on count")
	}

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "campaign with this title already exists for organizer")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
	}

	s.metrics.IncCreated(string(in.Category))
	s.events.Emit(ctx, events.Event{
		Type:       events.TypeCampaignCreated,
		CampaignID: c.ID,
		Actor:      in.Organizer,
		Metadata:   map[string]string{"category": string(in.Category)},
	})
	s.logger.InfoContext(ctx, "campaign created",
		"campaign_id", c.ID.String(),
		"category", string(in.Category),
	)
	return c, nil
}

// UpdateInput carries the organizer-editable presentation fields.
type UpdateInput struct {
	Title       string
	Description string
	ImageRef    string
}

// Update edits presentation fields while the campaign is active. The title
// feeds the content-derived id, so it is validated but the id never changes
// after creation.
func (s *Service) Update(ctx context.Context, id domain.CampaignID, caller domain.Principal, in UpdateInput) (*Campaign, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title must not be empty")
	}
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Organizer != caller {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the organizer may update a campaign")
	}
	if !c.Active {
		return nil, dErrors.New(dErrors.CodeConflict, "campaign is not active")
	}

	c.Title = in.Title
	c.Description = in.Description
	c.ImageRef = in.ImageRef
	if err := s.store.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
	}

	s.events.Emit(ctx, events.Event{
		Type:       events.TypeCampaignUpdated,
		CampaignID: c.ID,
		Actor:      caller,
	})
	return c, nil
}

// Complete irreversibly closes a campaign and removes it from the active list.
func (s *Service) Complete(ctx context.Context, id domain.CampaignID, caller domain.Principal) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if c.Organizer != caller {
		return dErrors.New(dErrors.CodeForbidden, "only the organizer may complete a campaign")
	}
	if c.Completed {
		return dErrors.New(dErrors.CodeConflict, "campaign already completed")
	}

	c.Active = false
	c.Completed = true
	if err := s.store.Save(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
	}
	if err := s.store.RemoveFromActive(ctx, id); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove campaign from active list")
	}

	s.metrics.IncCompleted()
	s.events.Emit(ctx, events.Event{
		Type:       events.TypeCampaignCompleted,
		CampaignID: id,
		Actor:      caller,
	})
	s.logger.InfoContext(ctx, "campaign completed", "campaign_id", id.String())
	return nil
}

// AllowOrganizerDecrypt grants the organizer decrypt rights over both
// accumulators. The self-grant is re-asserted defensively so a migrated
// registry cannot strand the ledger without rights to its own state.
func (s *Service) AllowOrganizerDecrypt(ctx context.Context, id domain.CampaignID, caller domain.Principal) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if c.Organizer != caller {
		return dErrors.New(dErrors.CodeForbidden, "only the organizer may request decrypt access")
	}

	for _, h := range []fhe.Handle{c.EncryptedTotal.Handle, c.EncryptedCount.Handle} {
		if err := s.grants.Grant(ctx, h, domain.PrincipalLedger); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-assert self grant")
		}
		if err := s.grants.Grant(ctx, h, c.Organizer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant organizer")
		}
	}
	return nil
}

// RevealTotals requests public decryption of both accumulators. The plaintexts
// arrive later on the oracle's public channel; this call only flips the
// revealed flag and queues the requests.
func (s *Service) RevealTotals(ctx context.Context, id domain.CampaignID, caller domain.Principal) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if c.Organizer != caller {
		return dErrors.New(dErrors.CodeForbidden, "only the organizer may reveal totals")
	}
	if c.Active {
		return dErrors.New(dErrors.CodeConflict, "campaign still active")
	}
	if c.FinalAmountRevealed {
		return dErrors.New(dErrors.CodeConflict, "totals already revealed")
	}

	if err := s.gateway.RequestDecryption(ctx, oracle.Request{
		CampaignID: id,
		Kind:       oracle.KindRevealTotal,
		Ciphertext: c.EncryptedTotal,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to request total decryption")
	}
	if err := s.gateway.RequestDecryption(ctx, oracle.Request{
		CampaignID: id,
		Kind:       oracle.KindRevealCount,
		Ciphertext: c.EncryptedCount,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to request count decryption")
	}

	c.FinalAmountRevealed = true
	if err := s.store.Save(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save campaign")
	}

	s.metrics.IncRevealed()
	s.events.Emit(ctx, events.Event{
		Type:       events.TypeTotalsHandlePublished,
		CampaignID: id,
		Actor:      caller,
	})
	return nil
}

// Get returns a campaign by id.
func (s *Service) Get(ctx context.Context, id domain.CampaignID) (*Campaign, error) {
	return s.get(ctx, id)
}

// IsOpenForDonations reports whether a campaign accepts donations right now.
// Deadline passing is checked here, at donation time, not by a background
// sweep.
func (s *Service) IsOpenForDonations(c *Campaign) bool {
	return c.Active && !c.Completed && s.clock().Before(c.Deadline)
}

// ListAll returns every campaign ever created.
func (s *Service) ListAll(ctx context.Context) ([]*Campaign, error) {
	cs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return cs, nil
}

// ListActive returns campaigns still flagged active.
func (s *Service) ListActive(ctx context.Context) ([]*Campaign, error) {
	cs, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active campaigns")
	}
	return cs, nil
}

// ListByOrganizer returns an organizer's campaigns. The organizer index is
// restricted: only the organizer themselves or the configured auditor may
// read it.
func (s *Service) ListByOrganizer(ctx context.Context, organizer, caller domain.Principal) ([]*Campaign, error) {
	if caller != organizer && (s.auditor.IsNil() || caller != s.auditor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "organizer index is restricted")
	}
	cs, err := s.store.ListByOrganizer(ctx, organizer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizer campaigns")
	}
	return cs, nil
}

// DonorCount returns the public social-proof counter.
func (s *Service) DonorCount(ctx context.Context, id domain.CampaignID) (uint64, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.DonorCount, nil
}

func (s *Service) get(ctx context.Context, id domain.CampaignID) (*Campaign, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	return c, nil
}
