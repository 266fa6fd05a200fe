package donation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veilfund/internal/acl"
	"veilfund/internal/campaign"
	donationmetrics "veilfund/internal/donation/metrics"
	"veilfund/internal/events"
	"veilfund/internal/fhe"
	"veilfund/internal/oracle"
	"veilfund/internal/treasury"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/platform/sentinel"
)

// DefaultMaxDonation caps a single confidential donation. Small by default so
// a single mismatched decryption can never strand much value in escrow.
const DefaultMaxDonation = 10

// Service runs the donation state machine. A mutex serializes every state
// transition; an atomic flag marks the external-transfer window so a nested
// call arriving mid-transfer is rejected instead of deadlocking on the mutex.
type Service struct {
	pending   PendingStore
	history   HistoryStore
	campaigns campaign.Store
	backend   fhe.Backend
	grants    acl.Registry
	gateway   oracle.Gateway
	treasury  *treasury.Ledger
	keys      *oracle.KeySet
	events    *events.Publisher
	metrics   *donationmetrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	clock     func() time.Time

	maxDonation uint64

	mu           sync.Mutex
	transferring atomic.Bool
	paused       atomic.Bool
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *donationmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMaxDonation overrides the per-donation cap.
func WithMaxDonation(max uint64) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxDonation = max
		}
	}
}

func NewService(
	pending PendingStore,
	history HistoryStore,
	campaigns campaign.Store,
	backend fhe.Backend,
	grants acl.Registry,
	gateway oracle.Gateway,
	ledger *treasury.Ledger,
	keys *oracle.KeySet,
	publisher *events.Publisher,
	opts ...Option,
) *Service {
	s := &Service{
		pending:     pending,
		history:     history,
		campaigns:   campaigns,
		backend:     backend,
		grants:      grants,
		gateway:     gateway,
		treasury:    ledger,
		keys:        keys,
		events:      publisher,
		logger:      slog.Default(),
		tracer:      otel.Tracer("veilfund/internal/donation"),
		clock:       time.Now,
		maxDonation: DefaultMaxDonation,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DonateInput is a confidential donation submission. Transferred is the
// plaintext amount moved into escrow alongside the encrypted payload; the two
// must agree or the donation is refunded after verification.
type DonateInput struct {
	Donor       domain.Principal
	CampaignID  domain.CampaignID
	Transferred uint64
	Payload     []byte
	Proof       fhe.Proof
	Anonymous   bool
}

// Donate validates a submission, escrows the transferred value, and queues the
// encrypted amount for oracle verification. Every rejection happens before any
// state is touched. Returns the request id the verification callback will
// carry.
func (s *Service) Donate(ctx context.Context, in DonateInput) (domain.RequestID, error) {
	ctx, span := s.tracer.Start(ctx, "donation.Donate",
		trace.WithAttributes(attribute.String("campaign_id", in.CampaignID.String())))
	defer span.End()

	if err := s.enter(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.openCampaign(ctx, in.CampaignID)
	if err != nil {
		return 0, err
	}
	if in.Transferred == 0 {
		s.metrics.IncRejected("zero_amount")
		return 0, dErrors.New(dErrors.CodeBadRequest, "donation amount must be positive")
	}
	if in.Transferred > s.maxDonation {
		s.metrics.IncRejected("over_cap")
		return 0, dErrors.New(dErrors.CodeBadRequest, "donation amount exceeds cap")
	}

	ct, err := s.backend.ImportWithProof(in.Payload, in.Proof)
	if err != nil {
		if errors.Is(err, fhe.ErrInvalidProof) || errors.Is(err, fhe.ErrMalformed) {
			s.metrics.IncRejected("invalid_proof")
			return 0, dErrors.New(dErrors.CodeInvalidProof, "ciphertext proof rejected")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to import ciphertext")
	}

	if err := s.treasury.Deposit(ctx, in.Transferred); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to escrow donation")
	}

	requestID, err := s.pending.Create(ctx, &PendingDonation{
		Donor:       in.Donor,
		CampaignID:  in.CampaignID,
		Transferred: in.Transferred,
		Encrypted:   ct,
		Anonymous:   in.Anonymous,
		CreatedAt:   s.clock(),
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pending donation")
	}

	if err := s.gateway.RequestDecryption(ctx, oracle.Request{
		ID:         requestID,
		CampaignID: c.ID,
		Kind:       oracle.KindVerify,
		Ciphertext: ct,
	}); err != nil {
		// The pending record stays; an operator can reissue the request.
		s.logger.ErrorContext(ctx, "failed to queue decryption request",
			"request_id", uint64(requestID),
			"error", err.Error(),
		)
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to request verification")
	}

	span.SetAttributes(attribute.Int64("request_id", int64(requestID)))
	s.metrics.IncSubmitted()
	s.events.Emit(ctx, events.Event{
		Type:       events.TypeVerificationRequested,
		CampaignID: in.CampaignID,
		RequestID:  requestID,
	})
	s.logger.InfoContext(ctx, "donation submitted",
		"campaign_id", in.CampaignID.String(),
		"request_id", uint64(requestID),
	)
	return requestID, nil
}

// VerifyCallback is the oracle-facing entry point: the decrypted amount plus
// operator signatures for a pending request. Matching amounts finalize the
// donation; mismatches refund it. Either way the pending record is consumed
// exactly once, so replaying a callback is rejected as unknown.
func (s *Service) VerifyCallback(ctx context.Context, requestID domain.RequestID, amount uint64, sigs []oracle.Signature) error {
	ctx, span := s.tracer.Start(ctx, "donation.VerifyCallback",
		trace.WithAttributes(attribute.Int64("request_id", int64(requestID))))
	defer span.End()

	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.pending.Get(ctx, requestID)
	if err != nil || !p.Active {
		return dErrors.New(dErrors.CodeNotFound, "unknown or already processed request")
	}

	// A forged callback must leave the record untouched and retryable.
	if err := s.keys.Verify(requestID, amount, sigs); err != nil {
		s.logger.WarnContext(ctx, "verification callback with bad signatures",
			"request_id", uint64(requestID),
		)
		return err
	}

	if amount == p.Transferred {
		return s.finalize(ctx, p)
	}
	return s.refund(ctx, p)
}

// finalize folds the donation into the campaign accumulators and pays the
// escrowed value out to the organizer. The external transfer runs before any
// bookkeeping commits, so a rejected payout aborts the whole branch and the
// record stays pending for a retried callback.
func (s *Service) finalize(ctx context.Context, p *PendingDonation) error {
	c, err := s.campaigns.Get(ctx, p.CampaignID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign for finalize")
	}

	newTotal, err := s.backend.Add(c.EncryptedTotal, p.Encrypted)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fold donation into total")
	}
	one, err := s.backend.EncryptOne()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt count increment")
	}
	newCount, err := s.backend.Add(c.EncryptedCount, one)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fold count increment")
	}

	// Grants before the transfer: they are idempotent and reference handles
	// nothing reads unless the commit below lands.
	for _, h := range []fhe.Handle{newTotal.Handle, newCount.Handle} {
		if err := s.grants.Grant(ctx, h, domain.PrincipalLedger); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to self-grant on folded accumulator")
		}
	}
	if err := s.grants.Grant(ctx, p.Encrypted.Handle, p.Donor); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant donor on own ciphertext")
	}

	if err := s.release(ctx, c.Organizer, p.Transferred); err != nil {
		if errors.Is(err, treasury.ErrRejected) {
			s.metrics.IncTransferFailure()
			return dErrors.New(dErrors.CodeTransferFailed, "organizer rejected payout")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release escrow to organizer")
	}

	c.EncryptedTotal = newTotal
	c.EncryptedCount = newCount
	c.DonorCount++
	if err := s.campaigns.Save(ctx, c); err != nil {
		// Value already moved; this is the one place bookkeeping can diverge
		// from custody. Log loudly and fail the callback.
		s.logger.ErrorContext(ctx, "payout succeeded but campaign save failed",
			"request_id", uint64(p.RequestID),
			"campaign_id", p.CampaignID.String(),
			"error", err.Error(),
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit finalized donation")
	}
	if _, err := s.pending.Take(ctx, p.RequestID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume pending record")
	}
	// The real identity of an anonymous donor must never reach the history
	// store; a dump of the store cannot deanonymize what was never written.
	donor := p.Donor
	if p.Anonymous {
		donor = domain.PrincipalAnonymous
	}
	if err := s.history.Append(ctx, Record{
		Donor:      donor,
		CampaignID: p.CampaignID,
		Timestamp:  s.clock(),
		Anonymous:  p.Anonymous,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to append donation history",
			"request_id", uint64(p.RequestID),
			"error", err.Error(),
		)
	}

	s.metrics.IncVerified("finalized")
	s.emitVerified(ctx, p, true)
	s.logger.InfoContext(ctx, "donation finalized",
		"campaign_id", p.CampaignID.String(),
		"request_id", uint64(p.RequestID),
	)
	return nil
}

// refund returns escrowed value to the donor after a mismatch. A mismatch is a
// protocol outcome, not an error: the callback succeeds and the donor is made
// whole.
func (s *Service) refund(ctx context.Context, p *PendingDonation) error {
	if err := s.release(ctx, p.Donor, p.Transferred); err != nil {
		if errors.Is(err, treasury.ErrRejected) {
			s.metrics.IncTransferFailure()
			return dErrors.New(dErrors.CodeRefundFailed, "donor rejected refund")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release escrow to donor")
	}
	if _, err := s.pending.Take(ctx, p.RequestID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume pending record")
	}

	s.metrics.IncVerified("refunded")
	s.emitVerified(ctx, p, false)
	s.logger.InfoContext(ctx, "donation refunded after amount mismatch",
		"campaign_id", p.CampaignID.String(),
		"request_id", uint64(p.RequestID),
	)
	return nil
}

// DonatePublic forwards a plaintext donation straight to the organizer. It
// never touches encrypted state; the history entry is flagged Public so
// dashboards can tell the two rails apart.
func (s *Service) DonatePublic(ctx context.Context, donor domain.Principal, campaignID domain.CampaignID, amount uint64) error {
	ctx, span := s.tracer.Start(ctx, "donation.DonatePublic",
		trace.WithAttributes(attribute.String("campaign_id", campaignID.String())))
	defer span.End()

	if err := s.enter(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.openCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if amount == 0 {
		s.metrics.IncRejected("zero_amount")
		return dErrors.New(dErrors.CodeBadRequest, "donation amount must be positive")
	}
	if amount > s.maxDonation {
		s.metrics.IncRejected("over_cap")
		return dErrors.New(dErrors.CodeBadRequest, "donation amount exceeds cap")
	}

	if err := s.treasury.Deposit(ctx, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to receive donation")
	}
	if err := s.release(ctx, c.Organizer, amount); err != nil {
		// Give the value back rather than stranding it in escrow.
		if rerr := s.release(ctx, donor, amount); rerr != nil {
			s.logger.ErrorContext(ctx, "public donation stranded in escrow",
				"campaign_id", campaignID.String(),
				"error", rerr.Error(),
			)
		}
		if errors.Is(err, treasury.ErrRejected) {
			s.metrics.IncTransferFailure()
			return dErrors.New(dErrors.CodeTransferFailed, "organizer rejected donation")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to forward donation")
	}

	c.DonorCount++
	if err := s.campaigns.Save(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record public donation")
	}
	if err := s.history.Append(ctx, Record{
		Donor:      donor,
		CampaignID: campaignID,
		Timestamp:  s.clock(),
		Public:     true,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to append public donation history",
			"campaign_id", campaignID.String(),
			"error", err.Error(),
		)
	}

	s.metrics.IncPublicDonation()
	s.events.Emit(ctx, events.Event{
		Type:       events.TypePublicDonation,
		CampaignID: campaignID,
		Actor:      donor,
	})
	return nil
}

// RecentDonations returns a campaign's newest history entries. Anonymous
// entries carry the sentinel principal as stored.
func (s *Service) RecentDonations(ctx context.Context, campaignID domain.CampaignID, limit int) ([]Record, error) {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	recs, err := s.history.ListRecent(ctx, campaignID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return recs, nil
}

// DonationsBy returns a donor's own history entries. Only the donor themselves
// may read it. Anonymous donations are stored under the sentinel principal, so
// they never appear here; a donor proves an anonymous contribution through
// their decrypt grant instead.
func (s *Service) DonationsBy(ctx context.Context, donor, caller domain.Principal) ([]Record, error) {
	if caller != donor {
		return nil, dErrors.New(dErrors.CodeForbidden, "donation history is restricted to the donor")
	}
	recs, err := s.history.ListByDonor(ctx, donor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donor history")
	}
	return recs, nil
}

// Pause stops both donation rails. Owner escape hatch.
func (s *Service) Pause(ctx context.Context, actor domain.Principal) error {
	if !s.paused.CompareAndSwap(false, true) {
		return dErrors.New(dErrors.CodeConflict, "donations already paused")
	}
	s.events.Emit(ctx, events.Event{Type: events.TypeDonationsPaused, Actor: actor})
	s.logger.WarnContext(ctx, "donations paused", "actor", actor.String())
	return nil
}

// Resume reopens donation intake.
func (s *Service) Resume(ctx context.Context, actor domain.Principal) error {
	if !s.paused.CompareAndSwap(true, false) {
		return dErrors.New(dErrors.CodeConflict, "donations are not paused")
	}
	s.events.Emit(ctx, events.Event{Type: events.TypeDonationsResumed, Actor: actor})
	s.logger.WarnContext(ctx, "donations resumed", "actor", actor.String())
	return nil
}

// Paused reports whether intake is currently stopped.
func (s *Service) Paused() bool {
	return s.paused.Load()
}

// enter rejects calls that arrive while an external transfer is in flight.
// Checked before the mutex so a reentrant call fails fast instead of
// deadlocking.
func (s *Service) enter() error {
	if s.transferring.Load() {
		return dErrors.New(dErrors.CodeConflict, "call rejected during value transfer")
	}
	return nil
}

// release runs an external value transfer with the reentrancy window marked.
func (s *Service) release(ctx context.Context, to domain.Principal, amount uint64) error {
	s.transferring.Store(true)
	defer s.transferring.Store(false)
	return s.treasury.Release(ctx, to, amount)
}

// openCampaign loads a campaign and checks it accepts donations right now.
func (s *Service) openCampaign(ctx context.Context, id domain.CampaignID) (*campaign.Campaign, error) {
	if s.paused.Load() {
		return nil, dErrors.New(dErrors.CodeConflict, "donations are paused")
	}
	c, err := s.campaigns.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	if !c.Active || c.Completed || !s.clock().Before(c.Deadline) {
		s.metrics.IncRejected("campaign_closed")
		return nil, dErrors.New(dErrors.CodeConflict, "campaign is not accepting donations")
	}
	return c, nil
}

func (s *Service) emitVerified(ctx context.Context, p *PendingDonation, success bool) {
	s.events.Emit(ctx, events.Event{
		Type:       events.TypeDonationVerified,
		CampaignID: p.CampaignID,
		RequestID:  p.RequestID,
		Success:    &success,
	})
}
