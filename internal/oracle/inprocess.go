package oracle

import (
	"context"
	"log/slog"

	"veilfund/internal/fhe"
)

// InProcess is a single-node oracle gateway: a channel-fed worker that
// decrypts requests with the local backend, signs the result, and invokes the
// registered callbacks. It exists so the full protocol runs in dev and tests;
// a production deployment points the same interfaces at an external oracle
// network.
type InProcess struct {
	backend fhe.Backend
	signer  *Signer
	inbox   chan Request
	logger  *slog.Logger

	onVerify  VerifyFunc
	onPublish PublishFunc
}

// Option configures the in-process gateway.
type Option func(*InProcess)

func WithLogger(logger *slog.Logger) Option {
	return func(g *InProcess) {
		g.logger = logger
	}
}

func WithInboxSize(n int) Option {
	return func(g *InProcess) {
		if n > 0 {
			g.inbox = make(chan Request, n)
		}
	}
}

func NewInProcess(backend fhe.Backend, signer *Signer, opts ...Option) *InProcess {
	g := &InProcess{
		backend: backend,
		signer:  signer,
		inbox:   make(chan Request, 64),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OnVerify registers the private-decryption callback. Set once during wiring,
// before Run starts.
func (g *InProcess) OnVerify(fn VerifyFunc) { g.onVerify = fn }

// OnPublish registers the public-decryption callback.
func (g *InProcess) OnPublish(fn PublishFunc) { g.onPublish = fn }

// RequestDecryption queues a request. Blocks only when the inbox is full.
func (g *InProcess) RequestDecryption(ctx context.Context, req Request) error {
	select {
	case g.inbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes requests until the context is cancelled. Callback errors are
// logged, not returned: a failed delivery leaves the pending record in place
// for retry or investigation, matching the protocol's escrow semantics.
func (g *InProcess) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-g.inbox:
			g.handle(ctx, req)
		}
	}
}

func (g *InProcess) handle(ctx context.Context, req Request) {
	amount, err := g.backend.Decrypt(req.Ciphertext)
	if err != nil {
		g.logger.ErrorContext(ctx, "oracle decryption failed",
			"request_id", uint64(req.ID),
			"kind", string(req.Kind),
			"error", err,
		)
		return
	}

	switch req.Kind {
	case KindVerify:
		if g.onVerify == nil {
			g.logger.WarnContext(ctx, "verify result dropped, no callback registered",
				"request_id", uint64(req.ID))
			return
		}
		sigs := g.signer.Sign(req.ID, amount)
		if err := g.onVerify(ctx, req.ID, amount, sigs); err != nil {
			g.logger.ErrorContext(ctx, "verify callback failed",
				"request_id", uint64(req.ID),
				"error", err,
			)
		}
	case KindRevealTotal, KindRevealCount:
		if g.onPublish == nil {
			g.logger.WarnContext(ctx, "reveal result dropped, no callback registered",
				"campaign_id", req.CampaignID.String())
			return
		}
		if err := g.onPublish(ctx, req.CampaignID, req.Kind, amount); err != nil {
			g.logger.ErrorContext(ctx, "publish callback failed",
				"campaign_id", req.CampaignID.String(),
				"error", err,
			)
		}
	default:
		g.logger.WarnContext(ctx, "unknown oracle request kind", "kind", string(req.Kind))
	}
}
