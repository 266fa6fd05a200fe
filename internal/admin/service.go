// Package admin implements the owner escape hatches: pausing donation intake
// and draining escrow in an emergency. Every action is logged and evented;
// none of them touch encrypted state.
package admin

import (
	"context"
	"log/slog"
	"strconv"

	"veilfund/internal/events"
	"veilfund/internal/treasury"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
)

// DonationControls is the slice of the donation service the admin surface
// drives.
type DonationControls interface {
	Pause(ctx context.Context, actor domain.Principal) error
	Resume(ctx context.Context, actor domain.Principal) error
	Paused() bool
}

// Service wires the escape hatches to the donation rail and the treasury.
type Service struct {
	donations DonationControls
	treasury  *treasury.Ledger
	events    *events.Publisher
	logger    *slog.Logger
}

func NewService(donations DonationControls, ledger *treasury.Ledger, publisher *events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		donations: donations,
		treasury:  ledger,
		events:    publisher,
		logger:    logger,
	}
}

// Pause stops donation intake on both rails.
func (s *Service) Pause(ctx context.Context, actor domain.Principal) error {
	return s.donations.Pause(ctx, actor)
}

// Resume reopens donation intake.
func (s *Service) Resume(ctx context.Context, actor domain.Principal) error {
	return s.donations.Resume(ctx, actor)
}

// EmergencyWithdraw drains all escrowed value to the given principal. Intake
// must already be paused; draining a live escrow would race in-flight
// verifications.
func (s *Service) EmergencyWithdraw(ctx context.Context, actor, to domain.Principal) (uint64, error) {
	if !s.donations.Paused() {
		return 0, dErrors.New(dErrors.CodeConflict, "pause donations before withdrawing escrow")
	}
	amount, err := s.treasury.WithdrawAll(ctx, to)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeTransferFailed, "emergency withdrawal rejected")
	}

	s.events.Emit(ctx, events.Event{
		Type:  events.TypeEmergencyWithdrawal,
		Actor: actor,
		Metadata: map[string]string{
			"to":     to.String(),
			"amount": strconv.FormatUint(amount, 10),
		},
	})
	s.logger.WarnContext(ctx, "emergency withdrawal executed",
		"actor", actor.String(),
		"to", to.String(),
		"amount", amount,
	)
	return amount, nil
}

// Status reports the operational state the admin surface controls.
type Status struct {
	Paused   bool
	Escrowed uint64
}

func (s *Service) Status(ctx context.Context) Status {
	return Status{
		Paused:   s.donations.Paused(),
		Escrowed: s.treasury.Escrowed(ctx),
	}
}
