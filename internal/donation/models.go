// Package donation owns the intake and verification state machine: a donation
// is Submitted, waits as PendingVerification while the oracle decrypts it, and
// ends Finalized or Refunded. A request id passes through PendingVerification
// exactly once.
package donation

import (
	"time"

	"veilfund/internal/fhe"
	"veilfund/pkg/domain"
)

// PendingDonation is a donation awaiting its oracle verification callback.
// Transferred is the plaintext amount the donor moved into escrow; the
// encrypted amount must decrypt to the same value or the donation is refunded.
type PendingDonation struct {
	RequestID   domain.RequestID
	Donor       domain.Principal
	CampaignID  domain.CampaignID
	Transferred uint64
	Encrypted   fhe.Ciphertext
	Anonymous   bool

	// Active marks the record as awaiting its callback. The callback
	// consumes the record exactly once; consumed records are deleted from
	// the pending store.
	Active bool

	CreatedAt time.Time
}

// Record is one entry in a campaign's donation history. Amounts never appear:
// the history is social proof, not accounting. Anonymous donations are stored
// with the sentinel donor principal; the real identity is suppressed before
// the record is ever written.
type Record struct {
	Donor      domain.Principal
	CampaignID domain.CampaignID
	Timestamp  time.Time
	Anonymous  bool
	// Public marks a plaintext donation that bypassed the confidential path.
	Public bool
}
