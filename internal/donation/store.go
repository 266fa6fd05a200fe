package donation

import (
	"context"

	"veilfund/pkg/domain"
)

// PendingStore holds donations between submission and verification. Request
// ids are allocated by the store and are strictly monotonic so a callback can
// never be confused between two submissions.
type PendingStore interface {
	// Create stores the pending donation and returns its fresh request id.
	Create(ctx context.Context, p *PendingDonation) (domain.RequestID, error)

	// Get returns a copy of the record without consuming it. Returns
	// sentinel.ErrNotFound for unknown ids.
	Get(ctx context.Context, id domain.RequestID) (*PendingDonation, error)

	// Take consumes a record exactly once and deletes it. Returns
	// sentinel.ErrNotFound for unknown ids and for records already consumed.
	Take(ctx context.Context, id domain.RequestID) (*PendingDonation, error)
}

// HistoryStore is the append-only donation history.
type HistoryStore interface {
	Append(ctx context.Context, rec Record) error

	// ListRecent returns up to limit entries for a campaign, most recent
	// first.
	ListRecent(ctx context.Context, campaignID domain.CampaignID, limit int) ([]Record, error)

	// ListByDonor returns every entry a donor submitted, most recent first.
	ListByDonor(ctx context.Context, donor domain.Principal) ([]Record, error)
}
