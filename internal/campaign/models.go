// Package campaign owns the campaign registry: lifecycle, indexed lists, and
// the encrypted accumulators every verified donation folds into.
package campaign

import (
	"time"

	"veilfund/internal/fhe"
	"veilfund/pkg/domain"
)

// Campaign is one fundraising campaign. Amounts donated stay encrypted; the
// only plaintext counters are the public target and the donor count, which
// carries no amount information.
type Campaign struct {
	ID          domain.CampaignID
	Organizer   domain.Principal
	Title       string
	Description string
	ImageRef    string
	Target      uint64
	Deadline    time.Time
	Category    domain.Category

	// EncryptedTotal and EncryptedCount are replaced wholesale on every
	// verified donation; their handles change with each fold.
	EncryptedTotal fhe.Ciphertext
	EncryptedCount fhe.Ciphertext

	// DonorCount is pure social proof, incremented on every accepted
	// donation regardless of anonymity.
	DonorCount uint64

	Active              bool
	Completed           bool
	FinalAmountRevealed bool

	// Milestones holds the 25/50/75/100% thresholds of Target, computed at
	// creation for display. Nothing gates on them.
	Milestones [4]uint64

	CreatedAt time.Time
}

// computeMilestones derives the display thresholds from the target.
func computeMilestones(target uint64) [4]uint64 {
	return [4]uint64{
		target * 25 / 100,
		target * 50 / 100,
		target * 75 / 100,
		target,
	}
}
