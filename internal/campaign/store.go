package campaign

import (
	"context"

	"veilfund/pkg/domain"
)

// Store is the campaign registry persistence contract. Implementations return
// pkg/platform/sentinel errors; the service translates them.
type Store interface {
	// Create inserts a new campaign. Returns sentinel.ErrConflict when the
	// id already exists.
	Create(ctx context.Context, c *Campaign) error
	// Get returns a copy of the campaign or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.CampaignID) (*Campaign, error)
	// Save replaces an existing campaign or returns sentinel.ErrNotFound.
	Save(ctx context.Context, c *Campaign) error
	// RemoveFromActive drops the campaign from the active list in O(1).
	// Returns sentinel.ErrNotFound when it is not on the list.
	RemoveFromActive(ctx context.Context, id domain.CampaignID) error
	ListAll(ctx context.Context) ([]*Campaign, error)
	ListActive(ctx context.Context) ([]*Campaign, error)
	ListByOrganizer(ctx context.Context, organizer domain.Principal) ([]*Campaign, error)
}
