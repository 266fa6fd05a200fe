// Package events carries the ledger's outbound notifications for UIs and
// indexers. Events are privacy-preserving: a donation_verified event says
// whether verification succeeded, never what amount was decrypted.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"veilfund/pkg/domain"
)

// Type enumerates the outbound events.
type Type string

const (
	TypeCampaignCreated       Type = "campaign_created"
	TypeCampaignUpdated       Type = "campaign_updated"
	TypeCampaignCompleted     Type = "campaign_completed"
	TypeVerificationRequested Type = "donation_verification_requested"
	TypeDonationVerified      Type = "donation_verified"
	TypePublicDonation        Type = "public_donation"
	TypeTotalsHandlePublished Type = "totals_handle_published"
	TypeTotalsRevealed        Type = "totals_revealed"
	TypeDonationsPaused       Type = "donations_paused"
	TypeDonationsResumed      Type = "donations_resumed"
	TypeEmergencyWithdrawal   Type = "emergency_withdrawal"
)

// Event is one outbound notification.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       Type              `json:"type"`
	Timestamp  time.Time         `json:"timestamp"`
	CampaignID domain.CampaignID `json:"campaign_id,omitempty"`
	RequestID  domain.RequestID  `json:"request_id,omitempty"`
	Actor      domain.Principal  `json:"actor,omitempty"`
	// Success is set only on donation_verified events.
	Success  *bool             `json:"success,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Store persists events for the read API.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCampaign(ctx context.Context, campaignID domain.CampaignID) ([]Event, error)
}

// Sink forwards events to an external system such as Kafka.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
