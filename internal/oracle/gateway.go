// Package oracle owns the boundary to the decryption oracle: the request
// types the ledger submits and the signature discipline its callbacks must
// satisfy. The oracle itself is an external collaborator; an in-process
// implementation exists for dev and tests.
package oracle

import (
	"context"

	"veilfund/internal/fhe"
	"veilfund/pkg/domain"
)

// Kind distinguishes the two decryption channels.
type Kind string

const (
	// KindVerify asks for a private decryption that feeds the donation
	// verification callback.
	KindVerify Kind = "verify"
	// KindRevealTotal and KindRevealCount ask for public decryption of a
	// campaign accumulator after an organizer-triggered reveal.
	KindRevealTotal Kind = "reveal_total"
	KindRevealCount Kind = "reveal_count"
)

// Request tags a ciphertext for asynchronous decryption.
type Request struct {
	// ID correlates verify requests with their callback. Unused for reveals.
	ID domain.RequestID
	// CampaignID identifies the campaign on reveal requests.
	CampaignID domain.CampaignID
	Kind       Kind
	Ciphertext fhe.Ciphertext
}

// Gateway is the ledger's outbound interface to the oracle. RequestDecryption
// returns once the request is queued; results arrive out-of-band.
type Gateway interface {
	RequestDecryption(ctx context.Context, req Request) error
}

// VerifyFunc receives private decryption results. It is the oracle-facing
// entry point of the donation verification state machine.
type VerifyFunc func(ctx context.Context, requestID domain.RequestID, amount uint64, sigs []Signature) error

// PublishFunc receives public decryption results for revealed campaign
// accumulators.
type PublishFunc func(ctx context.Context, campaignID domain.CampaignID, kind Kind, amount uint64) error
