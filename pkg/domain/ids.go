// Package domain holds typed identifiers and closed enums shared across the
// ledger. Parsing enforces validity at trust boundaries so services never see
// malformed ids.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "veilfund/pkg/domain-errors"
)

// Principal identifies an actor: a donor, a campaign organizer, or the ledger
// itself. Principals are opaque wallet-style addresses; authentication of the
// binding between a request and its principal belongs to the wallet layer.
type Principal string

// PrincipalLedger is the implicit self-principal. The ledger always holds
// decrypt rights over its own accumulators so it can keep computing.
const PrincipalLedger Principal = "ledger"

// PrincipalAnonymous is the sentinel substituted for donors who asked not to
// appear in donation history.
const PrincipalAnonymous Principal = "anonymous"

// ParsePrincipal validates a principal string.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "principal must not be empty")
	}
	return Principal(s), nil
}

func (p Principal) String() string { return string(p) }

// IsNil returns true when the principal is empty.
func (p Principal) IsNil() bool { return p == "" }

// CampaignID is content-derived from title and organizer, so resubmitting the
// same campaign is a detectable collision rather than a silent duplicate.
type CampaignID string

// DeriveCampaignID computes the id for a campaign from its title and organizer.
func DeriveCampaignID(title string, organizer Principal) CampaignID {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(organizer))
	return CampaignID(hex.EncodeToString(h.Sum(nil)))
}

// ParseCampaignID validates a campaign id string.
func ParseCampaignID(s string) (CampaignID, error) {
	if len(s) != sha256.Size*2 {
		return "", dErrors.New(dErrors.CodeBadRequest, "campaign id must be a 64-character hex digest")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "campaign id must be hex")
	}
	return CampaignID(s), nil
}

func (c CampaignID) String() string { return string(c) }

// IsNil returns true when the campaign id is empty.
func (c CampaignID) IsNil() bool { return c == "" }

// RequestID correlates a donation submission with its oracle verification
// callback. Ids are allocated monotonically by the pending-donation store.
type RequestID uint64
