package donation

import (
	"context"
	"sync"

	"veilfund/pkg/domain"
	"veilfund/pkg/platform/sentinel"
)

// PendingMemory is the in-memory pending-donation store. Ids start at 1 so the
// zero value never names a real request.
type PendingMemory struct {
	mu     sync.Mutex
	nextID domain.RequestID
	byID   map[domain.RequestID]*PendingDonation
}

func NewPendingMemory() *PendingMemory {
	return &PendingMemory{
		nextID: 1,
		byID:   make(map[domain.RequestID]*PendingDonation),
	}
}

func (s *PendingMemory) Create(_ context.Context, p *PendingDonation) (domain.RequestID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	stored := *p
	stored.RequestID = id
	stored.Active = true
	s.byID[id] = &stored
	return id, nil
}

func (s *PendingMemory) Get(_ context.Context, id domain.RequestID) (*PendingDonation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *PendingMemory) Take(_ context.Context, id domain.RequestID) (*PendingDonation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.byID, id)
	cp := *p
	cp.Active = false
	return &cp, nil
}

// HistoryMemory is the in-memory donation history.
type HistoryMemory struct {
	mu         sync.RWMutex
	byCampaign map[domain.CampaignID][]Record
	byDonor    map[domain.Principal][]Record
}

func NewHistoryMemory() *HistoryMemory {
	return &HistoryMemory{
		byCampaign: make(map[domain.CampaignID][]Record),
		byDonor:    make(map[domain.Principal][]Record),
	}
}

func (s *HistoryMemory) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCampaign[rec.CampaignID] = append(s.byCampaign[rec.CampaignID], rec)
	s.byDonor[rec.Donor] = append(s.byDonor[rec.Donor], rec)
	return nil
}

func (s *HistoryMemory) ListRecent(_ context.Context, campaignID domain.CampaignID, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.byCampaign[campaignID], limit), nil
}

func (s *HistoryMemory) ListByDonor(_ context.Context, donor domain.Principal) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.byDonor[donor], len(s.byDonor[donor])), nil
}

// newestFirst copies up to limit entries from the tail of an append-ordered
// slice, reversed.
func newestFirst(recs []Record, limit int) []Record {
	if limit <= 0 || limit > len(recs) {
		limit = len(recs)
	}
	out := make([]Record, 0, limit)
	for i := len(recs) - 1; i >= len(recs)-limit; i-- {
		out = append(out, recs[i])
	}
	return out
}
