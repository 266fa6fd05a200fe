package events

import (
	"context"
	"sync"

	"veilfund/pkg/domain"
)

// InMemoryStore keeps events in an append-only slice per campaign.
type InMemoryStore struct {
	mu       sync.RWMutex
	all      []Event
	byTarget map[domain.CampaignID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byTarget: make(map[domain.CampaignID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, event)
	if !event.CampaignID.IsNil() {
		s.byTarget[event.CampaignID] = append(s.byTarget[event.CampaignID], event)
	}
	return nil
}

func (s *InMemoryStore) ListByCampaign(_ context.Context, campaignID domain.CampaignID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.byTarget[campaignID]...), nil
}
