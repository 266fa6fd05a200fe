package campaign

import (
	"context"
	"sync"

	"veilfund/pkg/domain"
	"veilfund/pkg/platform/sentinel"
)

// InMemoryStore keeps campaigns in a map plus two index lists. The active list
// records each campaign's position so completion removes it with a
// swap-with-last instead of a scan.
type InMemoryStore struct {
	mu          sync.RWMutex
	byID        map[domain.CampaignID]*Campaign
	all         []domain.CampaignID
	active      []domain.CampaignID
	activeIdx   map[domain.CampaignID]int
	byOrganizer map[domain.Principal][]domain.CampaignID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:        make(map[domain.CampaignID]*Campaign),
		activeIdx:   make(map[domain.CampaignID]int),
		byOrganizer: make(map[domain.Principal][]domain.CampaignID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[c.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := *c
	s.byID[c.ID] = &stored
	s.all = append(s.all, c.ID)
	s.activeIdx[c.ID] = len(s.active)
	s.active = append(s.active, c.ID)
	s.byOrganizer[c.Organizer] = append(s.byOrganizer[c.Organizer], c.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.CampaignID) (*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) Save(_ context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	stored := *c
	s.byID[c.ID] = &stored
	return nil
}

func (s *InMemoryStore) RemoveFromActive(_ context.Context, id domain.CampaignID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.activeIdx[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	last := len(s.active) - 1
	moved := s.active[last]
	s.active[idx] = moved
	s.active = s.active[:last]
	if moved != id {
		s.activeIdx[moved] = idx
	}
	delete(s.activeIdx, id)
	return nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.all), nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.active), nil
}

func (s *InMemoryStore) ListByOrganizer(_ context.Context, organizer domain.Principal) ([]*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byOrganizer[organizer]), nil
}

func (s *InMemoryStore) collect(ids []domain.CampaignID) []*Campaign {
	out := make([]*Campaign, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.byID[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}
