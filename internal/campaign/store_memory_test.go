package campaign

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veilfund/pkg/domain"
	"veilfund/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newCampaign(title string, organizer domain.Principal) *Campaign {
	return &Campaign{
		ID:        domain.DeriveCampaignID(title, organizer),
		Organizer: organizer,
		Title:     title,
		Target:    10,
		Deadline:  time.Now().Add(time.Hour),
		Category:  domain.CategoryMedical,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func (s *InMemoryStoreSuite) TestCreateAndGet() {
	c := s.newCampaign("Flood relief", "alice")
	s.Require().NoError(s.store.Create(s.ctx, c))

	got, err := s.store.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Title, got.Title)

	s.Run("appears exactly once on both lists", func() {
		all, err := s.store.ListAll(s.ctx)
		s.Require().NoError(err)
		active, err := s.store.ListActive(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
		s.Len(active, 1)
		s.Equal(c.ID, all[0].ID)
		s.Equal(c.ID, active[0].ID)
	})

	s.Run("get returns a copy", func() {
		got.Title = "mutated"
		again, err := s.store.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("Flood relief", again.Title)
	})
}

func (s *InMemoryStoreSuite) TestCreateDuplicate() {
	c := s.newCampaign("Flood relief", "alice")
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(s.ctx, domain.DeriveCampaignID("nope", "nobody"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestSaveUnknown() {
	c := s.newCampaign("Flood relief", "alice")
	s.Require().ErrorIs(s.store.Save(s.ctx, c), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRemoveFromActive() {
	var ids []domain.CampaignID
	for i := 0; i < 5; i++ {
		c := s.newCampaign(fmt.Sprintf("Campaign %d", i), "alice")
		s.Require().NoError(s.store.Create(s.ctx, c))
		ids = append(ids, c.ID)
	}

	s.Require().NoError(s.store.RemoveFromActive(s.ctx, ids[1]))

	s.Run("active list shrinks by one", func() {
		active, err := s.store.ListActive(s.ctx)
		s.Require().NoError(err)
		s.Len(active, 4)
		for _, c := range active {
			s.NotEqual(ids[1], c.ID)
		}
	})

	s.Run("every remaining index points at its own entry", func() {
		for id, idx := range s.store.activeIdx {
			s.Equal(id, s.store.active[idx])
		}
	})

	s.Run("all list is untouched", func() {
		all, err := s.store.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 5)
	})

	s.Run("second removal reports not found", func() {
		s.Require().ErrorIs(s.store.RemoveFromActive(s.ctx, ids[1]), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestRemoveLastActiveEntry() {
	c := s.newCampaign("Only one", "alice")
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().NoError(s.store.RemoveFromActive(s.ctx, c.ID))

	active, err := s.store.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Empty(active)
	s.Empty(s.store.activeIdx)
}

func (s *InMemoryStoreSuite) TestListByOrganizer() {
	a := s.newCampaign("One", "alice")
	b := s.newCampaign("Two", "alice")
	c := s.newCampaign("Three", "bob")
	for _, cc := range []*Campaign{a, b, c} {
		s.Require().NoError(s.store.Create(s.ctx, cc))
	}

	got, err := s.store.ListByOrganizer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.store.ListByOrganizer(s.ctx, "carol")
	s.Require().NoError(err)
	s.Empty(got)
}
