package donation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veilfund/pkg/domain"
	"veilfund/pkg/platform/sentinel"
)

type PendingMemorySuite struct {
	suite.Suite
	store *PendingMemory
	ctx   context.Context
}

func TestPendingMemorySuite(t *testing.T) {
	suite.Run(t, new(PendingMemorySuite))
}

func (s *PendingMemorySuite) SetupTest() {
	s.store = NewPendingMemory()
	s.ctx = context.Background()
}

func (s *PendingMemorySuite) TestCreateAllocatesMonotonicIDs() {
	first, err := s.store.Create(s.ctx, &PendingDonation{Donor: "dana", Transferred: 3})
	s.Require().NoError(err)
	second, err := s.store.Create(s.ctx, &PendingDonation{Donor: "dana", Transferred: 4})
	s.Require().NoError(err)

	s.Equal(domain.RequestID(1), first)
	s.Equal(domain.RequestID(2), second)
}

func (s *PendingMemorySuite) TestGetPeeksWithoutConsuming() {
	id, err := s.store.Create(s.ctx, &PendingDonation{Donor: "dana", Transferred: 3})
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		p, err := s.store.Get(s.ctx, id)
		s.Require().NoError(err)
		s.True(p.Active)
		s.Equal(uint64(3), p.Transferred)
	}
}

func (s *PendingMemorySuite) TestTakeConsumesExactlyOnce() {
	id, err := s.store.Create(s.ctx, &PendingDonation{Donor: "dana", Transferred: 3})
	s.Require().NoError(err)

	p, err := s.store.Take(s.ctx, id)
	s.Require().NoError(err)
	s.False(p.Active)

	_, err = s.store.Take(s.ctx, id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("consumed record is deleted, not archived", func() {
		_, err := s.store.Get(s.ctx, id)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("consumed id is never reissued", func() {
		next, err := s.store.Create(s.ctx, &PendingDonation{Donor: "erin", Transferred: 1})
		s.Require().NoError(err)
		s.Greater(uint64(next), uint64(id))
	})
}

func (s *PendingMemorySuite) TestUnknownID() {
	_, err := s.store.Get(s.ctx, 99)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Take(s.ctx, 99)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

type HistoryMemorySuite struct {
	suite.Suite
	store *HistoryMemory
	ctx   context.Context
}

func TestHistoryMemorySuite(t *testing.T) {
	suite.Run(t, new(HistoryMemorySuite))
}

func (s *HistoryMemorySuite) SetupTest() {
	s.store = NewHistoryMemory()
	s.ctx = context.Background()
}

func (s *HistoryMemorySuite) TestListRecentNewestFirst() {
	cid := domain.DeriveCampaignID("Flood relief", "alice")
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, donor := range []domain.Principal{"a", "b", "c"} {
		s.Require().NoError(s.store.Append(s.ctx, Record{
			Donor:      donor,
			CampaignID: cid,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	s.Run("limit below length", func() {
		got, err := s.store.ListRecent(s.ctx, cid, 2)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(domain.Principal("c"), got[0].Donor)
		s.Equal(domain.Principal("b"), got[1].Donor)
	})

	s.Run("limit above length returns everything", func() {
		got, err := s.store.ListRecent(s.ctx, cid, 10)
		s.Require().NoError(err)
		s.Len(got, 3)
	})

	s.Run("unknown campaign is empty", func() {
		got, err := s.store.ListRecent(s.ctx, domain.DeriveCampaignID("ghost", "x"), 5)
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *HistoryMemorySuite) TestListByDonor() {
	cid := domain.DeriveCampaignID("Flood relief", "alice")
	other := domain.DeriveCampaignID("Reforestation", "bob")
	s.Require().NoError(s.store.Append(s.ctx, Record{Donor: "dana", CampaignID: cid}))
	s.Require().NoError(s.store.Append(s.ctx, Record{Donor: "dana", CampaignID: other}))
	s.Require().NoError(s.store.Append(s.ctx, Record{Donor: "erin", CampaignID: cid}))

	got, err := s.store.ListByDonor(s.ctx, "dana")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(other, got[0].CampaignID)
}
