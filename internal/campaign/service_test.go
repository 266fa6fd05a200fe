package campaign

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veilfund/internal/acl"
	"veilfund/internal/events"
	"veilfund/internal/fhe"
	"veilfund/internal/oracle"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
)

type stubGateway struct {
	mu   sync.Mutex
	reqs []oracle.Request
}

func (g *stubGateway) RequestDecryption(_ context.Context, req oracle.Request) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	return nil
}

func (g *stubGateway) requests() []oracle.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]oracle.Request{}, g.reqs...)
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	grants  *acl.InMemory
	gateway *stubGateway
	svc     *Service
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.grants = acl.NewInMemory()
	s.gateway = &stubGateway{}
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	backend, err := fhe.NewRandomBackend()
	s.Require().NoError(err)

	s.svc = NewService(s.store, backend, s.grants, s.gateway,
		events.NewPublisher(events.WithLogger(discardLogger())),
		WithLogger(discardLogger()),
		WithClock(func() time.Time { return s.now }),
		WithAuditor("auditor"),
	)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ServiceSuite) create(title string, organizer domain.Principal) *Campaign {
	c, err := s.svc.Create(s.ctx, CreateInput{
		Organizer: organizer,
		Title:     title,
		Target:    10,
		Duration:  7 * 24 * time.Hour,
		Category:  domain.CategoryMedical,
	})
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) TestCreate() {
	c := s.create("Flood relief", "alice")

	s.Run("derives a stable content id", func() {
		s.Equal(domain.DeriveCampaignID("Flood relief", "alice"), c.ID)
	})

	s.Run("sets deadline and milestones", func() {
		s.Equal(s.now.Add(7*24*time.Hour), c.Deadline)
		s.Equal([4]uint64{2, 5, 7, 10}, c.Milestones)
	})

	s.Run("starts active with zero donors", func() {
		s.True(c.Active)
		s.False(c.Completed)
		s.Zero(c.DonorCount)
	})

	s.Run("self-grants on both accumulators", func() {
		for _, h := range []fhe.Handle{c.EncryptedTotal.Handle, c.EncryptedCount.Handle} {
			ok, err := s.grants.Allowed(s.ctx, h, domain.PrincipalLedger)
			s.Require().NoError(err)
			s.True(ok)
		}
	})

	s.Run("appears once on each list", func() {
		all, err := s.svc.ListAll(s.ctx)
		s.Require().NoError(err)
		active, err := s.svc.ListActive(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
		s.Len(active, 1)
	})
}

func (s *ServiceSuite) TestCreateValidation() {
	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty title", CreateInput{Organizer: "alice", Title: "  ", Target: 10, Duration: time.Hour, Category: domain.CategoryOther}},
		{"zero target", CreateInput{Organizer: "alice", Title: "T", Target: 0, Duration: time.Hour, Category: domain.CategoryOther}},
		{"zero duration", CreateInput{Organizer: "alice", Title: "T", Target: 10, Duration: 0, Category: domain.CategoryOther}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Create(s.ctx, tc.in)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func (s *ServiceSuite) TestCreateDuplicate() {
	s.create("Flood relief", "alice")
	_, err := s.svc.Create(s.ctx, CreateInput{
		Organizer: "alice",
		Title:     "Flood relief",
		Target:    20,
		Duration:  time.Hour,
		Category:  domain.CategoryOther,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestUpdate() {
	c := s.create("Flood relief", "alice")

	s.Run("organizer can edit presentation fields", func() {
		got, err := s.svc.Update(s.ctx, c.ID, "alice", UpdateInput{Title: "Flood relief 2026", Description: "updated"})
		s.Require().NoError(err)
		s.Equal("Flood relief 2026", got.Title)
		s.Equal(c.ID, got.ID) // id never changes after creation
	})

	s.Run("non-organizer is rejected", func() {
		_, err := s.svc.Update(s.ctx, c.ID, "mallory", UpdateInput{Title: "Hijack"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown campaign", func() {
		_, err := s.svc.Update(s.ctx, domain.DeriveCampaignID("nope", "x"), "alice", UpdateInput{Title: "T"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("completed campaign is rejected", func() {
		s.Require().NoError(s.svc.Complete(s.ctx, c.ID, "alice"))
		_, err := s.svc.Update(s.ctx, c.ID, "alice", UpdateInput{Title: "Too late"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestComplete() {
	c1 := s.create("One", "alice")
	c2 := s.create("Two", "alice")

	s.Require().NoError(s.svc.Complete(s.ctx, c1.ID, "alice"))

	s.Run("flags flip irreversibly", func() {
		got, err := s.svc.Get(s.ctx, c1.ID)
		s.Require().NoError(err)
		s.False(got.Active)
		s.True(got.Completed)
	})

	s.Run("active list shrinks by exactly one", func() {
		active, err := s.svc.ListActive(s.ctx)
		s.Require().NoError(err)
		s.Len(active, 1)
		s.Equal(c2.ID, active[0].ID)
	})

	s.Run("completing twice fails without side effects", func() {
		err := s.svc.Complete(s.ctx, c1.ID, "alice")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		active, lerr := s.svc.ListActive(s.ctx)
		s.Require().NoError(lerr)
		s.Len(active, 1)
	})

	s.Run("only the organizer may complete", func() {
		err := s.svc.Complete(s.ctx, c2.ID, "mallory")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestIsOpenForDonations() {
	c := s.create("Flood relief", "alice")
	s.True(s.svc.IsOpenForDonations(c))

	s.Run("deadline passing closes intake without a sweep", func() {
		s.now = c.Deadline.Add(time.Second)
		got, err := s.svc.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(got.Active) // flag untouched
		s.False(s.svc.IsOpenForDonations(got))
	})
}

func (s *ServiceSuite) TestAllowOrganizerDecrypt() {
	c := s.create("Flood relief", "alice")

	s.Run("non-organizer is rejected", func() {
		err := s.svc.AllowOrganizerDecrypt(s.ctx, c.ID, "mallory")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		ok, _ := s.grants.Allowed(s.ctx, c.EncryptedTotal.Handle, domain.Principal("mallory"))
		s.False(ok)
	})

	s.Run("organizer gains decrypt rights over both accumulators", func() {
		s.Require().NoError(s.svc.AllowOrganizerDecrypt(s.ctx, c.ID, "alice"))
		for _, h := range []fhe.Handle{c.EncryptedTotal.Handle, c.EncryptedCount.Handle} {
			ok, err := s.grants.Allowed(s.ctx, h, domain.Principal("alice"))
			s.Require().NoError(err)
			s.True(ok)
		}
	})

	s.Run("granting twice is a no-op", func() {
		s.Require().NoError(s.svc.AllowOrganizerDecrypt(s.ctx, c.ID, "alice"))
	})
}

func (s *ServiceSuite) TestRevealTotals() {
	c := s.create("Flood relief", "alice")

	s.Run("active campaign cannot be revealed", func() {
		err := s.svc.RevealTotals(s.ctx, c.ID, "alice")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Require().NoError(s.svc.Complete(s.ctx, c.ID, "alice"))

	s.Run("non-organizer is rejected", func() {
		err := s.svc.RevealTotals(s.ctx, c.ID, "mallory")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("reveal queues both public decryptions and flips the flag", func() {
		s.Require().NoError(s.svc.RevealTotals(s.ctx, c.ID, "alice"))

		reqs := s.gateway.requests()
		s.Require().Len(reqs, 2)
		kinds := map[oracle.Kind]bool{reqs[0].Kind: true, reqs[1].Kind: true}
		s.True(kinds[oracle.KindRevealTotal])
		s.True(kinds[oracle.KindRevealCount])

		got, err := s.svc.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(got.FinalAmountRevealed)
	})

	s.Run("revealing twice fails", func() {
		err := s.svc.RevealTotals(s.ctx, c.ID, "alice")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestListByOrganizerRestriction() {
	s.create("One", "alice")
	s.create("Two", "bob")

	s.Run("organizer reads own index", func() {
		got, err := s.svc.ListByOrganizer(s.ctx, "alice", "alice")
		s.Require().NoError(err)
		s.Len(got, 1)
	})

	s.Run("auditor reads any index", func() {
		got, err := s.svc.ListByOrganizer(s.ctx, "alice", "auditor")
		s.Require().NoError(err)
		s.Len(got, 1)
	})

	s.Run("stranger is rejected", func() {
		_, err := s.svc.ListByOrganizer(s.ctx, "alice", "bob")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
