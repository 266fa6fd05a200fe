package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veilfund/internal/events"
	"veilfund/pkg/domain"
	"veilfund/pkg/testutil"
)

type EventsHandlerSuite struct {
	suite.Suite
	router *chi.Mux
	store  *events.InMemoryStore
}

func TestEventsHandlerSuite(t *testing.T) {
	suite.Run(t, new(EventsHandlerSuite))
}

func (s *EventsHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = events.NewInMemoryStore()
	s.router = chi.NewRouter()
	New(s.store, logger).Register(s.router)
}

func (s *EventsHandlerSuite) TestListByCampaign() {
	cid := domain.DeriveCampaignID("Flood relief", "alice")
	s.Require().NoError(s.store.Append(context.Background(), events.Event{
		ID:         uuid.New(),
		Type:       events.TypeCampaignCreated,
		CampaignID: cid,
	}))

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/campaigns/"+cid.String()+"/events", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.UnmarshalResponse[[]events.Event](s.T(), rr)
	s.Require().Len(*got, 1)
	s.Equal(events.TypeCampaignCreated, (*got)[0].Type)
}

func (s *EventsHandlerSuite) TestUnknownCampaignIsEmpty() {
	cid := domain.DeriveCampaignID("ghost", "nobody")
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/campaigns/"+cid.String()+"/events", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.UnmarshalResponse[[]events.Event](s.T(), rr)
	s.Empty(*got)
}
