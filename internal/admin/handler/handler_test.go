package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"veilfund/internal/admin"
	"veilfund/internal/admintoken"
	"veilfund/internal/events"
	"veilfund/internal/platform/middleware"
	"veilfund/internal/treasury"
	"veilfund/pkg/domain"
	dErrors "veilfund/pkg/domain-errors"
	"veilfund/pkg/testutil"
)

type pauseSwitch struct {
	paused bool
}

func (p *pauseSwitch) Pause(_ context.Context, _ domain.Principal) error {
	if p.paused {
		return dErrors.New(dErrors.CodeConflict, "donations already paused")
	}
	p.paused = true
	return nil
}

func (p *pauseSwitch) Resume(_ context.Context, _ domain.Principal) error {
	if !p.paused {
		return dErrors.New(dErrors.CodeConflict, "donations are not paused")
	}
	p.paused = false
	return nil
}

func (p *pauseSwitch) Paused() bool { return p.paused }

type AdminHandlerSuite struct {
	suite.Suite
	router *chi.Mux
	tokens *admintoken.JWTService
	ledger *treasury.Ledger
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.tokens = admintoken.NewJWTService("test-signing-key")
	s.ledger = treasury.New()

	svc := admin.NewService(&pauseSwitch{}, s.ledger,
		events.NewPublisher(events.WithLogger(logger)), logger)

	s.router = chi.NewRouter()
	New(svc, s.tokens, logger).Register(s.router)
}

func (s *AdminHandlerSuite) authed(method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	token, err := s.tokens.GenerateToken("owner", middleware.RoleOwner, time.Hour)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *AdminHandlerSuite) TestRequiresToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/pause", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *AdminHandlerSuite) TestRejectsNonOwnerRole() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/pause", nil)
	token, err := s.tokens.GenerateToken("intern", "operator", time.Hour)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
}

func (s *AdminHandlerSuite) TestPauseResumeCycle() {
	testutil.AssertStatus(s.T(),
		testutil.DoRequest(s.router, s.authed(http.MethodPost, "/admin/pause", nil)),
		http.StatusNoContent)

	s.Run("double pause conflicts", func() {
		rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/admin/pause", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	testutil.AssertStatus(s.T(),
		testutil.DoRequest(s.router, s.authed(http.MethodPost, "/admin/resume", nil)),
		http.StatusNoContent)
}

func (s *AdminHandlerSuite) TestEmergencyWithdraw() {
	s.Require().NoError(s.ledger.Deposit(context.Background(), 9))

	s.Run("refused while intake is open", func() {
		rr := testutil.DoRequest(s.router,
			s.authed(http.MethodPost, "/admin/emergency-withdraw", map[string]string{"to": "owner"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	testutil.AssertStatus(s.T(),
		testutil.DoRequest(s.router, s.authed(http.MethodPost, "/admin/pause", nil)),
		http.StatusNoContent)

	rr := testutil.DoRequest(s.router,
		s.authed(http.MethodPost, "/admin/emergency-withdraw", map[string]string{"to": "owner"}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.UnmarshalResponse[map[string]uint64](s.T(), rr)
	s.EqualValues(9, (*got)["amount"])
}

func (s *AdminHandlerSuite) TestStatus() {
	rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/admin/status", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	got := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(false, (*got)["paused"])
}
