// Command server runs the confidential donation ledger: campaign registry,
// donation state machine, in-process decryption oracle, event pipeline, and
// the admin controls, all behind one HTTP listener.
package main

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"veilfund/internal/acl"
	"veilfund/internal/admin"
	adminhandler "veilfund/internal/admin/handler"
	"veilfund/internal/admintoken"
	"veilfund/internal/campaign"
	campaignhandler "veilfund/internal/campaign/handler"
	campaignmetrics "veilfund/internal/campaign/metrics"
	"veilfund/internal/donation"
	donationhandler "veilfund/internal/donation/handler"
	donationmetrics "veilfund/internal/donation/metrics"
	"veilfund/internal/events"
	eventshandler "veilfund/internal/events/handler"
	"veilfund/internal/fhe"
	"veilfund/internal/oracle"
	"veilfund/internal/platform/config"
	"veilfund/internal/platform/httpserver"
	"veilfund/internal/platform/logger"
	"veilfund/internal/platform/metrics"
	redisplatform "veilfund/internal/platform/redis"
	httptransport "veilfund/internal/transport/http"
	"veilfund/internal/treasury"
	"veilfund/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var grants acl.Registry
	if redisClient != nil {
		grants = acl.NewRedis(redisClient.Client)
		log.Info("acl registry backed by redis")
	} else {
		grants = acl.NewInMemory()
	}

	history, closeHistory, err := newHistoryStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	// Event pipeline: fail-open publisher feeding a worker that persists to
	// the local store and forwards to Kafka when brokers are configured.
	publisher := events.NewPublisher(events.WithLogger(log))
	eventStore := events.NewInMemoryStore()
	sink, err := events.NewKafkaSink(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if sink != nil {
		defer sink.Close()
		log.Info("event sink connected", "topic", cfg.Kafka.Topic)
	}
	worker := events.NewWorker(eventStore, sink, publisher.Inbox(), log)

	signer, keys, err := newOracleKeys(cfg, log)
	if err != nil {
		return err
	}
	gateway := oracle.NewInProcess(backend, signer, oracle.WithLogger(log))

	ledger := treasury.New()
	appMetrics := metrics.New()
	campaignStore := campaign.NewInMemoryStore()

	campaignSvc := campaign.NewService(campaignStore, backend, grants, gateway, publisher,
		campaign.WithLogger(log),
		campaign.WithMetrics(campaignmetrics.New()),
		campaign.WithAuditor(domain.Principal(cfg.AdminPrincipal)),
	)
	donationSvc := donation.NewService(
		donation.NewPendingMemory(), history, campaignStore,
		backend, grants, gateway, ledger, keys, publisher,
		donation.WithLogger(log),
		donation.WithMetrics(donationmetrics.New()),
		donation.WithMaxDonation(cfg.MaxDonation),
	)

	// Oracle results flow back in-process: private decryptions drive the
	// verification state machine, public ones land on the event feed.
	gateway.OnVerify(donationSvc.VerifyCallback)
	gateway.OnPublish(func(ctx context.Context, campaignID domain.CampaignID, kind oracle.Kind, amount uint64) error {
		publisher.Emit(ctx, events.Event{
			Type:       events.TypeTotalsRevealed,
			CampaignID: campaignID,
			Metadata: map[string]string{
				"kind":   string(kind),
				"amount": strconv.FormatUint(amount, 10),
			},
		})
		return nil
	})

	tokens := admintoken.NewJWTService(cfg.AdminSigningKey)
	adminSvc := admin.NewService(donationSvc, ledger, publisher, log)

	router := httptransport.NewRouter(log, redisClient,
		campaignhandler.New(campaignSvc, log, appMetrics),
		donationhandler.New(donationSvc, log, appMetrics),
		adminhandler.New(adminSvc, tokens, log),
		eventshandler.New(eventStore, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return gateway.Run(ctx) })
	g.Go(func() error { return worker.Run(ctx) })
	g.Go(func() error {
		log.Info("veilfund listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newBackend builds the sealed backend from the configured key, or an
// ephemeral one for dev.
func newBackend(cfg config.Server) (*fhe.SealedBackend, error) {
	if cfg.SealingKeyHex == "" {
		return fhe.NewRandomBackend()
	}
	key, err := hex.DecodeString(cfg.SealingKeyHex)
	if err != nil {
		return nil, err
	}
	return fhe.NewSealedBackend(key)
}

// newHistoryStore prefers Postgres when a DSN is configured.
func newHistoryStore(ctx context.Context, cfg config.Server) (donation.HistoryStore, func(), error) {
	if cfg.PostgresDSN == "" {
		return donation.NewHistoryMemory(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	store := donation.NewPostgresHistory(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

// newOracleKeys returns the signer driving the in-process gateway and the key
// set the donation service verifies callbacks against. When no external keys
// are configured, a fresh signer backs both sides; its keys live exactly as
// long as the oracle they serve.
func newOracleKeys(cfg config.Server, log *slog.Logger) (*oracle.Signer, *oracle.KeySet, error) {
	signer, pub, err := oracle.NewSigner(cfg.Oracle.Required)
	if err != nil {
		return nil, nil, err
	}

	if len(cfg.Oracle.PublicKeys) > 0 {
		keys, err := oracle.NewKeySet(cfg.Oracle.PublicKeys, cfg.Oracle.Required)
		if err != nil {
			return nil, nil, err
		}
		log.Warn("external oracle keys configured; in-process oracle signatures will not verify against them")
		return signer, keys, nil
	}

	keys, err := oracle.NewKeySet(pub, cfg.Oracle.Required)
	if err != nil {
		return nil, nil, err
	}
	return signer, keys, nil
}
