package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tabrela/internal/allocation"
	allocationhandler "tabrela/internal/allocation/handler"
	"tabrela/internal/availability"
	availabilityhandler "tabrela/internal/availability/handler"
	"tabrela/internal/ballot"
	ballothandler "tabrela/internal/ballot/handler"
	jwttoken "tabrela/internal/jwt_token"
	"tabrela/internal/match"
	matchhandler "tabrela/internal/match/handler"
	"tabrela/internal/merit"
	merithandler "tabrela/internal/merit/handler"
	"tabrela/internal/notify"
	"tabrela/internal/platform/config"
	"tabrela/internal/platform/httpserver"
	"tabrela/internal/platform/logger"
	"tabrela/internal/platform/metrics"
	tabotel "tabrela/internal/platform/otel"
	tabredis "tabrela/internal/platform/redis"
	"tabrela/internal/registry"
	registryhandler "tabrela/internal/registry/handler"
	"tabrela/internal/store/memory"
	"tabrela/internal/store/postgres"
	"tabrela/internal/store/postgres/migrations"
	"tabrela/internal/tabulation"
	tabulationhandler "tabrela/internal/tabulation/handler"
	httptransport "tabrela/internal/transport/http"
	id "tabrela/pkg/domain"
)

// engineStore is everything the services need from persistence. Both the
// memory and postgres stores satisfy it.
type engineStore interface {
	registry.Store
	match.Store
	allocation.Store
	ballot.Store
	tabulation.Store
	merit.LedgerStore
	notify.RelayStore
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	RunInMatchTx(ctx context.Context, matchID id.MatchID, fn func(ctx context.Context) error) error
}

type availabilityPool interface {
	allocation.Availability
	availabilityhandler.Pool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tabrela: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tabotel.Setup(ctx, "tabrela", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	m := metrics.New()
	checks := map[string]httptransport.HealthCheck{}

	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		checks["postgres"] = p.Ping
	}

	pool, err := buildAvailability(ctx, cfg, log, checks)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := buildPublisher(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closePublisher()

	catalog, err := allocation.LoadCatalog(cfg.Engine.RulesetsFile, cfg.Engine.Ruleset)
	if err != nil {
		return fmt.Errorf("rulesets: %w", err)
	}
	log.Info("allocation rulesets loaded", "default", cfg.Engine.Ruleset, "available", catalog.Names())

	tabulationSvc := tabulation.New(store, store, tabulation.WithLogger(log), tabulation.WithMetrics(m))
	ballotSvc := ballot.New(store, store, ballot.WithLogger(log), ballot.WithMetrics(m))
	registrySvc := registry.New(store, store, registry.WithLogger(log), registry.WithRulesets(catalog))
	matchSvc := match.New(store, store, tabulationSvc, match.WithLogger(log), match.WithMetrics(m))
	allocationSvc := allocation.New(store, store, catalog, ballotSvc,
		allocation.WithLogger(log),
		allocation.WithMetrics(m),
		allocation.WithAvailability(pool),
	)
	initializer := merit.NewInitializer(store, log)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        m,
		RequestTimeout: cfg.Server.RequestTimeout,
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		WebhookSecret:  cfg.Auth.WebhookSecret,
		HealthChecks:   checks,
		API: []httptransport.Registrar{
			registryhandler.New(registrySvc, log),
			matchhandler.New(matchSvc, log),
			allocationhandler.New(allocationSvc, log),
			ballothandler.New(ballotSvc, log),
			tabulationhandler.New(tabulationSvc, log),
		},
		Webhooks: []httptransport.Registrar{
			merithandler.New(initializer, log),
			availabilityhandler.New(pool, log),
		},
	})
	if cfg.Auth.WebhookSecret == "" {
		log.Warn("TABRELA_WEBHOOK_SECRET is empty; webhook endpoints reject every call")
	}

	srv := httpserver.New(cfg.Server, router)
	relay := notify.NewRelay(store, publisher, cfg.Kafka.RelayInterval, cfg.Kafka.RelayBatchSize,
		notify.WithRelayLogger(log),
		notify.WithRelayMetrics(m),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tabrela", "addr", cfg.Server.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := relay.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		if _, err := relay.Drain(shutdownCtx); err != nil {
			log.Warn("final outbox drain failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}

func buildStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (engineStore, func(), error) {
	if !cfg.Database.Enabled() {
		log.Warn("TABRELA_DATABASE_URL is empty; using the in-memory store")
		return memory.New(memory.WithTxTimeout(cfg.Database.TxTimeout)), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	applied, err := postgres.ApplyMigrations(ctx, db, migrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	if len(applied) > 0 {
		log.Info("migrations applied", "files", applied)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database failed", "error", err)
		}
	}
	return postgres.New(db, postgres.WithTxTimeout(cfg.Database.TxTimeout)), closeDB, nil
}

func buildAvailability(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (availabilityPool, error) {
	client, err := tabredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if client == nil {
		log.Info("TABRELA_REDIS_URL is empty; availability pools are kept in memory")
		return availability.NewMemoryPool(), nil
	}
	checks["redis"] = client.Health
	if keys, err := client.PoolKeys(ctx); err != nil {
		log.Warn("listing cached availability pools failed", "error", err)
	} else {
		log.Info("availability cache connected", "prefix", client.KeyPrefix(), "pools", len(keys))
	}
	return availability.NewRedisPool(client.Client, availability.WithKeyPrefix(client.KeyPrefix())), nil
}

func buildPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (notify.Publisher, func(), error) {
	if !cfg.Kafka.Enabled() {
		log.Info("TABRELA_KAFKA_BROKERS is empty; outbound events are logged")
		return notify.NewLogPublisher(log), func() {}, nil
	}
	kp, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka: %w", err)
	}
	if err := kp.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
		kp.Close()
		return nil, nil, err
	}
	checks["kafka"] = kp.Health
	return kp, kp.Close, nil
}
