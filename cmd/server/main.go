package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rfcheck/internal/apikeys"
	"rfcheck/internal/audit"
	"rfcheck/internal/auth"
	"rfcheck/internal/bulk"
	"rfcheck/internal/denylist"
	"rfcheck/internal/history"
	"rfcheck/internal/platform/config"
	"rfcheck/internal/platform/httpserver"
	"rfcheck/internal/platform/kv"
	"rfcheck/internal/platform/logger"
	"rfcheck/internal/platform/metrics"
	"rfcheck/internal/platform/postgres"
	"rfcheck/internal/platform/redis"
	ratelimitMetrics "rfcheck/internal/ratelimit/metrics"
	ratelimitmw "rfcheck/internal/ratelimit/middleware"
	ratelimitService "rfcheck/internal/ratelimit/service"
	"rfcheck/internal/ratelimit/store/window"
	"rfcheck/internal/registry"
	httptransport "rfcheck/internal/transport/http"
	"rfcheck/internal/validation/cache"
	validationhandler "rfcheck/internal/validation/handler"
	validationMetrics "rfcheck/internal/validation/metrics"
	validationService "rfcheck/internal/validation/service"
	"rfcheck/pkg/platform/circuit"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run wires dependencies, serves until ctx is cancelled and then drains.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, checks, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	var (
		denylistStore denylist.Store = denylist.NewInMemoryStore(denylist.SeedEntries...)
		keyStore      apikeys.Store  = apikeys.NewInMemoryStore()
		historyStore  history.Store  = history.NewInMemoryStore(history.DefaultPerCaller)
	)
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		pgDenylist := denylist.NewPostgresStore(db)
		if err := pgDenylist.Seed(ctx, denylist.SeedEntries); err != nil {
			return err
		}
		denylistStore = pgDenylist
		keyStore = apikeys.NewPostgresStore(db)
		historyStore = history.NewPostgresStore(db)
		checks["database"] = httptransport.HealthCheckFunc(db.PingContext)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory denylist, api key and history stores")
		checks["database"] = nil
	}

	auditor, closeAudit, err := buildAuditor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	checks["kafka"] = auditorHealth(auditor)
	auditCtx, stopAudit := context.WithCancel(ctx)
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		if err := auditor.publisher.Run(auditCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit publisher stopped", "error", err)
		}
	}()
	// Drain pending audit events before the sink is closed.
	defer func() {
		stopAudit()
		<-auditDone
	}()

	client, err := buildRegistryClient(cfg.Upstream)
	if err != nil {
		return err
	}
	checker, err := registry.NewChecker(client, registry.WithLogger(log), registry.WithMetrics(registry.NewMetrics()))
	if err != nil {
		return err
	}

	vMetrics := validationMetrics.New()
	verdicts, err := cache.New(store, cfg.Cache.TTL, cache.WithLogger(log), cache.WithMetrics(vMetrics))
	if err != nil {
		return err
	}
	validator, err := validationService.New(checker, verdicts,
		validationService.WithLogger(log),
		validationService.WithMetrics(vMetrics),
	)
	if err != nil {
		return err
	}

	limiter, err := window.New(store)
	if err != nil {
		return err
	}
	quotas, err := ratelimitService.New(limiter, ratelimitService.PoliciesFromConfig(cfg.RateLimit),
		ratelimitService.WithLogger(log),
		ratelimitService.WithMetrics(ratelimitMetrics.New()),
		ratelimitService.WithAuditPublisher(auditor.publisher),
		ratelimitService.WithAllowlist(cfg.RateLimit.Allowlist),
	)
	if err != nil {
		return err
	}

	keys, err := apikeys.New(keyStore, apikeys.WithLogger(log), apikeys.WithAuditPublisher(auditor.publisher))
	if err != nil {
		return err
	}
	identityOpts := []auth.Option{auth.WithAuditPublisher(auditor.publisher)}
	if cfg.Auth.JWTSigningKey != "" {
		tokens, err := auth.NewTokenService(cfg.Auth)
		if err != nil {
			return err
		}
		identityOpts = append(identityOpts, auth.WithTokenVerifier(tokens))
	} else {
		log.Warn("JWT_SIGNING_KEY not set, bearer tokens are rejected")
	}

	runner, err := bulk.NewRunner(validator, denylistStore, cfg.Bulk.MaxItems,
		bulk.WithLogger(log),
		bulk.WithConcurrency(cfg.Bulk.Concurrency),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Metrics:        metrics.New(),
		TrustProxy:     cfg.Server.TrustProxy,
		RequestTimeout: cfg.Server.RequestTimeout,
		BulkTimeout:    cfg.BulkTimeout(),
		Identity:       auth.New(keys, log, identityOpts...),
		RateLimit:      ratelimitmw.New(quotas, log, ratelimitmw.WithDisabled(cfg.RateLimit.Disabled)),
		Validation:     validationhandler.New(validator, historyStore, auditor.publisher, log),
		Bulk:           bulk.NewHandler(runner, bulk.Extractor{MinLength: cfg.Bulk.MinLength}, cfg.Bulk.MaxFileBytes, log, auditor.publisher),
		History:        history.NewHandler(historyStore, log),
		APIKeys:        apikeys.NewHandler(keys, log),
		HealthChecks:   checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router, cfg.WriteTimeout())
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting rfcheck",
			"addr", cfg.Server.Addr,
			"upstream_mode", cfg.Upstream.Mode,
			"bulk_timeout", cfg.BulkTimeout(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStore selects Redis behind a failover breaker when configured, or the
// in-process store otherwise. Either way a single store serves every
// namespace.
func buildStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (kv.Store, map[string]httptransport.HealthChecker, func(), error) {
	checks := map[string]httptransport.HealthChecker{}
	memory := kv.NewMemoryStore()
	memory.StartJanitor(ctx)

	client, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable at startup, serving from in-process store", "error", err)
		checks["redis"] = httptransport.HealthCheckFunc(func(context.Context) error { return err })
		return memory, checks, func() {}, nil
	}
	if client == nil {
		log.Warn("REDIS_URL not set, cache and rate limits are per instance")
		checks["redis"] = nil
		return memory, checks, func() {}, nil
	}

	breaker := circuit.New("redis",
		circuit.WithFailureThreshold(cfg.Redis.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.Redis.SuccessThreshold),
		circuit.WithCooldown(cfg.Redis.Cooldown),
	)
	failover, err := kv.NewFailoverStore(kv.NewRedisStore(client.Client), memory, breaker,
		kv.WithLogger(log),
		kv.WithMetrics(kv.NewMetrics()),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}
	checks["redis"] = client
	return failover, checks, func() { _ = client.Close() }, nil
}

type auditStack struct {
	publisher *audit.Publisher
	sink      *audit.KafkaSink
}

// buildAuditor always returns a publisher. Kafka delivery is added when
// brokers are configured.
func buildAuditor(ctx context.Context, cfg *config.Config, log *slog.Logger) (auditStack, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return auditStack{publisher: audit.NewPublisher(audit.WithLogger(log))}, func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.Kafka)
	if err != nil {
		return auditStack{}, nil, err
	}
	if err := sink.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.Replicas); err != nil {
		log.Warn("failed to ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
	}
	publisher := audit.NewPublisher(audit.WithLogger(log), audit.WithSink(sink))
	return auditStack{publisher: publisher, sink: sink}, sink.Close, nil
}

func auditorHealth(a auditStack) httptransport.HealthChecker {
	if a.sink == nil {
		return nil
	}
	return httptransport.HealthCheckFunc(a.sink.Ping)
}

func buildRegistryClient(cfg config.UpstreamConfig) (registry.Client, error) {
	if cfg.Mode == "mock" {
		return registry.NewMockClient(0, cfg.MockNotFound), nil
	}
	return registry.NewHTTPClient(cfg)
}
