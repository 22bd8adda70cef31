// Command server runs the wellfile API: W-3 report generation backed by the
// persistence guard, the filings read surface, and operator provisioning.
// main only composes dependencies and owns the process lifecycle; business
// logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wellfile/internal/archive"
	archivestore "wellfile/internal/archive/store"
	auditrelay "wellfile/internal/audit"
	filinghandler "wellfile/internal/filing/handler"
	filingmetrics "wellfile/internal/filing/metrics"
	filingservice "wellfile/internal/filing/service"
	filingstore "wellfile/internal/filing/store"
	operatorhandler "wellfile/internal/operator/handler"
	operatormetrics "wellfile/internal/operator/metrics"
	operatorservice "wellfile/internal/operator/service"
	operatorstore "wellfile/internal/operator/store"
	"wellfile/internal/platform/config"
	"wellfile/internal/platform/httpserver"
	"wellfile/internal/platform/kafka"
	"wellfile/internal/platform/logger"
	platformmetrics "wellfile/internal/platform/metrics"
	"wellfile/internal/platform/middleware"
	platformpg "wellfile/internal/platform/postgres"
	platformredis "wellfile/internal/platform/redis"
	ratelimitmw "wellfile/internal/ratelimit/middleware"
	"wellfile/internal/ratelimit/store/bucket"
	"wellfile/internal/report/generator"
	"wellfile/internal/report/guard"
	reporthandler "wellfile/internal/report/handler"
	reportmetrics "wellfile/internal/report/metrics"
	"wellfile/internal/token"
	wellmetrics "wellfile/internal/well/metrics"
	wellservice "wellfile/internal/well/service"
	wellstore "wellfile/internal/well/store"
	"wellfile/pkg/platform/audit/publisher"
	auditmemstore "wellfile/pkg/platform/audit/store/memory"
	auditpgstore "wellfile/pkg/platform/audit/store/postgres"
	"wellfile/pkg/platform/circuit"
	"wellfile/pkg/platform/httputil"
	"wellfile/pkg/platform/tx"
)

const (
	auditConsumerGroup   = "wellfile-audit-materializer"
	consumerRestartDelay = 5 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. The DSN "memory" keeps every store in process, for demos and
	// e2e runs without a database.
	var db *sql.DB
	if cfg.Postgres.DSN != "" && cfg.Postgres.DSN != "memory" {
		var err error
		db, err = platformpg.Open(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
	}

	// Audit trail. The publisher is synchronous so events emitted inside a
	// store transaction commit or roll back with it.
	var auditPG *auditpgstore.Store
	var auditPub *publisher.Publisher
	if db != nil {
		auditPG = auditpgstore.New(db)
		auditPub = publisher.NewPublisher(auditPG)
	} else {
		auditPub = publisher.NewPublisher(auditmemstore.NewInMemoryStore())
	}

	httpMetrics := platformmetrics.New()
	wellM := wellmetrics.New()
	filingM := filingmetrics.New()
	reportM := reportmetrics.New()
	operatorM := operatormetrics.New()

	var (
		wellSt     wellservice.Store
		filingSt   filingservice.Store
		operatorSt operatorservice.Store
	)
	wellOpts := []wellservice.Option{
		wellservice.WithLogger(log),
		wellservice.WithAuditPublisher(auditPub),
		wellservice.WithMetrics(wellM),
	}
	filingOpts := []filingservice.Option{
		filingservice.WithLogger(log),
		filingservice.WithAuditPublisher(auditPub),
		filingservice.WithMetrics(filingM),
	}
	operatorOpts := []operatorservice.Option{
		operatorservice.WithLogger(log),
		operatorservice.WithAuditPublisher(auditPub),
		operatorservice.WithMetrics(operatorM),
	}

	if db != nil {
		runner := tx.NewPostgresRunner(db, 0)
		wellSt = wellstore.NewPostgres(db)
		filingSt = filingstore.NewPostgres(db)
		operatorSt = operatorstore.NewPostgres(db)
		wellOpts = append(wellOpts, wellservice.WithTx(runner))
		filingOpts = append(filingOpts, filingservice.WithTx(runner))
		operatorOpts = append(operatorOpts, operatorservice.WithTx(runner))
	} else {
		wellSt = wellstore.NewInMemoryStore()
		filingSt = filingstore.NewInMemoryStore()
		operatorSt = operatorstore.NewInMemoryStore()
	}

	wells := wellservice.New(wellSt, wellOpts...)
	filings := filingservice.New(filingSt, filingOpts...)
	operators := operatorservice.New(operatorSt, operatorOpts...)

	tokens := token.New(cfg.Auth.JWTSigningKey, cfg.Auth.TokenTTL,
		token.WithLogger(log),
		token.WithAuditPublisher(auditPub),
	)

	aggregator := filingservice.NewAggregator(
		filingservice.PrimarySource(filingSt),
		filingservice.WithAggregatorLogger(log),
		filingservice.WithAggregatorMetrics(filingM),
	)

	genClient := generator.NewClient(cfg.Generator.BaseURL, cfg.Generator.Timeout, log,
		generator.WithMetrics(reportM),
		generator.WithBreaker(circuit.New("form-generator")),
	)

	guardOpts := []guard.Option{
		guard.WithLogger(log),
		guard.WithMetrics(reportM),
	}
	if cfg.Archive.Bucket != "" {
		s3, err := archivestore.NewS3Store(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
		guardOpts = append(guardOpts, guard.WithArchiver(archive.New(s3, cfg.Archive.KeyPrefix, log)))
	}
	persistGuard := guard.New(wells, filings, auditPub, guardOpts...)

	// Rate limiting keys on operator identity; Redis makes the window shared
	// across replicas, memory is fine for a single instance.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var limiter ratelimitmw.Limiter
	if redisClient != nil {
		defer redisClient.Close()
		limiter = bucket.NewRedisBucketStore(redisClient.Client)
	} else {
		limiter = bucket.NewInMemoryBucketStore()
	}
	limit := ratelimitmw.New(limiter, cfg.RateLimit.PerMinute, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithAuditPublisher(auditPub),
	)

	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		stopPipeline, err := startAuditPipeline(ctx, cfg.Kafka, auditPG, log)
		if err != nil {
			return err
		}
		defer stopPipeline()
	}

	router := newRouter(routerConfig{
		log:        log,
		metrics:    httpMetrics,
		timeout:    cfg.Server.RequestTimeout,
		adminToken: cfg.Auth.AdminToken,
		validator:  token.NewValidator(tokens),
		limit:      limit.Limit,
		health:     healthzHandler(db, redisClient),
		reports:    reporthandler.New(genClient, persistGuard, log, reportM),
		filings:    filinghandler.New(aggregator, log),
		operators:  operatorhandler.New(operators, tokens, log, operatorM),
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	storage := "postgres"
	if db == nil {
		storage = "memory"
	}
	log.Info("wellfile server started",
		"addr", cfg.Server.Addr,
		"storage", storage,
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type routerConfig struct {
	log        *slog.Logger
	metrics    *platformmetrics.Metrics
	timeout    time.Duration
	adminToken string
	validator  middleware.JWTValidator
	limit      func(http.Handler) http.Handler
	health     http.HandlerFunc
	reports    *reporthandler.Handler
	filings    *filinghandler.Handler
	operators  *operatorhandler.Handler
}

func newRouter(rc routerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rc.log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(rc.log))
	r.Use(middleware.LatencyMiddleware(rc.metrics))
	r.Use(middleware.Timeout(rc.timeout))

	r.Get("/healthz", rc.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Token exchange is unauthenticated; operators trade API keys for JWTs.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		rc.operators.RegisterAuth(r)
	})

	// Operator-facing API. Generation additionally pays the rate limit.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(rc.validator, rc.log))
		rc.filings.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Use(rc.limit)
			rc.reports.Register(r)
		})
	})

	// Provisioning, behind the shared admin token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(rc.adminToken, rc.log))
		r.Use(middleware.ContentTypeJSON)
		rc.operators.RegisterAdmin(r)
	})

	return r
}

// healthzHandler reports liveness plus reachability of whichever backing
// stores are configured. A degraded dependency returns 503 so load balancers
// rotate the instance out; in-memory mode has nothing to check.
func healthzHandler(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["postgres"] = "unreachable"
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				status["redis"] = "unreachable"
			}
		}
		if len(status) > 1 {
			status["status"] = "degraded"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}

// startAuditPipeline wires the outbox relay and the materializing consumer.
// The returned stop func closes both Kafka clients; the consumer goroutine
// restarts itself after transient failures and replays from the last commit,
// which the idempotent event writes absorb.
func startAuditPipeline(ctx context.Context, cfg config.KafkaConfig, store *auditpgstore.Store, log *slog.Logger) (func(), error) {
	producer, err := kafka.NewProducer(cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	topics := auditrelay.Topics(cfg.TopicPrefix)
	if err := producer.EnsureTopics(ctx, 1, topics...); err != nil {
		producer.Close()
		return nil, fmt.Errorf("ensure audit topics: %w", err)
	}

	relay := auditrelay.NewRelay(store, producer, cfg.TopicPrefix, cfg.RelayInterval, cfg.RelayBatch, log)
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit relay stopped", "error", err)
		}
	}()

	consumer, err := kafka.NewConsumer(cfg.Brokers, auditConsumerGroup, topics, auditrelay.NewConsumer(store, log).Handle, log)
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	go func() {
		for {
			err := consumer.Run(ctx)
			if ctx.Err() != nil || err == nil {
				return
			}
			log.ErrorContext(ctx, "audit consumer stopped, restarting",
				"error", err.Error(),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(consumerRestartDelay):
			}
		}
	}()

	return func() {
		consumer.Close()
		producer.Close()
	}, nil
}
