// Package application wires configuration, connectors, domain services and
// long-running modules into one process.
package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"arbscan/internal/config"
	"arbscan/internal/domain/entity"
	"arbscan/internal/domain/service/scan"
	"arbscan/internal/infrastructure/cache"
	"arbscan/internal/infrastructure/persistence"
	"arbscan/internal/infrastructure/pricing"
	"arbscan/internal/scheduler"
	"arbscan/internal/server"
	"arbscan/internal/worker"
	"arbscan/pkg/application/connectors"
	"arbscan/pkg/application/modules"
	"arbscan/pkg/contextx"
	"arbscan/pkg/middlewarex"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	appName    = "arbscan"
	appVersion = "dev"
)

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	sourceMarket, err := entity.ParseMarket(cfg.Scan.SourceMarket)
	if err != nil {
		return fmt.Errorf("source market: %w", err)
	}
	targetMarket, err := entity.ParseMarket(cfg.Scan.TargetMarket)
	if err != nil {
		return fmt.Errorf("target market: %w", err)
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	rd := &connectors.Redis{
		Address:        cfg.Redis.Address,
		Username:       cfg.Redis.Username,
		Password:       cfg.Redis.Password,
		DatabaseNumber: cfg.Redis.DB,
	}
	rdb := rd.Client(ctx)
	defer rd.Close(ctx)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	opportunityRepo := persistence.NewOpportunityRepository(db)
	productRepo := persistence.NewProductRepository(db)
	scheduleRepo := persistence.NewScheduleRepository(db)

	snapshotCache := cache.NewClient(rdb, cfg.Scan.SnapshotTTL, cfg.Scan.OpportunityTTL)

	// Every pricing call anywhere in the process goes through the throttled
	// decorator; aggregate request rate stays at concurrency / throttle.
	pricingClient := pricing.NewThrottled(
		pricing.NewClient(
			cfg.Pricing.BaseURL,
			cfg.Pricing.AccessKey,
			cfg.Pricing.Timeout,
			cfg.Pricing.MaxBatch,
		),
		cfg.Scan.Throttle,
	)

	orchestrator := scan.NewOrchestrator(pricingClient, snapshotCache, opportunityRepo).
		WithMarkets(sourceMarket, targetMarket).
		WithRankThreshold(cfg.Scan.RankThreshold)

	queueRedis := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.QueueDB,
	}

	asynqClient := asynq.NewClient(queueRedis)
	defer func() {
		_ = asynqClient.Close()
	}()

	enqueuer := worker.NewEnqueuer(asynqClient, cfg.Scan.MaxRetry)

	handlers := worker.NewHandlers(
		orchestrator,
		pricingClient,
		productRepo,
		snapshotCache,
		enqueuer,
	).WithSourceMarket(sourceMarket)

	srv := server.NewServer(
		server.NewScanServer(orchestrator, enqueuer, opportunityRepo, targetMarket),
		server.NewScheduleServer(scheduleRepo),
	)

	router := chi.NewRouter()
	router.Use(middlewarex.Recovery, middlewarex.TraceID, middlewarex.Logger)
	srv.RegisterRoutes(router)

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}.Run(ctx, g, &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	})

	modules.AsynqServer{
		RedisAddress:   cfg.Redis.Address,
		RedisUsername:  cfg.Redis.Username,
		RedisPassword:  cfg.Redis.Password,
		RedisDB:        cfg.Redis.QueueDB,
		Concurrency:    cfg.Scan.Concurrency,
		RetryDelayFunc: worker.RetryDelay(cfg.Scan.RetryBaseDelay),
		ErrorHandler:   worker.FinalFailureHandler(),
		ShutdownWait:   cfg.HTTP.ShutdownTimeout,
	}.Run(ctx, g,
		modules.AsynqQueues{worker.QueueScans: 1},
		modules.AsynqHandler{Pattern: worker.TaskProductScan, Handle: handlers.HandleProductScan},
		modules.AsynqHandler{Pattern: worker.TaskCategoryScan, Handle: handlers.HandleCategoryScan},
	)

	modules.ProbeServer{
		Name:          appName,
		Version:       appVersion,
		ListenAddress: cfg.Probe.Address,
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: cfg.Metrics.Address,
	}.Run(ctx, g)

	g.Go(func() error {
		return scheduler.New(scheduleRepo, enqueuer).
			WithTick(cfg.Scheduler.Tick).
			Run(ctx)
	})

	logger(ctx).Info("application started")

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}
