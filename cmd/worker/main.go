package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atlas-portal/atlas-portal/internal/app"
	"github.com/atlas-portal/atlas-portal/internal/audit"
	"github.com/atlas-portal/atlas-portal/internal/authz"
	jobmetrics "github.com/atlas-portal/atlas-portal/internal/jobs"
	"github.com/atlas-portal/atlas-portal/internal/platform/cache"
	"github.com/atlas-portal/atlas-portal/internal/platform/db"
	"github.com/atlas-portal/atlas-portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authzStore := authz.NewPGStore(pool)
	resolveCache := authz.NewResolveCache(redisClient, cfg.AuthzCacheTTL)
	authzService, err := authz.NewService(ctx, authzStore,
		authz.WithResolveCache(resolveCache),
		authz.WithLogger(logger),
	)
	if err != nil {
		logger.Error("load authorization snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	auditService := audit.NewService(audit.NewRepository(pool))
	metrics := jobmetrics.NewMetrics(nil)

	pruneTask, err := jobs.NewAuditPruneTask(jobs.AuditPrunePayload{RetentionHours: 24 * 90})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	refreshSpec := fmt.Sprintf("@every %s", cfg.AuthzRefreshInterval)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuthzRefresh, Handler: jobs.NewAuthzRefreshHandler(authzService, logger, metrics)},
			{Type: jobs.TaskAuditPrune, Handler: jobs.NewAuditPruneHandler(auditService, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: refreshSpec, Task: jobs.NewAuthzRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 2 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
