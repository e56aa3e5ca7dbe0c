package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/atlas-portal/atlas-portal/internal/app"
	"github.com/atlas-portal/atlas-portal/internal/audit"
	audithttp "github.com/atlas-portal/atlas-portal/internal/audit/http"
	"github.com/atlas-portal/atlas-portal/internal/auth"
	"github.com/atlas-portal/atlas-portal/internal/authz"
	authzhttp "github.com/atlas-portal/atlas-portal/internal/authz/http"
	"github.com/atlas-portal/atlas-portal/internal/observability"
	"github.com/atlas-portal/atlas-portal/internal/platform/cache"
	"github.com/atlas-portal/atlas-portal/internal/platform/db"
	"github.com/atlas-portal/atlas-portal/internal/shared"
	"github.com/atlas-portal/atlas-portal/internal/users"
	"github.com/atlas-portal/atlas-portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "atlas_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	authzStore := authz.NewPGStore(dbpool)
	resolveCache := authz.NewResolveCache(redisClient, cfg.AuthzCacheTTL)
	authzService, err := authz.NewService(ctx, authzStore,
		authz.WithResolveCache(resolveCache),
		authz.WithLogger(logger),
	)
	if err != nil {
		logger.Error("load authorization snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)

	emitter := authz.NewEmitter()
	authzMiddleware := authz.Middleware{
		Service:  authzService,
		Emitter:  emitter,
		Recorder: auditService,
		Observer: metrics,
		Logger:   logger,
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, authzService, emitter, auditService, logger)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	authzHandler := authzhttp.NewHandler(logger, authzService, authzMiddleware)
	auditHandler := audithttp.NewHandler(logger, auditService, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		UsersHandler:   usersHandler,
		AuthzHandler:   authzHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
