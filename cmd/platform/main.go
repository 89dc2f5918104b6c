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

	"github.com/wongivan852/integrated-business-platform-sub001/internal/app"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/importer"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/cache"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/db"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/rbac"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/reconcile"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/registry"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
	statementhttp "github.com/wongivan852/integrated-business-platform-sub001/internal/statement/http"
	"github.com/wongivan852/integrated-business-platform-sub001/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	auditLogger := shared.NewAuditLogger(pool)
	accountLocker := shared.NewAccountLocker(redisClient, cfg.StatementLockTTL, cfg.StatementLockMaxWait)

	registryRepo := registry.NewRepository(pool)
	registryService := registry.NewService(registryRepo)
	if err := registryService.SeedDefaults(ctx); err != nil {
		logger.Error("seed app registry", slog.Any("error", err))
		os.Exit(1)
	}
	registryHandler := registry.NewHandler(logger, registryService)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo)
	rbacMiddleware := rbac.NewMiddleware(logger, rbacService)
	grantsHandler := rbac.NewHandler(logger, rbacService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	statementRepo := statement.NewRepository(pool)
	statementService := statement.NewService(statementRepo, ledgerRepo, accountLocker, auditLogger)
	statementHandler := statementhttp.NewHandler(logger, statementService)

	importStore := importer.NewStore(pool, ledgerRepo, statementRepo)
	importService := importer.NewService(importStore, accountLocker, auditLogger)
	importHandler := importer.NewHandler(logger, importService)

	reconcileService := reconcile.NewService(statementService, auditLogger)
	reconcileHandler := reconcile.NewHandler(logger, reconcileService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		RegistryHandler:  registryHandler,
		GrantsHandler:    grantsHandler,
		LedgerHandler:    ledgerHandler,
		ImporterHandler:  importHandler,
		StatementHandler: statementHandler,
		ReconcileHandler: reconcileHandler,
		JobHandler:       jobHandler,
		RBAC:             rbacMiddleware,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
