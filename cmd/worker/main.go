package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/app"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/cache"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/platform/db"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/shared"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/statement"
	"github.com/wongivan852/integrated-business-platform-sub001/jobs"
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

	auditLogger := shared.NewAuditLogger(pool)
	accountLocker := shared.NewAccountLocker(redisClient, cfg.StatementLockTTL, cfg.StatementLockMaxWait)

	ledgerRepo := ledger.NewRepository(pool)
	statementRepo := statement.NewRepository(pool)
	statementService := statement.NewService(statementRepo, ledgerRepo, accountLocker, auditLogger)

	refreshJob := jobs.NewStatementRefreshJob(statementService, logger)

	refreshTask, err := jobs.NewStatementRefreshTask(0)
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStatementRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
