package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bizos/bizos/internal/app"
	"github.com/bizos/bizos/internal/observability"
	"github.com/bizos/bizos/internal/platform/cache"
	"github.com/bizos/bizos/internal/platform/db"
	"github.com/bizos/bizos/internal/profiles"
	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/jobs"
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

	matrix := rbac.DefaultMatrix()
	if cfg.AccessMatrixPath != "" {
		matrix, err = rbac.LoadMatrixFile(cfg.AccessMatrixPath)
		if err != nil {
			logger.Error("load access matrix", slog.Any("error", err))
			os.Exit(1)
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	scanJob := jobs.NewUnknownRoleScanJob(profiles.NewRepository(pool), matrix, logger, metrics.Jobs())
	invalidateJob := jobs.NewRoleCacheInvalidateJob(rbac.NewRoleCache(redisClient, cfg.AccessRoleCacheTTL), logger, metrics.Jobs())

	scanTask, err := jobs.NewUnknownRoleScanTask("cron")
	if err != nil {
		logger.Error("build unknown role scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAccessUnknownRoleScan, Handler: scanJob.Handle},
			{Type: jobs.TaskAccessRoleCacheInvalidate, Handler: invalidateJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.UnknownRoleCron, Task: scanTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency), slog.String("cron", cfg.UnknownRoleCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
