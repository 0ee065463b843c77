package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/timewise-hq/timewise/internal/app"
	"github.com/timewise-hq/timewise/internal/notify"
	"github.com/timewise-hq/timewise/internal/observability"
	"github.com/timewise-hq/timewise/internal/platform/cache"
	"github.com/timewise-hq/timewise/internal/platform/db"
	"github.com/timewise-hq/timewise/internal/shared"
	"github.com/timewise-hq/timewise/jobs"
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

	metrics := observability.NewMetrics()
	idempotencyStore := shared.NewIdempotencyStore(pool)

	mailer := &jobs.SMTPMailer{
		Addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		From: cfg.SMTPFrom,
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	notifyRepo := notify.NewRepository(pool)
	notifySender := &jobs.QueueSender{Client: jobClient, Logger: logger}
	notifyDispatcher := notify.NewDispatcher(logger, notifyRepo, notifySender, redisClient, cfg.NotifyBatchSize, metrics.SetNotificationQueueDepth)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(mailer, logger)},
			{Type: jobs.TaskTypeNotifyDispatch, Handler: jobs.NewNotifyDispatchHandler(notifyDispatcher, logger, metrics.RecordJobRun)},
			{Type: jobs.TaskTypeIdemCleanup, Handler: jobs.NewIdemCleanupHandler(func(ctx context.Context) error {
				return idempotencyStore.Cleanup(ctx, 30*24*time.Hour)
			}, logger, metrics.RecordJobRun)},
		},
		Cron: []jobs.CronRegistration{
			{
				Spec:    cfg.NotifyCronSpec,
				Task:    jobs.NewNotifyDispatchTask(),
				Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)},
			},
			{
				Spec:    "45 3 * * *",
				Task:    jobs.NewIdemCleanupTask(),
				Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)},
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
