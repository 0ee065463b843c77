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

	"github.com/timewise-hq/timewise/internal/app"
	"github.com/timewise-hq/timewise/internal/audit"
	audithttp "github.com/timewise-hq/timewise/internal/audit/http"
	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/company"
	"github.com/timewise-hq/timewise/internal/departments"
	"github.com/timewise-hq/timewise/internal/notify"
	"github.com/timewise-hq/timewise/internal/observability"
	"github.com/timewise-hq/timewise/internal/platform/cache"
	"github.com/timewise-hq/timewise/internal/platform/db"
	"github.com/timewise-hq/timewise/internal/pto"
	"github.com/timewise-hq/timewise/internal/rbac"
	"github.com/timewise-hq/timewise/internal/reports"
	"github.com/timewise-hq/timewise/internal/shared"
	"github.com/timewise-hq/timewise/internal/timeclock"
	"github.com/timewise-hq/timewise/internal/users"
	"github.com/timewise-hq/timewise/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "timewise_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	auditor := audit.NewRecorder(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rbacService := rbac.NewService(pool)
	authz := rbac.Middleware{Source: rbacService, Logger: logger}

	userRepo := users.NewRepository(pool)
	userService := users.NewService(logger, userRepo, auditor)
	userHandler := users.NewHandler(logger, userService)

	companyRepo := company.NewRepository(pool)
	companyService := company.NewService(logger, companyRepo, auditor)
	companyHandler := company.NewHandler(logger, companyService)

	departmentRepo := departments.NewRepository(pool)
	departmentService := departments.NewService(logger, departmentRepo, auditor)
	departmentHandler := departments.NewHandler(logger, departmentService)

	ptoRepo := pto.NewRepository(pool)
	ptoService := pto.NewService(logger, ptoRepo, companyService, idempotencyStore)
	ptoHandler := pto.NewHandler(logger, ptoService)

	timeclockRepo := timeclock.NewRepository(pool)
	timeclockService := timeclock.NewService(logger, timeclockRepo, companyService)
	timeclockHandler := timeclock.NewHandler(logger, timeclockService)

	reportRepo := reports.NewRepository(pool)
	reportService := reports.NewService(logger, reportRepo, companyService)
	reportHandler := reports.NewHandler(logger, reportService)

	auditTimeline := audit.NewTimelineService(pool)
	auditHandler := audithttp.NewHandler(logger, auditTimeline)

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
	notifyHandler := notify.NewHandler(logger, notifyDispatcher, notifyRepo, auditor)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Metrics:           metrics,
		Authz:             authz,
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		PTOHandler:        ptoHandler,
		TimeclockHandler:  timeclockHandler,
		DepartmentHandler: departmentHandler,
		CompanyHandler:    companyHandler,
		ReportsHandler:    reportHandler,
		AuditHandler:      auditHandler,
		NotifyHandler:     notifyHandler,
		JobsHandler:       jobHandler,
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
