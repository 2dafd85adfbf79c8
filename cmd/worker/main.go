package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commerce-console/internal/app"
	"github.com/odyssey-erp/commerce-console/internal/carts"
	jobmetrics "github.com/odyssey-erp/commerce-console/internal/jobs"
	"github.com/odyssey-erp/commerce-console/internal/platform/db"
	"github.com/odyssey-erp/commerce-console/internal/platform/kafka"
	"github.com/odyssey-erp/commerce-console/internal/shared"
	"github.com/odyssey-erp/commerce-console/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	auditLogger := shared.NewAuditLogger(pool)

	cartsService := carts.NewService(carts.NewRepository(pool), jobClient, carts.Policy{
		AbandonAfter: cfg.CartAbandonAfter,
		MaxReminders: cfg.CartReminderLimit,
		MinSpacing:   cfg.CartReminderSpacing,
	}, carts.ServiceDeps{Audit: auditLogger, Observer: metrics})
	cartJob := jobs.NewCartReminderJob(cartsService, logger, metrics)

	var mailer jobs.Mailer = jobs.LogMailer{Logger: logger, From: cfg.SMTPFrom}
	if cfg.SMTPAddr != "" {
		mailer = jobs.NewBreakerMailer(jobs.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword), logger)
	}
	logger.Info("mail transport", slog.String("transport", mailer.Transport()))
	mailJob := &jobs.MailJob{Mailer: mailer, Logger: logger, Metrics: metrics}

	var sink jobs.EventSink = jobs.LogSink{Logger: logger}
	if brokers := kafka.NewClient(cfg.KafkaBrokers); brokers.Enabled() {
		publisher, err := brokers.NewPublisher(cfg.OrderEventsTopic)
		if err != nil {
			logger.Error("init event publisher", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("event publisher close", slog.Any("error", err))
			}
		}()
		sink = publisher
		logger.Info("order events", slog.String("topic", cfg.OrderEventsTopic), slog.Int("brokers", len(brokers.Brokers)))
	}
	eventJob := jobs.NewOrderEventJob(sink, logger, metrics)

	cleanupJob := &jobs.IdempotencyCleanupJob{
		Store:     shared.NewIdempotencyStore(pool),
		Retention: cfg.IdempotencyRetention,
		Logger:    logger,
		Metrics:   metrics,
	}

	scanTask, err := jobs.NewCartScanTask()
	if err != nil {
		logger.Error("build cart scan task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(0)
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskCartReminder, Handler: cartJob.HandleReminder},
			{Type: jobs.TaskCartScan, Handler: cartJob.HandleScan},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskOrderEvent, Handler: eventJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CartScanCron, Task: scanTask},
			{Spec: cfg.IdempotencyCleanupCron, Task: cleanupTask},
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
