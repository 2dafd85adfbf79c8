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

	"github.com/odyssey-erp/commerce-console/cmd/console/cli"
	"github.com/odyssey-erp/commerce-console/internal/app"
	"github.com/odyssey-erp/commerce-console/internal/audit"
	"github.com/odyssey-erp/commerce-console/internal/carts"
	"github.com/odyssey-erp/commerce-console/internal/discounts"
	jobmetrics "github.com/odyssey-erp/commerce-console/internal/jobs"
	"github.com/odyssey-erp/commerce-console/internal/observability"
	"github.com/odyssey-erp/commerce-console/internal/orders"
	"github.com/odyssey-erp/commerce-console/internal/platform/cache"
	"github.com/odyssey-erp/commerce-console/internal/platform/db"
	"github.com/odyssey-erp/commerce-console/internal/shared"
	"github.com/odyssey-erp/commerce-console/jobs"
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
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		code := runJobs(ctx, redisOpts, os.Args[2:], logger)
		stop()
		os.Exit(code)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

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
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	draftStore := orders.NewDraftStore(redisClient, cfg.DraftTTL)
	ordersService := orders.NewService(orders.NewRepository(dbpool), draftStore, orders.ServiceDeps{
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
		Observer:    metrics,
		Events:      jobClient,
	})

	discountsService := discounts.NewService(discounts.NewRepository(dbpool), auditLogger)

	cartsService := carts.NewService(carts.NewRepository(dbpool), jobClient, carts.Policy{
		AbandonAfter: cfg.CartAbandonAfter,
		MaxReminders: cfg.CartReminderLimit,
		MinSpacing:   cfg.CartReminderSpacing,
	}, carts.ServiceDeps{Audit: auditLogger, Observer: jobMetrics})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		APIKeyAuth:       app.NewAPIKeyAuth(cfg.APIKeyHash, logger),
		OrdersHandler:    orders.NewHandler(logger, ordersService),
		DiscountsHandler: discounts.NewHandler(logger, discountsService),
		CartsHandler:     carts.NewHandler(logger, cartsService),
		AuditHandler:     audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
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

func runJobs(ctx context.Context, opts asynq.RedisClientOpt, args []string, logger *slog.Logger) int {
	jobsCLI, err := cli.NewJobsCLI(opts)
	if err != nil {
		logger.Error("init jobs cli", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()
	if err := jobsCLI.Run(ctx, args, os.Stdout); err != nil {
		logger.Error("jobs command", slog.Any("error", err))
		return 2
	}
	return 0
}
