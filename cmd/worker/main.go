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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockline-erp/stockline/internal/app"
	"github.com/stockline-erp/stockline/internal/catalog/categories"
	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/integrations"
	jobmetrics "github.com/stockline-erp/stockline/internal/jobs"
	"github.com/stockline-erp/stockline/internal/platform/cache"
	"github.com/stockline-erp/stockline/internal/platform/db"
	"github.com/stockline-erp/stockline/jobs"
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

	productsRepo := products.NewRepository(pool)
	categoriesRepo := categories.NewRepository(pool)
	categoriesService := categories.NewService(categoriesRepo)
	integrationsRepo := integrations.NewRepository(pool)
	syncService := integrations.NewService(logger, integrationsRepo, productsRepo, categoriesService, categoriesRepo, nil)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queueClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	if cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux}
		go func() {
			logger.Info("metrics listener started", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics listener shutdown", slog.Any("error", err))
			}
		}()
	}

	location, err := cfg.SchedulerLocation()
	if err != nil {
		logger.Error("resolve scheduler timezone", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Location:  location,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDispatchImports, Handler: jobs.HandleDispatchImports(syncService, queueClient, metrics, logger)},
			{Type: jobs.TaskProcessImport, Handler: jobs.HandleProcessImport(syncService, metrics, logger)},
			{Type: jobs.TaskSyncOrders, Handler: jobs.HandleSyncOrders(syncService, metrics, logger)},
			{Type: jobs.TaskSyncCategories, Handler: jobs.HandleSyncCategories(syncService, metrics, logger)},
			{Type: jobs.TaskBIDaily, Handler: jobs.HandleBIRefresh(pool, metrics, logger)},
			{Type: jobs.TaskBIWeekly, Handler: jobs.HandleBIRefresh(pool, metrics, logger)},
			{Type: jobs.TaskBIMonthly, Handler: jobs.HandleBIRefresh(pool, metrics, logger)},
		},
		Cron: jobs.DefaultCron(),
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
