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

	"github.com/stockline-erp/stockline/internal/app"
	"github.com/stockline-erp/stockline/internal/auth"
	"github.com/stockline-erp/stockline/internal/catalog/categories"
	"github.com/stockline-erp/stockline/internal/catalog/ean"
	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/companylookup"
	"github.com/stockline-erp/stockline/internal/integrations"
	"github.com/stockline-erp/stockline/internal/masterdata/locations"
	"github.com/stockline-erp/stockline/internal/platform/cache"
	"github.com/stockline-erp/stockline/internal/platform/db"
	"github.com/stockline-erp/stockline/internal/rbac"
	"github.com/stockline-erp/stockline/internal/sales/customers"
	"github.com/stockline-erp/stockline/internal/sales/offers"
	"github.com/stockline-erp/stockline/internal/shared"
	"github.com/stockline-erp/stockline/internal/users"
	"github.com/stockline-erp/stockline/internal/view"
	"github.com/stockline-erp/stockline/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "stockline_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	rbacMiddleware := rbac.Middleware{Loader: usersService, Logger: logger}

	locationsRepo := locations.NewRepository(dbpool)
	locationsService := locations.NewService(locationsRepo)
	locationsHandler := locations.NewHandler(logger, locationsService, templates, csrfManager, rbacMiddleware)

	usersHandler := users.NewHandler(logger, usersService, locationsService, templates, csrfManager, rbacMiddleware)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService, locationsService, templates, csrfManager, rbacMiddleware)

	offersRepo := offers.NewRepository(dbpool)
	offersService := offers.NewService(offersRepo, customersRepo)
	offersHandler := offers.NewHandler(logger, offersService, customersService, templates, csrfManager, rbacMiddleware)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo)
	productsHandler := products.NewHandler(logger, productsService, templates, csrfManager, rbacMiddleware)

	categoriesRepo := categories.NewRepository(dbpool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService, templates, csrfManager, rbacMiddleware)

	eanRepo := ean.NewRepository(dbpool)
	eanService := ean.NewService(eanRepo, productsRepo)
	eanHandler := ean.NewHandler(logger, eanService, templates, csrfManager, rbacMiddleware)

	lookupSettings := companylookup.NewSettingsRepository(dbpool)
	lookupClient := companylookup.NewClient(lookupSettings)
	lookupHandler := companylookup.NewHandler(logger, lookupSettings, lookupClient, templates, csrfManager, rbacMiddleware)

	integrationsRepo := integrations.NewRepository(dbpool)
	integrationsService := integrations.NewService(logger, integrationsRepo, productsRepo, categoriesService, categoriesRepo, nil)
	integrationsHandler := integrations.NewHandler(logger, integrationsService, templates, csrfManager, rbacMiddleware)
	webhookHandler := integrations.NewWebhookHandler(logger, integrationsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		Templates:            templates,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		RBACMiddleware:       rbacMiddleware,
		AuthHandler:          authHandler,
		UsersHandler:         usersHandler,
		LocationsHandler:     locationsHandler,
		CustomersHandler:     customersHandler,
		OffersHandler:        offersHandler,
		ProductsHandler:      productsHandler,
		CategoriesHandler:    categoriesHandler,
		EANHandler:           eanHandler,
		CompanyLookupHandler: lookupHandler,
		IntegrationsHandler:  integrationsHandler,
		WebhookHandler:       webhookHandler,
		JobHandler:           jobHandler,
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
