package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appamazon "github.com/erp/amazon-connector/internal/application/amazon"
	"github.com/erp/amazon-connector/internal/infrastructure/amazonmws"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
	"github.com/erp/amazon-connector/internal/infrastructure/logger"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence"
	"github.com/erp/amazon-connector/internal/infrastructure/scheduler"
	"github.com/erp/amazon-connector/internal/interfaces/http/handler"
	"github.com/erp/amazon-connector/internal/interfaces/http/middleware"
	"github.com/erp/amazon-connector/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Amazon Connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	backendRepo := persistence.NewGormBackendRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)
	bindingRepo := persistence.NewGormProductBindingRepository(db.DB)
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	countryRepo := persistence.NewGormCountryRepository(db.DB)
	saleOrderRepo := persistence.NewGormSaleOrderRepository(db.DB)

	// Marketplace client factory: credentials come from config/env, every
	// client is wrapped with the throttle retry policy.
	vault := config.NewVault(cfg.Amazon)
	httpClient := &http.Client{Timeout: cfg.Amazon.RequestTimeout}
	clientFactory := amazonmws.NewFactory(vault, httpClient, log).
		WithCooldown(cfg.Amazon.ThrottleCooldown)

	// Initialize application services
	backendService := appamazon.NewBackendService(backendRepo, bindingRepo)
	resolver := appamazon.NewEntityResolver(partnerRepo, countryRepo, bindingRepo, log)
	guard := appamazon.NewIdempotencyGuard(saleOrderRepo)
	reportService := appamazon.NewReportImportService(backendRepo, attachmentRepo, clientFactory, log)
	saleService := appamazon.NewSaleImportService(
		backendRepo, attachmentRepo, saleOrderRepo,
		appamazon.NewOrderReportParser(), resolver, guard, log,
	)
	fbaService := appamazon.NewFBAImportService(
		backendRepo, saleOrderRepo, clientFactory,
		appamazon.NewFBAOrderParser(), resolver, guard, log,
	)

	// Start the sync scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.SyncSchedulerConfig{
			PollInterval: cfg.Scheduler.PollInterval,
			PassTimeout:  cfg.Scheduler.PassTimeout,
		}
		syncScheduler := scheduler.NewSyncScheduler(
			schedulerConfig, backendRepo, reportService, saleService, fbaService, log,
		)
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
			zap.Duration("pass_timeout", cfg.Scheduler.PassTimeout),
		)
	}

	// Initialize HTTP handlers and router
	middleware.SetupValidator()
	backendHandler := handler.NewBackendHandler(backendService, reportService, saleService, fbaService)
	systemHandler := handler.NewSystemHandler(db)

	r := router.New(cfg, log)
	r.Register(backendHandler).Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
