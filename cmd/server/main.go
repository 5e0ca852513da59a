package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/crm/backend/docs"
	"github.com/crm/backend/internal/application/consistency"
	identityapp "github.com/crm/backend/internal/application/identity"
	marketingapp "github.com/crm/backend/internal/application/marketing"
	partnerapp "github.com/crm/backend/internal/application/partner"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/scheduler"
	"github.com/crm/backend/internal/infrastructure/storage"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			CRM Backend API
//	@version		1.0
//	@description	Customer, order and campaign management with Google sign-in and presigned image uploads.

//	@contact.name	API Support
//	@contact.url	https://github.com/crm/backend

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token as "Bearer {token}". Browsers send the crm_session cookie instead.

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs --parseInternal
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Log export has to exist before the logger so the OTEL core can be teed in
	bootLog := zap.NewNop()
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		panic("Failed to initialize log export: " + err.Error())
	}

	var extraCores []zapcore.Core
	if logProvider.IsEnabled() {
		extraCores = append(extraCores, telemetry.NewZapOTELCore(logProvider, logger.ParseLevel(cfg.Log.Level)))
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, extraCores...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("consistency_mode", cfg.Consistency.Mode),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(cfg.Profiling, cfg.App.Name, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.NewDBTracingPlugin(cfg.Telemetry, cfg.Database.Driver, log).Register(db.DB); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}

	// Postgres schemas come from crmctl migrate; sqlite is built in place
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	metrics := telemetry.NewMetrics()
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := metrics.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	scope := persistence.NewGormConsistencyScope(db.DB, consistency.Mode(cfg.Consistency.Mode))

	// Sessions
	sessionStore, err := cache.NewSessionStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}

	// Object storage is optional; uploads answer 503 without it
	var objectStorage marketingapp.ObjectStorage
	if cfg.Storage.Enabled() {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Warn("Failed to ensure storage bucket", zap.Error(err), zap.String("bucket", cfg.Storage.Bucket))
		}
		objectStorage = s3Storage
	} else {
		log.Info("Object storage not configured, upload URLs disabled")
	}

	// Application services
	customerService := partnerapp.NewCustomerService(customerRepo, orderRepo, scope, metrics, log)
	orderService := tradeapp.NewOrderService(orderRepo, customerRepo, scope, metrics, log)
	campaignService := marketingapp.NewCampaignService(campaignRepo, customerRepo, scope, metrics, log)
	uploadService := marketingapp.NewUploadService(objectStorage, cfg.Storage.PresignExpiration, log)

	reconcileScheduler, err := scheduler.NewReconcileScheduler(scheduler.Config{
		Interval:   cfg.Consistency.ReconcileInterval,
		JobTimeout: cfg.Consistency.ReconcileTimeout,
	}, customerService, log)
	if err != nil {
		log.Fatal("Failed to create reconcile scheduler", zap.Error(err))
	}
	if err := reconcileScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
	}

	authService := identityapp.NewAuthService(
		userRepo,
		sessionStore,
		auth.NewGoogleProvider(cfg.OAuth),
		auth.NewSessionTokenService(cfg.Session),
		identityapp.AuthServiceConfig{SessionTTL: cfg.Session.MaxAge},
		log,
	)
	authHandler := handler.NewAuthHandler(authService, cfg.Session, cfg.OAuth)

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.Options{
		Config:      cfg,
		Logger:      log,
		Sessions:    authService,
		Metrics:     metrics,
		RateLimiter: rateLimiter,
	}, router.Handlers{
		Customers: handler.NewCustomerHandler(customerService),
		Orders:    handler.NewOrderHandler(orderService),
		Campaigns: handler.NewCampaignHandler(campaignService, uploadService),
		Auth:      authHandler,
		Health:    handler.NewHealthHandler(db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := reconcileScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Reconcile scheduler did not stop cleanly", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
