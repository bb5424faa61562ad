package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	marketplaceapp "github.com/erp/resale/internal/application/marketplace"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/infrastructure/cache"
	"github.com/erp/resale/internal/infrastructure/config"
	"github.com/erp/resale/internal/infrastructure/event"
	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/erp/resale/internal/infrastructure/persistence"
	"github.com/erp/resale/internal/infrastructure/storage"
	"github.com/erp/resale/internal/infrastructure/telemetry"
	"github.com/erp/resale/internal/interfaces/http/handler"
	"github.com/erp/resale/internal/interfaces/http/middleware"
	"github.com/erp/resale/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Resale ERP Marketplace API
//	@version		1.0
//	@description	Marketplace order reconciliation: CSV import, matching to inventory units, apply and payouts
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
		Sampling:   cfg.App.IsProduction(),
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Resale ERP",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	service := telemetry.ServiceInfo{
		Name:        cfg.Telemetry.ServiceName,
		Version:     version,
		Environment: cfg.App.Env,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Insecure:          cfg.Telemetry.Insecure,
		Service:           service,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		Insecure:          cfg.Telemetry.Insecure,
		Service:           service,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithParameterizedQueries(!cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.WithoutVariables = !cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}

	// Repositories
	txScope := persistence.NewGormTransactionScope(db.DB)
	batchRepo := persistence.NewGormImportBatchRepository(db.DB)
	stagedRepo := persistence.NewGormStagedOrderRepository(db.DB)
	itemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	productRepo := persistence.NewGormMasterProductRepository(db.DB)
	salesRepo := persistence.NewGormSalesOrderRepository(db.DB)
	payoutRepo := persistence.NewGormPayoutRepository(db.DB)

	// Events and metrics
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	marketplaceMetrics, err := telemetry.NewMarketplaceMetrics(meterProvider.Meter("marketplace"), log)
	if err != nil {
		log.Warn("Marketplace metrics disabled", zap.Error(err))
	} else {
		eventBus.Subscribe(event.NewMetricsHandler(marketplaceMetrics))
	}

	// Apply lock
	locker, redisClient, err := cache.NewBatchLockerFactory(cfg.Redis, cfg.Marketplace,
		cache.WithLogger(log),
	).CreateLocker()
	if err != nil {
		log.Fatal("Failed to create apply lock", zap.Error(err))
	}

	// Raw CSV archive
	archive := newImportArchive(ctx, cfg, log)

	// Application services
	parserCfg := marketplaceapp.RowParserConfig{
		UnknownChannelPolicy: marketplace.UnknownChannelPolicy(cfg.Marketplace.UnknownChannelPolicy),
		MaxErrors:            cfg.Marketplace.MaxImportErrors,
		MaxFileSize:          cfg.Marketplace.MaxUploadSize,
	}

	orderImportService := marketplaceapp.NewOrderImportService(
		txScope, stagedRepo, salesRepo, itemRepo, productRepo,
		marketplaceapp.NewOrderRowParser(parserCfg),
		log.Named("order_import"),
	)
	orderImportService.SetEventPublisher(eventBus)
	if archive != nil {
		orderImportService.SetArchive(archive)
	}

	payoutImportService := marketplaceapp.NewPayoutImportService(
		txScope, payoutRepo,
		marketplaceapp.NewPayoutRowParser(parserCfg),
		log.Named("payout_import"),
	)
	payoutImportService.SetEventPublisher(eventBus)

	applyService := marketplaceapp.NewApplyService(txScope, batchRepo, stagedRepo, locker, log.Named("apply"))
	applyService.SetEventPublisher(eventBus)
	if marketplaceMetrics != nil {
		applyService.SetMetrics(marketplaceMetrics)
	}

	stagedOrderService := marketplaceapp.NewStagedOrderService(
		txScope, batchRepo, stagedRepo, itemRepo, productRepo, log.Named("staged_orders"),
	)

	// HTTP handlers
	marketplaceHandler := handler.NewMarketplaceHandler(
		orderImportService,
		payoutImportService,
		applyService,
		stagedOrderService,
		cfg.Marketplace.MaxUploadSize,
	)
	healthHandler := handler.NewHealthHandler(cfg.App.Name, version).AddCheck("database", db)
	if redisClient != nil {
		healthHandler.AddCheck("redis", handler.ReadinessCheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span, then request/resource attributes and error status
	// 4. Logger - Log requests with the trace in context
	// 5. Metrics - Request count, latency and size
	// 6. Security headers and CORS
	// 7. BodyLimit and Timeout
	// 8. RateLimit (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
		Logger:        log,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	router.New(engine,
		router.WithAPIVersion("v1"),
		router.WithNoRoute(middleware.NoRoute()),
	).
		Root(healthHandler).
		API(router.NewMarketplaceRoutes(marketplaceHandler)).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	eventBus.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newImportArchive returns the S3 archive when storage is enabled and usable.
// Archival is optional: on any setup failure imports run without it.
func newImportArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) marketplaceapp.ImportArchive {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, raw import files are not archived")
		return nil
	}

	archive, err := storage.NewS3ImportArchive(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Warn("Object storage unavailable, raw import files are not archived", zap.Error(err))
		return nil
	}

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(setupCtx); err != nil {
		log.Warn("Archive bucket unavailable, raw import files are not archived",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.Error(err),
		)
		return nil
	}

	log.Info("Archiving raw import files", zap.String("bucket", cfg.Storage.Bucket))
	return archive
}
