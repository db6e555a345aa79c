package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/application/core"
	appdebt "github.com/retail/backoffice/internal/application/debt"
	appidentity "github.com/retail/backoffice/internal/application/identity"
	appcount "github.com/retail/backoffice/internal/application/inventorycount"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	apppartner "github.com/retail/backoffice/internal/application/partner"
	"github.com/retail/backoffice/internal/application/sales"
	appstock "github.com/retail/backoffice/internal/application/stock"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/infrastructure/auth"
	"github.com/retail/backoffice/internal/infrastructure/cache"
	"github.com/retail/backoffice/internal/infrastructure/config"
	"github.com/retail/backoffice/internal/infrastructure/event"
	"github.com/retail/backoffice/internal/infrastructure/lock"
	"github.com/retail/backoffice/internal/infrastructure/logger"
	"github.com/retail/backoffice/internal/infrastructure/migration"
	"github.com/retail/backoffice/internal/infrastructure/persistence"
	"github.com/retail/backoffice/internal/infrastructure/scheduler"
	"github.com/retail/backoffice/internal/infrastructure/telemetry"
	"github.com/retail/backoffice/internal/interfaces/http/handler"
	"github.com/retail/backoffice/internal/interfaces/http/middleware"
	"github.com/retail/backoffice/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	apiVersion      = "v1"
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

	log.Info("Starting back office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry providers are no-ops unless enabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meter := meterProvider.Meter("backoffice")
	businessMetrics, err := telemetry.NewBusinessMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	// Database with zap-backed query log and optional query tracing
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	if err := prepareSchema(db, log); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, db.Driver()), log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Idempotency store and entity locker share one Redis client when Redis is configured
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	var locker shared.Locker = lock.NewInMemoryLocker()
	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisStore, ok := idempotencyStore.(*cache.RedisIdempotencyStore); ok {
		locker = lock.NewRedisLocker(redisStore.Client(), cfg.Business.LockTTL, cfg.Business.LockRetryTimeout,
			lock.WithLogger(log))
		checks["redis"] = func(ctx context.Context) error { return redisStore.Client().Ping(ctx).Err() }
		log.Info("Using Redis entity locks")
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLowStockAlertHandler(log))
	eventBus.Subscribe(event.NewDebtLifecycleHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	runner := core.NewRunner(db.NewTransactionScope(),
		core.WithLocker(locker),
		core.WithIdempotency(idempotencyStore, cfg.Business.IdempotencyTTL),
		core.WithPublisher(eventBus),
		core.WithLogger(log),
	)
	userRepo := runner.Repositories().Users()

	authService := appidentity.NewAuthService(userRepo, log)
	userService := appidentity.NewUserService(userRepo, authService, log)
	ledgerService := appledger.NewLedgerService(runner, log)
	treasuryService := apptreasury.NewTreasuryService(runner, ledgerService, authService, log)
	stockService := appstock.NewStockService(runner, ledgerService, businessMetrics, log)
	debtService := appdebt.NewDebtService(runner, ledgerService, treasuryService, authService, businessMetrics, log)
	customerService := apppartner.NewCustomerService(runner, log)
	supplierService := apppartner.NewSupplierService(runner, log)
	orchestrator := sales.NewOrchestrator(sales.Dependencies{
		Runner:   runner,
		Ledger:   ledgerService,
		Treasury: treasuryService,
		Stock:    stockService,
		Debts:    debtService,
		Auth:     authService,
		Metrics:  businessMetrics,
		Logger:   log,
	}, sales.Config{
		CustomerPaymentTermsDays: cfg.Business.CustomerPaymentTermsDays,
		SupplierPaymentTermsDays: cfg.Business.SupplierPaymentTermsDays,
	})
	countService := appcount.NewCountService(runner, ledgerService, stockService, authService, log)

	// Background jobs
	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.New(cfg.Scheduler.JobTimeout, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := scheduler.RegisterDefaultJobs(jobs, cfg.Scheduler, debtService, stockService, log); err != nil {
			log.Fatal("Failed to register jobs", zap.Error(err))
		}
		if cfg.Telemetry.Enabled {
			source := snapshotSource(treasuryService, debtService, stockService)
			if err := jobs.Register(scheduler.JobMetrics, cfg.Telemetry.MetricsInterval,
				scheduler.MetricsSnapshotTask(source, businessMetrics)); err != nil {
				log.Fatal("Failed to register metrics job", zap.Error(err))
			}
		}
		jobs.Start()
		defer func() {
			if err := jobs.Stop(); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started", zap.Strings("jobs", jobs.Names()))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to initialize HTTP metrics", zap.Error(err))
	}

	// Middleware order: request ID first so every later log line and span carries it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(httpMetrics)
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize,
		middleware.WithRouteLimit("/api/"+apiVersion+"/products/import", cfg.HTTP.MaxImportSize)))

	jwtService := auth.NewJWTService(cfg.JWT)
	handlers := handler.Handlers{
		Sales:    handler.NewSalesHandler(orchestrator),
		Purchase: handler.NewPurchaseHandler(orchestrator),
		Debt:     handler.NewDebtHandler(debtService, orchestrator),
		Treasury: handler.NewTreasuryHandler(treasuryService),
		Stock:    handler.NewStockHandler(stockService),
		Ledger:   handler.NewLedgerHandler(ledgerService),
		Partner:  handler.NewPartnerHandler(customerService, supplierService),
		Count:    handler.NewCountHandler(countService),
		User:     handler.NewUserHandler(userService),
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion(apiVersion),
		router.WithMiddleware(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator: jwtService,
			Logger:    log,
		})),
	)
	r.RegisterPublic(handler.SystemGroup(handler.NewSystemHandler(cfg.App.Name, version, checks)))
	for _, g := range handlers.DomainGroups(log) {
		r.Register(g)
	}
	r.Setup()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// prepareSchema applies the embedded migrations on PostgreSQL. SQLite
// installs already got their schema from the models when the database opened.
// The migrator is not closed: closing it would close the shared *sql.DB.
func prepareSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == persistence.DriverSQLite {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// snapshotSource gathers the financial position for the gauge job
func snapshotSource(treasury *apptreasury.TreasuryService, debts *appdebt.DebtService, products *appstock.StockService) scheduler.SnapshotSource {
	return func(ctx context.Context) (telemetry.Snapshot, error) {
		balance, err := treasury.GetCurrentBalance(ctx)
		if err != nil {
			return telemetry.Snapshot{}, err
		}
		overview, err := debts.GetDebtOverview(ctx, time.Now())
		if err != nil {
			return telemetry.Snapshot{}, err
		}
		low, err := products.LowStockProducts(ctx)
		if err != nil {
			return telemetry.Snapshot{}, err
		}
		return telemetry.Snapshot{
			TreasuryBalance:  balance,
			Receivables:      overview.Receivables.Total,
			Payables:         overview.Payables.Total,
			LowStockProducts: len(low),
		}, nil
	}
}
