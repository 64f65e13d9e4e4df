package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/churchops/backend/internal/application/authz"
	titheapp "github.com/churchops/backend/internal/application/tithe"
	treasuryapp "github.com/churchops/backend/internal/application/treasury"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/tithe"
	"github.com/churchops/backend/internal/infrastructure/auth"
	"github.com/churchops/backend/internal/infrastructure/cache"
	"github.com/churchops/backend/internal/infrastructure/config"
	"github.com/churchops/backend/internal/infrastructure/lock"
	"github.com/churchops/backend/internal/infrastructure/logger"
	"github.com/churchops/backend/internal/infrastructure/persistence"
	"github.com/churchops/backend/internal/infrastructure/telemetry"
	"github.com/churchops/backend/internal/interfaces/http/handler"
	"github.com/churchops/backend/internal/interfaces/http/middleware"
	"github.com/churchops/backend/internal/interfaces/http/router"
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
		_ = log.Sync()
	}()

	log.Info("Starting church treasury backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

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

	// Database query tracing
	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if err := telemetry.NewDBTracing(dbTracingCfg, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	boxRepo := persistence.NewGormPettyCashBoxRepository(db.DB)
	accountRepo := persistence.NewGormBankAccountRepository(db.DB)
	cashMovementRepo := persistence.NewGormCashMovementRepository(db.DB)
	bankMovementRepo := persistence.NewGormBankMovementRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	batchRepo := persistence.NewGormTitheBatchRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Idempotency store: Redis when several instances share state, in-memory
	// otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		idempotencyStore, err = cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Distribution calculator: the percentage table comes from configuration
	// and was validated at load time, so this only fails on a bad deploy
	calculator, err := tithe.NewCalculator(tithe.PercentageTable{
		TitheOfTithe:       decimal.NewFromFloat(cfg.Distribution.TitheOfTithePercent),
		FinanceCommittee:   decimal.NewFromFloat(cfg.Distribution.FinanceCommitteePercent),
		PastoralTithe:      decimal.NewFromFloat(cfg.Distribution.PastoralTithePercent),
		PastoralSustenance: decimal.NewFromFloat(cfg.Distribution.PastoralSustenancePercent),
	})
	if err != nil {
		log.Fatal("Invalid distribution percentage table", zap.Error(err))
	}

	// Initialize application services
	authorizer := authz.NewCapabilityAuthorizer()
	locker := lock.NewKeyedMutex()

	treasuryService := treasuryapp.NewTreasuryService(boxRepo, accountRepo, cashMovementRepo, bankMovementRepo, authorizer)
	movementService := treasuryapp.NewMovementService(
		boxRepo, accountRepo, cashMovementRepo, bankMovementRepo, uow, authorizer, locker,
		treasuryapp.WithIdempotencyStore(idempotencyStore, cfg.Treasury.IdempotencyTTL),
		treasuryapp.WithOperationTimeout(cfg.Treasury.OperationTimeout),
	)
	titheService := titheapp.NewTitheService(batchRepo, transactionRepo, categoryRepo, calculator, uow, authorizer)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	treasuryHandler := handler.NewTreasuryHandler(treasuryService, movementService)
	titheHandler := handler.NewTitheHandler(titheService, calculator)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so recovery and logging carry it,
	// then tracing so every later stage runs inside the request span
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning and authentication)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// All API routes require a verified token except the system probes
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))
	r.Use(middleware.TracingAttributeInjector())

	// Treasury domain (petty cash boxes, bank accounts, movements, transfers)
	treasuryRoutes := router.NewDomainGroup("treasury", "/treasury")
	treasuryRoutes.POST("/boxes", middleware.RequireCapability(authz.CapBoxManage), treasuryHandler.CreateBox)
	treasuryRoutes.GET("/boxes", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.ListBoxes)
	treasuryRoutes.GET("/boxes/:id", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.GetBox)
	treasuryRoutes.PUT("/boxes/:id", middleware.RequireCapability(authz.CapBoxManage), treasuryHandler.UpdateBox)
	treasuryRoutes.GET("/boxes/:id/movements", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.ListBoxMovements)

	treasuryRoutes.POST("/accounts", middleware.RequireCapability(authz.CapAccountManage), treasuryHandler.CreateBankAccount)
	treasuryRoutes.GET("/accounts", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.ListBankAccounts)
	treasuryRoutes.GET("/accounts/:id", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.GetBankAccount)
	treasuryRoutes.GET("/accounts/:id/movements", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.ListAccountMovements)

	treasuryRoutes.POST("/movements", middleware.RequireCapability(authz.CapMovementCreate), treasuryHandler.RegisterMovement)
	treasuryRoutes.POST("/deposits", middleware.RequireCapability(authz.CapTransferExecute), treasuryHandler.DepositToBank)
	treasuryRoutes.POST("/transfers/boxes", middleware.RequireCapability(authz.CapTransferExecute), treasuryHandler.TransferBetweenBoxes)
	treasuryRoutes.POST("/transfers/accounts", middleware.RequireCapability(authz.CapTransferExecute), treasuryHandler.TransferBetweenAccounts)
	treasuryRoutes.GET("/summary", middleware.RequireCapability(authz.CapTreasuryRead), treasuryHandler.GetSummary)

	// Tithe domain (batches, distribution, calculator)
	titheRoutes := router.NewDomainGroup("tithes", "/tithes")
	titheRoutes.POST("/batches", middleware.RequireCapability(authz.CapTitheRegister), titheHandler.RegisterBatch)
	titheRoutes.GET("/batches", middleware.RequireCapability(authz.CapTitheRead), titheHandler.ListBatches)
	titheRoutes.GET("/batches/:id", middleware.RequireCapability(authz.CapTitheRead), titheHandler.GetBatch)
	titheRoutes.POST("/batches/:id/distribute", middleware.RequireCapability(authz.CapTitheDistribute), titheHandler.ExecuteDistribution)
	titheRoutes.PUT("/batches/:id/entries/:transaction_id", middleware.RequireCapability(authz.CapTitheEdit), titheHandler.UpdateEntry)
	titheRoutes.DELETE("/batches/:id/entries/:transaction_id", middleware.RequireCapability(authz.CapTitheEdit), titheHandler.DeleteEntry)
	titheRoutes.POST("/calculator", middleware.RequireCapability(authz.CapTitheRead), titheHandler.Calculate)

	// System routes (public probes)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(treasuryRoutes).
		Register(titheRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
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
