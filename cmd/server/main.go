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
	"go.uber.org/zap"

	appbusiness "github.com/minegocio/backend/internal/application/business"
	appcatalog "github.com/minegocio/backend/internal/application/catalog"
	appidentity "github.com/minegocio/backend/internal/application/identity"
	appinv "github.com/minegocio/backend/internal/application/inventory"
	appreport "github.com/minegocio/backend/internal/application/report"
	apptrade "github.com/minegocio/backend/internal/application/trade"
	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/auth"
	"github.com/minegocio/backend/internal/infrastructure/cache"
	"github.com/minegocio/backend/internal/infrastructure/config"
	"github.com/minegocio/backend/internal/infrastructure/logger"
	"github.com/minegocio/backend/internal/infrastructure/persistence"
	"github.com/minegocio/backend/internal/infrastructure/telemetry"
	"github.com/minegocio/backend/internal/interfaces/http/handler"
	"github.com/minegocio/backend/internal/interfaces/http/middleware"
	"github.com/minegocio/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			minegocio API
//	@version		1.0
//	@description	Inventory, sales and purchases backend for a small shop
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	providers, err := telemetry.New(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() { _ = log.Sync() }()

	profiler, err := telemetry.StartProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	log.Info("Starting minegocio backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("version", version),
	)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to configure request validation", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentDB(db.DB, providers.TracerProvider(), string(db.Dialect), log); err != nil {
			log.Warn("Database tracing not installed", zap.Error(err))
		}
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("dialect", string(db.Dialect)))

	caches := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	if err := caches.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = caches.Close() }()

	inventoryMetrics, err := telemetry.NewInventoryMetrics(telemetry.InventoryMetricsConfig{
		Meter:    providers.Meter(),
		Logger:   log,
		Provider: telemetry.NewGormCatalogMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create inventory metrics", zap.Error(err))
	}
	if cfg.Telemetry.MetricsEnabled {
		inventoryMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer inventoryMetrics.Stop()
	}
	httpMetrics, err := telemetry.NewHTTPMetrics(providers.Meter())
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	saleItemRepo := persistence.NewGormSaleItemRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRepository(db.DB)
	purchaseItemRepo := persistence.NewGormPurchaseItemRepository(db.DB)
	businessRepo := persistence.NewGormBusinessRepository(db.DB)
	salesReportRepo := persistence.NewGormSalesReportRepository(db.DB)

	// Services
	policy := identity.NewPolicy()
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := caches.TokenBlacklist()

	stockEngine := appinv.NewEngine(log, inventoryMetrics)
	runner := appinv.NewRunner(db.NewTransactionScope(), log, inventoryMetrics)
	lineItems := appinv.NewLineItemService(runner, stockEngine)

	authService := appidentity.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := appidentity.NewUserService(userRepo, jwtService, blacklist, log)
	categoryService := appcatalog.NewCategoryService(categoryRepo, log)
	productService := appcatalog.NewProductService(productRepo, categoryRepo).WithStockAdjuster(lineItems)
	saleService := apptrade.NewSaleService(runner, stockEngine, lineItems, saleRepo, saleItemRepo, policy)
	purchaseService := apptrade.NewPurchaseService(runner, stockEngine, lineItems, purchaseRepo, purchaseItemRepo, policy)
	businessService := appbusiness.NewService(businessRepo,
		appbusiness.WithCache(caches.BusinessCache()),
		appbusiness.WithLogger(log),
	)
	reportService := appreport.NewReportService(salesReportRepo, productRepo, log).
		WithBusinessSettings(businessService)

	err = caches.RunLocked(ctx, "bootstrap", cfg.Bootstrap.LockTTL, func(ctx context.Context) error {
		return bootstrap(ctx, cfg.Bootstrap, db, categoryService, businessService, userService, log)
	})
	if err != nil {
		log.Fatal("Bootstrap failed", zap.Error(err))
	}

	// HTTP
	engine := router.NewEngine(router.EngineConfig{
		Logger:      log,
		CORS:        cfg.CORS,
		MaxBodySize: cfg.Server.MaxBodySize,
		Tracing: middleware.TracingConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			TracerProvider: providers.TracerProvider(),
			Enabled:        providers.TracingEnabled(),
		},
		Metrics: httpMetrics,
	})

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	router.RegisterAPI(engine, router.Handlers{
		System:   handler.NewSystemHandler(db, version),
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(userService),
		Category: handler.NewCategoryHandler(categoryService),
		Product:  handler.NewProductHandler(productService),
		Sale:     handler.NewSaleHandler(saleService),
		Purchase: handler.NewPurchaseHandler(purchaseService),
		Business: handler.NewBusinessHandler(businessService),
		Report:   handler.NewReportHandler(reportService),
	}, router.Security{
		Authenticator:    authService,
		Policy:           policy,
		IdempotencyStore: caches.IdempotencyStore(),
		IdempotencyConfig: shared.IdempotencyConfig{
			TTL:     cfg.Redis.IdempotencyTTL,
			Enabled: true,
		},
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// bootstrap seeds what a fresh install needs: default categories, the
// business row, the sale number counter and a first owner account.
func bootstrap(
	ctx context.Context,
	cfg config.BootstrapConfig,
	db *persistence.Database,
	categories *appcatalog.CategoryService,
	business *appbusiness.Service,
	users *appidentity.UserService,
	log *zap.Logger,
) error {
	if err := categories.EnsureDefaults(ctx); err != nil {
		return err
	}
	if _, err := business.GetInstance(ctx); err != nil {
		return err
	}
	if err := persistence.NewGormSequenceGenerator(db.DB).Ensure(ctx, trade.SaleNumberSequence); err != nil {
		return err
	}

	if cfg.OwnerEmail == "" || cfg.OwnerPassword == "" {
		log.Info("No bootstrap owner configured, skipping owner seeding")
		return nil
	}
	created, err := users.EnsureOwner(ctx, cfg.OwnerName, cfg.OwnerEmail, cfg.OwnerPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("Created bootstrap owner", zap.String("email", cfg.OwnerEmail))
	}
	return nil
}
