// Package main provides the main entry point for the AdPilot campaign orchestration engine
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealerdrive/adpilot/app/handlers"
	"github.com/dealerdrive/adpilot/app/middleware"
	"github.com/dealerdrive/adpilot/app/router"
	"github.com/dealerdrive/adpilot/app/scheduler"
	"github.com/dealerdrive/adpilot/app/services"
	businessflow "github.com/dealerdrive/adpilot/business_flow"
	"github.com/dealerdrive/adpilot/config"
	"github.com/dealerdrive/adpilot/repository"
	"github.com/dealerdrive/adpilot/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting AdPilot application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Serve Prometheus metrics on a dedicated port
	if cfg.Metrics.Enabled {
		stopMetrics := startMetricsServer(cfg.Metrics)
		app.stopFuncs = append(app.stopFuncs, stopMetrics)
	}

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// initializePlatformClient picks the real or mock ads platform client
func initializePlatformClient(cfg config.PlatformConfig) services.AdsPlatformClient {
	if cfg.UseMock {
		log.Println("Using mock ads platform client")
		return services.NewMockAdsPlatformClient()
	}
	return services.NewMetaAdsClient(cfg.BaseURL, cfg.Timeout, log.Default())
}

// startMetricsServer exposes /metrics on its own listener
func startMetricsServer(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	go func() {
		log.Printf("Metrics server starting on :%d%s", cfg.Port, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	integrationRepo := repository.NewIntegrationRepository(db)
	registryRepo := repository.NewCampaignRegistryRepository(db)
	activityRepo := repository.NewActivityRecordRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	credentialService := services.NewCredentialService(integrationRepo, cfg.Credential.MasterSecret, cfg.Credential.KeySalt)
	platformClient := initializePlatformClient(cfg.Platform)

	// Initialize flows
	resolver := businessflow.NewTargetingResolver(platformClient, rc, cfg.Rotation.DefaultRegionKey, log.Default())
	planner := businessflow.NewBudgetPlanner(utils.MinDailyBudgetCents)
	campaignFlow := businessflow.NewCampaignFlow(
		customerRepo,
		registryRepo,
		credentialService,
		resolver,
		planner,
		platformClient,
		services.DefaultRetryPolicy(),
		log.Default(),
	)
	recorder := businessflow.NewActivityRecorder(activityRepo, log.Default())
	reportFlow := businessflow.NewActivityReportFlow(activityRepo)

	// Initialize rotation scheduler
	rotation := scheduler.NewRotationScheduler(
		registryRepo,
		vehicleRepo,
		campaignFlow,
		credentialService,
		platformClient,
		recorder,
		rc,
		cfg.Rotation,
	)
	if cfg.Rotation.Enabled {
		stopFuncs = append(stopFuncs, rotation.Start(context.Background()))
		log.Printf("Rotation scheduler started with interval %s", cfg.Rotation.Interval)
	}

	// Initialize handlers
	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	campaignHandler := handlers.NewCampaignHandler(campaignFlow)
	rotationHandler := handlers.NewRotationHandler(rotation)
	activityHandler := handlers.NewActivityHandler(reportFlow)

	// Initialize router
	pingers := map[string]router.DependencyPinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rc != nil {
		pingers["redis"] = func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}
	}
	appRouter := router.NewFiberRouter(cfg, authMiddleware, campaignHandler, rotationHandler, activityHandler, pingers)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}
