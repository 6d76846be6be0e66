package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/app"
	"ridehail/internal/config"
	"ridehail/internal/distance"
	"ridehail/internal/events"
	"ridehail/internal/handler"
	"ridehail/internal/ledger"
	internalRedis "ridehail/internal/redis"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/service"
	"ridehail/internal/strategy"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	store, closeStore, err := newStore(ctx, cfg, nrApp, logger)
	if err != nil {
		fatal(logger, "failed to initialize store", err)
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
		defer redisClient.Close()
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	publisher, closePublisher, err := app.NewEventPublisher(cfg.RabbitMQ, logger)
	if err != nil {
		fatal(logger, "failed to initialize event publisher", err)
	}
	defer closePublisher.Close()

	provider, err := newDistanceProvider(cfg.Distance)
	if err != nil {
		fatal(logger, "failed to initialize distance provider", err)
	}

	server := wireServer(cfg, store, redisClient, provider, publisher, nrApp, logger)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// newStore opens the configured persistence backend.
func newStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, logger *slog.Logger) (repository.Store, func(), error) {
	if cfg.Store.Backend == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres", "driver", cfg.Database.Driver)

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return postgres.NewStore(db), func() { closeDB(db, logger) }, nil
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}

func newDistanceProvider(cfg config.DistanceConfig) (distance.Provider, error) {
	var provider distance.Provider
	switch cfg.Provider {
	case "google":
		g, err := distance.NewGoogleMaps(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		provider = g
	case "haversine":
		provider = distance.Haversine{}
	default:
		provider = distance.NewOSRM(cfg.OSRMURL)
	}
	return distance.WithTimeout(provider, cfg.Timeout), nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	cfg *config.Config,
	store repository.Store,
	redisClient *redis.Client,
	provider distance.Provider,
	publisher events.Publisher,
	nrApp *newrelic.Application,
	logger *slog.Logger,
) *http.Server {
	repos := store.Repos()

	// Redis-backed stores stay nil interfaces when Redis is not configured.
	var (
		locations   internalRedis.LocationStoreInterface
		locks       internalRedis.LockStoreInterface
		cache       internalRedis.DriverCacheInterface
		idempotency redis.Cmdable
		surge       service.SurgeEstimator
	)
	if redisClient != nil {
		locations = internalRedis.NewLocationStore(redisClient)
		locks = internalRedis.NewLockStore(redisClient)
		cache = internalRedis.NewCacheStore(redisClient)
		idempotency = redisClient

		surgeConfig := strategy.DefaultSurgeConfig()
		surgeConfig.MaxSurge = cfg.Pricing.SurgeMax
		surge = strategy.NewDemandEstimator(locations, repos.RideRequests, surgeConfig, logger)
	}

	// Strategies.
	matchingConfig := strategy.MatchingConfig{
		RadiusKm:          cfg.Matching.RadiusKm,
		Limit:             cfg.Matching.Limit,
		PoolSize:          strategy.DefaultMatchingConfig().PoolSize,
		TopRatedThreshold: cfg.Matching.TopRatedThreshold,
	}
	var candidates strategy.CandidateSource = strategy.NewRepositoryCandidates(repos.Drivers)
	if cfg.Matching.Source == "geo" && locations != nil {
		candidates = strategy.NewGeoCandidates(locations, cache, repos.Drivers, logger)
	}
	l := ledger.New()
	fares := strategy.NewFareRegistry(provider, cfg.Pricing.RatePerKm)
	matching := strategy.NewMatchingRegistry(candidates, matchingConfig)
	payments := strategy.NewPaymentRegistry(l, cfg.Pricing.Commission)

	dispatcher := events.NewDispatcher(publisher, logger)

	// Initialize services.
	paymentService := service.NewPaymentService(store, payments, dispatcher, logger)
	riderService := service.NewRiderService(store, fares, matching, surge, cache, dispatcher, logger)
	driverService := service.NewDriverService(store, locations, locks, cache, paymentService, dispatcher, logger)
	walletService := service.NewWalletService(store, l)
	onboardingService := service.NewOnboardingService(store)
	ratingService := service.NewRatingService(store)

	router := app.NewRouter(app.RouterDeps{
		RiderHandler:   handler.NewRiderHandler(riderService, ratingService),
		DriverHandler:  handler.NewDriverHandler(driverService, ratingService),
		PaymentHandler: handler.NewPaymentHandler(paymentService),
		WalletHandler:  handler.NewWalletHandler(walletService),
		UserHandler:    handler.NewUserHandler(onboardingService),
		RedisClient:    idempotency,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
