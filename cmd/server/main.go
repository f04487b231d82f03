package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"hailo/internal/app"
	"hailo/internal/config"
	"hailo/internal/geocode"
	"hailo/internal/handler"
	internalRedis "hailo/internal/redis"
	"hailo/internal/relay"
	"hailo/internal/repository/postgres"
	"hailo/internal/views"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Connect to the event relay.
	relayClient := relay.NewClient(cfg.Relay)
	if err := relayClient.Connect(ctx); err != nil {
		log.Fatalf("failed to connect to relay: %v", err)
	}
	defer relayClient.Close()
	log.Println("Connected to event relay")

	// Wire dependencies.
	server, registry := wireServer(db, redisClient, relayClient, nrApp, cfg)
	defer registry.Close()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// session registry (closed on shutdown so room memberships are released).
func wireServer(db *sql.DB, redisClient *redis.Client, relayClient *relay.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *views.Registry) {
	// Initialize repositories.
	rideRepo := postgres.NewRideRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	// Profile reads go through the Redis cache.
	profileCache := internalRedis.NewProfileCache(redisClient)
	profiles := internalRedis.NewCachedProfileSource(profileCache, profileRepo)

	// Session registry over the shared backends.
	registry := views.NewRegistry(rideRepo, profileRepo, profiles, relayClient, cfg.Pricing)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(registry, rideRepo)
	riderHandler := handler.NewRiderHandler(registry)
	driverHandler := handler.NewDriverHandler(registry)
	profileHandler := handler.NewProfileHandler(profiles)
	geocodeHandler := handler.NewGeocodeHandler(geocode.NewClient(cfg.Geocoder))
	estimateHandler := handler.NewEstimateHandler(cfg.Pricing)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:     rideHandler,
		RiderHandler:    riderHandler,
		DriverHandler:   driverHandler,
		ProfileHandler:  profileHandler,
		GeocodeHandler:  geocodeHandler,
		EstimateHandler: estimateHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, registry
}
