package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"hailo/internal/handler"
	"hailo/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler     *handler.RideHandler
	RiderHandler    *handler.RiderHandler
	DriverHandler   *handler.DriverHandler
	ProfileHandler  *handler.ProfileHandler
	GeocodeHandler  *handler.GeocodeHandler
	EstimateHandler *handler.EstimateHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/available", deps.RideHandler.ListAvailable)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/rating", deps.RideHandler.RateRide)
		}

		// Rider session routes.
		riders := v1.Group("/riders")
		{
			riders.GET("/:id/active", deps.RiderHandler.GetActiveRide)
		}

		// Driver session routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/:id/online", deps.DriverHandler.GoOnline)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
			drivers.POST("/:id/accept", deps.DriverHandler.AcceptRide)
			drivers.POST("/:id/decline", deps.DriverHandler.DeclineRide)
			drivers.POST("/:id/advance", deps.DriverHandler.AdvanceRide)
			drivers.POST("/:id/complete", deps.DriverHandler.CompleteRide)
			drivers.GET("/:id/earnings", deps.DriverHandler.GetEarnings)
		}

		// Profile routes.
		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:id", deps.ProfileHandler.GetProfile)
		}

		// Lookup routes.
		v1.GET("/geocode", deps.GeocodeHandler.Search)
		v1.GET("/estimates", deps.EstimateHandler.GetEstimate)
	}

	return router
}
