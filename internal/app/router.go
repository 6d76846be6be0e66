package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RiderHandler   *handler.RiderHandler
	DriverHandler  *handler.DriverHandler
	PaymentHandler *handler.PaymentHandler
	WalletHandler  *handler.WalletHandler
	UserHandler    *handler.UserHandler
	RedisClient    redis.Cmdable // nil disables idempotent replay
	NewRelicApp    *newrelic.Application
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

	router.Use(middleware.PrincipalMiddleware())
	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Account routes.
		v1.POST("/users", deps.UserHandler.SignUp)
		v1.POST("/drivers", deps.UserHandler.OnboardDriver)

		// Ride request routes.
		requests := v1.Group("/ride-requests")
		{
			requests.POST("", deps.RiderHandler.RequestRide)
			requests.GET("", deps.RiderHandler.ListRideRequests)
			requests.POST("/:id/cancel", deps.RiderHandler.CancelRideRequest)
		}

		// Rider routes.
		rider := v1.Group("/rider")
		{
			rider.GET("/rides", deps.RiderHandler.ListRides)
			rider.GET("/rides/:id", deps.RiderHandler.GetRide)
			rider.POST("/rides/:id/cancel", deps.RiderHandler.CancelRide)
			rider.POST("/rides/:id/rating", deps.RiderHandler.RateDriver)
		}

		// Driver routes.
		driver := v1.Group("/driver")
		{
			driver.PUT("/location", deps.DriverHandler.UpdateLocation)
			driver.POST("/ride-requests/:id/accept", deps.DriverHandler.AcceptRide)
			driver.GET("/rides", deps.DriverHandler.ListRides)
			driver.GET("/rides/:id", deps.DriverHandler.GetRide)
			driver.POST("/rides/:id/start", deps.DriverHandler.StartRide)
			driver.POST("/rides/:id/end", deps.DriverHandler.EndRide)
			driver.POST("/rides/:id/cancel", deps.DriverHandler.CancelRide)
			driver.POST("/rides/:id/rating", deps.DriverHandler.RateRider)
		}

		// Payment routes.
		rides := v1.Group("/rides")
		{
			rides.GET("/:id/payment", deps.PaymentHandler.GetPayment)
			rides.POST("/:id/payment/settle", deps.PaymentHandler.RetrySettlement)
		}

		// Wallet routes.
		wallet := v1.Group("/wallet")
		{
			wallet.GET("", deps.WalletHandler.GetWallet)
			wallet.POST("/top-ups", deps.WalletHandler.AddMoney)
			wallet.GET("/transactions", deps.WalletHandler.ListTransactions)
		}
	}

	return router
}
