package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"foodbridge/internal/handler"
	"foodbridge/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	DonationHandler *handler.DonationHandler
	ActorHandler    *handler.ActorHandler
	ReportHandler   *handler.ReportHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.Idempotency(deps.RedisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		donations := v1.Group("/donations")
		{
			donations.POST("", deps.DonationHandler.Submit)
			donations.GET("", deps.DonationHandler.GetAll)
			donations.GET("/:id", deps.DonationHandler.Get)
			donations.GET("/:id/candidates", deps.DonationHandler.Candidates)
			donations.POST("/:id/assign", deps.DonationHandler.Assign)
			donations.POST("/:id/cancel", deps.DonationHandler.Cancel)
			donations.POST("/:id/reject", deps.DonationHandler.Reject)
			donations.POST("/:id/pickup", deps.DonationHandler.Pickup)
			donations.POST("/:id/complete", deps.DonationHandler.Complete)
			donations.POST("/:id/duplicate", deps.DonationHandler.Duplicate)
		}

		actors := v1.Group("/actors")
		{
			actors.POST("/register", deps.ActorHandler.Register)
			actors.GET("", deps.ActorHandler.GetAll)
			actors.GET("/nearby", deps.ActorHandler.Nearby)
			actors.POST("/:id/location", deps.ActorHandler.UpdateLocation)
			actors.POST("/:id/availability", deps.ActorHandler.SetAvailability)
			actors.POST("/:id/rating", deps.ActorHandler.Rate)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/donors/:id", deps.ReportHandler.DonorReport)
			reports.GET("/history", deps.ReportHandler.History)
			reports.GET("/predict", deps.ReportHandler.Predict)
		}
	}

	return router
}
