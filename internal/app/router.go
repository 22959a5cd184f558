package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/handler"
	"fuelanchor/internal/metrics"
	"fuelanchor/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AdminHandler      *handler.AdminHandler
	ZoneHandler       *handler.ZoneHandler
	StationHandler    *handler.StationHandler
	DriverHandler     *handler.DriverHandler
	RedemptionHandler *handler.RedemptionHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
	Auth              middleware.AuthConfig
	RedeemLimiter     *middleware.RateLimiter
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes. Idempotency runs after auth so keys are scoped per caller.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.Auth))
	v1.Use(middleware.NewRelicAttributes())
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		admin := v1.Group("/admin")
		{
			admin.POST("/initialize", deps.AdminHandler.Initialize)
			admin.GET("", deps.AdminHandler.GetAdmin)
		}
		v1.GET("/events", deps.AdminHandler.Events)

		zones := v1.Group("/zones")
		{
			zones.GET("/counts", deps.ZoneHandler.Counts)
			zones.POST("/circular", deps.ZoneHandler.CreateCircular)
			zones.GET("/circular/:id", deps.ZoneHandler.GetCircular)
			zones.POST("/circular/:id/validate", deps.ZoneHandler.ValidateCircular)
			zones.POST("/polygon", deps.ZoneHandler.CreatePolygon)
			zones.GET("/polygon/:id", deps.ZoneHandler.GetPolygon)
			zones.POST("/polygon/:id/validate", deps.ZoneHandler.ValidatePolygon)
			zones.POST("/:id/deactivate", deps.ZoneHandler.Deactivate)
		}

		corridors := v1.Group("/corridors")
		{
			corridors.POST("", deps.ZoneHandler.CreateCorridor)
			corridors.GET("/:id", deps.ZoneHandler.GetCorridor)
			corridors.POST("/:id/validate", deps.ZoneHandler.ValidateCorridor)
			corridors.POST("/:id/deactivate", deps.ZoneHandler.DeactivateCorridor)
		}

		fleets := v1.Group("/fleets/:operator")
		{
			fleets.PUT("/zones", deps.ZoneHandler.AssignFleetZones)
			fleets.POST("/validate-location", deps.ZoneHandler.ValidateFleetLocation)
			fleets.GET("/drivers", deps.DriverHandler.ListFleet)
		}

		stations := v1.Group("/stations")
		{
			stations.POST("", deps.StationHandler.Register)
			stations.GET("", deps.StationHandler.GetAll)
			stations.GET("/nearby", deps.StationHandler.Nearby)
			stations.GET("/owner/:owner", deps.StationHandler.GetByOwner)
			stations.GET("/:id", deps.StationHandler.GetStation)
			stations.PUT("/:id/price", deps.StationHandler.UpdatePrice)
			stations.POST("/:id/deactivate", deps.StationHandler.Deactivate)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Register)
			drivers.GET("/:address", deps.DriverHandler.GetDriver)
			drivers.GET("/:address/remaining", deps.DriverHandler.GetRemaining)
			drivers.PUT("/:address/limits", deps.DriverHandler.UpdateLimits)
			drivers.POST("/:address/deactivate", deps.DriverHandler.Deactivate)
			drivers.POST("/:address/reactivate", deps.DriverHandler.Reactivate)
			drivers.GET("/:address/redemptions", deps.RedemptionHandler.ListByDriver)
			drivers.GET("/:address/redemptions/last", deps.RedemptionHandler.LastByDriver)
		}

		redemptions := v1.Group("/redemptions")
		{
			if deps.RedeemLimiter != nil {
				redemptions.POST("", deps.RedeemLimiter.Middleware(), deps.RedemptionHandler.Redeem)
			} else {
				redemptions.POST("", deps.RedemptionHandler.Redeem)
			}
			redemptions.GET("/count", deps.RedemptionHandler.Count)
			redemptions.GET("/:id", deps.RedemptionHandler.GetRedemption)
		}
	}

	return router
}
