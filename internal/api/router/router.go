package router

import (
	"net/http"

	"github.com/AnassEREKYSY/MarketPulse/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = "market-api-service"
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"service":       serviceName,
			"cache":         deps.CacheKind,
			"refresh_queue": deps.Publisher != nil,
		})
	})

	marketHandler := handler.NewMarketHandler(deps)
	cacheHandler := handler.NewCacheHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.GET("/search", marketHandler.Search)
			jobs.GET("/snapshot", marketHandler.Snapshot)
			jobs.GET("/statistics", marketHandler.Statistics)
			jobs.GET("/salaries", marketHandler.Salaries)
			jobs.GET("/heatmap", marketHandler.HeatMap)
			jobs.GET("/trends", marketHandler.Trends)
		}

		cache := v1.Group("/cache")
		{
			// DELETE /api/v1/cache?pattern=jobs:search*
			cache.DELETE("", cacheHandler.InvalidatePattern)
			cache.DELETE("/:key", cacheHandler.InvalidateKey)
			cache.POST("/refresh", cacheHandler.Refresh)
		}
	}

	return r
}
