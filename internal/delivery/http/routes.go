package http

import (
	"github.com/gin-gonic/gin"

	"github.com/organicai/scanner/config"
)

// SetupRouter creates and configures the Gin router. visitors may be nil,
// which disables per-IP rate limiting.
func SetupRouter(cfg *config.Config, handler *Handler, visitors VisitorStore) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	if visitors != nil && cfg.RateLimit.PerIP > 0 {
		api.Use(RateLimitMiddleware(visitors, cfg.RateLimit.PerIP))
	}
	if cfg.Server.MaxBodyBytes > 0 {
		api.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))
	}
	{
		api.POST("/upload", handler.UploadImage)
		api.POST("/analyze", handler.AnalyzeImage)
	}

	return router
}
