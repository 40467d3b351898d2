package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lightera/qrhub/internal/config"
	"lightera/qrhub/internal/handler/middleware"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	tokenHandler *TokenHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/tokens", tokenHandler.Mint)
		api.GET("/tokens/:code", tokenHandler.Validate)
		api.POST("/tokens/:code/redeem", tokenHandler.Redeem)
		api.POST("/tokens/:code/cancel", tokenHandler.Cancel)

		api.GET("/recipients/:recipient_id/tokens", tokenHandler.ListByRecipient)
		api.GET("/stats", tokenHandler.Stats)
	}

	return r
}
