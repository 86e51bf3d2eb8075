package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pageza/leanfeast/backend/config"
	"github.com/pageza/leanfeast/backend/internal/api"
	"github.com/pageza/leanfeast/backend/internal/middleware"
)

// SetupRouter configures the middleware chain and the application routes
func SetupRouter(cfg *config.Config, svc api.Services, health *api.HealthHandler, logger *zap.Logger) *gin.Engine {
	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(logger.Named("http")),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterRoutes(router, svc, health, logger)

	return router
}
