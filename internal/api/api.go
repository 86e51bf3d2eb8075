// Package api holds the gin handlers of the recipe pipeline.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/leanfeast/backend/internal/middleware"
	"github.com/pageza/leanfeast/backend/internal/service"
)

// Services are the collaborators the HTTP surface calls into
type Services struct {
	Generation service.IGenerationService
	Optimize   service.IOptimizeService
	Replacer   service.IIngredientReplacer
	Images     service.IImageStatusService
	Tokens     middleware.TokenValidator
	// Limiter is optional; generation is unlimited without it
	Limiter *middleware.RateLimiter
}

// RegisterRoutes registers the health and v1 routes
func RegisterRoutes(router *gin.Engine, svc Services, health *HealthHandler, logger *zap.Logger) {
	router.GET("/health", health.Health)
	router.GET("/api/health", health.Health)

	var limit gin.HandlerFunc
	if svc.Limiter != nil {
		limit = svc.Limiter.RateLimitMiddleware()
	} else {
		logger.Warn("generation rate limiting disabled")
	}

	v1 := router.Group("/api/v1")
	recipeHandler := NewRecipeHandler(svc.Generation, svc.Optimize, svc.Replacer, svc.Images, logger)
	recipeHandler.RegisterRoutes(v1, middleware.AuthMiddleware(svc.Tokens), limit)
}
