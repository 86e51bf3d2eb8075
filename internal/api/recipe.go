package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/leanfeast/backend/internal/middleware"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/types"
)

// RecipeHandler serves recipe generation, optimization, ingredient
// replacement and image status
type RecipeHandler struct {
	generation service.IGenerationService
	optimize   service.IOptimizeService
	replacer   service.IIngredientReplacer
	images     service.IImageStatusService
	logger     *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(
	generation service.IGenerationService,
	optimize service.IOptimizeService,
	replacer service.IIngredientReplacer,
	images service.IImageStatusService,
	logger *zap.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		generation: generation,
		optimize:   optimize,
		replacer:   replacer,
		images:     images,
		logger:     logger.Named("recipes-api"),
	}
}

// RegisterRoutes registers the recipe routes. Every route requires auth;
// limit, when non-nil, guards the model-backed routes.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, limit gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	recipes.Use(auth)

	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if limit == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{limit, handler}
	}

	recipes.POST("/generate", limited(h.GenerateRecipe)...)
	recipes.POST("/optimize", limited(h.OptimizeRecipe)...)
	recipes.POST("/:id/replace-ingredients", limited(h.ReplaceIngredients)...)
	recipes.GET("/:id/image", h.GetImageStatus)
}

// GenerateRecipe generates, validates and persists a recipe. The image is
// attached later and polled through GetImageStatus.
func (h *RecipeHandler) GenerateRecipe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req types.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.generation.Generate(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.Error("recipe generation failed", zap.Stringer("user_id", userID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// OptimizeRecipe rewrites a described recipe toward a goal
func (h *RecipeHandler) OptimizeRecipe(c *gin.Context) {
	var req types.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.optimize.Optimize(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("recipe optimization failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReplaceIngredients substitutes selected ingredients of a stored recipe and
// returns the updated recipe
func (h *RecipeHandler) ReplaceIngredients(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req types.ReplaceIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.replacer.ReplaceIngredients(c.Request.Context(), userID, recipeID, req.IngredientIndices, req.ReplacementReason)
	if err != nil {
		h.logger.Warn("ingredient replacement failed",
			zap.Stringer("user_id", userID),
			zap.Stringer("recipe_id", recipeID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Ingredients replaced successfully",
		"recipe":  recipe,
	})
}

// GetImageStatus reports whether the recipe image is attached. A pending
// image answers 202.
func (h *RecipeHandler) GetImageStatus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	status, err := h.images.GetImageStatus(c.Request.Context(), userID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !status.Ready {
		c.JSON(http.StatusAccepted, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
