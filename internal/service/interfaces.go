package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/types"
)

// Embedder turns text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexMatch is one nearest-neighbour hit returned by a VectorIndex
type IndexMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorIndex stores recipe embeddings and answers nearest-neighbour queries
type VectorIndex interface {
	Query(ctx context.Context, embedding []float32, k int) ([]IndexMatch, error)
	Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]any) error
	Fetch(ctx context.Context, ids []string) (map[string]bool, error)
}

// TextModel invokes a generative text model. Callers parse the output.
type TextModel interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	Name() string
}

// NutritionAnalyzer calls an external nutrition analysis service
type NutritionAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) ([]Nutrient, error)
}

// ImageGenerator renders an image for a prompt
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ObjectStorage stores objects and returns their public URL
type ObjectStorage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// RecipeStore persists recipes
type RecipeStore interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	ListRecipes(ctx context.Context, offset, limit int) ([]model.Recipe, error)
	UpdateRecipeImage(ctx context.Context, id uuid.UUID, imageURL string) error
	UpdateRecipeIngredients(ctx context.Context, id uuid.UUID, ingredients []types.Ingredient, steps []types.Step, nutrition types.NutritionProfile) error
	LogRecipeAction(ctx context.Context, userID, recipeID uuid.UUID, action string) error
}

// ProfileStore reads user preferences
type ProfileStore interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserPreferenceProfile, error)
}

// ISimilarityRanker retrieves reference recipes for a query
type ISimilarityRanker interface {
	FindSimilar(ctx context.Context, query string, topK int, userID *uuid.UUID) []types.SimilarityCandidate
	FindSimilarForProfile(ctx context.Context, query string, topK int, profile *types.UserPreferenceProfile) []types.SimilarityCandidate
}

// IDraftProducer produces validated recipe drafts
type IDraftProducer interface {
	Produce(ctx context.Context, in DraftInput) (*types.RecipeDraft, error)
	ModelName() string
}

// INutritionEvaluator evaluates a draft's nutrition. A nil profile means
// the analysis was unavailable.
type INutritionEvaluator interface {
	Evaluate(ctx context.Context, draft *types.RecipeDraft) types.NutritionProfile
}

// IImageScheduler accepts background image jobs
type IImageScheduler interface {
	Enqueue(job ImageJob) bool
}

// IGenerationService defines the interface for recipe generation
type IGenerationService interface {
	Generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) (*types.GenerationResult, error)
}

// IOptimizeService defines the interface for recipe optimization
type IOptimizeService interface {
	Optimize(ctx context.Context, req types.OptimizeRequest) (*types.OptimizedRecipe, error)
}

// IIngredientReplacer substitutes ingredients of stored recipes
type IIngredientReplacer interface {
	ReplaceIngredients(ctx context.Context, userID, recipeID uuid.UUID, indices []int, reason string) (*types.Recipe, error)
}

// IImageStatusService reads the background image state of a recipe
type IImageStatusService interface {
	GetImageStatus(ctx context.Context, userID, recipeID uuid.UUID) (*types.ImageStatus, error)
}

// ITokenValidator validates bearer tokens
type ITokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}
