package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecipeService handles recipe persistence
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe creates a new recipe, assigning its id
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns recipes ordered by creation time
func (s *RecipeService) ListRecipes(ctx context.Context, offset, limit int) ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := s.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipeImage sets the image URL of a recipe. Only that column is
// written, so concurrent updates resolve last-write-wins.
func (s *RecipeService) UpdateRecipeImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", id).
		Update("image_url", imageURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// UpdateRecipeIngredients replaces the ingredients, steps and nutrition of a
// recipe. A nil nutrition profile clears the stored analysis.
func (s *RecipeService) UpdateRecipeIngredients(ctx context.Context, id uuid.UUID, ingredients []types.Ingredient, steps []types.Step, nutrition types.NutritionProfile) error {
	var stored datatypes.JSON
	if nutrition.Available() {
		b, err := json.Marshal(nutrition)
		if err != nil {
			return fmt.Errorf("failed to encode nutrition: %w", err)
		}
		stored = b
	}

	res := s.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ingredients": datatypes.JSONSlice[types.Ingredient](ingredients),
			"steps":       datatypes.JSONSlice[types.Step](steps),
			"nutrition":   stored,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update recipe ingredients: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// LogRecipeAction appends an entry to the user's activity log
func (s *RecipeService) LogRecipeAction(ctx context.Context, userID, recipeID uuid.UUID, action string) error {
	entry := model.RecipeAction{UserID: userID, RecipeID: recipeID, Action: action}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// GetImageStatus reports whether the recipe's image is ready. Only the owner
// may read a private recipe.
func (s *RecipeService) GetImageStatus(ctx context.Context, userID, recipeID uuid.UUID) (*types.ImageStatus, error) {
	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID && !recipe.IsPublic {
		return nil, ErrForbidden
	}

	if recipe.ImageURL != nil && *recipe.ImageURL != "" {
		return &types.ImageStatus{
			RecipeID: recipe.ID,
			Status:   "success",
			Ready:    true,
			ImageURL: recipe.ImageURL,
		}, nil
	}
	return &types.ImageStatus{
		RecipeID: recipe.ID,
		Status:   "processing",
		Ready:    false,
		Message:  "Image is still being generated",
	}, nil
}
