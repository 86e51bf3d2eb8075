package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockRecipeStore is a mock implementation of the RecipeStore interface
type MockRecipeStore struct {
	mock.Mock
}

// CreateRecipe mocks the CreateRecipe method
func (m *MockRecipeStore) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

// GetRecipe mocks the GetRecipe method
func (m *MockRecipeStore) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

// ListRecipes mocks the ListRecipes method
func (m *MockRecipeStore) ListRecipes(ctx context.Context, offset, limit int) ([]model.Recipe, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

// UpdateRecipeImage mocks the UpdateRecipeImage method
func (m *MockRecipeStore) UpdateRecipeImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	args := m.Called(ctx, id, imageURL)
	return args.Error(0)
}

// UpdateRecipeIngredients mocks the UpdateRecipeIngredients method
func (m *MockRecipeStore) UpdateRecipeIngredients(ctx context.Context, id uuid.UUID, ingredients []types.Ingredient, steps []types.Step, nutrition types.NutritionProfile) error {
	args := m.Called(ctx, id, ingredients, steps, nutrition)
	return args.Error(0)
}

// LogRecipeAction mocks the LogRecipeAction method
func (m *MockRecipeStore) LogRecipeAction(ctx context.Context, userID, recipeID uuid.UUID, action string) error {
	args := m.Called(ctx, userID, recipeID, action)
	return args.Error(0)
}

// MockImageStatusService is a mock implementation of the IImageStatusService interface
type MockImageStatusService struct {
	mock.Mock
}

func (m *MockImageStatusService) GetImageStatus(ctx context.Context, userID, recipeID uuid.UUID) (*types.ImageStatus, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ImageStatus), args.Error(1)
}

// MockIngredientReplacer is a mock implementation of the IIngredientReplacer interface
type MockIngredientReplacer struct {
	mock.Mock
}

func (m *MockIngredientReplacer) ReplaceIngredients(ctx context.Context, userID, recipeID uuid.UUID, indices []int, reason string) (*types.Recipe, error) {
	args := m.Called(ctx, userID, recipeID, indices, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Recipe), args.Error(1)
}
