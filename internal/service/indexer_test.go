package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/mocks"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func storedRecipe(title string) model.Recipe {
	return model.Recipe{
		ID:          uuid.New(),
		Title:       title,
		Description: "A weeknight staple",
		MealType:    "Dinner",
		ServingSize: 2,
		Ingredients: []types.Ingredient{{Name: "lentils", Quantity: "1", Unit: "cup"}},
		Steps:       []types.Step{{StepNumber: 1, Instruction: "Simmer lentils", StepType: types.StepPassive}},
		Tags:        model.JSONBStringArray{"vegan"},
	}
}

func TestRecipeText(t *testing.T) {
	r := storedRecipe("Dal Tadka")
	assert.Equal(t, "Dal Tadka A weeknight staple lentils Simmer lentils vegan", service.RecipeText(&r))

	meta := service.RecipeMetadata(&r)
	assert.Equal(t, r.ID.String(), meta["id"])
	assert.Equal(t, []string{"1 cup lentils"}, meta["ingredients"])
	assert.Equal(t, "Dinner", meta["meal_type"])
}

func TestRecipeIndexer_IndexRecipes(t *testing.T) {
	ctx := context.Background()

	t.Run("should skip recipes already in the index", func(t *testing.T) {
		recipes := []model.Recipe{storedRecipe("A"), storedRecipe("B"), storedRecipe("C")}
		embedder := new(mocks.MockEmbedder)
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0}, nil)
		index := new(mocks.MockVectorIndex)
		index.On("Fetch", mock.Anything, mock.Anything).Return(map[string]bool{recipes[1].ID.String(): true}, nil)
		index.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		stats, err := service.NewRecipeIndexer(embedder, index, zap.NewNop()).IndexRecipes(ctx, recipes, false)

		require.NoError(t, err)
		assert.Equal(t, service.IndexStats{Indexed: 2, Skipped: 1}, stats)
		index.AssertNotCalled(t, "Upsert", mock.Anything, recipes[1].ID.String(), mock.Anything, mock.Anything)
	})

	t.Run("should reindex everything when forced", func(t *testing.T) {
		recipes := []model.Recipe{storedRecipe("A"), storedRecipe("B")}
		embedder := new(mocks.MockEmbedder)
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0}, nil)
		index := new(mocks.MockVectorIndex)
		index.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		stats, err := service.NewRecipeIndexer(embedder, index, zap.NewNop()).IndexRecipes(ctx, recipes, true)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.Indexed)
		index.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})

	t.Run("should count failures and continue", func(t *testing.T) {
		recipes := []model.Recipe{storedRecipe("A"), storedRecipe("B")}
		embedder := new(mocks.MockEmbedder)
		embedder.On("Embed", mock.Anything, "A A weeknight staple lentils Simmer lentils vegan").Return(nil, errors.New("boom"))
		embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0}, nil)
		index := new(mocks.MockVectorIndex)
		index.On("Fetch", mock.Anything, mock.Anything).Return(map[string]bool{}, nil)
		index.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		stats, err := service.NewRecipeIndexer(embedder, index, zap.NewNop()).IndexRecipes(ctx, recipes, false)

		require.NoError(t, err)
		assert.Equal(t, service.IndexStats{Indexed: 1, Failed: 1}, stats)
	})

	t.Run("should abort when the index lookup fails", func(t *testing.T) {
		index := new(mocks.MockVectorIndex)
		index.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

		_, err := service.NewRecipeIndexer(new(mocks.MockEmbedder), index, zap.NewNop()).
			IndexRecipes(ctx, []model.Recipe{storedRecipe("A")}, false)
		assert.Error(t, err)
	})
}
