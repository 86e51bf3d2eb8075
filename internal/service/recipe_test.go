package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/testhelpers"
	"github.com/pageza/leanfeast/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newStoredRecipe(t *testing.T, svc *service.RecipeService, owner uuid.UUID, public bool) *model.Recipe {
	t.Helper()
	r := &model.Recipe{
		Title:       "Rajma",
		ServingSize: 2,
		Ingredients: datatypes.JSONSlice[types.Ingredient]{{Name: "kidney beans", Quantity: "1", Unit: "cup"}},
		Steps:       datatypes.JSONSlice[types.Step]{{StepNumber: 1, Instruction: "Simmer", StepType: types.StepPassive}},
		IsPublic:    public,
		UserID:      owner,
	}
	require.NoError(t, svc.CreateRecipe(context.Background(), r))
	return r
}

func TestRecipeService(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewRecipeService(db)
	owner := uuid.New()

	t.Run("should create and read back a recipe", func(t *testing.T) {
		r := newStoredRecipe(t, svc, owner, false)
		assert.NotEqual(t, uuid.Nil, r.ID)

		got, err := svc.GetRecipe(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rajma", got.Title)
		require.Len(t, got.Steps, 1)
		assert.Equal(t, types.StepPassive, got.Steps[0].StepType)
	})

	t.Run("should report missing recipes", func(t *testing.T) {
		_, err := svc.GetRecipe(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrRecipeNotFound)

		err = svc.UpdateRecipeImage(ctx, uuid.New(), "https://cdn/x.jpg")
		assert.ErrorIs(t, err, service.ErrRecipeNotFound)
	})

	t.Run("should list recipes in pages", func(t *testing.T) {
		db := testhelpers.SetupSQLiteDB(t)
		svc := service.NewRecipeService(db)
		for range 3 {
			newStoredRecipe(t, svc, owner, true)
		}

		page, err := svc.ListRecipes(ctx, 0, 2)
		require.NoError(t, err)
		assert.Len(t, page, 2)

		rest, err := svc.ListRecipes(ctx, 2, 2)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("should replace ingredients, steps and nutrition", func(t *testing.T) {
		r := newStoredRecipe(t, svc, owner, false)
		ingredients := []types.Ingredient{{Name: "black beans", Quantity: "1", Unit: "cup"}}
		steps := []types.Step{
			{StepNumber: 1, Instruction: "Rinse the beans", StepType: types.StepActive},
			{StepNumber: 2, Instruction: "Simmer", StepType: types.StepPassive},
		}

		require.NoError(t, svc.UpdateRecipeIngredients(ctx, r.ID, ingredients, steps, types.NutritionProfile{types.Calories: 420, types.Protein: 0}))

		got, err := svc.GetRecipe(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rajma", got.Title)
		assert.Equal(t, ingredients, []types.Ingredient(got.Ingredients))
		assert.Len(t, got.Steps, 2)
		nutrition := got.NutritionProfile()
		assert.Equal(t, 420.0, nutrition.Get(types.Calories))
		assert.True(t, nutrition.Has(types.Protein))

		require.NoError(t, svc.UpdateRecipeIngredients(ctx, r.ID, ingredients, steps, nil))
		got, err = svc.GetRecipe(ctx, r.ID)
		require.NoError(t, err)
		assert.False(t, got.NutritionProfile().Available())

		err = svc.UpdateRecipeIngredients(ctx, uuid.New(), ingredients, steps, nil)
		assert.ErrorIs(t, err, service.ErrRecipeNotFound)
	})

	t.Run("should log recipe actions", func(t *testing.T) {
		r := newStoredRecipe(t, svc, owner, false)
		require.NoError(t, svc.LogRecipeAction(ctx, owner, r.ID, "create"))

		var count int64
		require.NoError(t, db.Model(&model.RecipeAction{}).Where("recipe_id = ? AND action = ?", r.ID, "create").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestRecipeService_GetImageStatus(t *testing.T) {
	ctx := context.Background()
	svc := service.NewRecipeService(testhelpers.SetupSQLiteDB(t))
	owner := uuid.New()

	t.Run("should report processing until the image is attached", func(t *testing.T) {
		r := newStoredRecipe(t, svc, owner, false)

		status, err := svc.GetImageStatus(ctx, owner, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "processing", status.Status)
		assert.False(t, status.Ready)
		assert.Nil(t, status.ImageURL)

		require.NoError(t, svc.UpdateRecipeImage(ctx, r.ID, "https://cdn/a.jpg"))
		require.NoError(t, svc.UpdateRecipeImage(ctx, r.ID, "https://cdn/b.jpg"))

		status, err = svc.GetImageStatus(ctx, owner, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "success", status.Status)
		assert.True(t, status.Ready)
		require.NotNil(t, status.ImageURL)
		assert.Equal(t, "https://cdn/b.jpg", *status.ImageURL)
	})

	t.Run("should hide private recipes from other users", func(t *testing.T) {
		r := newStoredRecipe(t, svc, owner, false)

		_, err := svc.GetImageStatus(ctx, uuid.New(), r.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("should show public recipes to anyone", func(t *testing.T) {
		r := newStoredRecipe(t, svc, owner, true)

		status, err := svc.GetImageStatus(ctx, uuid.New(), r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, status.RecipeID)
	})

	t.Run("should report unknown recipes", func(t *testing.T) {
		_, err := svc.GetImageStatus(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, service.ErrRecipeNotFound)
	})
}
