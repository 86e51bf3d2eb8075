package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pageza/leanfeast/backend/internal/mocks"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const optimizedJSON = `{
  "original": ` + draftJSON + `,
  "optimized": {
    "title": "High Protein Chana Masala",
    "ingredients": [{"name": "chickpeas", "quantity": 3, "unit": "cups"}],
    "steps": [{"step_number": 1, "instruction": "Simmer chickpeas in gravy", "step_type": "passive"}]
  },
  "changes": [{"type": "increase", "description": "More chickpeas", "emoji": "💪"}]
}`

func newTestOptimizeService(model service.TextModel, evaluator service.INutritionEvaluator) *service.OptimizeService {
	return service.NewOptimizeService(model, evaluator, service.DefaultDraftPolicy().WithoutDelay(), zap.NewNop())
}

func unavailableNutrition() *mocks.MockNutritionEvaluator {
	evaluator := new(mocks.MockNutritionEvaluator)
	evaluator.On("Evaluate", mock.Anything, mock.Anything).Return(nil).Maybe()
	return evaluator
}

func TestParseOptimized(t *testing.T) {
	t.Run("should parse both recipes and changes", func(t *testing.T) {
		got, err := service.ParseOptimized("```json\n" + optimizedJSON + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "Chana Masala", got.Original.Title)
		assert.Equal(t, "High Protein Chana Masala", got.Optimized.Title)
		assert.Equal(t, 2, got.Optimized.ServingSize)
		require.Len(t, got.Changes, 1)
		assert.Equal(t, "increase", got.Changes[0].Type)
	})

	t.Run("should default missing changes to an empty list", func(t *testing.T) {
		got, err := service.ParseOptimized(`{"original": ` + draftJSON + `, "optimized": ` + draftJSON + `}`)
		require.NoError(t, err)
		assert.NotNil(t, got.Changes)
		assert.Empty(t, got.Changes)
	})

	t.Run("should reject a missing optimized recipe", func(t *testing.T) {
		_, err := service.ParseOptimized(`{"original": ` + draftJSON + `}`)
		assert.ErrorIs(t, err, service.ErrMalformedDraft)
	})

	t.Run("should reject an invalid optimized recipe", func(t *testing.T) {
		_, err := service.ParseOptimized(`{"original": ` + draftJSON + `, "optimized": {"title": "x"}}`)
		assert.ErrorIs(t, err, service.ErrMalformedDraft)
		assert.ErrorContains(t, err, "optimized recipe")
	})
}

func TestOptimizeService_Optimize(t *testing.T) {
	req := types.OptimizeRequest{
		RecipeDescription: "chana masala with 2 cups chickpeas",
		OptimizationGoal:  "more protein",
	}

	t.Run("should optimize a described recipe and analyse the result", func(t *testing.T) {
		model := new(mocks.MockTextModel)
		model.On("Invoke", mock.Anything, service.BuildOptimizePrompt(req)).Return(optimizedJSON, nil)
		evaluator := new(mocks.MockNutritionEvaluator)
		evaluator.On("Evaluate", mock.Anything, mock.MatchedBy(func(d *types.RecipeDraft) bool {
			return d.Title == "High Protein Chana Masala"
		})).Return(types.NutritionProfile{types.Calories: 520, types.Protein: 31})

		got, err := newTestOptimizeService(model, evaluator).Optimize(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "High Protein Chana Masala", got.Optimized.Title)
		assert.Equal(t, 31.0, got.Nutrition.Get(types.Protein))
		model.AssertExpectations(t)
		evaluator.AssertExpectations(t)
	})

	t.Run("should return nil nutrition when the analysis is unavailable", func(t *testing.T) {
		model := new(mocks.MockTextModel)
		model.On("Invoke", mock.Anything, mock.Anything).Return(optimizedJSON, nil)
		evaluator := new(mocks.MockNutritionEvaluator)
		evaluator.On("Evaluate", mock.Anything, mock.Anything).Return(nil).Once()

		got, err := newTestOptimizeService(model, evaluator).Optimize(context.Background(), req)

		require.NoError(t, err)
		assert.Nil(t, got.Nutrition)
		assert.False(t, got.Nutrition.Available())
		evaluator.AssertExpectations(t)
	})

	t.Run("should reject missing fields", func(t *testing.T) {
		model := new(mocks.MockTextModel)

		_, err := newTestOptimizeService(model, unavailableNutrition()).Optimize(context.Background(), types.OptimizeRequest{RecipeDescription: "soup"})

		assert.ErrorIs(t, err, service.ErrInvalidRequest)
		model.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
	})

	t.Run("should retry transient model failures", func(t *testing.T) {
		model := new(mocks.MockTextModel)
		model.On("Invoke", mock.Anything, mock.Anything).Return("", service.ErrTransient).Once()
		model.On("Invoke", mock.Anything, mock.Anything).Return(optimizedJSON, nil).Once()

		_, err := newTestOptimizeService(model, unavailableNutrition()).Optimize(context.Background(), req)

		require.NoError(t, err)
		model.AssertNumberOfCalls(t, "Invoke", 2)
	})

	t.Run("should not retry permanent model failures", func(t *testing.T) {
		model := new(mocks.MockTextModel)
		model.On("Invoke", mock.Anything, mock.Anything).Return("", errors.New("invalid api key"))

		_, err := newTestOptimizeService(model, unavailableNutrition()).Optimize(context.Background(), req)

		assert.ErrorContains(t, err, "invalid api key")
		model.AssertNumberOfCalls(t, "Invoke", 1)
	})

	t.Run("should surface unusable output", func(t *testing.T) {
		model := new(mocks.MockTextModel)
		model.On("Invoke", mock.Anything, mock.Anything).Return("I cannot help with that", nil)

		_, err := newTestOptimizeService(model, unavailableNutrition()).Optimize(context.Background(), req)

		assert.ErrorIs(t, err, service.ErrMalformedDraft)
	})
}
