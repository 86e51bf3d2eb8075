package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/retry"
	"github.com/pageza/leanfeast/backend/internal/types"
	"go.uber.org/zap"
)

// IngredientReplacer substitutes selected ingredients of a stored recipe
// through the model, then re-analyses and persists the result.
type IngredientReplacer struct {
	model     TextModel
	recipes   RecipeStore
	profiles  ProfileStore
	evaluator INutritionEvaluator
	policy    retry.Policy
	logger    *zap.Logger
}

var _ IIngredientReplacer = (*IngredientReplacer)(nil)

// NewIngredientReplacer creates a new IngredientReplacer
func NewIngredientReplacer(
	model TextModel,
	recipes RecipeStore,
	profiles ProfileStore,
	evaluator INutritionEvaluator,
	policy retry.Policy,
	logger *zap.Logger,
) *IngredientReplacer {
	logger = logger.Named("replace")
	return &IngredientReplacer{
		model:     model,
		recipes:   recipes,
		profiles:  profiles,
		evaluator: evaluator,
		policy:    policy.WithLogger(logger),
		logger:    logger,
	}
}

// ReplaceIngredients swaps the ingredients at indices for alternatives
// matching reason. Only the owner, or a user who saved or liked the recipe,
// may do so. The new ingredients, steps and nutrition are stored and the
// updated recipe returned.
func (r *IngredientReplacer) ReplaceIngredients(ctx context.Context, userID, recipeID uuid.UUID, indices []int, reason string) (*types.Recipe, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: replacement reason is required", ErrInvalidRequest)
	}

	recipe, err := r.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(ctx, userID, recipe); err != nil {
		return nil, err
	}
	if err := validateIndices(indices, len(recipe.Ingredients)); err != nil {
		return nil, err
	}

	log := r.logger.With(zap.Stringer("recipe_id", recipeID), zap.Ints("indices", indices))

	prompt := BuildReplacePrompt(recipe, indices, reason)
	var raw string
	err = r.policy.Do(ctx, func(ctx context.Context) error {
		out, err := r.model.Invoke(ctx, prompt)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	draft, err := ParseDraft(raw, recipe.ServingSize)
	if err != nil {
		log.Warn("model returned an unusable replacement", zap.Error(err))
		return nil, err
	}

	nutrition := r.evaluator.Evaluate(ctx, draft)
	if err := r.recipes.UpdateRecipeIngredients(ctx, recipeID, draft.Ingredients, draft.Steps, nutrition); err != nil {
		return nil, err
	}

	updated, err := r.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	log.Info("ingredients replaced",
		zap.Int("ingredients", len(draft.Ingredients)),
		zap.Bool("nutrition_available", nutrition.Available()),
	)
	return updated.ToAPI(), nil
}

func (r *IngredientReplacer) authorize(ctx context.Context, userID uuid.UUID, recipe *model.Recipe) error {
	if recipe.UserID == userID {
		return nil
	}
	profile, err := r.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	id := recipe.ID.String()
	if profile.Saved(id) || profile.Liked(id) {
		return nil
	}
	return fmt.Errorf("%w: only the owner or users who saved or liked the recipe can replace its ingredients", ErrForbidden)
}

func validateIndices(indices []int, count int) error {
	if len(indices) == 0 {
		return fmt.Errorf("%w: at least one ingredient index is required", ErrInvalidRequest)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= count {
			return fmt.Errorf("%w: invalid ingredient index %d, recipe has %d ingredients", ErrInvalidRequest, idx, count)
		}
	}
	return nil
}
