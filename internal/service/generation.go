package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/metrics"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	similarTopK     = 5
	defaultMealType = "Dinner"
)

// Generation pipeline stages reported in GenerationError
const (
	StageRequest = "request"
	StageDraft   = "draft"
	StagePersist = "persist"
	StageUnknown = "unknown"
)

// GenerationService drives one recipe generation request from retrieval to
// persistence and schedules the image in the background.
type GenerationService struct {
	profiles ProfileStore
	ranker   ISimilarityRanker
	loop     *ConstraintLoop
	producer IDraftProducer
	recipes  RecipeStore
	images   IImageScheduler
	logger   *zap.Logger
}

var _ IGenerationService = (*GenerationService)(nil)

// NewGenerationService creates a new GenerationService
func NewGenerationService(
	profiles ProfileStore,
	ranker ISimilarityRanker,
	producer IDraftProducer,
	evaluator INutritionEvaluator,
	recipes RecipeStore,
	images IImageScheduler,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		profiles: profiles,
		ranker:   ranker,
		loop:     NewConstraintLoop(producer, evaluator, logger),
		producer: producer,
		recipes:  recipes,
		images:   images,
		logger:   logger.Named("generation"),
	}
}

// Generate runs the pipeline for userID. The returned recipe has no image;
// it is attached later by the image scheduler.
func (s *GenerationService) Generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) (result *types.GenerationResult, err error) {
	start := time.Now()
	log := s.logger.With(zap.Stringer("user_id", userID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("generation panicked", zap.Any("panic", r))
			result, err = nil, &GenerationError{Stage: StageUnknown, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			metrics.RecordGeneration("failed", 0, time.Since(start))
		}
	}()

	if strings.TrimSpace(req.Description) == "" {
		return nil, &GenerationError{Stage: StageRequest, Err: fmt.Errorf("%w: description is required", ErrInvalidRequest)}
	}

	profile := s.loadProfile(ctx, userID, log)

	query := strings.TrimSpace(req.MealName + " " + req.Description)
	candidates := s.ranker.FindSimilarForProfile(ctx, query, similarTopK, profile)
	log.Info("similar recipes retrieved", zap.Int("count", len(candidates)))

	outcome, err := s.loop.Run(ctx, DraftInput{
		Request:    req,
		Profile:    profile,
		Candidates: candidates,
	})
	if err != nil {
		log.Error("recipe draft failed", zap.Error(err))
		return nil, &GenerationError{Stage: StageDraft, Err: err}
	}

	constraintsMet := outcome.State == StateSatisfied || outcome.State == StateNoConstraints
	if !constraintsMet {
		log.Warn("accepting recipe with unmet constraints",
			zap.String("state", string(outcome.State)),
			zap.Int("attempts", outcome.Attempts),
			zap.Bool("degraded", outcome.Degraded),
			zap.Strings("issues", outcome.Issues),
		)
	}

	similarTitles := referenceTitles(candidates)
	recipe, err := s.buildRecipe(userID, req, outcome, similarTitles, constraintsMet)
	if err != nil {
		return nil, &GenerationError{Stage: StagePersist, Err: err}
	}
	if err := s.recipes.CreateRecipe(ctx, recipe); err != nil {
		log.Error("failed to persist recipe", zap.Error(err))
		return nil, &GenerationError{Stage: StagePersist, Err: err}
	}
	log = log.With(zap.Stringer("recipe_id", recipe.ID))

	if err := s.recipes.LogRecipeAction(ctx, userID, recipe.ID, "create"); err != nil {
		log.Warn("failed to log recipe action", zap.Error(err))
	}

	if !s.images.Enqueue(ImageJob{RecipeID: recipe.ID, Title: recipe.Title, Description: recipe.Description}) {
		log.Warn("image job not scheduled")
	}

	metrics.RecordGeneration(string(outcome.State), outcome.Attempts, time.Since(start))
	log.Info("recipe generated",
		zap.String("title", recipe.Title),
		zap.String("state", string(outcome.State)),
		zap.Int("attempts", outcome.Attempts),
		zap.Duration("duration", time.Since(start)),
	)

	var unmet []string
	if !constraintsMet {
		unmet = outcome.Issues
	}
	return &types.GenerationResult{
		Recipe:           recipe.ToAPI(),
		Nutrition:        outcome.Nutrition,
		ImageURL:         nil,
		ConstraintsMet:   constraintsMet,
		ConstraintState:  string(outcome.State),
		Attempts:         outcome.Attempts,
		UnmetConstraints: unmet,
		SimilarRecipes:   similarTitles,
	}, nil
}

func (s *GenerationService) loadProfile(ctx context.Context, userID uuid.UUID, log *zap.Logger) *types.UserPreferenceProfile {
	if s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		log.Warn("user profile unavailable, continuing without preferences", zap.Error(err))
		return nil
	}
	return profile
}

func (s *GenerationService) buildRecipe(userID uuid.UUID, req types.GenerationRequest, outcome *LoopResult, similar []string, constraintsMet bool) (*model.Recipe, error) {
	draft := outcome.Draft

	aiContext, err := json.Marshal(model.AIContext{
		SimilarRecipesUsed: similar,
		GenerationModel:    s.producer.ModelName(),
		ConstraintsMet:     constraintsMet,
		ConstraintState:    string(outcome.State),
		Attempts:           outcome.Attempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ai context: %w", err)
	}

	var nutrition datatypes.JSON
	if outcome.Nutrition.Available() {
		b, err := json.Marshal(outcome.Nutrition)
		if err != nil {
			return nil, fmt.Errorf("failed to encode nutrition: %w", err)
		}
		nutrition = b
	}

	return &model.Recipe{
		Title:         draft.Title,
		Description:   draft.Description,
		MealType:      mealType(req.MealType, draft.Tags),
		ServingSize:   draft.ServingSize,
		PrepTime:      draft.PrepTime,
		CookTime:      draft.CookTime,
		Ingredients:   datatypes.JSONSlice[types.Ingredient](draft.Ingredients),
		Steps:         datatypes.JSONSlice[types.Step](draft.Steps),
		Tags:          model.JSONBStringArray(draft.Tags),
		Nutrition:     nutrition,
		AIContext:     aiContext,
		IsPublic:      false,
		IsAIGenerated: true,
		UserID:        userID,
	}, nil
}

// mealType prefers the requested type, then the first tag
func mealType(requested string, tags []string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	if len(tags) > 0 && strings.TrimSpace(tags[0]) != "" {
		return tags[0]
	}
	return defaultMealType
}

func referenceTitles(candidates []types.SimilarityCandidate) []string {
	titles := make([]string, 0, maxReferenceRecipes)
	for _, c := range candidates {
		if len(titles) == maxReferenceRecipes {
			break
		}
		titles = append(titles, c.Title)
	}
	return titles
}
