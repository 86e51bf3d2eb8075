package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pageza/leanfeast/backend/internal/retry"
	"github.com/pageza/leanfeast/backend/internal/types"
	"go.uber.org/zap"
)

// OptimizeService rewrites a described recipe toward a goal with minimal
// changes and analyses the optimized recipe's nutrition. Results are not
// persisted.
type OptimizeService struct {
	model     TextModel
	evaluator INutritionEvaluator
	policy    retry.Policy
	logger    *zap.Logger
}

var _ IOptimizeService = (*OptimizeService)(nil)

// NewOptimizeService creates a new OptimizeService
func NewOptimizeService(model TextModel, evaluator INutritionEvaluator, policy retry.Policy, logger *zap.Logger) *OptimizeService {
	logger = logger.Named("optimize")
	return &OptimizeService{
		model:     model,
		evaluator: evaluator,
		policy:    policy.WithLogger(logger),
		logger:    logger,
	}
}

type optimizeResponse struct {
	Original  json.RawMessage      `json:"original"`
	Optimized json.RawMessage      `json:"optimized"`
	Changes   []types.RecipeChange `json:"changes"`
}

// Optimize returns the parsed original, the optimized recipe with its
// nutrition and the list of changes made. Nutrition is nil when the analysis
// is unavailable.
func (s *OptimizeService) Optimize(ctx context.Context, req types.OptimizeRequest) (*types.OptimizedRecipe, error) {
	if strings.TrimSpace(req.RecipeDescription) == "" || strings.TrimSpace(req.OptimizationGoal) == "" {
		return nil, fmt.Errorf("%w: recipe description and optimization goal are required", ErrInvalidRequest)
	}

	prompt := BuildOptimizePrompt(req)
	var raw string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		out, err := s.model.Invoke(ctx, prompt)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := ParseOptimized(raw)
	if err != nil {
		s.logger.Warn("model returned an unusable optimization", zap.Error(err))
		return nil, err
	}

	result.Nutrition = s.evaluator.Evaluate(ctx, &result.Optimized)

	s.logger.Info("recipe optimized",
		zap.String("goal", req.OptimizationGoal),
		zap.String("title", result.Optimized.Title),
		zap.Int("changes", len(result.Changes)),
		zap.Bool("nutrition_available", result.Nutrition.Available()),
	)
	return result, nil
}

// ParseOptimized parses an optimization answer. Both recipes must be valid
// drafts.
func ParseOptimized(raw string) (*types.OptimizedRecipe, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var resp optimizeResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}
	if len(resp.Original) == 0 || len(resp.Optimized) == 0 {
		return nil, fmt.Errorf("%w: original and optimized recipes are required", ErrMalformedDraft)
	}

	original, err := ParseDraft(string(resp.Original), 1)
	if err != nil {
		return nil, fmt.Errorf("original recipe: %w", err)
	}
	optimized, err := ParseDraft(string(resp.Optimized), original.ServingSize)
	if err != nil {
		return nil, fmt.Errorf("optimized recipe: %w", err)
	}

	changes := resp.Changes
	if changes == nil {
		changes = []types.RecipeChange{}
	}
	return &types.OptimizedRecipe{
		Original:  *original,
		Optimized: *optimized,
		Changes:   changes,
	}, nil
}
