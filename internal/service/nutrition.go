package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pageza/leanfeast/backend/internal/metrics"
	"github.com/pageza/leanfeast/backend/internal/retry"
	"github.com/pageza/leanfeast/backend/internal/types"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	spoonacularService = "spoonacular"
	nutritionTimeout   = 25 * time.Second
)

// AnalyzeRequest is the recipe payload sent for nutrition analysis
type AnalyzeRequest struct {
	Title        string   `json:"title"`
	Servings     int      `json:"servings"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
}

// Nutrient is one entry of an analysis response
type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type analyzeResponse struct {
	Nutrition struct {
		Nutrients []Nutrient `json:"nutrients"`
	} `json:"nutrition"`
}

// SpoonacularClient calls the recipe analysis endpoint. Outbound calls are
// throttled and guarded by a circuit breaker.
type SpoonacularClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]Nutrient]
}

var _ NutritionAnalyzer = (*SpoonacularClient)(nil)

// NewSpoonacularClient creates a client allowing rps requests per second
func NewSpoonacularClient(baseURL, apiKey string, rps float64, logger *zap.Logger) *SpoonacularClient {
	logger = logger.Named("spoonacular")
	if rps <= 0 {
		rps = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(spoonacularService).Set(0)
	cb := gobreaker.NewCircuitBreaker[[]Nutrient](gobreaker.Settings{
		Name:        spoonacularService,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &SpoonacularClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: nutritionTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cb:      cb,
	}
}

// Analyze posts req and returns the reported nutrients. A 429 yields
// ErrRateLimited and a 402 yields ErrQuotaExhausted.
func (c *SpoonacularClient) Analyze(ctx context.Context, req AnalyzeRequest) ([]Nutrient, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	nutrients, err := c.cb.Execute(func() ([]Nutrient, error) {
		return c.analyze(ctx, req)
	})
	metrics.RecordUpstreamCall(spoonacularService, err, time.Since(start))
	return nutrients, err
}

func (c *SpoonacularClient) analyze(ctx context.Context, req AnalyzeRequest) ([]Nutrient, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("includeNutrition", "true")
	endpoint := c.baseURL + "/recipes/analyze?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, transient(fmt.Errorf("failed to send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient(fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrQuotaExhausted
	default:
		return nil, &HTTPStatusError{Service: spoonacularService, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var result analyzeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Nutrition.Nutrients, nil
}

// nutrientSynonyms maps analysis nutrient names onto the tracked nutrients.
// Order matters: the first synonym contained in a name decides its key.
var nutrientSynonyms = []struct {
	key      types.Nutrient
	synonyms []string
}{
	{types.Calories, []string{"calories", "energy"}},
	{types.Protein, []string{"protein"}},
	{types.Carbs, []string{"carbohydrate", "carbs", "carbohydrates"}},
	{types.Fats, []string{"fat", "total fat"}},
	{types.Fiber, []string{"fiber", "dietary fiber"}},
	{types.Sugar, []string{"sugar", "sugars"}},
}

// ExtractNutrition folds an analysis response into a NutritionProfile.
// Every tracked nutrient is present, zero when unreported. The first entry
// matching a key wins, so "Saturated Fat" does not replace "Fat".
func ExtractNutrition(nutrients []Nutrient) types.NutritionProfile {
	profile := make(types.NutritionProfile, len(types.Nutrients))
	for _, n := range types.Nutrients {
		profile[n] = 0
	}

	seen := make(map[types.Nutrient]bool, len(types.Nutrients))
	for _, nutrient := range nutrients {
		name := strings.ToLower(strings.TrimSpace(nutrient.Name))
		key, ok := matchNutrient(name)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		profile[key] = math.Round(nutrient.Amount*100) / 100
	}
	return profile
}

func matchNutrient(name string) (types.Nutrient, bool) {
	for _, entry := range nutrientSynonyms {
		for _, syn := range entry.synonyms {
			if strings.Contains(name, syn) {
				return entry.key, true
			}
		}
	}
	return "", false
}

// NutritionEvaluator analyses drafts and never fails: every error becomes a
// nil profile. Without an analyzer every profile is nil.
type NutritionEvaluator struct {
	analyzer NutritionAnalyzer
	policy   retry.Policy
	logger   *zap.Logger
}

var _ INutritionEvaluator = (*NutritionEvaluator)(nil)

// DefaultNutritionPolicy makes two attempts. Rate limiting waits 2s, other
// failures 1s. Quota exhaustion is not retried.
func DefaultNutritionPolicy() retry.Policy {
	return retry.New("nutrition", 2, time.Second).
		WithRetryable(func(err error) bool {
			return !errors.Is(err, ErrQuotaExhausted) && !errors.Is(err, gobreaker.ErrOpenState)
		}).
		WithDelayFor(func(err error, n int) time.Duration {
			if errors.Is(err, ErrRateLimited) {
				return time.Duration(n+1) * 2 * time.Second
			}
			return time.Second
		})
}

// NewNutritionEvaluator creates a new NutritionEvaluator
func NewNutritionEvaluator(analyzer NutritionAnalyzer, policy retry.Policy, logger *zap.Logger) *NutritionEvaluator {
	logger = logger.Named("nutrition")
	return &NutritionEvaluator{
		analyzer: analyzer,
		policy:   policy.WithLogger(logger),
		logger:   logger,
	}
}

// Evaluate returns the draft's whole-recipe nutrition, or nil when the
// analysis is unavailable.
func (e *NutritionEvaluator) Evaluate(ctx context.Context, draft *types.RecipeDraft) types.NutritionProfile {
	if draft == nil || e.analyzer == nil {
		return nil
	}

	req := AnalyzeRequest{
		Title:        draft.Title,
		Servings:     draft.ServingSize,
		Ingredients:  draft.IngredientLines(),
		Instructions: draft.InstructionText(),
	}

	var nutrients []Nutrient
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		out, err := e.analyzer.Analyze(ctx, req)
		if err != nil {
			return err
		}
		nutrients = out
		return nil
	})
	if err != nil {
		e.logger.Warn("nutrition analysis unavailable", zap.String("title", draft.Title), zap.Error(err))
		return nil
	}
	if len(nutrients) == 0 {
		e.logger.Warn("nutrition analysis returned no nutrients", zap.String("title", draft.Title))
		return nil
	}

	profile := ExtractNutrition(nutrients)
	e.logger.Debug("nutrition evaluated",
		zap.String("title", draft.Title),
		zap.Float64("calories", profile.Get(types.Calories)),
		zap.Float64("protein", profile.Get(types.Protein)),
	)
	return profile
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
