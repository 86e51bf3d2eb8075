package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pageza/leanfeast/backend/internal/retry"
	"github.com/pageza/leanfeast/backend/internal/types"
	"go.uber.org/zap"
)

// DraftInput is everything a single draft call needs
type DraftInput struct {
	Request    types.GenerationRequest
	Profile    *types.UserPreferenceProfile
	Candidates []types.SimilarityCandidate
	// Issues are the unmet constraints of the previous attempt
	Issues []string
}

// DraftProducer asks a TextModel for a recipe and parses the answer
type DraftProducer struct {
	model  TextModel
	policy retry.Policy
	logger *zap.Logger
}

var _ IDraftProducer = (*DraftProducer)(nil)

// DefaultDraftPolicy retries transient model failures once after 2s
func DefaultDraftPolicy() retry.Policy {
	return retry.New("draft", 2, 2*time.Second, 4*time.Second).WithRetryable(IsTransient)
}

// NewDraftProducer creates a new DraftProducer
func NewDraftProducer(model TextModel, policy retry.Policy, logger *zap.Logger) *DraftProducer {
	logger = logger.Named("draft")
	return &DraftProducer{
		model:  model,
		policy: policy.WithLogger(logger),
		logger: logger,
	}
}

func (p *DraftProducer) ModelName() string {
	return p.model.Name()
}

// Produce renders the prompt, invokes the model and returns a validated
// draft. Malformed output is not retried.
func (p *DraftProducer) Produce(ctx context.Context, in DraftInput) (*types.RecipeDraft, error) {
	prompt := BuildGenerationPrompt(in)

	var raw string
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		out, err := p.model.Invoke(ctx, prompt)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	draft, err := ParseDraft(raw, in.Request.Servings())
	if err != nil {
		p.logger.Warn("model returned an unusable draft", zap.Error(err), zap.Int("response_length", len(raw)))
		return nil, err
	}

	p.logger.Debug("draft produced",
		zap.String("title", draft.Title),
		zap.Int("ingredients", len(draft.Ingredients)),
		zap.Int("steps", len(draft.Steps)),
		zap.Int("feedback_issues", len(in.Issues)),
	)
	return draft, nil
}

// ParseDraft extracts the JSON object from raw model output and validates it.
// A missing serving size falls back to defaultServings.
func ParseDraft(raw string, defaultServings int) (*types.RecipeDraft, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var draft types.RecipeDraft
	if err := json.Unmarshal([]byte(body), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}
	if draft.ServingSize < 1 {
		draft.ServingSize = defaultServings
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}
	return &draft, nil
}

// extractJSONObject strips markdown fences and returns the outermost object
func extractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in model output", ErrMalformedDraft)
	}
	return s[start : end+1], nil
}
