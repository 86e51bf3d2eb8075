package service

import (
	"context"
	"fmt"
	"math"

	"github.com/pageza/leanfeast/backend/internal/types"
	"go.uber.org/zap"
)

// ConstraintState is the outcome of the constraint validation loop
type ConstraintState string

const (
	StateNoConstraints ConstraintState = "NO_CONSTRAINTS"
	StateChecking      ConstraintState = "CHECKING"
	StateSatisfied     ConstraintState = "SATISFIED"
	StateExhausted     ConstraintState = "EXHAUSTED"
)

const (
	// MaxAttempts bounds the number of drafts produced for one request
	MaxAttempts = 3

	calorieTolerance = 100.0
	proteinTolerance = 10.0
)

// Accepted reports whether the state is terminal
func (s ConstraintState) Accepted() bool {
	return s != StateChecking
}

// ConstraintValidator compares nutrition against the requested targets
type ConstraintValidator struct{}

// Check returns one issue per unmet target. An empty result means every
// supplied target is met. servings is used for the per-serving protein.
func (ConstraintValidator) Check(targets types.NutritionTargets, nutrition types.NutritionProfile, servings int) []string {
	var issues []string

	if targets.TargetCalories != nil {
		if issue := checkCalories(targets, nutrition); issue != "" {
			issues = append(issues, issue)
		}
	}

	if targets.ProteinTarget != nil && nutrition.Has(types.Protein) {
		if servings < 1 {
			servings = 1
		}
		target := *targets.ProteinTarget
		perServing := nutrition.Get(types.Protein) / float64(servings)
		if diff := math.Abs(perServing - target); diff > proteinTolerance {
			direction, verb := "low", "increase"
			if perServing > target {
				direction, verb = "high", "reduce"
			}
			issues = append(issues, fmt.Sprintf(
				"Protein too %s: %.1fg per serving (target: %.1fg per serving). Need to %s protein by at least %.1fg per serving.",
				direction, perServing, target, verb, diff))
		}
	}

	return issues
}

func checkCalories(targets types.NutritionTargets, nutrition types.NutritionProfile) string {
	target := *targets.TargetCalories
	minCalories := target
	if targets.MinCalories != nil {
		minCalories = *targets.MinCalories
	}

	if !nutrition.Available() {
		return fmt.Sprintf("Nutrition analysis failed. Cannot validate calories against target range: %.0f-%.0f kcal.", minCalories, target)
	}

	actual := nutrition.Get(types.Calories)
	if actual < minCalories-calorieTolerance {
		return fmt.Sprintf(
			"Calories too low: %.0f kcal (target range: %.0f-%.0f kcal). Need to increase calories by at least %.0f kcal.",
			actual, minCalories, target, minCalories-actual)
	}

	diff := math.Abs(actual - target)
	if diff < calorieTolerance {
		return ""
	}
	if actual > target {
		return fmt.Sprintf(
			"Calories too high: %.0f kcal (target: %.0f kcal, difference: %.0f kcal). Need to reduce calories by %.0f kcal.",
			actual, target, diff, diff)
	}
	return fmt.Sprintf(
		"Calories too low: %.0f kcal (target: %.0f kcal, difference: %.0f kcal). Need to increase calories by %.0f kcal.",
		actual, target, diff, diff)
}

// attemptState is the mutable state of one validation loop
type attemptState struct {
	attempt   int
	draftCall int
	draft     *types.RecipeDraft
	nutrition types.NutritionProfile
	issues    []string
	state     ConstraintState
	degraded  bool
}

// LoopResult is the accepted draft and how it was reached
type LoopResult struct {
	Draft     *types.RecipeDraft
	Nutrition types.NutritionProfile
	State     ConstraintState
	// Attempts is the number of drafts produced
	Attempts int
	// Issues are the constraints still unmet by the accepted draft
	Issues []string
	// Degraded is set when a regeneration failed and the loop stopped early
	Degraded bool
}

// ConstraintLoop drives draft, nutrition and validation until the draft is
// accepted
type ConstraintLoop struct {
	producer  IDraftProducer
	evaluator INutritionEvaluator
	validator ConstraintValidator
	logger    *zap.Logger
}

// NewConstraintLoop creates a new ConstraintLoop
func NewConstraintLoop(producer IDraftProducer, evaluator INutritionEvaluator, logger *zap.Logger) *ConstraintLoop {
	return &ConstraintLoop{
		producer:  producer,
		evaluator: evaluator,
		logger:    logger.Named("constraints"),
	}
}

// Run produces the first draft and regenerates it with feedback until the
// targets are met or MaxAttempts drafts were produced. Only a failure of the
// first draft is returned as an error; a failed regeneration keeps the last
// draft.
func (l *ConstraintLoop) Run(ctx context.Context, in DraftInput) (*LoopResult, error) {
	targets := in.Request.Targets()
	st := &attemptState{state: StateChecking}

	draft, err := l.producer.Produce(ctx, in)
	if err != nil {
		return nil, err
	}
	st.draftCall++
	st.draft = draft
	st.nutrition = l.evaluator.Evaluate(ctx, draft)

	if !targets.HasConstraints() {
		st.state = StateNoConstraints
		return st.result(), nil
	}

	for st.attempt < MaxAttempts {
		st.issues = l.validator.Check(targets, st.nutrition, st.draft.ServingSize)
		if len(st.issues) == 0 {
			st.state = StateSatisfied
			break
		}

		l.logger.Info("constraints not met",
			zap.Int("attempt", st.attempt+1),
			zap.Strings("issues", st.issues),
		)

		if st.attempt+1 >= MaxAttempts {
			st.state = StateExhausted
			break
		}

		feedback := in
		feedback.Issues = st.issues
		next, err := l.producer.Produce(ctx, feedback)
		if err != nil {
			l.logger.Warn("regeneration failed, keeping previous draft",
				zap.Int("attempt", st.attempt+1),
				zap.Error(err),
			)
			st.state = StateExhausted
			st.degraded = true
			break
		}

		st.attempt++
		st.draftCall++
		st.draft = next
		st.nutrition = l.evaluator.Evaluate(ctx, next)
	}

	return st.result(), nil
}

func (st *attemptState) result() *LoopResult {
	return &LoopResult{
		Draft:     st.draft,
		Nutrition: st.nutrition,
		State:     st.state,
		Attempts:  st.draftCall,
		Issues:    st.issues,
		Degraded:  st.degraded,
	}
}
