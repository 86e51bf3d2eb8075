package types

import (
	"regexp"
	"strconv"
)

// GenerationRequest represents the request body for generating a recipe
type GenerationRequest struct {
	Description             string         `json:"description" binding:"required"`
	MealName                string         `json:"meal_name"`
	ServingSize             int            `json:"serving_size" binding:"omitempty,min=1"`
	MealType                string         `json:"meal_type"`
	FlavorControls          map[string]any `json:"flavor_controls"`
	CookingSkillLevel       string         `json:"cooking_skill_level"`
	TimeConstraints         string         `json:"time_constraints"`
	CalorieRange            string         `json:"calorie_range"`
	ProteinTargetPerServing *float64       `json:"protein_target_per_serving" binding:"omitempty,gt=0"`
}

// Servings returns the requested serving size, defaulting to 1
func (r GenerationRequest) Servings() int {
	if r.ServingSize < 1 {
		return 1
	}
	return r.ServingSize
}

// NutritionTargets are derived from a GenerationRequest once per run
type NutritionTargets struct {
	TargetCalories *float64
	MinCalories    *float64
	ProteinTarget  *float64
}

// HasConstraints reports whether any nutritional target was supplied
func (t NutritionTargets) HasConstraints() bool {
	return t.TargetCalories != nil || t.ProteinTarget != nil
}

var calorieRangePattern = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)

// ParseCalorieRange parses "min-max". It reports false for malformed
// ranges and for ranges whose max does not exceed min.
func ParseCalorieRange(s string) (lo, hi float64, ok bool) {
	m := calorieRangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	minVal, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	maxVal, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	if maxVal <= minVal {
		return 0, 0, false
	}
	return float64(minVal), float64(maxVal), true
}

// Targets derives the nutritional targets. The upper bound of the calorie
// range is the calorie target.
func (r GenerationRequest) Targets() NutritionTargets {
	var t NutritionTargets
	if lo, hi, ok := ParseCalorieRange(r.CalorieRange); ok {
		t.MinCalories = &lo
		t.TargetCalories = &hi
	}
	if r.ProteinTargetPerServing != nil {
		p := *r.ProteinTargetPerServing
		t.ProteinTarget = &p
	}
	return t
}

// OptimizeRequest represents the request body for optimizing a recipe
type OptimizeRequest struct {
	RecipeDescription string `json:"recipe_description" binding:"required"`
	OptimizationGoal  string `json:"optimization_goal" binding:"required"`
	AdditionalNotes   string `json:"additional_notes"`
}

// ReplaceIngredientsRequest asks for specific ingredients of a stored recipe
// to be substituted. Indices are 0-based positions in the ingredient list.
type ReplaceIngredientsRequest struct {
	IngredientIndices []int  `json:"ingredient_indices" binding:"required,min=1"`
	ReplacementReason string `json:"replacement_reason" binding:"required"`
}
