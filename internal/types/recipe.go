package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// StepType classifies how much attention a step needs from the cook
type StepType string

const (
	StepActive  StepType = "active"
	StepPassive StepType = "passive"
	StepWait    StepType = "wait"
)

// Valid reports whether t is one of the known step types
func (t StepType) Valid() bool {
	switch t {
	case StepActive, StepPassive, StepWait:
		return true
	}
	return false
}

// Quantity accepts both string and number values, e.g. "2 cups" or 2
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*q = Quantity(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*q = Quantity(strings.TrimSpace(str))
		return nil
	}

	return fmt.Errorf("invalid quantity format: %s", string(data))
}

// Ingredient is one line of a recipe's ingredient list
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit,omitempty"`
}

// String renders the ingredient as "qty unit name" or "qty name"
func (i Ingredient) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{string(i.Quantity), i.Unit, i.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Step is one atomic cooking instruction
type Step struct {
	StepNumber  int      `json:"step_number"`
	Instruction string   `json:"instruction"`
	StepType    StepType `json:"step_type"`
}

// RecipeDraft is a candidate recipe produced by the generative model
type RecipeDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	PrepTime    int          `json:"prep_time"`
	CookTime    int          `json:"cook_time"`
	ServingSize int          `json:"serving_size"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	Tags        []string     `json:"tags"`
}

// Normalize orders steps by their number, renumbers them from 1 and
// lowercases step types.
func (d *RecipeDraft) Normalize() {
	sort.SliceStable(d.Steps, func(i, j int) bool {
		return d.Steps[i].StepNumber < d.Steps[j].StepNumber
	})
	for i := range d.Steps {
		d.Steps[i].StepNumber = i + 1
		d.Steps[i].StepType = StepType(strings.ToLower(strings.TrimSpace(string(d.Steps[i].StepType))))
	}
	d.Title = strings.TrimSpace(d.Title)
}

// Validate checks the invariants every accepted draft must hold
func (d *RecipeDraft) Validate() error {
	var errs []error
	if d.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if d.PrepTime < 0 || d.CookTime < 0 {
		errs = append(errs, errors.New("prep_time and cook_time must not be negative"))
	}
	if d.ServingSize < 1 {
		errs = append(errs, errors.New("serving_size must be at least 1"))
	}
	if len(d.Ingredients) == 0 {
		errs = append(errs, errors.New("ingredients must not be empty"))
	}
	for i, ing := range d.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			errs = append(errs, fmt.Errorf("ingredient %d has no name", i+1))
		}
	}
	if len(d.Steps) == 0 {
		errs = append(errs, errors.New("steps must not be empty"))
	}
	prev := 0
	for _, s := range d.Steps {
		if s.StepNumber != prev+1 {
			errs = append(errs, fmt.Errorf("step numbers must increase from 1, got %d after %d", s.StepNumber, prev))
		}
		prev = s.StepNumber
		if !s.StepType.Valid() {
			errs = append(errs, fmt.Errorf("step %d has invalid step_type %q", s.StepNumber, s.StepType))
		}
		if strings.TrimSpace(s.Instruction) == "" {
			errs = append(errs, fmt.Errorf("step %d has no instruction", s.StepNumber))
		}
	}
	return errors.Join(errs...)
}

// InstructionText joins the step instructions in order, terminated by a period
func (d *RecipeDraft) InstructionText() string {
	steps := make([]Step, len(d.Steps))
	copy(steps, d.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })

	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		if text := strings.TrimSpace(s.Instruction); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}

// IngredientLines renders every ingredient with String
func (d *RecipeDraft) IngredientLines() []string {
	lines := make([]string, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		lines = append(lines, ing.String())
	}
	return lines
}

// Nutrient names a macro-nutrient tracked in a NutritionProfile
type Nutrient string

const (
	Calories Nutrient = "calories"
	Protein  Nutrient = "protein"
	Carbs    Nutrient = "carbs"
	Fats     Nutrient = "fats"
	Fiber    Nutrient = "fiber"
	Sugar    Nutrient = "sugar"
)

// Nutrients lists the tracked nutrients in reporting order
var Nutrients = []Nutrient{Calories, Protein, Carbs, Fats, Fiber, Sugar}

// NutritionProfile holds whole-recipe nutrient totals. A nil or empty
// profile means the analysis was unavailable.
type NutritionProfile map[Nutrient]float64

// Available reports whether any nutrient was resolved
func (p NutritionProfile) Available() bool {
	return len(p) > 0
}

// Get returns the value of n, or 0 when it was not resolved
func (p NutritionProfile) Get(n Nutrient) float64 {
	return p[n]
}

// Has reports whether n was resolved by the analysis
func (p NutritionProfile) Has(n Nutrient) bool {
	_, ok := p[n]
	return ok
}

// SimilarityCandidate is a previously indexed recipe ranked against a query
type SimilarityCandidate struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
	Tags            []string `json:"tags"`
	MealType        string   `json:"meal_type,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	IsUserSaved     bool     `json:"is_user_saved"`
	IsUserLiked     bool     `json:"is_user_liked"`
}

// Recipe is the API representation of a persisted recipe
type Recipe struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	MealType      string           `json:"meal_type"`
	ServingSize   int              `json:"serving_size"`
	PrepTime      int              `json:"prep_time"`
	CookTime      int              `json:"cook_time"`
	Ingredients   []Ingredient     `json:"ingredients"`
	Steps         []Step           `json:"steps"`
	Tags          []string         `json:"tags"`
	Nutrition     NutritionProfile `json:"nutrition"`
	ImageURL      *string          `json:"image_url"`
	IsPublic      bool             `json:"is_public"`
	IsAIGenerated bool             `json:"is_ai_generated"`
}

// GenerationResult is returned once a generated recipe is persisted
type GenerationResult struct {
	Recipe           *Recipe          `json:"recipe"`
	Nutrition        NutritionProfile `json:"nutrition"`
	ImageURL         *string          `json:"image_url"`
	ConstraintsMet   bool             `json:"constraints_met"`
	ConstraintState  string           `json:"constraint_state"`
	Attempts         int              `json:"attempts"`
	UnmetConstraints []string         `json:"unmet_constraints,omitempty"`
	SimilarRecipes   []string         `json:"similar_recipes_used"`
}

// RecipeChange describes one modification made while optimizing a recipe
type RecipeChange struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// OptimizedRecipe pairs the parsed original with its optimized version
type OptimizedRecipe struct {
	Original  RecipeDraft      `json:"original"`
	Optimized RecipeDraft      `json:"optimized"`
	Changes   []RecipeChange   `json:"changes"`
	Nutrition NutritionProfile `json:"nutrition"`
}

// ImageStatus reports whether a recipe's background image is attached
type ImageStatus struct {
	RecipeID uuid.UUID `json:"recipe_id"`
	Status   string    `json:"status"`
	Ready    bool      `json:"ready"`
	ImageURL *string   `json:"image_url,omitempty"`
	Message  string    `json:"message,omitempty"`
}
