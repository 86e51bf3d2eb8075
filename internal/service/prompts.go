package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/types"
)

const noReferences = "No similar recipes found. Create a new recipe from scratch."

const recipeSchema = `{
  "title": "string, name of the meal",
  "description": "string",
  "prep_time": "integer, minutes",
  "cook_time": "integer, minutes",
  "ingredients": [{"name": "string", "quantity": "string, e.g. '2' or '500'", "unit": "string or null"}],
  "steps": [{"step_number": "integer starting at 1", "instruction": "string", "step_type": "active | passive | wait"}],
  "tags": ["string"],
  "serving_size": "integer"
}`

const generationTemplate = `You are an expert chef and recipe creator. Generate a detailed, accurate,
and flavorful recipe strictly based on the User Requirements.

-----------------------------------
USER INPUT
-----------------------------------
User Requirements:
%s

User Profile & Preferences:
- Dietary Preferences: %s
- Health Goals: %s
- Allergies & Intolerances: %s

%s
-----------------------------------
REFERENCE RECIPE CONTEXT (LOW PRIORITY)
-----------------------------------
The following recipes are provided ONLY for inspiration on general cooking
techniques, sequencing of steps, texture expectations, heat control and
preparation methods.

%s

You MUST NOT use reference recipes for ingredient selection, ingredient
proportions, substitutions, cuisine switching, title changes, or altering the
structure or identity of the requested dish. Reference recipes are style cues
only, NOT ingredient sources.

-----------------------------------
HARD RULES
-----------------------------------
1. User Request Dominates: the User Requirements define the dish type,
   structure, cuisine and core ingredients. Nothing overrides the user's intent.
2. Ingredient Integrity: use only ingredients that logically belong to the
   requested dish.
3. Health Goals (soft rule): apply subtly without changing the identity of
   the dish.
4. Allergy Compliance (hard rule): completely avoid all listed allergens,
   including derivatives.
5. Title Protection: the title must match the requested dish name as closely
   as possible. Do not add labels like low-carb, high-protein, keto, vegan,
   healthy or gluten-free unless the user used them.
6. Technique Appropriateness: use techniques that naturally fit the dish.
7. No Ingredient Leakage: do not import ingredients from reference recipes.
8. Authenticity: traditional or regional dishes follow their authentic
   structure unless a variation is requested.
9. STEP TYPE CLASSIFICATION (CRITICAL): every step has exactly one step_type.
   - "active": continuous user action (chopping, stirring, kneading, flipping).
   - "passive": monitoring with little engagement (simmering, baking, braising).
   - "wait": no engagement at all (resting, marinating, cooling).
   Split mixed steps. A step that combines an action with waiting or
   monitoring MUST become separate atomic steps, e.g.
   "Chop onions, then let them rest for 10 minutes" becomes
   1. "Chop onions" (active) and 2. "Let onions rest for 10 minutes" (wait).
10. Clarity: quantities for every ingredient, realistic prep_time and
    cook_time, step_number starting at 1 and increasing by one, tags based
    only on the actual recipe content.

-----------------------------------
OUTPUT FORMAT
-----------------------------------
Respond with a single JSON object and nothing else, matching:
%s

Generate the recipe now:`

const optimizeTemplate = `You are an expert chef and recipe optimizer. Analyze the provided recipe and
create an optimized version based on the optimization goal.

Original Recipe Description:
%s

Optimization Goal:
%s

Additional Notes:
%s

INSTRUCTIONS:
1. Parse the original recipe from the description: ingredients with
   quantities, steps, meal type, prep time, cook time and serving size.
2. Apply the optimization goal with MINIMAL changes. Only modify what is
   necessary to meet the goal and keep the cooking method, flavor profile
   and character of the original.
3. Keep each step's step_type (active, passive or wait) unless the change
   alters how much attention the step needs.
4. List every change with its type (substitution, modification, nutrition,
   ...), a clear description and an emoji.

Respond with a single JSON object and nothing else, matching:
{
  "original": %s,
  "optimized": <same shape as original>,
  "changes": [{"type": "string", "description": "string", "emoji": "string"}]
}

Generate the optimized recipe now:`

const replaceTemplate = `You are an expert chef. Replace specific ingredients in the provided recipe
based on the replacement reason, while keeping the recipe's overall structure,
flavor profile and cooking method.

Original Recipe:
Title: %s
Description: %s
Ingredients:
%s
Steps:
%s
Prep Time: %d minutes
Cook Time: %d minutes
Serving Size: %d

Ingredients to Replace (by index):
%s

Replacement Reason:
%s

IMPORTANT INSTRUCTIONS:
1. Replace ONLY the specified ingredients with alternatives suited to the
   replacement reason.
2. Keep ALL other ingredients unchanged.
3. Adjust cooking steps ONLY where a substitution needs a different time or
   technique.
4. Keep prep_time, cook_time and serving_size unless the replacement requires
   significant changes.
5. Update quantities where needed to keep proper ratios.
6. Keep the title and description unless the replacement changes the dish.
7. Keep each step's step_type (active, passive or wait) unless the
   substitution changes how much attention the step needs.

Respond with a single JSON object and nothing else, matching:
%s

Generate the updated recipe now:`

// BuildGenerationPrompt renders the recipe generation prompt
func BuildGenerationPrompt(in DraftInput) string {
	return fmt.Sprintf(generationTemplate,
		requirementsSection(in.Request),
		joinOr(profileField(in.Profile, func(p *types.UserPreferenceProfile) []string { return p.DietaryPreferences }), "Not provided"),
		joinOr(profileField(in.Profile, func(p *types.UserPreferenceProfile) []string { return p.Goals }), "Not provided"),
		joinOr(profileField(in.Profile, func(p *types.UserPreferenceProfile) []string { return p.Allergies }), "None"),
		feedbackSection(in.Issues),
		referenceSection(in.Candidates),
		recipeSchema,
	)
}

// BuildOptimizePrompt renders the recipe optimization prompt
func BuildOptimizePrompt(req types.OptimizeRequest) string {
	notes := strings.TrimSpace(req.AdditionalNotes)
	if notes == "" {
		notes = "None"
	}
	return fmt.Sprintf(optimizeTemplate, req.RecipeDescription, req.OptimizationGoal, notes, recipeSchema)
}

func requirementsSection(req types.GenerationRequest) string {
	var lines []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}

	add("Description", req.Description)
	add("Meal Name", req.MealName)
	lines = append(lines, fmt.Sprintf("- Serving Size: %d", req.Servings()))
	add("Meal Type", req.MealType)
	if len(req.FlavorControls) > 0 {
		if b, err := json.Marshal(req.FlavorControls); err == nil {
			add("Flavor Profile", string(b))
		}
	}
	add("Cooking Skill Level", req.CookingSkillLevel)
	add("Time Constraints", req.TimeConstraints)
	add("Calorie Range", req.CalorieRange)
	if req.ProteinTargetPerServing != nil {
		add("Target Protein per Serving (g)", fmt.Sprintf("%g g per serving", *req.ProteinTargetPerServing))
	}

	return strings.Join(lines, "\n")
}

func feedbackSection(issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("IMPORTANT - Previous Attempt Issues to Fix:\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	b.WriteString("\nPlease adjust the recipe to address these issues while maintaining all other requirements.\n")
	return b.String()
}

// referenceSection lists up to three candidates above the relevance threshold
func referenceSection(candidates []types.SimilarityCandidate) string {
	var blocks []string
	for _, c := range candidates {
		if c.SimilarityScore < RelevanceThreshold {
			continue
		}
		ingredients := c.Ingredients
		if len(ingredients) > 10 {
			ingredients = ingredients[:10]
		}
		blocks = append(blocks, fmt.Sprintf("Recipe %d: %s\nDescription: %s\nIngredients: %s\nTags: %s\n",
			len(blocks)+1, c.Title, c.Description, strings.Join(ingredients, ", "), strings.Join(c.Tags, ", ")))
		if len(blocks) == maxReferenceRecipes {
			break
		}
	}
	if len(blocks) == 0 {
		return noReferences
	}
	return strings.Join(blocks, "\n")
}

func profileField(p *types.UserPreferenceProfile, get func(*types.UserPreferenceProfile) []string) []string {
	if p == nil {
		return nil
	}
	return get(p)
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

// BuildReplacePrompt renders the ingredient replacement prompt for recipe.
// indices must already be validated against the ingredient list.
func BuildReplacePrompt(recipe *model.Recipe, indices []int, reason string) string {
	ingredients := make([]string, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		ingredients[i] = fmt.Sprintf("%d. %s", i, ing.String())
	}

	steps := make([]string, len(recipe.Steps))
	for i, step := range recipe.Steps {
		steps[i] = fmt.Sprintf("%d. %s", step.StepNumber, step.Instruction)
	}

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	targets := make([]string, len(sorted))
	for i, idx := range sorted {
		targets[i] = fmt.Sprintf("Index %d: %s", idx, recipe.Ingredients[idx].String())
	}

	return fmt.Sprintf(replaceTemplate,
		recipe.Title,
		recipe.Description,
		strings.Join(ingredients, "\n"),
		strings.Join(steps, "\n"),
		recipe.PrepTime,
		recipe.CookTime,
		recipe.ServingSize,
		strings.Join(targets, "\n"),
		strings.TrimSpace(reason),
		recipeSchema,
	)
}
