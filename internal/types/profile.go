package types

// UserPreferenceProfile is the read-only view of a user's preferences used
// while generating recipes.
type UserPreferenceProfile struct {
	DietaryPreferences []string            `json:"dietary_preferences"`
	Goals              []string            `json:"goals"`
	Allergies          []string            `json:"allergies"`
	LikedRecipeIDs     map[string]struct{} `json:"-"`
	SavedRecipeIDs     map[string]struct{} `json:"-"`
}

// HasAffinity reports whether the user liked or saved any recipe
func (p *UserPreferenceProfile) HasAffinity() bool {
	return p != nil && (len(p.LikedRecipeIDs) > 0 || len(p.SavedRecipeIDs) > 0)
}

// Liked reports whether the user liked the recipe with the given id
func (p *UserPreferenceProfile) Liked(id string) bool {
	if p == nil {
		return false
	}
	_, ok := p.LikedRecipeIDs[id]
	return ok
}

// Saved reports whether the user saved the recipe with the given id
func (p *UserPreferenceProfile) Saved(id string) bool {
	if p == nil {
		return false
	}
	_, ok := p.SavedRecipeIDs[id]
	return ok
}
