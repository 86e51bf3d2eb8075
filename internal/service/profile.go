package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/types"
	"gorm.io/gorm"
)

// ProfileService reads the preference profile used during generation
type ProfileService struct {
	db *gorm.DB
}

// Ensure ProfileService implements ProfileStore
var _ ProfileStore = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetUserProfile loads dietary preferences, goals, allergies and the ids of
// recipes the user liked or saved. A user with no rows gets an empty profile.
func (s *ProfileService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserPreferenceProfile, error) {
	db := s.db.WithContext(ctx)
	profile := &types.UserPreferenceProfile{
		LikedRecipeIDs: map[string]struct{}{},
		SavedRecipeIDs: map[string]struct{}{},
	}

	var prefs []model.DietaryPreference
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to load dietary preferences: %w", err)
	}
	for _, p := range prefs {
		profile.DietaryPreferences = append(profile.DietaryPreferences, p.Label())
	}

	if err := db.Model(&model.HealthGoal{}).Where("user_id = ?", userID).Order("created_at").
		Pluck("goal", &profile.Goals).Error; err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	if err := db.Model(&model.Allergen{}).Where("user_id = ?", userID).Order("created_at").
		Pluck("allergen_name", &profile.Allergies).Error; err != nil {
		return nil, fmt.Errorf("failed to load allergens: %w", err)
	}

	var liked, saved []uuid.UUID
	if err := db.Model(&model.RecipeLike{}).Where("user_id = ?", userID).Pluck("recipe_id", &liked).Error; err != nil {
		return nil, fmt.Errorf("failed to load liked recipes: %w", err)
	}
	if err := db.Model(&model.RecipeFavorite{}).Where("user_id = ?", userID).Pluck("recipe_id", &saved).Error; err != nil {
		return nil, fmt.Errorf("failed to load saved recipes: %w", err)
	}
	for _, id := range liked {
		profile.LikedRecipeIDs[id.String()] = struct{}{}
	}
	for _, id := range saved {
		profile.SavedRecipeIDs[id.String()] = struct{}{}
	}

	return profile, nil
}
