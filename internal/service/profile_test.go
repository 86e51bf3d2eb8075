package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_GetUserProfile(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewProfileService(db)

	t.Run("should assemble preferences and affinities", func(t *testing.T) {
		userID := uuid.New()
		liked, saved := uuid.New(), uuid.New()
		require.NoError(t, db.Create(&model.DietaryPreference{UserID: userID, PreferenceType: "vegetarian"}).Error)
		require.NoError(t, db.Create(&model.DietaryPreference{UserID: userID, PreferenceType: "custom", CustomName: "no onion"}).Error)
		require.NoError(t, db.Create(&model.HealthGoal{UserID: userID, Goal: "muscle gain"}).Error)
		require.NoError(t, db.Create(&model.Allergen{UserID: userID, AllergenName: "peanuts"}).Error)
		require.NoError(t, db.Create(&model.RecipeLike{UserID: userID, RecipeID: liked}).Error)
		require.NoError(t, db.Create(&model.RecipeFavorite{UserID: userID, RecipeID: saved}).Error)

		profile, err := svc.GetUserProfile(ctx, userID)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"vegetarian", "no onion"}, profile.DietaryPreferences)
		assert.Equal(t, []string{"muscle gain"}, profile.Goals)
		assert.Equal(t, []string{"peanuts"}, profile.Allergies)
		assert.True(t, profile.Liked(liked.String()))
		assert.True(t, profile.Saved(saved.String()))
		assert.False(t, profile.Saved(liked.String()))
		assert.True(t, profile.HasAffinity())
	})

	t.Run("should return an empty profile for unknown users", func(t *testing.T) {
		profile, err := svc.GetUserProfile(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, profile.DietaryPreferences)
		assert.False(t, profile.HasAffinity())
	})
}
