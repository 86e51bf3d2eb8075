package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeFavorite marks a recipe the user saved
type RecipeFavorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
}

func (RecipeFavorite) TableName() string {
	return "recipe_favorites"
}

func (f *RecipeFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// RecipeLike marks a recipe the user liked
type RecipeLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
}

func (RecipeLike) TableName() string {
	return "recipe_likes"
}

func (l *RecipeLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// RecipeAction is an append-only activity log entry
type RecipeAction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	Action    string    `gorm:"size:32;not null" json:"action"`
}

func (RecipeAction) TableName() string {
	return "user_recipe_actions"
}

func (a *RecipeAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
