package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DietaryPreference represents a user's dietary preference entry.
type DietaryPreference struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	PreferenceType string         `gorm:"size:32;not null" json:"preference_type"`
	CustomName     string         `gorm:"size:50" json:"custom_name"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DietaryPreference) TableName() string {
	return "dietary_preferences"
}

// Label returns the custom name for custom preferences, the type otherwise
func (p DietaryPreference) Label() string {
	if p.PreferenceType == "custom" && p.CustomName != "" {
		return p.CustomName
	}
	return p.PreferenceType
}

// Allergen represents an allergen entry for a user.
type Allergen struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	AllergenName  string         `gorm:"size:50;not null" json:"allergen_name"`
	SeverityLevel int            `gorm:"not null;default:1" json:"severity_level"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Allergen) TableName() string {
	return "allergens"
}

// HealthGoal represents a goal such as "weight loss" or "muscle gain".
type HealthGoal struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Goal      string         `gorm:"size:100;not null" json:"goal"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (HealthGoal) TableName() string {
	return "health_goals"
}

func (p *DietaryPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (a *Allergen) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (g *HealthGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
