package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// AIContext records how a generated recipe was produced
type AIContext struct {
	SimilarRecipesUsed []string `json:"similar_recipes_used"`
	GenerationModel    string   `json:"generation_model"`
	ConstraintsMet     bool     `json:"constraints_met"`
	ConstraintState    string   `json:"constraint_state"`
	Attempts           int      `json:"attempts"`
}

type Recipe struct {
	ID            uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time                             `json:"created_at"`
	UpdatedAt     time.Time                             `json:"updated_at"`
	DeletedAt     gorm.DeletedAt                        `gorm:"index" json:"-"`
	Title         string                                `gorm:"size:255;not null" json:"title"`
	Description   string                                `gorm:"type:text" json:"description"`
	MealType      string                                `gorm:"size:50" json:"meal_type"`
	ServingSize   int                                   `gorm:"not null;default:1" json:"serving_size"`
	PrepTime      int                                   `json:"prep_time"`
	CookTime      int                                   `json:"cook_time"`
	Ingredients   datatypes.JSONSlice[types.Ingredient] `gorm:"type:jsonb;not null" json:"ingredients"`
	Steps         datatypes.JSONSlice[types.Step]       `gorm:"type:jsonb;not null" json:"steps"`
	Tags          JSONBStringArray                      `gorm:"type:jsonb;not null" json:"tags"`
	Nutrition     datatypes.JSON                        `gorm:"type:jsonb" json:"nutrition"`
	AIContext     datatypes.JSON                        `gorm:"type:jsonb;column:ai_context" json:"ai_context"`
	ImageURL      *string                               `gorm:"size:512" json:"image_url"`
	IsPublic      bool                                  `gorm:"not null;default:false" json:"is_public"`
	IsAIGenerated bool                                  `gorm:"not null;default:false" json:"is_ai_generated"`
	UserID        uuid.UUID                             `gorm:"type:uuid;not null;index" json:"user_id"`
}

// BeforeCreate assigns an id when the caller did not
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NutritionProfile decodes the stored nutrition, returning nil when absent
func (r *Recipe) NutritionProfile() types.NutritionProfile {
	if len(r.Nutrition) == 0 {
		return nil
	}
	var p types.NutritionProfile
	if err := json.Unmarshal(r.Nutrition, &p); err != nil {
		return nil
	}
	return p
}

// ToAPI converts the row into its API representation
func (r *Recipe) ToAPI() *types.Recipe {
	return &types.Recipe{
		ID:            r.ID,
		UserID:        r.UserID,
		Title:         r.Title,
		Description:   r.Description,
		MealType:      r.MealType,
		ServingSize:   r.ServingSize,
		PrepTime:      r.PrepTime,
		CookTime:      r.CookTime,
		Ingredients:   []types.Ingredient(r.Ingredients),
		Steps:         []types.Step(r.Steps),
		Tags:          []string(r.Tags),
		Nutrition:     r.NutritionProfile(),
		ImageURL:      r.ImageURL,
		IsPublic:      r.IsPublic,
		IsAIGenerated: r.IsAIGenerated,
	}
}
