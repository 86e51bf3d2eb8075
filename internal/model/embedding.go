package model

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// RecipeEmbedding is one entry of the similarity index. ID is the recipe id.
type RecipeEmbedding struct {
	ID        string          `gorm:"type:text;primaryKey" json:"id"`
	Embedding pgvector.Vector `gorm:"type:vector(768);not null" json:"-"`
	Metadata  datatypes.JSON  `gorm:"type:jsonb;not null" json:"metadata"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (RecipeEmbedding) TableName() string {
	return "recipe_embeddings"
}

// All returns every model managed by migrations, in dependency order
func All() []interface{} {
	return []interface{}{
		&Recipe{},
		&RecipeFavorite{},
		&RecipeLike{},
		&RecipeAction{},
		&DietaryPreference{},
		&Allergen{},
		&HealthGoal{},
	}
}
