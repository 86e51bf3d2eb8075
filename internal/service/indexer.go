package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/leanfeast/backend/internal/model"
	"go.uber.org/zap"
)

const indexBatchSize = 100

// IndexStats summarises a batch indexing run
type IndexStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Add accumulates o into s
func (s *IndexStats) Add(o IndexStats) {
	s.Indexed += o.Indexed
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// RecipeIndexer writes recipe embeddings into the similarity index
type RecipeIndexer struct {
	embedder Embedder
	index    VectorIndex
	logger   *zap.Logger
}

// NewRecipeIndexer creates a new RecipeIndexer
func NewRecipeIndexer(embedder Embedder, index VectorIndex, logger *zap.Logger) *RecipeIndexer {
	return &RecipeIndexer{embedder: embedder, index: index, logger: logger.Named("indexer")}
}

// RecipeText is the text embedded for a recipe: title, description,
// ingredient names, step instructions and tags.
func RecipeText(r *model.Recipe) string {
	parts := []string{r.Title, r.Description}
	for _, ing := range r.Ingredients {
		parts = append(parts, ing.Name)
	}
	for _, s := range r.Steps {
		parts = append(parts, s.Instruction)
	}
	parts = append(parts, r.Tags...)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// RecipeMetadata is the metadata stored next to a recipe's embedding
func RecipeMetadata(r *model.Recipe) map[string]any {
	ingredients := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, ing.String())
	}
	steps := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		steps = append(steps, s.Instruction)
	}
	return map[string]any{
		"id":           r.ID.String(),
		"title":        r.Title,
		"description":  r.Description,
		"ingredients":  ingredients,
		"steps":        steps,
		"tags":         []string(r.Tags),
		"meal_type":    r.MealType,
		"prep_time":    r.PrepTime,
		"cook_time":    r.CookTime,
		"serving_size": r.ServingSize,
	}
}

// IndexRecipe embeds and upserts one recipe
func (x *RecipeIndexer) IndexRecipe(ctx context.Context, r *model.Recipe) error {
	embedding, err := x.embedder.Embed(ctx, RecipeText(r))
	if err != nil {
		return fmt.Errorf("failed to embed recipe %s: %w", r.ID, err)
	}
	if err := x.index.Upsert(ctx, r.ID.String(), embedding, RecipeMetadata(r)); err != nil {
		return fmt.Errorf("failed to index recipe %s: %w", r.ID, err)
	}
	return nil
}

// IndexRecipes indexes recipes in batches of 100. Recipes already present in
// the index are skipped unless force is set. Individual failures are counted
// and logged; only an index lookup failure aborts the run.
func (x *RecipeIndexer) IndexRecipes(ctx context.Context, recipes []model.Recipe, force bool) (IndexStats, error) {
	var stats IndexStats
	for start := 0; start < len(recipes); start += indexBatchSize {
		end := min(start+indexBatchSize, len(recipes))
		batch := recipes[start:end]

		existing := map[string]bool{}
		if !force {
			ids := make([]string, len(batch))
			for i := range batch {
				ids[i] = batch[i].ID.String()
			}
			var err error
			if existing, err = x.index.Fetch(ctx, ids); err != nil {
				return stats, fmt.Errorf("failed to check existing recipes: %w", err)
			}
		}

		for i := range batch {
			r := &batch[i]
			if existing[r.ID.String()] {
				stats.Skipped++
				continue
			}
			if err := x.IndexRecipe(ctx, r); err != nil {
				x.logger.Warn("failed to index recipe", zap.Stringer("recipe_id", r.ID), zap.Error(err))
				stats.Failed++
				continue
			}
			stats.Indexed++
		}

		x.logger.Info("indexed batch",
			zap.Int("offset", start),
			zap.Int("size", len(batch)),
			zap.Int("indexed", stats.Indexed),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed),
		)
	}
	return stats, nil
}
