package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/retry"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const fetchBatchSize = 1000

// PGVectorIndex is a VectorIndex backed by the recipe_embeddings table
type PGVectorIndex struct {
	db         *gorm.DB
	dimensions int
	policy     retry.Policy
}

// NewPGVectorIndex creates an index over vectors of the given size. Queries
// are retried according to policy.
func NewPGVectorIndex(db *gorm.DB, dimensions int, policy retry.Policy) *PGVectorIndex {
	return &PGVectorIndex{db: db, dimensions: dimensions, policy: policy}
}

// DefaultQueryPolicy is two attempts one second apart
func DefaultQueryPolicy() retry.Policy {
	return retry.New("vector-query", 2, time.Second)
}

type indexRow struct {
	ID       string
	Metadata datatypes.JSON
	Score    float64
}

// Query returns the k nearest neighbours by cosine similarity
func (x *PGVectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]IndexMatch, error) {
	if err := x.checkDimensions(embedding); err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(embedding)

	var rows []indexRow
	err := x.policy.Do(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return x.db.WithContext(ctx).
			Model(&model.RecipeEmbedding{}).
			Select("id, metadata, 1 - (embedding <=> ?) AS score", vec).
			Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{vec}},
			}).
			Limit(k).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	matches := make([]IndexMatch, 0, len(rows))
	for _, r := range rows {
		m := IndexMatch{ID: r.ID, Score: clampScore(r.Score)}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("invalid metadata for %s: %w", r.ID, err)
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Upsert inserts or replaces the embedding stored under id
func (x *PGVectorIndex) Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]any) error {
	if err := x.checkDimensions(embedding); err != nil {
		return err
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	row := model.RecipeEmbedding{
		ID:        id,
		Embedding: pgvector.NewVector(embedding),
		Metadata:  datatypes.JSON(meta),
	}
	return x.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "metadata", "updated_at"}),
	}).Create(&row).Error
}

// Fetch reports which of ids are present in the index
func (x *PGVectorIndex) Fetch(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	for start := 0; start < len(ids); start += fetchBatchSize {
		end := min(start+fetchBatchSize, len(ids))

		var present []string
		err := x.db.WithContext(ctx).
			Model(&model.RecipeEmbedding{}).
			Where("id IN ?", ids[start:end]).
			Pluck("id", &present).Error
		if err != nil {
			return nil, fmt.Errorf("vector fetch failed: %w", err)
		}
		for _, id := range present {
			found[id] = true
		}
	}
	return found, nil
}

func (x *PGVectorIndex) checkDimensions(embedding []float32) error {
	if len(embedding) != x.dimensions {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(embedding), x.dimensions)
	}
	return nil
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
