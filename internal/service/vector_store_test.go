package service_test

import (
	"context"
	"testing"

	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGVectorIndex(t *testing.T) {
	db := testhelpers.SetupPGVectorDB(t)
	ctx := context.Background()
	embedder := service.NewHashEmbedder(768)
	index := service.NewPGVectorIndex(db, 768, service.DefaultQueryPolicy().WithoutDelay())

	texts := map[string]string{
		"curry": "spicy chickpea curry with tomato and garam masala",
		"cake":  "vanilla sponge cake with buttercream frosting",
		"dal":   "yellow lentil dal with cumin and tomato",
	}
	for id, text := range texts {
		vec, err := embedder.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, index.Upsert(ctx, id, vec, map[string]any{"title": id}))
	}

	t.Run("should rank the closest recipe first", func(t *testing.T) {
		q, err := embedder.Embed(ctx, "chickpea curry with garam masala")
		require.NoError(t, err)

		matches, err := index.Query(ctx, q, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "curry", matches[0].ID)
		assert.Equal(t, "curry", matches[0].Metadata["title"])
		assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
		assert.LessOrEqual(t, matches[0].Score, 1.0)
	})

	t.Run("should replace an existing embedding", func(t *testing.T) {
		vec, err := embedder.Embed(ctx, "chocolate cake")
		require.NoError(t, err)
		require.NoError(t, index.Upsert(ctx, "cake", vec, map[string]any{"title": "chocolate"}))

		matches, err := index.Query(ctx, vec, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "chocolate", matches[0].Metadata["title"])
	})

	t.Run("should report which ids are indexed", func(t *testing.T) {
		found, err := index.Fetch(ctx, []string{"curry", "missing"})
		require.NoError(t, err)
		assert.True(t, found["curry"])
		assert.False(t, found["missing"])
	})

	t.Run("should reject vectors of the wrong size", func(t *testing.T) {
		_, err := index.Query(ctx, []float32{1, 2}, 1)
		assert.ErrorContains(t, err, "dimensions")
	})
}
