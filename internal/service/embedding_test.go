package service_test

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/mocks"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedder(t *testing.T) {
	e := service.NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Spicy chickpea curry")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "spicy CHICKPEA curry!")
	require.NoError(t, err)
	c, err := e.Embed(ctx, "vanilla sponge cake")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
	assert.Greater(t, cosine(a, b), cosine(a, c))

	empty, err := e.Embed(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, empty, 64)
}

func TestCachedEmbedder(t *testing.T) {
	t.Run("should fall through when redis is unreachable", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		next := new(mocks.MockEmbedder)
		next.On("Embed", mock.Anything, "dal").Return([]float32{0.1, 0.2}, nil).Twice()

		e := service.NewCachedEmbedder(next, client, "test", time.Minute, zap.NewNop())
		for range 2 {
			vec, err := e.Embed(context.Background(), "dal")
			require.NoError(t, err)
			assert.Equal(t, []float32{0.1, 0.2}, vec)
		}
		next.AssertExpectations(t)
	})

	t.Run("should serve repeated texts from redis", func(t *testing.T) {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			t.Skip("REDIS_URL not set, skipping redis cache test")
		}
		opts, err := redis.ParseURL(redisURL)
		require.NoError(t, err)
		client := redis.NewClient(opts)
		defer client.Close()

		next := new(mocks.MockEmbedder)
		next.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5, -0.25, 1}, nil).Once()

		e := service.NewCachedEmbedder(next, client, "test-"+uuid.NewString(), time.Minute, zap.NewNop())
		first, err := e.Embed(context.Background(), "paneer tikka")
		require.NoError(t, err)
		second, err := e.Embed(context.Background(), "paneer tikka")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		next.AssertNumberOfCalls(t, "Embed", 1)
	})
}

func TestNewEmbedder(t *testing.T) {
	e, err := service.NewEmbedder(nil, service.HashEmbeddingModel, 32, nil, time.Minute, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.HashEmbedder{}, e)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	e, err = service.NewEmbedder(nil, service.HashEmbeddingModel, 32, client, time.Minute, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.CachedEmbedder{}, e)

	_, err = service.NewEmbedder(nil, "text-embedding-004", 32, nil, time.Minute, zap.NewNop())
	assert.ErrorContains(t, err, "needs a gemini client")
}
