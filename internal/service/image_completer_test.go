package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/mocks"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type completerFixture struct {
	generator *mocks.MockImageGenerator
	storage   *mocks.MockObjectStorage
	recipes   *mocks.MockRecipeStore
	completer *service.ImageCompleter
}

func newCompleterFixture(cfg service.ImageCompleterConfig) *completerFixture {
	f := &completerFixture{
		generator: new(mocks.MockImageGenerator),
		storage:   new(mocks.MockObjectStorage),
		recipes:   new(mocks.MockRecipeStore),
	}
	f.completer = service.NewImageCompleter(f.generator, f.storage, f.recipes, cfg, zap.NewNop())
	return f
}

func stopCompleter(t *testing.T, c *service.ImageCompleter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
}

func TestImageCompleter(t *testing.T) {
	t.Run("should upload and attach the image", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 2, QueueSize: 4})
		id := uuid.New()
		key := "recipe_" + id.String() + ".jpg"
		url := "https://cdn.example.com/" + key

		f.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
			return assert.ObjectsAreEqual(service.BuildImagePrompt("Dal"), p)
		})).Return([]byte("jpeg"), nil)
		f.storage.On("Put", mock.Anything, key, []byte("jpeg"), "image/jpeg").Return(url, nil)
		f.recipes.On("UpdateRecipeImage", mock.Anything, id, url).Return(nil)

		f.completer.Start(context.Background())
		assert.True(t, f.completer.Enqueue(service.ImageJob{RecipeID: id, Title: "Dal"}))
		stopCompleter(t, f.completer)

		f.recipes.AssertExpectations(t)
	})

	t.Run("should absorb generator failures", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 1, QueueSize: 1})
		f.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("render failed"))

		f.completer.Start(context.Background())
		assert.True(t, f.completer.Enqueue(service.ImageJob{RecipeID: uuid.New(), Title: "Dal"}))
		stopCompleter(t, f.completer)

		f.storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.recipes.AssertNotCalled(t, "UpdateRecipeImage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should keep working after a job panics", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 1, QueueSize: 2})
		second := uuid.New()
		f.generator.On("Generate", mock.Anything, mock.Anything).Panic("decoder crashed").Once()
		f.generator.On("Generate", mock.Anything, mock.Anything).Return([]byte("jpeg"), nil)
		f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return("https://cdn/x.jpg", nil)
		f.recipes.On("UpdateRecipeImage", mock.Anything, second, "https://cdn/x.jpg").Return(nil)

		f.completer.Start(context.Background())
		assert.True(t, f.completer.Enqueue(service.ImageJob{RecipeID: uuid.New(), Title: "Dal"}))
		assert.True(t, f.completer.Enqueue(service.ImageJob{RecipeID: second, Title: "Soup"}))
		stopCompleter(t, f.completer)

		f.recipes.AssertExpectations(t)
	})

	t.Run("should reject a duplicate pending job", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 1, QueueSize: 4})
		job := service.ImageJob{RecipeID: uuid.New(), Title: "Dal"}

		assert.True(t, f.completer.Enqueue(job))
		assert.False(t, f.completer.Enqueue(job))
	})

	t.Run("should accept the same recipe again once its job ran", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 1, QueueSize: 1})
		job := service.ImageJob{RecipeID: uuid.New(), Title: "Dal"}
		f.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("render failed"))

		f.completer.Start(context.Background())
		require.True(t, f.completer.Enqueue(job))
		assert.Eventually(t, func() bool {
			return f.completer.Enqueue(job)
		}, 2*time.Second, 10*time.Millisecond)
		stopCompleter(t, f.completer)
	})

	t.Run("should drop jobs when the queue is full", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 1, QueueSize: 1})

		assert.True(t, f.completer.Enqueue(service.ImageJob{RecipeID: uuid.New()}))
		assert.False(t, f.completer.Enqueue(service.ImageJob{RecipeID: uuid.New()}))
	})

	t.Run("should reject jobs after stop", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{})
		f.completer.Start(context.Background())
		stopCompleter(t, f.completer)

		assert.False(t, f.completer.Enqueue(service.ImageJob{RecipeID: uuid.New()}))
		assert.NoError(t, f.completer.Stop(context.Background()))
	})

	t.Run("should give up waiting when the stop context ends", func(t *testing.T) {
		f := newCompleterFixture(service.ImageCompleterConfig{Workers: 1, QueueSize: 1})
		release := make(chan struct{})
		f.generator.On("Generate", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { <-release }).
			Return(nil, errors.New("cancelled"))

		f.completer.Start(context.Background())
		require.True(t, f.completer.Enqueue(service.ImageJob{RecipeID: uuid.New()}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, f.completer.Stop(ctx), context.DeadlineExceeded)
		close(release)
	})
}
