// Package mocks holds testify mocks for the service collaborators.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/service"
	"github.com/pageza/leanfeast/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockEmbedder is a mock implementation of the Embedder interface
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockVectorIndex is a mock implementation of the VectorIndex interface
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]service.IndexMatch, error) {
	args := m.Called(ctx, embedding, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.IndexMatch), args.Error(1)
}

func (m *MockVectorIndex) Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]any) error {
	args := m.Called(ctx, id, embedding, metadata)
	return args.Error(0)
}

func (m *MockVectorIndex) Fetch(ctx context.Context, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// MockTextModel is a mock implementation of the TextModel interface
type MockTextModel struct {
	mock.Mock
}

func (m *MockTextModel) Invoke(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockTextModel) Name() string {
	return "mock-model"
}

// MockNutritionAnalyzer is a mock implementation of the NutritionAnalyzer interface
type MockNutritionAnalyzer struct {
	mock.Mock
}

func (m *MockNutritionAnalyzer) Analyze(ctx context.Context, req service.AnalyzeRequest) ([]service.Nutrient, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Nutrient), args.Error(1)
}

// MockSimilarityRanker is a mock implementation of the ISimilarityRanker interface
type MockSimilarityRanker struct {
	mock.Mock
}

func (m *MockSimilarityRanker) FindSimilar(ctx context.Context, query string, topK int, userID *uuid.UUID) []types.SimilarityCandidate {
	args := m.Called(ctx, query, topK, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.SimilarityCandidate)
}

func (m *MockSimilarityRanker) FindSimilarForProfile(ctx context.Context, query string, topK int, profile *types.UserPreferenceProfile) []types.SimilarityCandidate {
	args := m.Called(ctx, query, topK, profile)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]types.SimilarityCandidate)
}

// MockDraftProducer is a mock implementation of the IDraftProducer interface
type MockDraftProducer struct {
	mock.Mock
}

func (m *MockDraftProducer) Produce(ctx context.Context, in service.DraftInput) (*types.RecipeDraft, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeDraft), args.Error(1)
}

func (m *MockDraftProducer) ModelName() string {
	return "mock-model"
}

// MockNutritionEvaluator is a mock implementation of the INutritionEvaluator interface
type MockNutritionEvaluator struct {
	mock.Mock
}

func (m *MockNutritionEvaluator) Evaluate(ctx context.Context, draft *types.RecipeDraft) types.NutritionProfile {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.NutritionProfile)
}

// MockImageScheduler is a mock implementation of the IImageScheduler interface
type MockImageScheduler struct {
	mock.Mock
}

func (m *MockImageScheduler) Enqueue(job service.ImageJob) bool {
	args := m.Called(job)
	return args.Bool(0)
}

// MockImageGenerator is a mock implementation of the ImageGenerator interface
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockObjectStorage is a mock implementation of the ObjectStorage interface
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

// MockGenerationService is a mock implementation of the IGenerationService interface
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) (*types.GenerationResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GenerationResult), args.Error(1)
}

// MockOptimizeService is a mock implementation of the IOptimizeService interface
type MockOptimizeService struct {
	mock.Mock
}

func (m *MockOptimizeService) Optimize(ctx context.Context, req types.OptimizeRequest) (*types.OptimizedRecipe, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.OptimizedRecipe), args.Error(1)
}
