package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore is a mock implementation of the ProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserPreferenceProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserPreferenceProfile), args.Error(1)
}
