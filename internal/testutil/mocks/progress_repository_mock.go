package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vytor/lingoprogress/internal/models"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Get(ctx context.Context, userID, exerciseID uuid.UUID) (*models.ProgressRecord, error) {
	args := m.Called(ctx, userID, exerciseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) CountForExercises(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID) (int, int, error) {
	args := m.Called(ctx, userID, exerciseIDs)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockProgressRepository) RecordSubmission(ctx context.Context, profile models.Profile, record models.ProgressRecord) error {
	args := m.Called(ctx, profile, record)
	return args.Error(0)
}
