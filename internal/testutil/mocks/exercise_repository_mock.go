package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vytor/lingoprogress/internal/models"
)

// MockExerciseRepository is a mock implementation of repository.ExerciseRepository
type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) Get(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) Save(ctx context.Context, exercise models.Exercise) error {
	args := m.Called(ctx, exercise)
	return args.Error(0)
}

func (m *MockExerciseRepository) ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error) {
	args := m.Called(ctx, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Exercise), args.Error(1)
}
