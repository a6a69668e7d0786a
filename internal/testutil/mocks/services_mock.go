package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vytor/lingoprogress/internal/models"
)

// MockProgressService is a mock implementation of services.ProgressService
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) SubmitExercise(ctx context.Context, userID, exerciseID uuid.UUID, answer string) (*models.ProgressOutcome, error) {
	args := m.Called(ctx, userID, exerciseID, answer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressOutcome), args.Error(1)
}

func (m *MockProgressService) CheckAnswer(ctx context.Context, exerciseID uuid.UUID, answer string) (bool, error) {
	args := m.Called(ctx, exerciseID, answer)
	return args.Bool(0), args.Error(1)
}

func (m *MockProgressService) GetUserProgress(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProgressRecord), args.Error(1)
}

func (m *MockProgressService) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*models.LessonProgress, error) {
	args := m.Called(ctx, userID, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LessonProgress), args.Error(1)
}

// MockProfileService is a mock implementation of services.ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) CreateProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) GetHearts(ctx context.Context, userID uuid.UUID) (*models.HeartStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HeartStatus), args.Error(1)
}

func (m *MockProfileService) GetStreak(ctx context.Context, userID uuid.UUID) (*models.StreakStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StreakStatus), args.Error(1)
}

func (m *MockProfileService) UseStreakFreeze(ctx context.Context, userID uuid.UUID) (*models.StreakStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StreakStatus), args.Error(1)
}

func (m *MockProfileService) BuyStreakFreeze(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockExerciseService is a mock implementation of services.ExerciseService
type MockExerciseService struct {
	mock.Mock
}

func (m *MockExerciseService) SaveExercise(ctx context.Context, ex models.Exercise) (*models.Exercise, error) {
	args := m.Called(ctx, ex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockExerciseService) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockExerciseService) ListLessonExercises(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error) {
	args := m.Called(ctx, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Exercise), args.Error(1)
}
