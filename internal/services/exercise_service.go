package services

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/exercise"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
)

// ExerciseService maintains the exercise catalog fed by the lesson collaborator.
type ExerciseService interface {
	SaveExercise(ctx context.Context, ex models.Exercise) (*models.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error)
	ListLessonExercises(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error)
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
}

// NewExerciseService creates a new ExerciseService
func NewExerciseService(exerciseRepo repository.ExerciseRepository) ExerciseService {
	return &exerciseService{exerciseRepo: exerciseRepo}
}

func (s *exerciseService) SaveExercise(ctx context.Context, ex models.Exercise) (*models.Exercise, error) {
	log := logger.FromContext(ctx)
	log.Debug("saving exercise: id=%s", ex.ID)

	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	if ex.LessonID == uuid.Nil {
		return nil, apperrors.NewValidationError("lesson_id", "cannot be empty")
	}
	if err := exercise.CheckDefinition(ex); err != nil {
		return nil, apperrors.NewValidationError("exercise", err.Error())
	}

	if err := s.exerciseRepo.Save(ctx, ex); err != nil {
		log.Error("failed to save exercise: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return &ex, nil
}

func (s *exerciseService) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	ex, err := s.exerciseRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get exercise: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if ex == nil {
		return nil, apperrors.NewNotFoundError("exercise", id)
	}
	return ex, nil
}

func (s *exerciseService) ListLessonExercises(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error) {
	exercises, err := s.exerciseRepo.ListByLesson(ctx, lessonID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list lesson exercises: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	return exercises, nil
}
