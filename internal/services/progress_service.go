package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/clock"
	apperrors "github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/exercise"
	"github.com/vytor/lingoprogress/internal/hearts"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
	"github.com/vytor/lingoprogress/internal/retry"
	"github.com/vytor/lingoprogress/internal/streak"
)

// ProgressService scores exercise submissions and reports progress.
type ProgressService interface {
	SubmitExercise(ctx context.Context, userID, exerciseID uuid.UUID, answer string) (*models.ProgressOutcome, error)
	CheckAnswer(ctx context.Context, exerciseID uuid.UUID, answer string) (bool, error)
	GetUserProgress(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error)
	GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*models.LessonProgress, error)
}

type progressService struct {
	profileRepo  repository.ProfileRepository
	exerciseRepo repository.ExerciseRepository
	progressRepo repository.ProgressRepository
	clock        clock.Clock
	retry        retry.Config
}

// NewProgressService creates a new ProgressService
func NewProgressService(
	profileRepo repository.ProfileRepository,
	exerciseRepo repository.ExerciseRepository,
	progressRepo repository.ProgressRepository,
	clk clock.Clock,
	retryCfg retry.Config,
) ProgressService {
	return &progressService{
		profileRepo:  profileRepo,
		exerciseRepo: exerciseRepo,
		progressRepo: progressRepo,
		clock:        clk,
		retry:        retryCfg,
	}
}

func (s *progressService) getExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	log := logger.FromContext(ctx)

	ex, err := s.exerciseRepo.Get(ctx, id)
	if err != nil {
		log.Error("failed to get exercise: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if ex == nil {
		return nil, apperrors.NewNotFoundError("exercise", id)
	}
	if err := exercise.CheckDefinition(*ex); err != nil {
		log.Error("exercise %s has an invalid definition: %v", id, err)
		return nil, apperrors.NewInternalError(err)
	}
	return ex, nil
}

func (s *progressService) SubmitExercise(ctx context.Context, userID, exerciseID uuid.UUID, answer string) (*models.ProgressOutcome, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id":     userID.String(),
		"exercise_id": exerciseID.String(),
	})
	log.Debug("submitting exercise")

	ex, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	var outcome *models.ProgressOutcome
	err = retry.OnConflict(ctx, s.retry, isVersionConflict, func(ctx context.Context) error {
		profile, err := s.profileRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return apperrors.NewNotFoundError("profile", userID)
		}

		existing, err := s.progressRepo.Get(ctx, userID, exerciseID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Completed {
			return apperrors.NewAlreadyCompletedError(exerciseID)
		}

		now := s.clock.Now()
		correct := exercise.Validate(ex.Payload, answer)

		heartState, _ := hearts.RefillIfDue(hearts.FromProfile(*profile), now)
		heartState, err = hearts.Consume(heartState, ex.HeartsCost, now)
		if errors.Is(err, hearts.ErrInsufficientHearts) {
			return apperrors.NewInsufficientHeartsError(heartState.Hearts, ex.HeartsCost)
		}
		if err != nil {
			return apperrors.NewInternalError(err)
		}

		updated := *profile
		heartState.ApplyTo(&updated)
		// XP is granted for the attempt, correct or not.
		updated.XP += ex.XPReward
		streakState, transition := streak.OnPractice(streak.FromProfile(updated), models.DateOf(now))
		streakState.ApplyTo(&updated)

		record := models.ProgressRecord{
			ID:          uuid.New(),
			UserID:      userID,
			ExerciseID:  exerciseID,
			LessonID:    ex.LessonID,
			Completed:   true,
			Correct:     correct,
			AnswerGiven: answer,
			CompletedAt: now,
			XPEarned:    ex.XPReward,
			HeartsSpent: ex.HeartsCost,
		}

		err = s.progressRepo.RecordSubmission(ctx, updated, record)
		if errors.Is(err, repository.ErrDuplicateProgress) {
			return apperrors.NewAlreadyCompletedError(exerciseID)
		}
		if err != nil {
			return err
		}

		log.Debug("submission recorded: correct=%t, hearts=%d, streak=%d (%s)", correct, updated.Hearts, updated.Streak, transition)
		outcome = &models.ProgressOutcome{
			ExerciseID:  exerciseID,
			Completed:   true,
			Correct:     correct,
			XPEarned:    ex.XPReward,
			HeartsUsed:  ex.HeartsCost,
			CompletedAt: now,
			AnswerGiven: answer,
			Hearts:      updated.Hearts,
			Streak:      updated.Streak,
		}
		return nil
	})
	if err != nil {
		appErr := toAppError("profile", err)
		if errors.Is(appErr, apperrors.ErrInternal) {
			log.Error("failed to submit exercise: %v", err)
		} else {
			log.Debug("submission rejected: %v", appErr)
		}
		return nil, appErr
	}

	log.Info("exercise submitted: correct=%t, xp=%d", outcome.Correct, outcome.XPEarned)
	return outcome, nil
}

func (s *progressService) CheckAnswer(ctx context.Context, exerciseID uuid.UUID, answer string) (bool, error) {
	logger.FromContext(ctx).Debug("checking answer: exercise_id=%s", exerciseID)

	ex, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return false, err
	}
	return exercise.Validate(ex.Payload, answer), nil
}

func (s *progressService) GetUserProgress(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting user progress: user_id=%s", userID)

	records, err := s.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list progress: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if records == nil {
		records = []models.ProgressRecord{}
	}
	return records, nil
}

func (s *progressService) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*models.LessonProgress, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting lesson progress: user_id=%s, lesson_id=%s", userID, lessonID)

	exercises, err := s.exerciseRepo.ListByLesson(ctx, lessonID)
	if err != nil {
		log.Error("failed to list lesson exercises: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if len(exercises) == 0 {
		return nil, apperrors.NewNotFoundError("lesson", lessonID)
	}

	ids := make([]uuid.UUID, len(exercises))
	for i, ex := range exercises {
		ids[i] = ex.ID
	}

	completed, correct, err := s.progressRepo.CountForExercises(ctx, userID, ids)
	if err != nil {
		log.Error("failed to count lesson progress: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	return lessonProgress(lessonID, completed, correct, len(exercises)), nil
}

func lessonProgress(lessonID uuid.UUID, completed, correct, total int) *models.LessonProgress {
	lp := &models.LessonProgress{
		LessonID:  lessonID,
		Completed: completed,
		Correct:   correct,
		Total:     total,
	}
	if total > 0 {
		lp.PercentComplete = completed * 100 / total
	}
	if completed > 0 {
		lp.PercentCorrect = correct * 100 / completed
	}
	return lp
}
