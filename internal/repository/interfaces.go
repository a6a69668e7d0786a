package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/models"
)

var (
	// ErrVersionConflict means the profile row changed since it was read.
	ErrVersionConflict = errors.New("profile version conflict")
	// ErrDuplicateProgress means a record already exists for (user, exercise).
	ErrDuplicateProgress = errors.New("progress record already exists")
	// ErrProfileExists means a profile was already created for the user.
	ErrProfileExists = errors.New("profile already exists")
)

// ProfileRepository handles profile data access. Get returns (nil, nil) when
// the profile does not exist.
type ProfileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Create(ctx context.Context, profile models.Profile) error
	// Update writes profile if its Version still matches the stored row and
	// bumps the stored version. It returns ErrVersionConflict otherwise.
	Update(ctx context.Context, profile models.Profile) error
}

// ExerciseRepository handles exercise definition access. Get returns
// (nil, nil) when the exercise does not exist.
type ExerciseRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Exercise, error)
	Save(ctx context.Context, exercise models.Exercise) error
	ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.Exercise, error)
}

// ProgressRepository handles progress record access. Get returns (nil, nil)
// when no record exists.
type ProgressRepository interface {
	Get(ctx context.Context, userID, exerciseID uuid.UUID) (*models.ProgressRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error)
	CountForExercises(ctx context.Context, userID uuid.UUID, exerciseIDs []uuid.UUID) (completed, correct int, err error)
	// RecordSubmission applies the versioned profile update and inserts the
	// record in one transaction. It returns ErrVersionConflict or
	// ErrDuplicateProgress without writing anything.
	RecordSubmission(ctx context.Context, profile models.Profile, record models.ProgressRecord) error
}
