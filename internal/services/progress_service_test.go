package services_test

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/vytor/lingoprogress/internal/clock"
	apperrors "github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
	"github.com/vytor/lingoprogress/internal/repository/sqlite"
	"github.com/vytor/lingoprogress/internal/retry"
	"github.com/vytor/lingoprogress/internal/services"
	"github.com/vytor/lingoprogress/internal/testutil"
	"github.com/vytor/lingoprogress/internal/testutil/mocks"
)

var testRetry = retry.Config{MaxAttempts: 10, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

type ProgressServiceSuite struct {
	suite.Suite
	db        *sql.DB
	clock     *clock.Manual
	profiles  repository.ProfileRepository
	exercises repository.ExerciseRepository
	progress  repository.ProgressRepository
	svc       services.ProgressService
	lesson    uuid.UUID
}

func (s *ProgressServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.clock = clock.NewManual(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	s.profiles = sqlite.NewProfileRepository(s.db)
	s.exercises = sqlite.NewExerciseRepository(s.db)
	s.progress = sqlite.NewProgressRepository(s.db)
	s.svc = services.NewProgressService(s.profiles, s.exercises, s.progress, s.clock, testRetry)
	s.lesson = uuid.New()
}

func (s *ProgressServiceSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ProgressServiceSuite) newProfile(edit func(p *models.Profile)) models.Profile {
	p := testutil.NewProfile(s.clock.Now())
	if edit != nil {
		edit(&p)
	}
	s.Require().NoError(s.profiles.Create(context.Background(), p))
	return p
}

func (s *ProgressServiceSuite) newExercise(answer string, xp, cost int) models.Exercise {
	ex := testutil.NewTranslationExercise(s.lesson, answer, xp, cost)
	s.Require().NoError(s.exercises.Save(context.Background(), ex))
	return ex
}

func (s *ProgressServiceSuite) reload(userID uuid.UUID) models.Profile {
	p, err := s.profiles.Get(context.Background(), userID)
	s.Require().NoError(err)
	s.Require().NotNil(p)
	return *p
}

func (s *ProgressServiceSuite) TestSubmit_Correct() {
	ctx := context.Background()
	p := s.newProfile(nil)
	ex := s.newExercise("Hola", 10, 1)

	outcome, err := s.svc.SubmitExercise(ctx, p.UserID, ex.ID, "  hola ")
	s.Require().NoError(err)
	s.True(outcome.Completed)
	s.True(outcome.Correct)
	s.Equal(10, outcome.XPEarned)
	s.Equal(1, outcome.HeartsUsed)
	s.Equal("  hola ", outcome.AnswerGiven)
	s.Equal(4, outcome.Hearts)
	s.Equal(1, outcome.Streak)
	s.Equal(s.clock.Now(), outcome.CompletedAt)

	stored := s.reload(p.UserID)
	s.Equal(10, stored.XP)
	s.Equal(4, stored.Hearts)
	s.Equal(1, stored.Streak)
	s.True(stored.LastPracticeDate.Equal(models.NewDate(2024, 3, 10)))
	// Leaving full hearts starts the refill window now.
	s.WithinDuration(s.clock.Now(), stored.LastRefillAt, time.Second)

	rec, err := s.progress.Get(ctx, p.UserID, ex.ID)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.True(rec.Correct)
	s.Equal(ex.LessonID, rec.LessonID)
}

func (s *ProgressServiceSuite) TestSubmit_IncorrectStillScoresAttempt() {
	p := s.newProfile(nil)
	ex := s.newExercise("Hola", 10, 1)

	outcome, err := s.svc.SubmitExercise(context.Background(), p.UserID, ex.ID, "adios")
	s.Require().NoError(err)
	s.False(outcome.Correct)
	s.True(outcome.Completed)
	s.Equal(10, outcome.XPEarned)

	stored := s.reload(p.UserID)
	s.Equal(10, stored.XP)
	s.Equal(4, stored.Hearts)
}

func (s *ProgressServiceSuite) TestSubmit_AlreadyCompleted() {
	ctx := context.Background()
	p := s.newProfile(nil)
	ex := s.newExercise("Hola", 10, 1)

	_, err := s.svc.SubmitExercise(ctx, p.UserID, ex.ID, "hola")
	s.Require().NoError(err)
	before := s.reload(p.UserID)

	_, err = s.svc.SubmitExercise(ctx, p.UserID, ex.ID, "hola")
	s.ErrorIs(err, apperrors.ErrAlreadyCompleted)
	s.Equal(before, s.reload(p.UserID))
}

func (s *ProgressServiceSuite) TestSubmit_InsufficientHeartsChangesNothing() {
	ctx := context.Background()
	p := s.newProfile(func(p *models.Profile) {
		p.Hearts = 1
		p.XP = 50
	})
	ex := s.newExercise("Hola", 10, 2)

	_, err := s.svc.SubmitExercise(ctx, p.UserID, ex.ID, "hola")
	s.ErrorIs(err, apperrors.ErrInsufficientHearts)

	stored := s.reload(p.UserID)
	s.Equal(1, stored.Hearts)
	s.Equal(50, stored.XP)
	s.Equal(0, stored.Streak)
	s.Equal(int64(1), stored.Version)

	rec, err := s.progress.Get(ctx, p.UserID, ex.ID)
	s.NoError(err)
	s.Nil(rec)
}

func (s *ProgressServiceSuite) TestSubmit_RefillsBeforeConsuming() {
	p := s.newProfile(func(p *models.Profile) {
		p.Hearts = 0
		p.LastRefillAt = s.clock.Now().Add(-5*time.Hour - time.Minute)
	})
	ex := s.newExercise("Hola", 10, 1)

	outcome, err := s.svc.SubmitExercise(context.Background(), p.UserID, ex.ID, "hola")
	s.Require().NoError(err)
	s.Equal(0, outcome.Hearts)

	stored := s.reload(p.UserID)
	s.Equal(0, stored.Hearts)
	s.WithinDuration(s.clock.Now(), stored.LastRefillAt, time.Second)
}

func (s *ProgressServiceSuite) TestSubmit_StreakTransitions() {
	today := models.NewDate(2024, 3, 10)

	tests := []struct {
		name       string
		last       models.Date
		streak     int
		freezes    int
		wantStreak int
		wantFreeze int
	}{
		{"extends from yesterday", today.AddDays(-1), 4, 0, 5, 0},
		{"freeze covers a gap", today.AddDays(-3), 4, 1, 4, 0},
		{"gap without freeze restarts", today.AddDays(-3), 4, 0, 1, 0},
		{"first practice", models.Date{}, 0, 0, 1, 0},
		{"first practice spends banked freeze", models.Date{}, 0, 1, 0, 0},
		{"second exercise today", today, 7, 1, 7, 1},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			p := s.newProfile(func(p *models.Profile) {
				p.Streak = tt.streak
				p.LastPracticeDate = tt.last
				p.FreezeCount = tt.freezes
			})
			ex := s.newExercise("Hola", 10, 1)

			_, err := s.svc.SubmitExercise(context.Background(), p.UserID, ex.ID, "hola")
			s.Require().NoError(err)

			stored := s.reload(p.UserID)
			s.Equal(tt.wantStreak, stored.Streak)
			s.Equal(tt.wantFreeze, stored.FreezeCount)
			s.True(stored.LastPracticeDate.Equal(today))
		})
	}
}

func (s *ProgressServiceSuite) TestSubmit_UsesClockLocationForToday() {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on the 11th is still the 10th at UTC-5.
	s.clock.Set(time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC).In(loc))

	p := s.newProfile(nil)
	ex := s.newExercise("Hola", 10, 1)

	_, err := s.svc.SubmitExercise(context.Background(), p.UserID, ex.ID, "hola")
	s.Require().NoError(err)
	s.True(s.reload(p.UserID).LastPracticeDate.Equal(models.NewDate(2024, 3, 10)))
}

func (s *ProgressServiceSuite) TestSubmit_NotFound() {
	ctx := context.Background()
	p := s.newProfile(nil)
	ex := s.newExercise("Hola", 10, 1)

	_, err := s.svc.SubmitExercise(ctx, p.UserID, uuid.New(), "hola")
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.SubmitExercise(ctx, uuid.New(), ex.ID, "hola")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ProgressServiceSuite) TestSubmit_ConcurrentSameExerciseScoresOnce() {
	ctx := context.Background()
	p := s.newProfile(nil)
	ex := s.newExercise("Hola", 10, 1)

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := s.svc.SubmitExercise(ctx, p.UserID, ex.ID, "hola")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperrors.ErrAlreadyCompleted):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int32(1), ok.Load())
	s.Equal(int32(7), rejected.Load())

	stored := s.reload(p.UserID)
	s.Equal(10, stored.XP)
	s.Equal(4, stored.Hearts)
}

func (s *ProgressServiceSuite) TestSubmit_ConcurrentExercisesLoseNoUpdate() {
	ctx := context.Background()
	p := s.newProfile(nil)

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		ex := s.newExercise("Hola", 10, 1)
		g.Go(func() error {
			_, err := s.svc.SubmitExercise(ctx, p.UserID, ex.ID, "hola")
			return err
		})
	}
	s.Require().NoError(g.Wait())

	stored := s.reload(p.UserID)
	s.Equal(1, stored.Hearts)
	s.Equal(40, stored.XP)

	records, err := s.svc.GetUserProgress(ctx, p.UserID)
	s.Require().NoError(err)
	s.Len(records, 4)
}

func (s *ProgressServiceSuite) TestCheckAnswer() {
	ctx := context.Background()
	ex := s.newExercise("Hola", 10, 1)

	ok, err := s.svc.CheckAnswer(ctx, ex.ID, "HOLA")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.svc.CheckAnswer(ctx, ex.ID, "")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.svc.CheckAnswer(ctx, uuid.New(), "hola")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ProgressServiceSuite) TestGetLessonProgress() {
	ctx := context.Background()
	p := s.newProfile(nil)
	a := s.newExercise("uno", 10, 1)
	b := s.newExercise("dos", 10, 1)
	s.newExercise("tres", 10, 1)

	_, err := s.svc.SubmitExercise(ctx, p.UserID, a.ID, "uno")
	s.Require().NoError(err)
	_, err = s.svc.SubmitExercise(ctx, p.UserID, b.ID, "wrong")
	s.Require().NoError(err)

	lp, err := s.svc.GetLessonProgress(ctx, p.UserID, s.lesson)
	s.Require().NoError(err)
	s.Equal(2, lp.Completed)
	s.Equal(1, lp.Correct)
	s.Equal(3, lp.Total)
	s.Equal(66, lp.PercentComplete)
	s.Equal(50, lp.PercentCorrect)

	fresh, err := s.svc.GetLessonProgress(ctx, uuid.New(), s.lesson)
	s.Require().NoError(err)
	s.Zero(fresh.PercentComplete)
	s.Zero(fresh.PercentCorrect)

	_, err = s.svc.GetLessonProgress(ctx, p.UserID, uuid.New())
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ProgressServiceSuite) TestGetUserProgress_Empty() {
	records, err := s.svc.GetUserProgress(context.Background(), uuid.New())
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func TestProgressServiceSuite(t *testing.T) {
	suite.Run(t, new(ProgressServiceSuite))
}

func TestSubmit_PersistentConflictSurfacesAsConcurrentModification(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	profile := testutil.NewProfile(now)
	ex := testutil.NewTranslationExercise(uuid.New(), "hola", 10, 1)

	profileRepo := new(mocks.MockProfileRepository)
	exerciseRepo := new(mocks.MockExerciseRepository)
	progressRepo := new(mocks.MockProgressRepository)

	exerciseRepo.On("Get", mock.Anything, ex.ID).Return(&ex, nil)
	profileRepo.On("Get", mock.Anything, profile.UserID).Return(&profile, nil)
	progressRepo.On("Get", mock.Anything, profile.UserID, ex.ID).Return(nil, nil)
	progressRepo.On("RecordSubmission", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrVersionConflict)

	cfg := retry.Config{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	svc := services.NewProgressService(profileRepo, exerciseRepo, progressRepo, clock.NewManual(now), cfg)

	_, err := svc.SubmitExercise(ctx, profile.UserID, ex.ID, "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConcurrentModification)
	profileRepo.AssertNumberOfCalls(t, "Get", 3)
	progressRepo.AssertNumberOfCalls(t, "RecordSubmission", 3)
}

func TestSubmit_StoreFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ex := testutil.NewTranslationExercise(uuid.New(), "hola", 10, 1)
	userID := uuid.New()

	profileRepo := new(mocks.MockProfileRepository)
	exerciseRepo := new(mocks.MockExerciseRepository)
	progressRepo := new(mocks.MockProgressRepository)

	exerciseRepo.On("Get", mock.Anything, ex.ID).Return(&ex, nil)
	profileRepo.On("Get", mock.Anything, userID).Return(nil, errors.New("disk I/O error"))

	svc := services.NewProgressService(profileRepo, exerciseRepo, progressRepo, clock.NewManual(now), testRetry)

	_, err := svc.SubmitExercise(ctx, userID, ex.ID, "hola")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	profileRepo.AssertNumberOfCalls(t, "Get", 1)
	progressRepo.AssertNotCalled(t, "RecordSubmission", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_InvalidDefinitionIsInternal(t *testing.T) {
	ex := testutil.NewTranslationExercise(uuid.New(), "", 10, 1)

	exerciseRepo := new(mocks.MockExerciseRepository)
	exerciseRepo.On("Get", mock.Anything, ex.ID).Return(&ex, nil)

	svc := services.NewProgressService(new(mocks.MockProfileRepository), exerciseRepo, new(mocks.MockProgressRepository),
		clock.NewManual(time.Now()), testRetry)

	_, err := svc.SubmitExercise(context.Background(), uuid.New(), ex.ID, "anything")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}
