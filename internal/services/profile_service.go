package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/clock"
	apperrors "github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/hearts"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
	"github.com/vytor/lingoprogress/internal/retry"
	"github.com/vytor/lingoprogress/internal/streak"
)

// ProfileService handles profile-related business logic
type ProfileService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetHearts(ctx context.Context, userID uuid.UUID) (*models.HeartStatus, error)
	GetStreak(ctx context.Context, userID uuid.UUID) (*models.StreakStatus, error)
	UseStreakFreeze(ctx context.Context, userID uuid.UUID) (*models.StreakStatus, error)
	BuyStreakFreeze(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
	clock       clock.Clock
	retry       retry.Config
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository, clk clock.Clock, retryCfg retry.Config) ProfileService {
	return &profileService{profileRepo: profileRepo, clock: clk, retry: retryCfg}
}

func (s *profileService) CreateProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating profile: user_id=%s", userID)

	if userID == uuid.Nil {
		return nil, apperrors.NewValidationError("user_id", "cannot be empty")
	}

	now := s.clock.Now()
	profile := models.Profile{
		UserID:       userID,
		Hearts:       hearts.MaxHearts,
		LastRefillAt: now,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.profileRepo.Create(ctx, profile)
	if errors.Is(err, repository.ErrProfileExists) {
		log.Debug("profile already exists: user_id=%s", userID)
		return s.GetProfile(ctx, userID)
	}
	if err != nil {
		log.Error("failed to create profile: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	log.Info("profile created: user_id=%s", userID)
	return &profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting profile: user_id=%s", userID)

	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	if profile == nil {
		return nil, apperrors.NewNotFoundError("profile", userID)
	}
	return profile, nil
}

// GetHearts reports the stored hearts with any refill that is already due
// applied. It does not write.
func (s *profileService) GetHearts(ctx context.Context, userID uuid.UUID) (*models.HeartStatus, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	state, _ := hearts.RefillIfDue(hearts.FromProfile(*profile), s.clock.Now())
	status := hearts.Status(state)
	return &status, nil
}

func (s *profileService) GetStreak(ctx context.Context, userID uuid.UUID) (*models.StreakStatus, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := streak.Status(streak.FromProfile(*profile), models.DateOf(s.clock.Now()))
	return &status, nil
}

func (s *profileService) UseStreakFreeze(ctx context.Context, userID uuid.UUID) (*models.StreakStatus, error) {
	log := logger.FromContext(ctx)
	log.Debug("using streak freeze: user_id=%s", userID)

	var status models.StreakStatus
	err := s.mutate(ctx, userID, func(p *models.Profile, today models.Date) error {
		next, err := streak.UseFreeze(streak.FromProfile(*p), today)
		switch {
		case errors.Is(err, streak.ErrNoFreezeAvailable):
			return apperrors.NewNoStreakFreezeError("no streak freeze available")
		case errors.Is(err, streak.ErrAlreadyPracticed):
			return apperrors.NewNoStreakFreezeError("streak already credited today")
		case err != nil:
			return apperrors.NewInternalError(err)
		}
		next.ApplyTo(p)
		status = streak.Status(next, today)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("streak freeze used: user_id=%s, freezes_left=%d", userID, status.FreezeCount)
	return &status, nil
}

func (s *profileService) BuyStreakFreeze(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("buying streak freeze: user_id=%s", userID)

	var result models.Profile
	err := s.mutate(ctx, userID, func(p *models.Profile, _ models.Date) error {
		xp, freezes, err := streak.BuyFreeze(p.XP, p.FreezeCount, streak.FreezeCost)
		if errors.Is(err, streak.ErrInsufficientXP) {
			return apperrors.NewInsufficientXPError(p.XP, streak.FreezeCost)
		}
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		p.XP = xp
		p.FreezeCount = freezes
		result = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Version++
	log.Info("streak freeze bought: user_id=%s, freezes=%d, xp=%d", userID, result.FreezeCount, result.XP)
	return &result, nil
}

// mutate runs one retried read-modify-write of the user's profile. fn edits
// the profile in place; returning an error aborts without writing.
func (s *profileService) mutate(ctx context.Context, userID uuid.UUID, fn func(p *models.Profile, today models.Date) error) error {
	log := logger.FromContext(ctx)

	err := retry.OnConflict(ctx, s.retry, isVersionConflict, func(ctx context.Context) error {
		profile, err := s.profileRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return apperrors.NewNotFoundError("profile", userID)
		}

		updated := *profile
		if err := fn(&updated, models.DateOf(s.clock.Now())); err != nil {
			return err
		}
		return s.profileRepo.Update(ctx, updated)
	})
	if err != nil {
		appErr := toAppError("profile", err)
		if errors.Is(appErr, apperrors.ErrInternal) {
			log.Error("failed to update profile: %v", err)
		}
		return appErr
	}
	return nil
}
