// Package reconciler applies the time-based profile transitions that happen
// without user action: heart refills and nightly streak decay.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/hearts"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/repository"
	"github.com/vytor/lingoprogress/internal/retry"
	"github.com/vytor/lingoprogress/internal/streak"
)

// Report summarises one sweep.
type Report struct {
	Scanned int
	Updated int
	Failed  int
}

func (r Report) String() string {
	return fmt.Sprintf("scanned=%d updated=%d failed=%d", r.Scanned, r.Updated, r.Failed)
}

// step computes the next profile and whether it differs from p.
type step func(p models.Profile) (models.Profile, bool)

type Reconciler struct {
	profileRepo repository.ProfileRepository
	retry       retry.Config
}

func New(profileRepo repository.ProfileRepository, retryCfg retry.Config) *Reconciler {
	return &Reconciler{profileRepo: profileRepo, retry: retryCfg}
}

// RunHeartSweep grants every due refill as of now.
func (r *Reconciler) RunHeartSweep(ctx context.Context, now time.Time) (Report, error) {
	return r.sweep(ctx, "heart_sweep", func(p models.Profile) (models.Profile, bool) {
		next, changed := hearts.RefillIfDue(hearts.FromProfile(p), now)
		if changed {
			next.ApplyTo(&p)
		}
		return p, changed
	})
}

// RunStreakSweep applies the nightly decay rule for the calendar day of now.
// now should already be in the application's time zone.
func (r *Reconciler) RunStreakSweep(ctx context.Context, now time.Time) (Report, error) {
	today := models.DateOf(now)
	return r.sweep(ctx, "streak_sweep", func(p models.Profile) (models.Profile, bool) {
		next, transition := streak.Decay(streak.FromProfile(p), today)
		if transition == streak.Unchanged {
			return p, false
		}
		next.ApplyTo(&p)
		return p, true
	})
}

func (r *Reconciler) sweep(ctx context.Context, name string, fn step) (Report, error) {
	log := logger.FromContext(ctx).WithPrefix(name)
	start := time.Now()

	ids, err := r.profileRepo.ListIDs(ctx)
	if err != nil {
		log.Error("failed to list profiles: %v", err)
		return Report{}, err
	}
	log.Debug("sweeping %d profiles", len(ids))

	var report Report
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			log.Warn("sweep interrupted after %d of %d profiles: %v", report.Scanned, len(ids), err)
			return report, err
		}
		report.Scanned++

		updated, err := r.apply(ctx, id, fn)
		if err != nil {
			report.Failed++
			log.WithField("user_id", id.String()).WithError(err).Warn("profile step failed, continuing")
			continue
		}
		if updated {
			report.Updated++
		}
	}

	log.Info("sweep finished in %v: %s", time.Since(start), report)
	return report, nil
}

// apply re-reads one profile and writes it only if fn changed it.
func (r *Reconciler) apply(ctx context.Context, userID uuid.UUID, fn step) (bool, error) {
	var updated bool
	err := retry.OnConflict(ctx, r.retry, isVersionConflict, func(ctx context.Context) error {
		updated = false
		p, err := r.profileRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		if p == nil {
			// Deleted since the listing.
			return nil
		}
		next, changed := fn(*p)
		if !changed {
			return nil
		}
		if err := r.profileRepo.Update(ctx, next); err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}

func isVersionConflict(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict)
}
