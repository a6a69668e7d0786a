package worker

import (
	"context"
	"time"

	"github.com/vytor/lingoprogress/internal/clock"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/reconciler"
)

// Sweeper is the part of the reconciler the sweep jobs drive.
type Sweeper interface {
	RunHeartSweep(ctx context.Context, now time.Time) (reconciler.Report, error)
	RunStreakSweep(ctx context.Context, now time.Time) (reconciler.Report, error)
}

// HeartSweepJob grants due heart refills across all profiles.
type HeartSweepJob struct {
	Sweeper Sweeper
	Clock   clock.Clock
}

func (j *HeartSweepJob) Name() string { return "heart_sweep" }

func (j *HeartSweepJob) Run(ctx context.Context) error {
	report, err := j.Sweeper.RunHeartSweep(ctx, j.Clock.Now())
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		logger.FromContext(ctx).Warn("heart sweep finished with %d failed profiles", report.Failed)
	}
	return nil
}

// StreakSweepJob applies the nightly streak decay across all profiles.
type StreakSweepJob struct {
	Sweeper Sweeper
	Clock   clock.Clock
}

func (j *StreakSweepJob) Name() string { return "streak_sweep" }

func (j *StreakSweepJob) Run(ctx context.Context) error {
	report, err := j.Sweeper.RunStreakSweep(ctx, j.Clock.Now())
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		logger.FromContext(ctx).Warn("streak sweep finished with %d failed profiles", report.Failed)
	}
	return nil
}
