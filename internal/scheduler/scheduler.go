package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vytor/lingoprogress/internal/jobs"
	"github.com/vytor/lingoprogress/internal/logger"
)

const (
	heartSweepTag  = "heart_sweep"
	streakSweepTag = "streak_sweep"
)

// Config sets when the sweeps fire.
type Config struct {
	HeartInterval time.Duration
	StreakAt      string // HH:MM in Location
	Location      *time.Location
}

// Scheduler fires the periodic sweeps into a SweepQueue.
type Scheduler struct {
	scheduler *gocron.Scheduler
	queue     jobs.SweepQueue
	log       *logger.Logger
}

// New registers the heart sweep every cfg.HeartInterval and the streak sweep
// daily at cfg.StreakAt. Nothing runs until Start.
func New(queue jobs.SweepQueue, cfg Config) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if cfg.HeartInterval <= 0 {
		return nil, fmt.Errorf("heart sweep interval must be positive, got %v", cfg.HeartInterval)
	}

	s := &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		queue:     queue,
		log:       logger.Default().WithPrefix("scheduler"),
	}
	// Keeps a slow enqueue from stacking up ticks. The queue itself rejects a
	// sweep while one of the same kind is queued or running.
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(cfg.HeartInterval).Tag(heartSweepTag).Do(s.enqueueHeartSweep); err != nil {
		return nil, fmt.Errorf("schedule heart sweep: %w", err)
	}
	if _, err := s.scheduler.Every(1).Day().At(cfg.StreakAt).WaitForSchedule().Tag(streakSweepTag).Do(s.enqueueStreakSweep); err != nil {
		return nil, fmt.Errorf("schedule streak sweep at %q: %w", cfg.StreakAt, err)
	}

	s.log.Info("heart sweep every %v, streak sweep daily at %s %s", cfg.HeartInterval, cfg.StreakAt, loc)
	return s, nil
}

// Start runs the timers in the background. The heart sweep fires once right away.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
	for tag, at := range s.NextRuns() {
		s.log.Debug("%s next run at %s", tag, at.Format(time.RFC3339))
	}
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("scheduler stopped")
}

// NextRuns reports the next fire time per sweep.
func (s *Scheduler) NextRuns() map[string]time.Time {
	runs := make(map[string]time.Time)
	for _, job := range s.scheduler.Jobs() {
		for _, tag := range job.Tags() {
			runs[tag] = job.NextRun()
		}
	}
	return runs
}

func (s *Scheduler) enqueueHeartSweep() {
	s.report("heart", s.queue.EnqueueHeartSweep())
}

func (s *Scheduler) enqueueStreakSweep() {
	s.report("streak", s.queue.EnqueueStreakSweep())
}

func (s *Scheduler) report(kind string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, jobs.ErrSweepInFlight):
		s.log.Info("skipping %s sweep: previous run still in flight", kind)
	default:
		s.log.Warn("failed to enqueue %s sweep: %v", kind, err)
	}
}
