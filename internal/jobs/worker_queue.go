package jobs

import (
	"context"
	"sync/atomic"

	"github.com/vytor/lingoprogress/internal/clock"
	"github.com/vytor/lingoprogress/internal/worker"
)

// WorkerQueue implements SweepQueue using a worker pool. At most one sweep of
// each kind is queued or running at a time.
type WorkerQueue struct {
	pool       *worker.Pool
	sweeper    worker.Sweeper
	clock      clock.Clock
	heartBusy  atomic.Bool
	streakBusy atomic.Bool
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, sweeper worker.Sweeper, clk clock.Clock) SweepQueue {
	return &WorkerQueue{pool: pool, sweeper: sweeper, clock: clk}
}

func (q *WorkerQueue) EnqueueHeartSweep() error {
	return q.submit(&q.heartBusy, &worker.HeartSweepJob{Sweeper: q.sweeper, Clock: q.clock})
}

func (q *WorkerQueue) EnqueueStreakSweep() error {
	return q.submit(&q.streakBusy, &worker.StreakSweepJob{Sweeper: q.sweeper, Clock: q.clock})
}

func (q *WorkerQueue) submit(busy *atomic.Bool, job worker.Job) error {
	if !busy.CompareAndSwap(false, true) {
		return ErrSweepInFlight
	}
	if err := q.pool.Submit(&exclusiveJob{Job: job, busy: busy}); err != nil {
		busy.Store(false)
		return err
	}
	return nil
}

// exclusiveJob releases its kind's flag once the wrapped job returns.
type exclusiveJob struct {
	worker.Job
	busy *atomic.Bool
}

func (j *exclusiveJob) Run(ctx context.Context) error {
	defer j.busy.Store(false)
	return j.Job.Run(ctx)
}
