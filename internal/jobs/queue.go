package jobs

import "errors"

// ErrSweepInFlight is returned when a sweep of the same kind is still queued
// or running.
var ErrSweepInFlight = errors.New("sweep already queued or running")

// SweepQueue provides an abstraction for enqueueing background sweeps
type SweepQueue interface {
	EnqueueHeartSweep() error
	EnqueueStreakSweep() error
}
