// Package clock provides the time source used by services and sweeps so
// tests can pin "now".
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in a fixed location.
type Real struct {
	loc *time.Location
}

// New returns a system clock reporting times in loc (UTC when nil).
func New(loc *time.Location) Real {
	if loc == nil {
		loc = time.UTC
	}
	return Real{loc: loc}
}

func (c Real) Now() time.Time {
	return time.Now().In(c.loc)
}

// Manual is a settable clock for tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock set to t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
