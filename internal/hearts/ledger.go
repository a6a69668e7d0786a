// Package hearts implements the heart economy: a bounded attempt budget that
// regenerates one heart per refill window.
package hearts

import (
	"errors"
	"time"

	"github.com/vytor/lingoprogress/internal/models"
)

const (
	MaxHearts      = 5
	RefillInterval = 5 * time.Hour
)

var (
	ErrInsufficientHearts = errors.New("insufficient hearts")
	ErrInvalidCost        = errors.New("heart cost must not be negative")
)

// State is the heart part of a profile.
type State struct {
	Hearts       int
	LastRefillAt time.Time
}

// FromProfile extracts the heart state of p.
func FromProfile(p models.Profile) State {
	return State{Hearts: p.Hearts, LastRefillAt: p.LastRefillAt}
}

// ApplyTo writes s back into p.
func (s State) ApplyTo(p *models.Profile) {
	p.Hearts = s.Hearts
	p.LastRefillAt = s.LastRefillAt
}

// Consume spends cost hearts. A cost of zero changes nothing. Spending from a
// full ledger starts a fresh refill window at now, so time spent at the cap
// does not count toward the next refill.
func Consume(s State, cost int, now time.Time) (State, error) {
	if cost < 0 {
		return s, ErrInvalidCost
	}
	if cost == 0 {
		return s, nil
	}
	if s.Hearts < cost {
		return s, ErrInsufficientHearts
	}
	if s.Hearts >= MaxHearts {
		s.LastRefillAt = now
	}
	s.Hearts -= cost
	return s, nil
}

// RefillIfDue adds exactly one heart when a full refill window has passed
// since the last refill and the ledger is below the cap. It does not catch up
// on missed windows. The request path and the sweep both use it.
func RefillIfDue(s State, now time.Time) (State, bool) {
	if s.Hearts >= MaxHearts {
		return s, false
	}
	if now.Sub(s.LastRefillAt) < RefillInterval {
		return s, false
	}
	s.Hearts++
	s.LastRefillAt = now
	return s, true
}

// NextRefillAt returns when the next heart becomes due. ok is false when the
// ledger is full.
func NextRefillAt(s State) (at time.Time, ok bool) {
	if s.Hearts >= MaxHearts {
		return time.Time{}, false
	}
	return s.LastRefillAt.Add(RefillInterval), true
}

// Status builds the read view for s.
func Status(s State) models.HeartStatus {
	st := models.HeartStatus{
		Hearts:       s.Hearts,
		MaxHearts:    MaxHearts,
		LastRefillAt: s.LastRefillAt,
	}
	if at, ok := NextRefillAt(s); ok {
		st.NextRefillAt = &at
	}
	return st
}
