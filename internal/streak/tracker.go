// Package streak tracks consecutive practice days and the freeze tokens that
// protect a run from a missed day.
package streak

import (
	"errors"

	"github.com/vytor/lingoprogress/internal/models"
)

// FreezeCost is the XP price of one streak freeze.
const FreezeCost = 200

var (
	ErrInsufficientXP    = errors.New("insufficient xp for streak freeze")
	ErrNoFreezeAvailable = errors.New("no streak freeze available")
	ErrAlreadyPracticed  = errors.New("streak already credited today")
)

// Transition names what happened to a streak.
type Transition string

const (
	Unchanged Transition = "unchanged"
	Extended  Transition = "extended"
	Frozen    Transition = "frozen"
	Restarted Transition = "restarted"
	Reset     Transition = "reset"
)

// State is the streak part of a profile.
type State struct {
	Streak           int
	LastPracticeDate models.Date
	FreezeCount      int
}

// FromProfile extracts the streak state of p.
func FromProfile(p models.Profile) State {
	return State{Streak: p.Streak, LastPracticeDate: p.LastPracticeDate, FreezeCount: p.FreezeCount}
}

// ApplyTo writes s back into p.
func (s State) ApplyTo(p *models.Profile) {
	p.Streak = s.Streak
	p.LastPracticeDate = s.LastPracticeDate
	p.FreezeCount = s.FreezeCount
}

// OnPractice advances s for an exercise completed on today.
//
// Practising again on an already credited day changes nothing. Practising the
// day after the last credited day extends the run. After a longer gap, or on a
// first practice, a banked freeze is spent to keep the run as it is (without
// extending it); with no freeze the run restarts at one.
func OnPractice(s State, today models.Date) (State, Transition) {
	last := s.LastPracticeDate
	if !last.IsZero() && !last.Before(today) {
		return s, Unchanged
	}
	if !last.IsZero() && last.AddDays(1).Equal(today) {
		s.Streak++
		s.LastPracticeDate = today
		return s, Extended
	}
	if s.FreezeCount > 0 {
		s.FreezeCount--
		s.LastPracticeDate = today
		return s, Frozen
	}
	s.Streak = 1
	s.LastPracticeDate = today
	return s, Restarted
}

// Decay applies the nightly rule for a sweep whose current day is today. A
// run whose last credited day is older than yesterday either spends a freeze,
// which credits yesterday, or is reset to zero. Applying Decay twice for the
// same day is the same as applying it once.
func Decay(s State, today models.Date) (State, Transition) {
	last := s.LastPracticeDate
	if s.Streak == 0 || last.IsZero() {
		return s, Unchanged
	}
	yesterday := today.AddDays(-1)
	if !last.Before(yesterday) {
		return s, Unchanged
	}
	if s.FreezeCount > 0 {
		s.FreezeCount--
		s.LastPracticeDate = yesterday
		return s, Frozen
	}
	s.Streak = 0
	return s, Reset
}

// UseFreeze spends a freeze to credit today without practising.
func UseFreeze(s State, today models.Date) (State, error) {
	if s.FreezeCount <= 0 {
		return s, ErrNoFreezeAvailable
	}
	if !s.LastPracticeDate.IsZero() && !s.LastPracticeDate.Before(today) {
		return s, ErrAlreadyPracticed
	}
	s.FreezeCount--
	s.LastPracticeDate = today
	return s, nil
}

// BuyFreeze trades cost XP for one freeze.
func BuyFreeze(xp, freezes, cost int) (newXP, newFreezes int, err error) {
	if xp < cost {
		return xp, freezes, ErrInsufficientXP
	}
	return xp - cost, freezes + 1, nil
}

// Status builds the read view of s as of today.
func Status(s State, today models.Date) models.StreakStatus {
	practiced := !s.LastPracticeDate.IsZero() && s.LastPracticeDate.Equal(today)
	return models.StreakStatus{
		Streak:           s.Streak,
		LastPracticeDate: s.LastPracticeDate,
		FreezeCount:      s.FreezeCount,
		PracticedToday:   practiced,
		AtRisk:           s.Streak > 0 && !practiced,
	}
}
