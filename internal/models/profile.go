package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-user gamification aggregate: hearts, streak and XP.
// Version is bumped on every write and guards concurrent updates.
type Profile struct {
	UserID           uuid.UUID `json:"user_id"`
	XP               int       `json:"xp"`
	Hearts           int       `json:"hearts"`
	LastRefillAt     time.Time `json:"last_refill_at"`
	Streak           int       `json:"streak"`
	LastPracticeDate Date      `json:"last_practice_date"`
	FreezeCount      int       `json:"freeze_count"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HeartStatus is the read view of a profile's hearts.
type HeartStatus struct {
	Hearts       int        `json:"hearts"`
	MaxHearts    int        `json:"max_hearts"`
	LastRefillAt time.Time  `json:"last_refill_at"`
	NextRefillAt *time.Time `json:"next_refill_at"`
}

// StreakStatus is the read view of a profile's streak.
type StreakStatus struct {
	Streak           int  `json:"streak"`
	LastPracticeDate Date `json:"last_practice_date"`
	FreezeCount      int  `json:"freeze_count"`
	PracticedToday   bool `json:"practiced_today"`
	AtRisk           bool `json:"at_risk"`
}
