package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord is the immutable result of a user's first scored attempt at
// an exercise. (UserID, ExerciseID) is unique.
type ProgressRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ExerciseID  uuid.UUID `json:"exercise_id"`
	LessonID    uuid.UUID `json:"lesson_id"`
	Completed   bool      `json:"completed"`
	Correct     bool      `json:"correct"`
	AnswerGiven string    `json:"answer_given"`
	CompletedAt time.Time `json:"completed_at"`
	XPEarned    int       `json:"xp_earned"`
	HeartsSpent int       `json:"hearts_spent"`
}

// ProgressOutcome is returned to the caller of a submission.
type ProgressOutcome struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	Completed   bool      `json:"completed"`
	Correct     bool      `json:"correct"`
	XPEarned    int       `json:"xp_earned"`
	HeartsUsed  int       `json:"hearts_used"`
	CompletedAt time.Time `json:"completed_at"`
	AnswerGiven string    `json:"answer_given"`
	Hearts      int       `json:"hearts"`
	Streak      int       `json:"streak"`
}

// LessonProgress aggregates a user's records over one lesson.
type LessonProgress struct {
	LessonID        uuid.UUID `json:"lesson_id"`
	Completed       int       `json:"completed"`
	Correct         int       `json:"correct"`
	Total           int       `json:"total"`
	PercentComplete int       `json:"percent_complete"`
	PercentCorrect  int       `json:"percent_correct"`
}
