package models

import "github.com/google/uuid"

// ExerciseKind discriminates the exercise payload.
type ExerciseKind string

const (
	KindTranslation    ExerciseKind = "translation"
	KindMultipleChoice ExerciseKind = "multiple_choice"
	KindMatching       ExerciseKind = "matching"
)

// Payload is the kind-specific part of an exercise. It is sealed: only the
// types in this file implement it.
type Payload interface {
	Kind() ExerciseKind
	sealed()
}

// Translation expects the learner to type the expected text.
type Translation struct {
	Expected string `json:"expected"`
}

// MultipleChoice expects the index of the correct option.
type MultipleChoice struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Matching expects every key paired with its value.
type Matching struct {
	Pairs map[string]string `json:"pairs"`
}

func (Translation) Kind() ExerciseKind    { return KindTranslation }
func (MultipleChoice) Kind() ExerciseKind { return KindMultipleChoice }
func (Matching) Kind() ExerciseKind       { return KindMatching }

func (Translation) sealed()    {}
func (MultipleChoice) sealed() {}
func (Matching) sealed()       {}

// Exercise is a read-only exercise definition owned by its lesson.
type Exercise struct {
	ID         uuid.UUID `json:"id"`
	LessonID   uuid.UUID `json:"lesson_id"`
	Prompt     string    `json:"prompt"`
	Hint       string    `json:"hint,omitempty"`
	XPReward   int       `json:"xp_reward"`
	HeartsCost int       `json:"hearts_cost"`
	Payload    Payload   `json:"-"`
}
