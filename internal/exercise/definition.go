package exercise

import (
	"errors"
	"fmt"

	"github.com/vytor/lingoprogress/internal/models"
)

// ErrInvalidDefinition wraps every definition problem found by CheckDefinition.
var ErrInvalidDefinition = errors.New("invalid exercise definition")

// CheckDefinition verifies the invariants an exercise must hold before it can
// be scored.
func CheckDefinition(ex models.Exercise) error {
	if ex.XPReward < 0 {
		return fmt.Errorf("%w: xp reward %d is negative", ErrInvalidDefinition, ex.XPReward)
	}
	if ex.HeartsCost < 0 {
		return fmt.Errorf("%w: hearts cost %d is negative", ErrInvalidDefinition, ex.HeartsCost)
	}

	switch p := ex.Payload.(type) {
	case nil:
		return fmt.Errorf("%w: missing payload", ErrInvalidDefinition)
	case models.Translation:
		return checkTranslation(p)
	case *models.Translation:
		return checkTranslation(*p)
	case models.MultipleChoice:
		return checkMultipleChoice(p)
	case *models.MultipleChoice:
		return checkMultipleChoice(*p)
	case models.Matching:
		return checkMatching(p)
	case *models.Matching:
		return checkMatching(*p)
	default:
		panic(fmt.Sprintf("exercise: unknown payload type %T", p))
	}
}

func checkTranslation(t models.Translation) error {
	if t.Expected == "" {
		return fmt.Errorf("%w: translation has no expected answer", ErrInvalidDefinition)
	}
	return nil
}

func checkMultipleChoice(mc models.MultipleChoice) error {
	if mc.CorrectIndex < 0 || mc.CorrectIndex >= len(mc.Options) {
		return fmt.Errorf("%w: correct index %d out of range for %d options",
			ErrInvalidDefinition, mc.CorrectIndex, len(mc.Options))
	}
	return nil
}

func checkMatching(m models.Matching) error {
	if len(m.Pairs) == 0 {
		return fmt.Errorf("%w: matching has no pairs", ErrInvalidDefinition)
	}
	return nil
}
