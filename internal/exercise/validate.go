// Package exercise validates learner answers against exercise definitions.
package exercise

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vytor/lingoprogress/internal/models"
)

// Validate reports whether raw is a correct answer for p. It is pure: the
// same inputs always give the same result. A blank answer is never correct.
func Validate(p models.Payload, raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}

	switch v := p.(type) {
	case models.Translation:
		return validateTranslation(v, raw)
	case *models.Translation:
		return validateTranslation(*v, raw)
	case models.MultipleChoice:
		return validateMultipleChoice(v, raw)
	case *models.MultipleChoice:
		return validateMultipleChoice(*v, raw)
	case models.Matching:
		return validateMatching(v, raw)
	case *models.Matching:
		return validateMatching(*v, raw)
	default:
		panic(fmt.Sprintf("exercise: unknown payload type %T", p))
	}
}

func validateTranslation(t models.Translation, raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), t.Expected)
}

// The answer is the option index, never its label.
func validateMultipleChoice(mc models.MultipleChoice, raw string) bool {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return idx == mc.CorrectIndex
}

func validateMatching(m models.Matching, raw string) bool {
	got, ok := ParseMatching(raw)
	if !ok || len(got) != len(m.Pairs) {
		return false
	}
	for k, want := range m.Pairs {
		if v, found := got[k]; !found || v != want {
			return false
		}
	}
	return true
}

// ParseMatching parses "k1:v1, k2:v2" into a map. Tokens that do not split
// into exactly one key and one value are dropped. ok is false when a key
// repeats, since the answer is then not a mapping.
func ParseMatching(raw string) (pairs map[string]string, ok bool) {
	pairs = make(map[string]string)
	for _, token := range strings.Split(raw, ",") {
		parts := strings.Split(token, ":")
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if _, dup := pairs[key]; dup {
			return nil, false
		}
		pairs[key] = value
	}
	return pairs, true
}
