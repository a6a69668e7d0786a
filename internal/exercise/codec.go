package exercise

import (
	"encoding/json"
	"fmt"

	"github.com/vytor/lingoprogress/internal/models"
)

// EncodePayload returns the discriminator and JSON body stored for p.
func EncodePayload(p models.Payload) (models.ExerciseKind, []byte, error) {
	if p == nil {
		return "", nil, fmt.Errorf("encode payload: %w", ErrInvalidDefinition)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return p.Kind(), body, nil
}

// DecodePayload rebuilds a payload from its stored discriminator and body.
func DecodePayload(kind models.ExerciseKind, body []byte) (models.Payload, error) {
	switch kind {
	case models.KindTranslation:
		var t models.Translation
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return t, nil
	case models.KindMultipleChoice:
		var mc models.MultipleChoice
		if err := json.Unmarshal(body, &mc); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return mc, nil
	case models.KindMatching:
		var m models.Matching
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("decode payload: unknown exercise kind %q", kind)
	}
}
