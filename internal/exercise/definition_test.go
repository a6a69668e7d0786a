package exercise_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/lingoprogress/internal/exercise"
	"github.com/vytor/lingoprogress/internal/models"
)

func TestCheckDefinition(t *testing.T) {
	tests := []struct {
		name    string
		ex      models.Exercise
		wantErr bool
	}{
		{
			name: "valid translation",
			ex:   models.Exercise{XPReward: 10, HeartsCost: 1, Payload: models.Translation{Expected: "hi"}},
		},
		{
			name: "valid multiple choice",
			ex:   models.Exercise{Payload: models.MultipleChoice{Options: []string{"a", "b"}, CorrectIndex: 0}},
		},
		{
			name: "valid matching",
			ex:   models.Exercise{Payload: models.Matching{Pairs: map[string]string{"a": "b"}}},
		},
		{
			name:    "missing payload",
			ex:      models.Exercise{},
			wantErr: true,
		},
		{
			name:    "empty translation",
			ex:      models.Exercise{Payload: models.Translation{}},
			wantErr: true,
		},
		{
			name:    "index past options",
			ex:      models.Exercise{Payload: models.MultipleChoice{Options: []string{"a"}, CorrectIndex: 1}},
			wantErr: true,
		},
		{
			name:    "negative index",
			ex:      models.Exercise{Payload: models.MultipleChoice{Options: []string{"a"}, CorrectIndex: -1}},
			wantErr: true,
		},
		{
			name:    "no pairs",
			ex:      models.Exercise{Payload: models.Matching{}},
			wantErr: true,
		},
		{
			name:    "negative hearts cost",
			ex:      models.Exercise{HeartsCost: -1, Payload: models.Translation{Expected: "hi"}},
			wantErr: true,
		},
		{
			name:    "negative xp",
			ex:      models.Exercise{XPReward: -5, Payload: models.Translation{Expected: "hi"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exercise.CheckDefinition(tt.ex)
			if tt.wantErr {
				assert.ErrorIs(t, err, exercise.ErrInvalidDefinition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
