package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/exercise"
	"github.com/vytor/lingoprogress/internal/jobs"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/models"
	"github.com/vytor/lingoprogress/internal/worker"
)

// exerciseDocument is the wire form of an exercise: the definition plus its
// discriminated payload.
type exerciseDocument struct {
	ID         uuid.UUID           `json:"id"`
	LessonID   uuid.UUID           `json:"lesson_id"`
	Prompt     string              `json:"prompt"`
	Hint       string              `json:"hint,omitempty"`
	XPReward   int                 `json:"xp_reward"`
	HeartsCost int                 `json:"hearts_cost"`
	Kind       models.ExerciseKind `json:"kind"`
	Payload    json.RawMessage     `json:"payload"`
}

func toDocument(ex models.Exercise) (exerciseDocument, error) {
	kind, body, err := exercise.EncodePayload(ex.Payload)
	if err != nil {
		return exerciseDocument{}, err
	}
	return exerciseDocument{
		ID:         ex.ID,
		LessonID:   ex.LessonID,
		Prompt:     ex.Prompt,
		Hint:       ex.Hint,
		XPReward:   ex.XPReward,
		HeartsCost: ex.HeartsCost,
		Kind:       kind,
		Payload:    body,
	}, nil
}

func (d exerciseDocument) toExercise() (models.Exercise, error) {
	payload, err := exercise.DecodePayload(d.Kind, d.Payload)
	if err != nil {
		return models.Exercise{}, errors.NewValidationError("payload", err.Error())
	}
	return models.Exercise{
		ID:         d.ID,
		LessonID:   d.LessonID,
		Prompt:     d.Prompt,
		Hint:       d.Hint,
		XPReward:   d.XPReward,
		HeartsCost: d.HeartsCost,
		Payload:    payload,
	}, nil
}

func (s *Server) handleTriggerSweep(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	kind := chi.URLParam(r, "kind")

	var err error
	switch kind {
	case "hearts":
		err = s.Sweeps.EnqueueHeartSweep()
	case "streaks":
		err = s.Sweeps.EnqueueStreakSweep()
	default:
		handleError(w, r, errors.NewValidationError("kind", "must be hearts or streaks"))
		return
	}
	if stderrors.Is(err, worker.ErrQueueFull) || stderrors.Is(err, jobs.ErrSweepInFlight) {
		handleError(w, r, errors.NewConcurrentModificationError("sweep queue", err))
		return
	}
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}

	log.Info("%s sweep enqueued", kind)
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued", "kind": kind})
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	var doc exerciseDocument
	if err := decodeJSON(w, r, &doc); err != nil {
		handleError(w, r, err)
		return
	}
	ex, err := doc.toExercise()
	if err != nil {
		handleError(w, r, err)
		return
	}

	saved, err := s.ExerciseService.SaveExercise(r.Context(), ex)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.writeExercise(w, r, http.StatusOK, *saved)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	ex, err := s.ExerciseService.GetExercise(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s.writeExercise(w, r, http.StatusOK, *ex)
}

func (s *Server) handleLessonExercises(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	exercises, err := s.ExerciseService.ListLessonExercises(r.Context(), lessonID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	docs := make([]exerciseDocument, 0, len(exercises))
	for _, ex := range exercises {
		doc, err := toDocument(ex)
		if err != nil {
			handleError(w, r, errors.NewInternalError(err))
			return
		}
		docs = append(docs, doc)
	}
	writeJSON(w, r, http.StatusOK, docs)
}

func (s *Server) writeExercise(w http.ResponseWriter, r *http.Request, status int, ex models.Exercise) {
	doc, err := toDocument(ex)
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}
	writeJSON(w, r, status, doc)
}
