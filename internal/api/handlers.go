package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/jobs"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/services"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	ProgressService services.ProgressService
	ProfileService  services.ProfileService
	ExerciseService services.ExerciseService
	Sweeps          jobs.SweepQueue
	DB              Pinger
	RequestTimeout  time.Duration
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(name, "must be a UUID")
	}
	return id, nil
}
