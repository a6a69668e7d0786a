package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/lingoprogress/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	if s.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(s.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(userMiddleware)

			r.Post("/profile", s.handleCreateProfile)
			r.Get("/profile", s.handleGetProfile)
			r.Get("/hearts", s.handleGetHearts)
			r.Get("/streak", s.handleGetStreak)
			r.Post("/streak/freeze", s.handleUseStreakFreeze)
			r.Post("/streak/buy-freeze", s.handleBuyStreakFreeze)

			r.Post("/exercises/{id}/submit", s.handleSubmitExercise)
			r.Post("/exercises/{id}/check", s.handleCheckAnswer)
			r.Get("/progress", s.handleUserProgress)
			r.Get("/lessons/{id}/progress", s.handleLessonProgress)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweeps/{kind}", s.handleTriggerSweep)
			r.Put("/exercises", s.handleSaveExercise)
			r.Get("/exercises/{id}", s.handleGetExercise)
			r.Get("/lessons/{id}/exercises", s.handleLessonExercises)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("route", r.URL.Path))
	})
	return r
}
