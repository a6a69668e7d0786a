package api

import (
	"net/http"
	"strings"

	"github.com/vytor/lingoprogress/internal/errors"
)

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) decodeAnswer(w http.ResponseWriter, r *http.Request) (string, error) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Answer) == "" {
		return "", errors.NewValidationError("answer", "cannot be empty")
	}
	return req.Answer, nil
}

func (s *Server) handleSubmitExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := pathUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	answer, err := s.decodeAnswer(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	outcome, err := s.ProgressService.SubmitExercise(r.Context(), userFromContext(r.Context()), exerciseID, answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, outcome)
}

func (s *Server) handleCheckAnswer(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := pathUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	answer, err := s.decodeAnswer(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	correct, err := s.ProgressService.CheckAnswer(r.Context(), exerciseID, answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"correct": correct})
}

func (s *Server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	records, err := s.ProgressService.GetUserProgress(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleLessonProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathUUID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	progress, err := s.ProgressService.GetLessonProgress(r.Context(), userFromContext(r.Context()), lessonID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progress)
}
