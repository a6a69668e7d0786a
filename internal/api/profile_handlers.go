package api

import (
	"net/http"
)

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.ProfileService.CreateProfile(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.ProfileService.GetProfile(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleGetHearts(w http.ResponseWriter, r *http.Request) {
	status, err := s.ProfileService.GetHearts(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	status, err := s.ProfileService.GetStreak(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleUseStreakFreeze(w http.ResponseWriter, r *http.Request) {
	status, err := s.ProfileService.UseStreakFreeze(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleBuyStreakFreeze(w http.ResponseWriter, r *http.Request) {
	profile, err := s.ProfileService.BuyStreakFreeze(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}
