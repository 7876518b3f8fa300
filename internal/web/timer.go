package web

import (
	"fmt"
	"net/http"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/timer"
)

func (s *Server) handleGetTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Timer.Snapshot())
	}
}

func (s *Server) handleTimerAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			snap timer.Snapshot
			err  error
		)
		switch action := r.PathValue("action"); action {
		case "start":
			snap = s.Timer.Start()
		case "pause":
			snap, err = s.Timer.Pause()
		case "stop":
			snap = s.Timer.Stop()
		case "reset":
			snap, err = s.Timer.Reset()
		default:
			err = fmt.Errorf("%w: unknown timer action %q", domain.ErrInvalid, action)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleTimerSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings timer.Settings
		if err := readJSON(r, &settings); err != nil {
			s.writeError(w, r, err)
			return
		}
		snap, err := s.Timer.UpdateSettings(settings)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
