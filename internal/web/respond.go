package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/conorfennell/studynotes/internal/document"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/flashcard"
	"github.com/conorfennell/studynotes/internal/plan"
	"github.com/conorfennell/studynotes/internal/quiz"
	"github.com/conorfennell/studynotes/internal/srs"
	"github.com/conorfennell/studynotes/internal/timer"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// readJSON decodes the request body into v, rejecting unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalid, err)
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, flashcard.ErrCardNotFound),
		errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, plan.ErrTaskNotFound),
		errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalid),
		errors.Is(err, srs.ErrInvalidOutcome),
		errors.Is(err, quiz.ErrUnknownQuestion),
		errors.Is(err, document.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrHostNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, flashcard.ErrNoActiveSession),
		errors.Is(err, flashcard.ErrEmptyDeck),
		errors.Is(err, quiz.ErrNoActiveSession),
		errors.Is(err, quiz.ErrSessionActive),
		errors.Is(err, timer.ErrNotRunning),
		errors.Is(err, timer.ErrNotActive):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
