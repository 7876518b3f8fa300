package web

import (
	"fmt"
	"net/http"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/quiz"
)

type quizAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer"`
}

func (s *Server) handleListQuizzes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Quizzes.List())
	}
}

func (s *Server) handleCreateQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q domain.Quiz
		if err := readJSON(r, &q); err != nil {
			s.writeError(w, r, err)
			return
		}
		created, err := s.Quizzes.Create(q)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) handleQuizStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Quizzes.Stats())
	}
}

func (s *Server) handleDeleteQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Quizzes.Delete(r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleStartQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Quizzes.Start(r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) handleCurrentQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Quizzes.Current()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) handleAbandonQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Quizzes.Abandon(); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleQuizAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			p   quiz.Progress
			err error
		)
		switch action := r.PathValue("action"); action {
		case "answer":
			var req quizAnswerRequest
			if err = readJSON(r, &req); err == nil {
				if err = domain.Validate(req); err == nil {
					p, err = s.Quizzes.Answer(req.QuestionID, req.Answer)
				}
			}
		case "next":
			p, err = s.Quizzes.Next()
		case "previous":
			p, err = s.Quizzes.Previous()
		case "submit":
			p, err = s.Quizzes.Submit()
		default:
			err = fmt.Errorf("%w: unknown quiz action %q", domain.ErrInvalid, action)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
