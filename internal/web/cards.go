package web

import (
	"net/http"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/srs"
	"github.com/conorfennell/studynotes/internal/storage"
)

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category == "" {
			category = srs.AllCategories
		}
		writeJSON(w, http.StatusOK, s.Deck.List(category))
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft domain.CardDraft
		if err := readJSON(r, &draft); err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.Deck.Create(draft)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handleUpdateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.CardPatch
		if err := readJSON(r, &patch); err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.Deck.Update(r.PathValue("id"), patch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Deck.Delete(r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCardStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Deck.Stats())
	}
}

func (s *Server) handleCardCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Deck.Categories())
	}
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Sources == nil {
			writeJSON(w, http.StatusOK, []storage.Source{})
			return
		}
		sources, err := s.Sources.Sources()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sources)
	}
}

type startStudyRequest struct {
	Category string `json:"category"`
}

type answerRequest struct {
	Outcome domain.Outcome `json:"outcome"`
}

func (s *Server) handleStartStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startStudyRequest
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		if req.Category == "" {
			req.Category = srs.AllCategories
		}
		view, err := s.Deck.StartSession(req.Category)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleCurrentStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Deck.Current()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleAnswerCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := readJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		view, err := s.Deck.Answer(req.Outcome)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleEndStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Deck.EndSession()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
