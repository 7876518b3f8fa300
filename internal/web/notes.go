package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/conorfennell/studynotes/internal/domain"
)

type viewNoteRequest struct {
	Href    string `json:"href" validate:"required"`
	Seconds int    `json:"seconds" validate:"min=0"`
}

type viewNoteResponse struct {
	Note     domain.NoteItem `json:"note"`
	Recorded bool            `json:"recorded"`
	Stats    domain.Stats    `json:"stats"`
}

func (s *Server) handleListNotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Catalog.Sections())
	}
}

// handleViewNote marks a note as viewed. A view that lasted at least the dwell
// threshold also counts as a study session.
func (s *Server) handleViewNote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req viewNoteRequest
		if err := readJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := domain.Validate(req); err != nil {
			s.writeError(w, r, err)
			return
		}
		note, ok := s.Catalog.Find(req.Href)
		if !ok {
			s.writeError(w, r, fmt.Errorf("%w: unknown note %q", domain.ErrInvalid, req.Href))
			return
		}

		resp := viewNoteResponse{Note: note}
		if time.Duration(req.Seconds)*time.Second >= s.DwellThreshold {
			st, err := s.Stats.RecordSession(note.Title, req.Seconds)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			resp.Recorded = true
			resp.Stats = st
		} else {
			if err := s.Stats.MarkViewed(note.Title); err != nil {
				s.writeError(w, r, err)
				return
			}
			resp.Stats = s.Stats.Compute()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleListFavorites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Favorites.List())
	}
}

func (s *Server) handleToggleFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := s.Favorites.Toggle(r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	}
}

// handleGetDocument reports the page count of a document. With raw=1 the
// document itself is returned instead.
func (s *Server) handleGetDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := r.URL.Query().Get("url")
		if u == "" {
			s.writeError(w, r, fmt.Errorf("%w: url is required", domain.ErrInvalid))
			return
		}
		doc, err := s.Documents.Open(r.Context(), u)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		defer doc.Close()

		if r.URL.Query().Get("raw") == "1" {
			w.Header().Set("Content-Type", "application/pdf")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(doc.Bytes())
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

type recordSessionRequest struct {
	Label   string `json:"label" validate:"required"`
	Seconds int    `json:"seconds" validate:"min=0"`
}

func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Stats.Compute())
	}
}

func (s *Server) handleRecordSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordSessionRequest
		if err := readJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := domain.Validate(req); err != nil {
			s.writeError(w, r, err)
			return
		}
		st, err := s.Stats.RecordSession(req.Label, req.Seconds)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, st)
	}
}
