package web

import (
	"net/http"

	"github.com/conorfennell/studynotes/internal/domain"
)

// planResponse adds the derived progress percentage to a plan.
type planResponse struct {
	domain.StudyPlan
	Progress int `json:"progress"`
}

func toPlanResponse(p domain.StudyPlan) planResponse {
	return planResponse{StudyPlan: p, Progress: p.Progress()}
}

func (s *Server) handleListPlans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans := s.Plans.List()
		out := make([]planResponse, 0, len(plans))
		for _, p := range plans {
			out = append(out, toPlanResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleSavePlan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p domain.StudyPlan
		if err := readJSON(r, &p); err != nil {
			s.writeError(w, r, err)
			return
		}
		saved, err := s.Plans.Save(p)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(saved))
	}
}

func (s *Server) handleUpdateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.TaskPatch
		if err := readJSON(r, &patch); err != nil {
			s.writeError(w, r, err)
			return
		}
		p, err := s.Plans.UpdateTask(r.PathValue("id"), r.PathValue("taskID"), patch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlanResponse(p))
	}
}

func (s *Server) handleDeletePlan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Plans.Delete(r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
