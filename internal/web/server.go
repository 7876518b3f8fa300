// Package web serves the JSON API and the server-sent event stream.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/conorfennell/studynotes/internal/document"
	"github.com/conorfennell/studynotes/internal/flashcard"
	"github.com/conorfennell/studynotes/internal/notes"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/plan"
	"github.com/conorfennell/studynotes/internal/quiz"
	"github.com/conorfennell/studynotes/internal/stats"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/conorfennell/studynotes/internal/timer"
)

// SourceLister reports the card sources that have been synced.
type SourceLister interface {
	Sources() ([]storage.Source, error)
}

// Deps holds the services the server exposes.
type Deps struct {
	Catalog   *notes.Catalog
	Favorites *notes.Favorites
	Stats     *stats.Aggregator
	Deck      *flashcard.Deck
	Timer     *timer.Timer
	Quizzes   *quiz.Service
	Plans     *plan.Service
	Documents *document.Source
	Events    *notify.Broadcaster
	// Sources is optional.
	Sources SourceLister
	Logger  *slog.Logger

	// DwellThreshold is how long a note must be open before viewing it counts as a study session.
	DwellThreshold time.Duration
	AllowedOrigins []string
	// RateLimit is requests per second per client. Zero disables limiting.
	RateLimit float64
	Burst     int
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	Deps
	router  *http.ServeMux
	handler http.Handler
	log     *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(deps Deps) *Server {
	s := &Server{
		Deps:   deps,
		router: http.NewServeMux(),
		log:    deps.Logger,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.routes()

	var h http.Handler = s.router
	if deps.RateLimit > 0 {
		h = newRateLimiter(deps.RateLimit, deps.Burst).middleware(h)
	}
	h = s.logRequests(h)
	h = cors.New(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(h)
	s.handler = h
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth())
	s.router.HandleFunc("GET /api/events", s.handleEvents())

	// Notes
	s.router.HandleFunc("GET /api/notes", s.handleListNotes())
	s.router.HandleFunc("POST /api/notes/view", s.handleViewNote())
	s.router.HandleFunc("GET /api/favorites", s.handleListFavorites())
	s.router.HandleFunc("POST /api/favorites/{id...}", s.handleToggleFavorite())
	s.router.HandleFunc("GET /api/document", s.handleGetDocument())

	// Stats
	s.router.HandleFunc("GET /api/stats", s.handleGetStats())
	s.router.HandleFunc("POST /api/stats/sessions", s.handleRecordSession())

	// Flashcards
	s.router.HandleFunc("GET /api/cards", s.handleListCards())
	s.router.HandleFunc("POST /api/cards", s.handleCreateCard())
	s.router.HandleFunc("GET /api/cards/stats", s.handleCardStats())
	s.router.HandleFunc("GET /api/cards/categories", s.handleCardCategories())
	s.router.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard())
	s.router.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard())
	s.router.HandleFunc("GET /api/sources", s.handleListSources())
	s.router.HandleFunc("POST /api/study/start", s.handleStartStudy())
	s.router.HandleFunc("GET /api/study", s.handleCurrentStudy())
	s.router.HandleFunc("POST /api/study/answer", s.handleAnswerCard())
	s.router.HandleFunc("POST /api/study/end", s.handleEndStudy())

	// Timer
	s.router.HandleFunc("GET /api/timer", s.handleGetTimer())
	s.router.HandleFunc("POST /api/timer/{action}", s.handleTimerAction())
	s.router.HandleFunc("PUT /api/timer/settings", s.handleTimerSettings())

	// Quizzes
	s.router.HandleFunc("GET /api/quizzes", s.handleListQuizzes())
	s.router.HandleFunc("POST /api/quizzes", s.handleCreateQuiz())
	s.router.HandleFunc("GET /api/quizzes/stats", s.handleQuizStats())
	s.router.HandleFunc("DELETE /api/quizzes/{id}", s.handleDeleteQuiz())
	s.router.HandleFunc("POST /api/quizzes/{id}/start", s.handleStartQuiz())
	s.router.HandleFunc("GET /api/quiz-session", s.handleCurrentQuiz())
	s.router.HandleFunc("DELETE /api/quiz-session", s.handleAbandonQuiz())
	s.router.HandleFunc("POST /api/quiz-session/{action}", s.handleQuizAction())

	// Study plans
	s.router.HandleFunc("GET /api/plans", s.handleListPlans())
	s.router.HandleFunc("PUT /api/plans", s.handleSavePlan())
	s.router.HandleFunc("PATCH /api/plans/{id}/tasks/{taskID}", s.handleUpdateTask())
	s.router.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan())
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
