// Package quiz manages quizzes, timed quiz sessions and their attempt history.
package quiz

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/conorfennell/studynotes/internal/ticker"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrNoActiveSession = errors.New("no active quiz session")
	ErrSessionActive   = errors.New("a quiz session is already active")
	ErrUnknownQuestion = errors.New("question is not part of the quiz")
)

type Options struct {
	Store storage.Store
	Clock clock.Clock
	// Loop drives Tick for timed quizzes. Nil means a one-second real loop.
	Loop      *ticker.Loop
	Publisher notify.Publisher
	Logger    *slog.Logger
}

// Service owns the quiz collection and at most one running quiz session.
type Service struct {
	mu    sync.Mutex
	store storage.Store
	clock clock.Clock
	loop  *ticker.Loop
	pub   notify.Publisher
	log   *slog.Logger

	session *Session
	last    *Result
	gen     uint64
}

func New(opts Options) *Service {
	s := &Service{
		store: opts.Store,
		clock: opts.Clock,
		loop:  opts.Loop,
		pub:   opts.Publisher,
		log:   opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.loop == nil {
		s.loop = ticker.NewLoop(time.Second, nil)
	}
	if s.pub == nil {
		s.pub = notify.Nop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Seed writes the demo quiz when no collection has ever been stored.
func (s *Service) Seed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(storage.KeyQuizzes); !errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	limit := 10
	demo := domain.Quiz{
		ID:           "demo-1",
		Title:        "General Knowledge Demo",
		Description:  "A sample quiz to test the system functionality",
		Category:     "General",
		TimeLimit:    &limit,
		PassingScore: 70,
		Created:      s.clock.Now(),
		Attempts:     []domain.QuizAttempt{},
		Questions: []domain.QuizQuestion{
			{
				ID: "q1", Question: "What is the capital of France?", Type: domain.MultipleChoice,
				Options:       []string{"London", "Berlin", "Paris", "Madrid"},
				CorrectAnswer: "Paris", Explanation: "Paris is the capital and most populous city of France.",
				Category: "Geography", Difficulty: domain.Easy, Points: 1,
			},
			{
				ID: "q2", Question: "Is the Earth flat?", Type: domain.TrueFalse,
				CorrectAnswer: "false", Explanation: "The Earth is a sphere (technically an oblate spheroid).",
				Category: "Science", Difficulty: domain.Easy, Points: 1,
			},
			{
				ID: "q3", Question: "What is 2 + 2?", Type: domain.ShortAnswer,
				CorrectAnswer: "4", Explanation: "Basic addition: 2 + 2 equals 4.",
				Category: "Math", Difficulty: domain.Easy, Points: 1,
			},
		},
	}
	if err := s.save([]domain.Quiz{demo}); err != nil {
		return err
	}
	s.log.Info("seeded demo quiz", "id", demo.ID)
	return nil
}

func (s *Service) List() []domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) Get(id string) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quizzes := s.load()
	i := indexOf(quizzes, id)
	if i < 0 {
		return domain.Quiz{}, fmt.Errorf("%w: %s", ErrQuizNotFound, id)
	}
	return quizzes[i], nil
}

// Create validates q, assigns ids and stores it with an empty attempt history.
func (s *Service) Create(q domain.Quiz) (domain.Quiz, error) {
	q.Title = strings.TrimSpace(q.Title)
	for i := range q.Questions {
		question := &q.Questions[i]
		question.Question = strings.TrimSpace(question.Question)
		if question.ID == "" {
			question.ID = domain.NewID()
		}
		if question.Points == 0 {
			question.Points = 1
		}
		if question.Difficulty == "" {
			question.Difficulty = domain.Medium
		}
	}
	if err := domain.Validate(q); err != nil {
		return domain.Quiz{}, err
	}
	for _, question := range q.Questions {
		if question.Type == domain.MultipleChoice && !slices.Contains(question.Options, question.CorrectAnswer) {
			return domain.Quiz{}, fmt.Errorf("%w: correct answer of %q is not one of its options", domain.ErrInvalid, question.Question)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q.ID = domain.NewID()
	q.Created = s.clock.Now()
	q.Attempts = []domain.QuizAttempt{}
	if err := s.save(append(s.load(), q)); err != nil {
		return domain.Quiz{}, err
	}
	s.changed()
	return q, nil
}

// Delete removes a quiz and its attempts. A session running that quiz is abandoned.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quizzes := s.load()
	i := indexOf(quizzes, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrQuizNotFound, id)
	}
	if err := s.save(slices.Delete(quizzes, i, i+1)); err != nil {
		return err
	}
	if s.session != nil && s.session.Quiz.ID == id {
		s.clearSession()
	}
	s.changed()
	return nil
}

// Stats summarises every attempt of every quiz.
type Stats struct {
	TotalQuizzes   int `json:"totalQuizzes"`
	TotalAttempts  int `json:"totalAttempts"`
	PassedAttempts int `json:"passedAttempts"`
	AverageScore   int `json:"averageScore"`
}

func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	quizzes := s.load()
	st := Stats{TotalQuizzes: len(quizzes)}
	var sum int
	for _, q := range quizzes {
		for _, a := range q.Attempts {
			st.TotalAttempts++
			sum += a.Score
			if a.Passed {
				st.PassedAttempts++
			}
		}
	}
	if st.TotalAttempts > 0 {
		st.AverageScore = int(math.Round(float64(sum) / float64(st.TotalAttempts)))
	}
	return st
}

func (s *Service) load() []domain.Quiz {
	return storage.LoadJSON(s.store, storage.KeyQuizzes, []domain.Quiz{}, s.log)
}

func (s *Service) save(quizzes []domain.Quiz) error {
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return storage.SaveJSON(s.store, storage.KeyQuizzes, quizzes)
}

func (s *Service) changed() {
	s.pub.Publish(notify.Event{Topic: notify.TopicQuiz, At: s.clock.Now()})
}

func indexOf(quizzes []domain.Quiz, id string) int {
	return slices.IndexFunc(quizzes, func(q domain.Quiz) bool { return q.ID == id })
}
