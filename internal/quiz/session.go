package quiz

import (
	"fmt"
	"maps"
	"time"

	"github.com/conorfennell/studynotes/internal/domain"
)

// Session is a quiz in progress.
type Session struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Index     int               `json:"index"`
	Answers   map[string]string `json:"answers"`
	StartTime time.Time         `json:"startTime"`
	// Remaining is the time left in seconds. Nil for untimed quizzes.
	Remaining *int `json:"remaining,omitempty"`
}

// Result is the outcome of a submitted session.
type Result struct {
	QuizID    string             `json:"quizId"`
	QuizTitle string             `json:"quizTitle"`
	Attempt   domain.QuizAttempt `json:"attempt"`
	// TimedOut is set when the session was submitted because time ran out.
	TimedOut bool `json:"timedOut"`
}

// Progress is the state returned by every session operation. Exactly one of
// Session and Result is set.
type Progress struct {
	Session  *Session             `json:"session,omitempty"`
	Question *domain.QuizQuestion `json:"question,omitempty"`
	Result   *Result              `json:"result,omitempty"`
}

// Start begins a session on quiz id at its first question.
func (s *Service) Start(id string) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return Progress{}, ErrSessionActive
	}
	quizzes := s.load()
	i := indexOf(quizzes, id)
	if i < 0 {
		return Progress{}, fmt.Errorf("%w: %s", ErrQuizNotFound, id)
	}

	q := quizzes[i]
	s.session = &Session{Quiz: q, Answers: map[string]string{}, StartTime: s.clock.Now()}
	s.last = nil
	if q.TimeLimit != nil {
		remaining := *q.TimeLimit * 60
		s.session.Remaining = &remaining
		s.startTicking()
	}
	s.log.Info("quiz started", "quiz", q.ID, "questions", len(q.Questions), "timed", q.TimeLimit != nil)
	s.changed()
	return s.progress(), nil
}

// Current returns the running session, or the result of the last one.
func (s *Service) Current() (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		if s.last != nil {
			r := *s.last
			return Progress{Result: &r}, nil
		}
		return Progress{}, ErrNoActiveSession
	}
	return s.progress(), nil
}

// Answer records answer for question qid, replacing any earlier answer.
func (s *Service) Answer(qid, answer string) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Progress{}, ErrNoActiveSession
	}
	if _, ok := s.session.Quiz.Question(qid); !ok {
		return Progress{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
	}
	s.session.Answers[qid] = answer
	return s.progress(), nil
}

// Next moves to the following question. Moving past the last question submits the quiz.
func (s *Service) Next() (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Progress{}, ErrNoActiveSession
	}
	if s.session.Index+1 >= len(s.session.Quiz.Questions) {
		return s.submit(false)
	}
	s.session.Index++
	return s.progress(), nil
}

// Previous moves back one question, stopping at the first.
func (s *Service) Previous() (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Progress{}, ErrNoActiveSession
	}
	s.session.Index = max(0, s.session.Index-1)
	return s.progress(), nil
}

// Submit scores the session and appends the attempt to the quiz.
func (s *Service) Submit() (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Progress{}, ErrNoActiveSession
	}
	return s.submit(false)
}

// Tick counts a timed session down by one second and submits it when time runs out.
func (s *Service) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
}

// Abandon discards the running session without recording an attempt.
func (s *Service) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoActiveSession
	}
	s.log.Info("quiz abandoned", "quiz", s.session.Quiz.ID)
	s.clearSession()
	s.changed()
	return nil
}

// Close stops the countdown of a timed session.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loop.Stop()
}

func (s *Service) tick() {
	if s.session == nil || s.session.Remaining == nil {
		return
	}
	remaining := *s.session.Remaining - 1
	if remaining <= 0 {
		*s.session.Remaining = 0
		if _, err := s.submit(true); err != nil {
			s.log.Error("failed to auto-submit quiz", "error", err)
		}
		return
	}
	*s.session.Remaining = remaining
	s.changed()
}

func (s *Service) submit(timedOut bool) (Progress, error) {
	sess := s.session
	now := s.clock.Now()
	score := Score(sess.Quiz, sess.Answers)
	attempt := domain.QuizAttempt{
		ID:        domain.NewID(),
		StartTime: sess.StartTime,
		EndTime:   now,
		Answers:   maps.Clone(sess.Answers),
		Score:     score,
		TimeSpent: int(now.Sub(sess.StartTime).Round(time.Second) / time.Second),
		Passed:    score >= sess.Quiz.PassingScore,
	}

	quizzes := s.load()
	if i := indexOf(quizzes, sess.Quiz.ID); i >= 0 {
		quizzes[i].Attempts = append(quizzes[i].Attempts, attempt)
		if err := s.save(quizzes); err != nil {
			return Progress{}, fmt.Errorf("failed to save attempt for quiz %s: %w", sess.Quiz.ID, err)
		}
	} else {
		s.log.Warn("quiz deleted before submission, attempt not stored", "quiz", sess.Quiz.ID)
	}

	result := Result{QuizID: sess.Quiz.ID, QuizTitle: sess.Quiz.Title, Attempt: attempt, TimedOut: timedOut}
	s.last = &result
	s.clearSession()
	s.log.Info("quiz submitted", "quiz", result.QuizID, "score", score, "passed", attempt.Passed, "timed_out", timedOut)
	s.changed()

	r := result
	return Progress{Result: &r}, nil
}

func (s *Service) progress() Progress {
	sess := *s.session
	sess.Answers = maps.Clone(s.session.Answers)
	if s.session.Remaining != nil {
		remaining := *s.session.Remaining
		sess.Remaining = &remaining
	}
	p := Progress{Session: &sess}
	if sess.Index < len(sess.Quiz.Questions) {
		q := sess.Quiz.Questions[sess.Index]
		p.Question = &q
	}
	return p
}

func (s *Service) startTicking() {
	s.gen++
	gen := s.gen
	s.loop.Stop()
	s.loop.Start(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.tick()
	})
}

func (s *Service) clearSession() {
	s.session = nil
	s.gen++
	s.loop.Stop()
}
