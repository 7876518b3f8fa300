package flashcard

import (
	"fmt"
	"slices"
	"time"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/srs"
)

// Session is one pass through a fixed, shuffled queue of cards.
type Session struct {
	Category  string     `json:"category"`
	Queue     []string   `json:"queue"`
	Index     int        `json:"index"`
	Correct   int        `json:"correct"`
	Incorrect int        `json:"incorrect"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	// TotalTime is the session length in seconds, set when it ends.
	TotalTime int `json:"totalTime"`
}

// Active reports whether the session still has cards to present.
func (s *Session) Active() bool {
	return s != nil && s.EndTime == nil
}

// SessionView is what a client needs to render the study screen.
type SessionView struct {
	Session *Session          `json:"session"`
	Current *domain.Flashcard `json:"current"`
	// Position is the 1-based position of Current in the queue.
	Position int  `json:"position"`
	Total    int  `json:"total"`
	Active   bool `json:"active"`
	// Reviewed is the card as updated by the answer that produced this view.
	Reviewed *domain.Flashcard `json:"reviewed,omitempty"`
}

// StartSession builds a study queue for category and presents its first card.
// A running session is replaced.
func (d *Deck) StartSession(category string) (SessionView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	queue := srs.BuildQueue(d.load(), category, now, d.rng)
	if len(queue) == 0 {
		return SessionView{}, ErrEmptyDeck
	}
	ids := make([]string, len(queue))
	for i, c := range queue {
		ids[i] = c.ID
	}
	d.session = &Session{Category: category, Queue: ids, StartTime: now}
	d.log.Info("study session started", "category", category, "cards", len(ids))
	return d.view(d.load()), nil
}

// Current returns the state of the study session.
func (d *Deck) Current() (SessionView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return SessionView{}, ErrNoActiveSession
	}
	return d.view(d.load()), nil
}

// Answer reviews the current card with outcome. The updated collection is
// persisted before the session moves on to the next card.
func (d *Deck) Answer(outcome domain.Outcome) (SessionView, error) {
	if !outcome.Valid() {
		return SessionView{}, fmt.Errorf("%w: %q", srs.ErrInvalidOutcome, outcome)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.session.Active() {
		return SessionView{}, ErrNoActiveSession
	}
	cards := d.load()
	i := d.seek(cards)
	if i < 0 {
		d.finish()
		return d.view(cards), ErrNoActiveSession
	}

	now := d.clock.Now()
	reviewed, err := d.params.Review(cards[i], outcome, now)
	if err != nil {
		return SessionView{}, err
	}
	cards[i] = reviewed
	if err := d.save(cards); err != nil {
		return SessionView{}, fmt.Errorf("failed to save review of %s: %w", reviewed.ID, err)
	}

	if outcome == domain.Correct {
		d.session.Correct++
	} else {
		d.session.Incorrect++
	}
	d.session.Index++
	d.changed()

	view := d.view(cards)
	view.Reviewed = &reviewed
	return view, nil
}

// EndSession ends the study session early and returns its final state.
func (d *Deck) EndSession() (SessionView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.session.Active() {
		return SessionView{}, ErrNoActiveSession
	}
	d.finish()
	return d.view(d.load()), nil
}

// seek moves the cursor past cards deleted since the session started and
// returns the index in cards of the current card, or -1 when the queue is exhausted.
func (d *Deck) seek(cards []domain.Flashcard) int {
	for d.session.Index < len(d.session.Queue) {
		if i := indexOf(cards, d.session.Queue[d.session.Index]); i >= 0 {
			return i
		}
		d.session.Index++
	}
	return -1
}

func (d *Deck) finish() {
	now := d.clock.Now()
	d.session.EndTime = &now
	d.session.TotalTime = int(now.Sub(d.session.StartTime).Round(time.Second) / time.Second)
	d.log.Info("study session ended", "category", d.session.Category,
		"correct", d.session.Correct, "incorrect", d.session.Incorrect, "total_time", d.session.TotalTime)
}

func (d *Deck) view(cards []domain.Flashcard) SessionView {
	var current *domain.Flashcard
	if d.session.Active() {
		if i := d.seek(cards); i >= 0 {
			card := cards[i]
			current = &card
		} else {
			d.finish()
		}
	}

	s := *d.session
	s.Queue = slices.Clone(s.Queue)
	v := SessionView{Session: &s, Current: current, Total: len(s.Queue), Active: s.Active()}
	if current != nil {
		v.Position = s.Index + 1
	}
	return v
}
