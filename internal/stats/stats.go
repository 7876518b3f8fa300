// Package stats derives study totals from the session log, the last-viewed map and the streak.
package stats

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/storage"
)

// NoteCounter reports how many notes the catalog holds.
type NoteCounter interface {
	Count() int
}

// Streak is the part of the streak tracker the aggregator depends on.
type Streak interface {
	Touch() (int, error)
	Current() int
}

type Options struct {
	Store     storage.Store
	Clock     clock.Clock
	Notes     NoteCounter
	Streak    Streak
	Publisher notify.Publisher
	Logger    *slog.Logger
}

type Aggregator struct {
	mu     sync.Mutex
	store  storage.Store
	clock  clock.Clock
	notes  NoteCounter
	streak Streak
	pub    notify.Publisher
	log    *slog.Logger
}

func New(opts Options) *Aggregator {
	a := &Aggregator{
		store:  opts.Store,
		clock:  opts.Clock,
		notes:  opts.Notes,
		streak: opts.Streak,
		pub:    opts.Publisher,
		log:    opts.Logger,
	}
	if a.clock == nil {
		a.clock = clock.System{}
	}
	if a.pub == nil {
		a.pub = notify.Nop{}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// Compute returns the current totals and caches them under storage.KeyUserStats.
func (a *Aggregator) Compute() domain.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.compute()
}

// RecordSession appends a session for label, marks label as just viewed,
// advances the streak and returns the recomputed totals.
func (a *Aggregator) RecordSession(label string, seconds int) (domain.Stats, error) {
	if seconds < 0 {
		return domain.Stats{}, fmt.Errorf("%w: negative session duration %d", domain.ErrInvalid, seconds)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now().UTC()
	sessions := a.sessions()
	sessions = append(sessions, domain.SessionRecord{Label: label, DurationSeconds: seconds, Timestamp: now})
	if err := storage.SaveJSON(a.store, storage.KeyStudySessions, sessions); err != nil {
		return domain.Stats{}, fmt.Errorf("failed to record session %q: %w", label, err)
	}
	if err := a.markViewed(label, now); err != nil {
		return domain.Stats{}, err
	}
	if a.streak != nil {
		if _, err := a.streak.Touch(); err != nil {
			return domain.Stats{}, fmt.Errorf("failed to record session %q: %w", label, err)
		}
	}

	stats := a.compute()
	a.log.Info("study session recorded", "label", label, "seconds", seconds, "study_hours", stats.StudyHours)
	a.pub.Publish(notify.Event{Topic: notify.TopicStats, At: now})
	return stats, nil
}

// MarkViewed updates the last-viewed entry for label without logging a session.
func (a *Aggregator) MarkViewed(label string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now().UTC()
	if err := a.markViewed(label, now); err != nil {
		return err
	}
	a.pub.Publish(notify.Event{Topic: notify.TopicStats, At: now})
	return nil
}

// Sessions returns the session log, oldest first.
func (a *Aggregator) Sessions() []domain.SessionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions()
}

func (a *Aggregator) sessions() []domain.SessionRecord {
	return storage.LoadJSON(a.store, storage.KeyStudySessions, []domain.SessionRecord{}, a.log)
}

func (a *Aggregator) lastViewedMap() map[string]string {
	m := storage.LoadJSON(a.store, storage.KeyLastViewed, map[string]string{}, a.log)
	if m == nil {
		m = map[string]string{}
	}
	return m
}

func (a *Aggregator) markViewed(label string, now time.Time) error {
	viewed := a.lastViewedMap()
	viewed[label] = now.Format(time.RFC3339Nano)
	if err := storage.SaveJSON(a.store, storage.KeyLastViewed, viewed); err != nil {
		return fmt.Errorf("failed to mark %q viewed: %w", label, err)
	}
	return nil
}

func (a *Aggregator) compute() domain.Stats {
	var total int
	for _, s := range a.sessions() {
		total += s.DurationSeconds
	}

	stats := domain.Stats{
		StudyHours: math.Round(float64(total)/3600*10) / 10,
		LastViewed: latest(a.lastViewedMap()),
	}
	if a.notes != nil {
		stats.TotalNotes = a.notes.Count()
	}
	if a.streak != nil {
		stats.Streak = a.streak.Current()
	}

	if err := storage.SaveJSON(a.store, storage.KeyUserStats, stats); err != nil {
		a.log.Warn("failed to cache stats snapshot", "error", err)
	}
	return stats
}

// latest picks the most recently viewed entry. Unparsable timestamps are skipped;
// equal timestamps resolve to the lexically smaller title.
func latest(viewed map[string]string) *domain.LastViewed {
	var best *domain.LastViewed
	for title, raw := range viewed {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			continue
		}
		if best == nil || ts.After(best.Timestamp) || (ts.Equal(best.Timestamp) && title < best.Title) {
			best = &domain.LastViewed{Title: title, Timestamp: ts}
		}
	}
	return best
}
