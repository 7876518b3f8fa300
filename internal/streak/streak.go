// Package streak tracks consecutive calendar days with study activity.
package streak

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/storage"
)

const dateLayout = "2006-01-02"

// Tracker advances the daily streak stored under storage.KeyStudyStreak.
type Tracker struct {
	mu    sync.Mutex
	store storage.Store
	clock clock.Clock
	loc   *time.Location
	log   *slog.Logger
}

// New returns a Tracker that compares days in loc. A nil loc means UTC.
func New(store storage.Store, clk clock.Clock, loc *time.Location, log *slog.Logger) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{store: store, clock: clk, loc: loc, log: log}
}

// Touch records a study event now and returns the resulting streak.
// A second event on the same calendar day leaves the streak unchanged.
func (t *Tracker) Touch() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.clock.Now().In(t.loc)
	rec := t.load()
	next := advance(rec, today, t.loc)
	if next == rec {
		return rec.CurrentStreak, nil
	}
	if err := storage.SaveJSON(t.store, storage.KeyStudyStreak, next); err != nil {
		return rec.CurrentStreak, fmt.Errorf("failed to update streak: %w", err)
	}
	t.log.Debug("streak advanced", "date", next.LastStudyDate, "streak", next.CurrentStreak)
	return next.CurrentStreak, nil
}

// Current returns the stored streak as-is. It does not decay a streak whose last day has passed.
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load().CurrentStreak
}

// Record returns the stored streak record.
func (t *Tracker) Record() domain.StreakRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load()
}

func (t *Tracker) load() domain.StreakRecord {
	return storage.LoadJSON(t.store, storage.KeyStudyStreak, domain.StreakRecord{}, t.log)
}

// advance computes the streak after a study event on today. Days are compared
// as calendar dates in loc; a clock that moved backwards counts as the same day.
func advance(rec domain.StreakRecord, today time.Time, loc *time.Location) domain.StreakRecord {
	todayKey := today.Format(dateLayout)
	last, err := time.ParseInLocation(dateLayout, rec.LastStudyDate, loc)
	if err != nil || rec.CurrentStreak <= 0 {
		return domain.StreakRecord{LastStudyDate: todayKey, CurrentStreak: 1}
	}

	todayDate, _ := time.ParseInLocation(dateLayout, todayKey, loc)
	switch {
	case !todayDate.After(last):
		return rec
	case last.AddDate(0, 0, 1).Equal(todayDate):
		return domain.StreakRecord{LastStudyDate: todayKey, CurrentStreak: rec.CurrentStreak + 1}
	default:
		return domain.StreakRecord{LastStudyDate: todayKey, CurrentStreak: 1}
	}
}
