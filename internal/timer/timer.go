// Package timer implements the pomodoro study timer: study intervals alternating
// with short and long breaks.
package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/conorfennell/studynotes/internal/ticker"
)

var (
	// ErrNotRunning is returned when pausing a timer that is not running.
	ErrNotRunning = errors.New("timer is not running")
	// ErrNotActive is returned when resetting an idle timer.
	ErrNotActive = errors.New("timer has no active interval")
)

// SessionLabel is the label completed study intervals are recorded under.
const SessionLabel = "Study Session"

type Phase string

const (
	Idle    Phase = "idle"
	Running Phase = "running"
	Paused  Phase = "paused"
)

// Settings are the interval lengths in seconds.
type Settings struct {
	StudySeconds           int  `json:"studySeconds" validate:"min=1"`
	ShortBreakSeconds      int  `json:"shortBreakSeconds" validate:"min=1"`
	LongBreakSeconds       int  `json:"longBreakSeconds" validate:"min=1"`
	SessionsUntilLongBreak int  `json:"sessionsUntilLongBreak" validate:"min=1"`
	AutoStart              bool `json:"autoStart"`
}

// DefaultSettings are 25 minutes of study, 5 minute short breaks and a 15 minute long break after every fourth session.
func DefaultSettings() Settings {
	return Settings{
		StudySeconds:           25 * 60,
		ShortBreakSeconds:      5 * 60,
		LongBreakSeconds:       15 * 60,
		SessionsUntilLongBreak: 4,
		AutoStart:              true,
	}
}

// Totals accumulate over every completed study interval.
type Totals struct {
	CompletedSessions int `json:"completedSessions"`
	TotalStudyTime    int `json:"totalStudyTime"`
}

// Snapshot is a point-in-time view of the timer.
type Snapshot struct {
	Phase     Phase            `json:"phase"`
	Interval  *domain.Interval `json:"interval"`
	LongBreak bool             `json:"longBreak"`
	Remaining int              `json:"remaining"`
	Settings  Settings         `json:"settings"`
	Totals    Totals           `json:"totals"`
}

// Recorder receives every completed study interval.
type Recorder interface {
	RecordSession(label string, seconds int) (domain.Stats, error)
}

type Options struct {
	Store     storage.Store
	Clock     clock.Clock
	Recorder  Recorder
	Publisher notify.Publisher
	// Loop drives Tick while running. Nil means a one-second real loop.
	Loop *ticker.Loop
	// Defaults apply until settings are saved.
	Defaults Settings
	Logger   *slog.Logger
}

type Timer struct {
	mu       sync.Mutex
	store    storage.Store
	clock    clock.Clock
	recorder Recorder
	pub      notify.Publisher
	loop     *ticker.Loop
	log      *slog.Logger

	settings  Settings
	totals    Totals
	phase     Phase
	current   *domain.Interval
	longBreak bool
	remaining int
	// gen is bumped whenever the tick registration changes so a callback from
	// a cancelled registration cannot mutate state.
	gen       uint64
	observers []func(domain.Interval)
}

// New loads persisted settings and totals and returns an idle timer.
func New(opts Options) *Timer {
	t := &Timer{
		store:    opts.Store,
		clock:    opts.Clock,
		recorder: opts.Recorder,
		pub:      opts.Publisher,
		loop:     opts.Loop,
		log:      opts.Logger,
		phase:    Idle,
	}
	if t.clock == nil {
		t.clock = clock.System{}
	}
	if t.pub == nil {
		t.pub = notify.Nop{}
	}
	if t.loop == nil {
		t.loop = ticker.NewLoop(time.Second, nil)
	}
	if t.log == nil {
		t.log = slog.Default()
	}

	defaults := opts.Defaults
	if domain.Validate(defaults) != nil {
		defaults = DefaultSettings()
	}
	t.settings = storage.LoadJSON(t.store, storage.KeyTimerSettings, defaults, t.log)
	if err := domain.Validate(t.settings); err != nil {
		t.log.Warn("ignoring invalid stored timer settings", "error", err)
		t.settings = defaults
	}
	t.totals = storage.LoadJSON(t.store, storage.KeyTimerStats, Totals{}, t.log)
	t.remaining = t.settings.StudySeconds
	return t
}

// OnComplete registers fn to be called with every interval that runs to completion.
// fn runs with the timer locked and must not call back into it.
func (t *Timer) OnComplete(fn func(domain.Interval)) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// Start runs the timer, beginning a study interval if none is loaded. Starting a running timer is a no-op.
func (t *Timer) Start() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase == Running {
		return t.snapshot()
	}
	if t.current == nil {
		t.begin(domain.StudyInterval, t.settings.StudySeconds, false)
	}
	t.phase = Running
	t.startTicking()
	t.changed()
	return t.snapshot()
}

// Pause freezes the countdown. Remaining time is kept exactly.
func (t *Timer) Pause() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase != Running {
		return t.snapshot(), ErrNotRunning
	}
	t.phase = Paused
	t.stopTicking()
	t.changed()
	return t.snapshot(), nil
}

// Stop discards the current interval without recording it.
func (t *Timer) Stop() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTicking()
	t.phase = Idle
	t.current = nil
	t.longBreak = false
	t.remaining = t.settings.StudySeconds
	t.changed()
	return t.snapshot()
}

// Reset restarts the current interval at its full length and runs it.
func (t *Timer) Reset() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase == Idle || t.current == nil {
		return t.snapshot(), ErrNotActive
	}
	t.stopTicking()
	t.begin(t.current.Type, t.durationFor(t.current.Type, t.longBreak), t.longBreak)
	t.phase = Running
	t.startTicking()
	t.changed()
	return t.snapshot(), nil
}

// Tick advances a running timer by one second.
func (t *Timer) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tick()
}

// UpdateSettings validates and persists s. An idle timer shows the new study
// length at once; a loaded interval keeps its remaining time.
func (t *Timer) UpdateSettings(s Settings) (Snapshot, error) {
	if err := domain.Validate(s); err != nil {
		return Snapshot{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := storage.SaveJSON(t.store, storage.KeyTimerSettings, s); err != nil {
		return t.snapshot(), fmt.Errorf("failed to update timer settings: %w", err)
	}
	t.settings = s
	if t.phase == Idle {
		t.remaining = s.StudySeconds
	}
	t.changed()
	return t.snapshot(), nil
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Close stops ticking. The timer state is left as it is.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTicking()
}

func (t *Timer) snapshot() Snapshot {
	s := Snapshot{
		Phase:     t.phase,
		LongBreak: t.longBreak,
		Remaining: t.remaining,
		Settings:  t.settings,
		Totals:    t.totals,
	}
	if t.current != nil {
		iv := *t.current
		s.Interval = &iv
	}
	return s
}

func (t *Timer) begin(kind domain.IntervalType, seconds int, long bool) {
	t.current = &domain.Interval{
		ID:        domain.NewID(),
		StartTime: t.clock.Now(),
		Duration:  seconds,
		Type:      kind,
	}
	t.longBreak = long
	t.remaining = seconds
}

func (t *Timer) durationFor(kind domain.IntervalType, long bool) int {
	switch {
	case kind == domain.StudyInterval:
		return t.settings.StudySeconds
	case long:
		return t.settings.LongBreakSeconds
	default:
		return t.settings.ShortBreakSeconds
	}
}

func (t *Timer) startTicking() {
	t.gen++
	gen := t.gen
	t.loop.Stop()
	t.loop.Start(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.gen {
			return
		}
		t.tick()
	})
}

func (t *Timer) stopTicking() {
	t.gen++
	t.loop.Stop()
}

func (t *Timer) tick() {
	if t.phase != Running || t.current == nil {
		return
	}
	t.remaining--
	if t.remaining <= 0 {
		t.complete()
		return
	}
	t.changed()
}

// complete closes the current interval and loads the next one.
func (t *Timer) complete() {
	now := t.clock.Now()
	done := *t.current
	done.EndTime = &now
	done.Completed = true
	t.remaining = 0

	if done.Type == domain.StudyInterval {
		t.totals.CompletedSessions++
		t.totals.TotalStudyTime += done.Duration
		if err := storage.SaveJSON(t.store, storage.KeyTimerStats, t.totals); err != nil {
			t.log.Error("failed to save timer totals", "error", err)
		}
		if t.recorder != nil {
			if _, err := t.recorder.RecordSession(SessionLabel, done.Duration); err != nil {
				t.log.Error("failed to record study session", "error", err)
			}
		}
	}
	t.log.Info("timer interval completed", "type", done.Type, "seconds", done.Duration,
		"completed_sessions", t.totals.CompletedSessions)
	for _, fn := range t.observers {
		fn(done)
	}

	if done.Type == domain.StudyInterval {
		long := t.totals.CompletedSessions%t.settings.SessionsUntilLongBreak == 0
		t.begin(domain.BreakInterval, t.durationFor(domain.BreakInterval, long), long)
	} else {
		t.begin(domain.StudyInterval, t.settings.StudySeconds, false)
	}

	if !t.settings.AutoStart {
		t.phase = Paused
		t.stopTicking()
	}
	t.changed()
}

func (t *Timer) changed() {
	t.pub.Publish(notify.Event{Topic: notify.TopicTimer, At: t.clock.Now()})
}
