package stats

import (
	"testing"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/conorfennell/studynotes/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedNotes int

func (n fixedNotes) Count() int { return int(n) }

type fixture struct {
	agg   *Aggregator
	clock *clock.Fake
	store *storage.Memory
	bus   *notify.Broadcaster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := storage.NewMemory()
	clk := clock.NewFake(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	bus := notify.NewBroadcaster()
	agg := New(Options{
		Store:     store,
		Clock:     clk,
		Notes:     fixedNotes(12),
		Streak:    streak.New(store, clk, time.UTC, nil),
		Publisher: bus,
	})
	return fixture{agg: agg, clock: clk, store: store, bus: bus}
}

func TestComputeEmpty(t *testing.T) {
	f := newFixture(t)
	got := f.agg.Compute()
	assert.Equal(t, domain.Stats{TotalNotes: 12}, got)

	cached := storage.LoadJSON(f.store, storage.KeyUserStats, domain.Stats{}, nil)
	assert.Equal(t, 12, cached.TotalNotes)
}

func TestRecordSession(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.bus.Subscribe()
	defer cancel()

	got, err := f.agg.RecordSession("X", 45)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.StudyHours)
	require.NotNil(t, got.LastViewed)
	assert.Equal(t, "X", got.LastViewed.Title)
	assert.Equal(t, 1, got.Streak)
	assert.Equal(t, notify.TopicStats, (<-events).Topic)

	f.clock.Advance(time.Minute)
	got, err = f.agg.RecordSession("Study Session", 1500)
	require.NoError(t, err)
	// 1545 seconds is 0.43 hours.
	assert.Equal(t, 0.4, got.StudyHours)
	assert.Equal(t, "Study Session", got.LastViewed.Title)
	assert.Equal(t, 1, got.Streak)

	assert.Len(t, f.agg.Sessions(), 2)
}

func TestRecordSessionRejectsNegativeDuration(t *testing.T) {
	f := newFixture(t)
	_, err := f.agg.RecordSession("X", -1)
	assert.ErrorIs(t, err, domain.ErrInvalid)
	assert.Empty(t, f.agg.Sessions())
}

func TestMarkViewedDoesNotLogSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.agg.MarkViewed("Algebra"))
	f.clock.Advance(time.Second)
	require.NoError(t, f.agg.MarkViewed("Biology"))

	got := f.agg.Compute()
	assert.Equal(t, "Biology", got.LastViewed.Title)
	assert.Equal(t, 0.0, got.StudyHours)
	assert.Equal(t, 0, got.Streak)
	assert.Empty(t, f.agg.Sessions())
}

func TestComputeToleratesCorruptState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(storage.KeyStudySessions, []byte("[{")))
	require.NoError(t, f.store.Set(storage.KeyLastViewed, []byte(`{"a":"not a time"}`)))

	got := f.agg.Compute()
	assert.Equal(t, 0.0, got.StudyHours)
	assert.Nil(t, got.LastViewed)
}

func TestLatest(t *testing.T) {
	ts := "2024-05-01T10:00:00Z"
	got := latest(map[string]string{"b": ts, "a": ts, "c": "2024-04-01T10:00:00Z"})
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Title)
	assert.Nil(t, latest(map[string]string{}))
}
