package flashcard

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/knol"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/srs"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 4, 2, 14, 0, 0, 0, time.UTC)

type fixture struct {
	deck  *Deck
	clock *clock.Fake
	store *storage.Memory
	bus   *notify.Broadcaster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := storage.NewMemory()
	clk := clock.NewFake(start)
	bus := notify.NewBroadcaster()
	deck := New(Options{
		Store:     store,
		Clock:     clk,
		Location:  time.UTC,
		Params:    srs.DefaultParams(),
		Rand:      rand.New(rand.NewPCG(3, 4)),
		Publisher: bus,
	})
	return fixture{deck: deck, clock: clk, store: store, bus: bus}
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deck.Seed())

	cards := f.deck.List("")
	require.Len(t, cards, 3)
	assert.Equal(t, []string{"Biology", "Geography", "Programming"}, f.deck.Categories())
	for _, c := range cards {
		assert.Equal(t, 2.5, c.EaseFactor)
		assert.True(t, c.Due(start))
	}

	require.NoError(t, f.deck.Delete("demo-1"))
	require.NoError(t, f.deck.Seed())
	assert.Len(t, f.deck.List(""), 2, "seed only runs on first use")
}

func TestCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.bus.Subscribe()
	defer cancel()

	card, err := f.deck.Create(domain.CardDraft{Front: "  2+2?  ", Back: "4"})
	require.NoError(t, err)
	assert.Equal(t, "2+2?", card.Front)
	assert.Equal(t, domain.DefaultCategory, card.Category)
	assert.Equal(t, notify.TopicCards, (<-events).Topic)

	_, err = f.deck.Create(domain.CardDraft{Front: "   ", Back: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	category := "Maths"
	hard := domain.Hard
	updated, err := f.deck.Update(card.ID, domain.CardPatch{Category: &category, Difficulty: &hard})
	require.NoError(t, err)
	assert.Equal(t, "Maths", updated.Category)
	assert.Equal(t, domain.Hard, updated.Difficulty)
	assert.Equal(t, card.NextReview, updated.NextReview)

	empty := ""
	_, err = f.deck.Update(card.ID, domain.CardPatch{Back: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = f.deck.Update("nope", domain.CardPatch{})
	assert.ErrorIs(t, err, ErrCardNotFound)

	require.NoError(t, f.deck.Delete(card.ID))
	assert.ErrorIs(t, f.deck.Delete(card.ID), ErrCardNotFound)
	_, err = f.deck.Get(card.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestListByCategory(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deck.Seed())
	assert.Len(t, f.deck.List("Geography"), 1)
	assert.Len(t, f.deck.List(srs.AllCategories), 3)
	assert.Empty(t, f.deck.List("History"))
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deck.Seed())

	drafts := []domain.CardDraft{
		{Front: "Q1", Back: "A1", Hash: "h1"},
		{Front: "Q2", Back: "A2", Hash: "h2"},
	}
	res, err := f.deck.Import("notes/a.md", drafts, true)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Inserted: 2}, res)

	res, err = f.deck.Import("notes/a.md", drafts, true)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{}, res)

	res, err = f.deck.Import("notes/a.md", drafts[1:], false)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{}, res, "without prune missing cards are kept")
	assert.Len(t, f.deck.List(""), 5)

	res, err = f.deck.Import("notes/a.md", drafts[1:], true)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Deleted: 1}, res)

	cards := f.deck.List("")
	assert.Len(t, cards, 4, "hand-authored cards survive imports")
	h2, err := f.deck.Get("h2")
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md", h2.Source)

	_, err = f.deck.Import("notes/b.md", []domain.CardDraft{{Front: "Q", Back: "A"}}, true)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestImportRerateKeepsHistory(t *testing.T) {
	f := newFixture(t)

	draft := domain.CardDraft{Front: "Q1", Back: "A1", Difficulty: domain.Easy}
	draft.Hash = knol.Hash(draft)
	_, err := f.deck.Import("notes/a.md", []domain.CardDraft{draft}, true)
	require.NoError(t, err)

	_, err = f.deck.StartSession("")
	require.NoError(t, err)
	_, err = f.deck.Answer(domain.Correct)
	require.NoError(t, err)

	rerated := domain.CardDraft{Front: "Q1", Back: "A1", Difficulty: domain.Hard}
	rerated.Hash = knol.Hash(rerated)
	require.Equal(t, draft.Hash, rerated.Hash)

	res, err := f.deck.Import("notes/a.md", []domain.CardDraft{rerated}, true)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)

	card, err := f.deck.Get(draft.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.Hard, card.Difficulty)
	assert.Equal(t, 1, card.TimesReviewed)

	res, err = f.deck.Import("notes/a.md", []domain.CardDraft{{Front: "Q1", Back: "A1", Hash: draft.Hash}}, true)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res, "no difficulty means medium")
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deck.Seed())

	_, err := f.deck.StartSession("Geography")
	require.NoError(t, err)
	_, err = f.deck.Answer(domain.Correct)
	require.NoError(t, err)

	_, err = f.deck.StartSession("Programming")
	require.NoError(t, err)
	_, err = f.deck.Answer(domain.Incorrect)
	require.NoError(t, err)

	s := f.deck.Stats()
	assert.Equal(t, DeckStats{Total: 3, DueToday: 1, StudiedToday: 2, TotalReviews: 2, Accuracy: 50}, s)

	f.clock.Advance(24 * time.Hour)
	s = f.deck.Stats()
	assert.Equal(t, 0, s.StudiedToday)
	assert.Equal(t, 3, s.DueToday)
}
