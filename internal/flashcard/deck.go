// Package flashcard manages the card collection and flashcard study sessions.
package flashcard

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/srs"
	"github.com/conorfennell/studynotes/internal/storage"
)

var (
	ErrCardNotFound    = errors.New("card not found")
	ErrNoActiveSession = errors.New("no active study session")
	// ErrEmptyDeck means there is nothing to study. It is a normal terminal state, not a failure.
	ErrEmptyDeck = errors.New("no cards to study")
)

type Options struct {
	Store     storage.Store
	Clock     clock.Clock
	Location  *time.Location
	Params    *srs.Params
	Rand      *rand.Rand
	Publisher notify.Publisher
	Logger    *slog.Logger
}

// Deck owns the flashcard collection stored under storage.KeyFlashcards.
type Deck struct {
	mu      sync.Mutex
	store   storage.Store
	clock   clock.Clock
	loc     *time.Location
	params  *srs.Params
	rng     *rand.Rand
	pub     notify.Publisher
	log     *slog.Logger
	session *Session
}

func New(opts Options) *Deck {
	d := &Deck{
		store:  opts.Store,
		clock:  opts.Clock,
		loc:    opts.Location,
		params: opts.Params,
		rng:    opts.Rand,
		pub:    opts.Publisher,
		log:    opts.Logger,
	}
	if d.clock == nil {
		d.clock = clock.System{}
	}
	if d.loc == nil {
		d.loc = time.UTC
	}
	if d.params == nil {
		d.params = srs.DefaultParams()
	}
	if d.pub == nil {
		d.pub = notify.Nop{}
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d
}

// Seed writes the demo cards when no collection has ever been stored.
func (d *Deck) Seed() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.store.Get(storage.KeyFlashcards); !errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	now := d.clock.Now()
	demo := []struct {
		id, front, back, category string
		difficulty                domain.Difficulty
	}{
		{"demo-1", "What is the capital of France?",
			"Paris - The capital and most populous city of France, known for the Eiffel Tower and rich culture.",
			"Geography", domain.Easy},
		{"demo-2", "What does HTML stand for?",
			"HyperText Markup Language - The standard markup language for creating web pages.",
			"Programming", domain.Medium},
		{"demo-3", "What is photosynthesis?",
			"The process by which plants convert light energy into chemical energy (glucose) using carbon dioxide and water.",
			"Biology", domain.Medium},
	}
	cards := make([]domain.Flashcard, 0, len(demo))
	for _, c := range demo {
		card := d.params.NewCard(domain.CardDraft{
			Front: c.front, Back: c.back, Category: c.category, Difficulty: c.difficulty, Hash: c.id,
		}, now)
		cards = append(cards, card)
	}
	if err := d.save(cards); err != nil {
		return err
	}
	d.log.Info("seeded demo flashcards", "count", len(cards))
	return nil
}

// List returns the cards in category. An empty category or srs.AllCategories lists every card.
func (d *Deck) List(category string) []domain.Flashcard {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []domain.Flashcard
	for _, c := range d.load() {
		if srs.MatchesCategory(c, category) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Deck) Get(id string) (domain.Flashcard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cards := d.load()
	i := indexOf(cards, id)
	if i < 0 {
		return domain.Flashcard{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return cards[i], nil
}

// Categories returns the distinct categories in use, sorted.
func (d *Deck) Categories() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []string
	for _, c := range d.load() {
		if !slices.Contains(out, c.Category) {
			out = append(out, c.Category)
		}
	}
	slices.Sort(out)
	return out
}

func (d *Deck) Create(draft domain.CardDraft) (domain.Flashcard, error) {
	draft.Front = strings.TrimSpace(draft.Front)
	draft.Back = strings.TrimSpace(draft.Back)
	if err := domain.Validate(draft); err != nil {
		return domain.Flashcard{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	card := d.params.NewCard(draft, d.clock.Now())
	cards := d.load()
	if indexOf(cards, card.ID) >= 0 {
		return domain.Flashcard{}, fmt.Errorf("%w: card %s already exists", domain.ErrInvalid, card.ID)
	}
	if err := d.save(append(cards, card)); err != nil {
		return domain.Flashcard{}, err
	}
	d.changed()
	return card, nil
}

// Update edits the content of a card. Scheduling state is left untouched.
func (d *Deck) Update(id string, patch domain.CardPatch) (domain.Flashcard, error) {
	if err := domain.Validate(patch); err != nil {
		return domain.Flashcard{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cards := d.load()
	i := indexOf(cards, id)
	if i < 0 {
		return domain.Flashcard{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	card := cards[i]
	if patch.Front != nil {
		card.Front = strings.TrimSpace(*patch.Front)
	}
	if patch.Back != nil {
		card.Back = strings.TrimSpace(*patch.Back)
	}
	if patch.Category != nil {
		card.Category = strings.TrimSpace(*patch.Category)
		if card.Category == "" {
			card.Category = domain.DefaultCategory
		}
	}
	if patch.Difficulty != nil {
		card.Difficulty = *patch.Difficulty
	}
	if card.Front == "" || card.Back == "" {
		return domain.Flashcard{}, fmt.Errorf("%w: front and back must not be empty", domain.ErrInvalid)
	}

	cards[i] = card
	if err := d.save(cards); err != nil {
		return domain.Flashcard{}, err
	}
	d.changed()
	return card, nil
}

func (d *Deck) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cards := d.load()
	i := indexOf(cards, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	if err := d.save(slices.Delete(cards, i, i+1)); err != nil {
		return err
	}
	d.changed()
	return nil
}

// ImportResult reports what an Import changed.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

// Import reconciles the cards of source with drafts. Drafts are identified by
// their Hash; new ones are inserted and, when prune is set, cards of source
// that are no longer present are deleted. Callers must not prune from an
// incomplete read of the source. Existing cards take the draft's difficulty
// and keep their scheduling state.
func (d *Deck) Import(source string, drafts []domain.CardDraft, prune bool) (ImportResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var res ImportResult
	now := d.clock.Now()
	cards := d.load()
	wanted := make(map[string]bool, len(drafts))

	for _, draft := range drafts {
		if draft.Hash == "" {
			return ImportResult{}, fmt.Errorf("%w: imported card %q has no hash", domain.ErrInvalid, draft.Front)
		}
		if err := domain.Validate(draft); err != nil {
			d.log.Warn("skipping invalid imported card", "source", source, "error", err)
			continue
		}
		wanted[draft.Hash] = true
		if i := indexOf(cards, draft.Hash); i >= 0 {
			want := draft.Difficulty
			if want == "" {
				want = domain.Medium
			}
			if cards[i].Difficulty != want {
				cards[i].Difficulty = want
				res.Updated++
			}
			continue
		}
		card := d.params.NewCard(draft, now)
		card.Source = source
		cards = append(cards, card)
		res.Inserted++
	}

	kept := cards[:0]
	for _, c := range cards {
		if prune && c.Source == source && !wanted[c.ID] {
			res.Deleted++
			continue
		}
		kept = append(kept, c)
	}

	if res == (ImportResult{}) {
		return res, nil
	}
	if err := d.save(kept); err != nil {
		return ImportResult{}, fmt.Errorf("failed to import %s: %w", source, err)
	}
	d.changed()
	return res, nil
}

// DeckStats summarises review activity across the whole deck.
type DeckStats struct {
	Total        int `json:"total"`
	DueToday     int `json:"dueToday"`
	StudiedToday int `json:"studiedToday"`
	TotalReviews int `json:"totalReviews"`
	Accuracy     int `json:"accuracy"`
}

func (d *Deck) Stats() DeckStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	today := now.In(d.loc).Format(time.DateOnly)
	cards := d.load()
	s := DeckStats{Total: len(cards)}
	var correct int
	for _, c := range cards {
		if c.Due(now) {
			s.DueToday++
		}
		if c.LastReviewed != nil && c.LastReviewed.In(d.loc).Format(time.DateOnly) == today {
			s.StudiedToday++
		}
		s.TotalReviews += c.TimesReviewed
		correct += c.CorrectCount
	}
	if s.TotalReviews > 0 {
		s.Accuracy = int(math.Round(float64(correct) / float64(s.TotalReviews) * 100))
	}
	return s
}

func (d *Deck) load() []domain.Flashcard {
	return storage.LoadJSON(d.store, storage.KeyFlashcards, []domain.Flashcard{}, d.log)
}

func (d *Deck) save(cards []domain.Flashcard) error {
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	return storage.SaveJSON(d.store, storage.KeyFlashcards, cards)
}

func (d *Deck) changed() {
	d.pub.Publish(notify.Event{Topic: notify.TopicCards, At: d.clock.Now()})
}

func indexOf(cards []domain.Flashcard, id string) int {
	return slices.IndexFunc(cards, func(c domain.Flashcard) bool { return c.ID == id })
}
