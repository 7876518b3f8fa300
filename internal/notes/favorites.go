package notes

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/storage"
)

// Favorites is the set of note ids the user starred, kept in starring order.
type Favorites struct {
	mu    sync.Mutex
	store storage.Store
	clock clock.Clock
	pub   notify.Publisher
	log   *slog.Logger
}

func NewFavorites(store storage.Store, clk clock.Clock, pub notify.Publisher, log *slog.Logger) *Favorites {
	if clk == nil {
		clk = clock.System{}
	}
	if pub == nil {
		pub = notify.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Favorites{store: store, clock: clk, pub: pub, log: log}
}

// Toggle adds id if absent and removes it otherwise. It returns the updated set.
func (f *Favorites) Toggle(id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	favs := f.load()
	if i := slices.Index(favs, id); i >= 0 {
		favs = slices.Delete(favs, i, i+1)
	} else {
		favs = append(favs, id)
	}
	if err := storage.SaveJSON(f.store, storage.KeyFavorites, favs); err != nil {
		return nil, fmt.Errorf("failed to toggle favorite %s: %w", id, err)
	}
	f.pub.Publish(notify.Event{Topic: notify.TopicFavorites, At: f.clock.Now()})
	return favs, nil
}

func (f *Favorites) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *Favorites) IsFavorite(id string) bool {
	return slices.Contains(f.List(), id)
}

// load drops duplicates that may have been written by hand.
func (f *Favorites) load() []string {
	raw := storage.LoadJSON(f.store, storage.KeyFavorites, []string{}, f.log)
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
