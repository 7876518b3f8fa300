package srs

import (
	"math/rand/v2"
	"time"

	"github.com/conorfennell/studynotes/internal/domain"
)

// AllCategories selects every card regardless of category.
const AllCategories = "all"

// MatchesCategory reports whether card belongs to category. An empty category or AllCategories matches everything.
func MatchesCategory(card domain.Flashcard, category string) bool {
	return category == "" || category == AllCategories || card.Category == category
}

// BuildQueue selects the cards to study in category at now and shuffles them.
// Due cards are preferred; when none are due the whole category is studied
// instead. The input slice is not modified.
func BuildQueue(cards []domain.Flashcard, category string, now time.Time, rng *rand.Rand) []domain.Flashcard {
	var matching, due []domain.Flashcard
	for _, c := range cards {
		if !MatchesCategory(c, category) {
			continue
		}
		matching = append(matching, c)
		if c.Due(now) {
			due = append(due, c)
		}
	}

	queue := due
	if len(queue) == 0 {
		queue = matching
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	return queue
}
