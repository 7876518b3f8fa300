package srs

import (
	"math/rand/v2"
	"testing"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ids(cards []domain.Flashcard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestBuildQueue(t *testing.T) {
	cards := []domain.Flashcard{
		{ID: "geo-due", Category: "Geography", NextReview: t0.Add(-1)},
		{ID: "geo-later", Category: "Geography", NextReview: t0.AddDate(0, 0, 3)},
		{ID: "bio-later", Category: "Biology", NextReview: t0.AddDate(0, 0, 1)},
		{ID: "prog-due", Category: "Programming", NextReview: t0},
	}

	tests := []struct {
		name     string
		category string
		want     []string
	}{
		{"all prefers due", AllCategories, []string{"geo-due", "prog-due"}},
		{"empty filter means all", "", []string{"geo-due", "prog-due"}},
		{"category with due card", "Geography", []string{"geo-due"}},
		{"falls back when nothing due", "Biology", []string{"bio-later"}},
		{"unknown category", "History", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, 2))
			got := BuildQueue(cards, tt.category, t0, rng)
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func TestBuildQueueDoesNotReorderInput(t *testing.T) {
	cards := []domain.Flashcard{
		{ID: "a", NextReview: t0}, {ID: "b", NextReview: t0}, {ID: "c", NextReview: t0},
		{ID: "d", NextReview: t0}, {ID: "e", NextReview: t0},
	}
	before := ids(cards)
	BuildQueue(cards, AllCategories, t0, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, before, ids(cards))
}
