package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{"valid draft", CardDraft{Front: "Q", Back: "A"}, false},
		{"missing back", CardDraft{Front: "Q"}, true},
		{"bad difficulty", CardDraft{Front: "Q", Back: "A", Difficulty: "impossible"}, true},
		{"quiz without questions", Quiz{Title: "T", PassingScore: 50}, true},
		{"quiz with bad question type", Quiz{
			Title:     "T",
			Questions: []QuizQuestion{{Question: "q", Type: "essay", CorrectAnswer: "a"}},
		}, true},
		{"valid quiz", Quiz{
			Title:        "T",
			PassingScore: 70,
			Questions:    []QuizQuestion{{Question: "q", Type: TrueFalse, CorrectAnswer: "true", Points: 1}},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFlashcardDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	card := Flashcard{NextReview: now}
	assert.True(t, card.Due(now))
	assert.False(t, card.Due(now.Add(-time.Second)))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 21)
	assert.NotEqual(t, a, b)
}
