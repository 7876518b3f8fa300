package domain

import "time"

// Difficulty is the author-assigned difficulty of a card. It plays no part in scheduling.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Outcome is the binary result of reviewing a card.
type Outcome string

const (
	Correct   Outcome = "correct"
	Incorrect Outcome = "incorrect"
)

// Valid reports whether o is one of the two review outcomes.
func (o Outcome) Valid() bool {
	return o == Correct || o == Incorrect
}

// DefaultCategory is assigned to cards created without a category.
const DefaultCategory = "General"

// Flashcard is a single card together with its scheduling state.
type Flashcard struct {
	ID         string     `json:"id"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	// Source is the path or URL a card was imported from. Empty for cards authored by hand.
	Source  string    `json:"source,omitempty"`
	Created time.Time `json:"created"`

	EaseFactor     float64    `json:"easeFactor"`
	TimesReviewed  int        `json:"timesReviewed"`
	CorrectCount   int        `json:"correctCount"`
	IncorrectCount int        `json:"incorrectCount"`
	LastReviewed   *time.Time `json:"lastReviewed,omitempty"`
	NextReview     time.Time  `json:"nextReview"`
}

// Due reports whether the card is due for review at now.
func (c Flashcard) Due(now time.Time) bool {
	return !c.NextReview.After(now)
}

// CardDraft holds the authored content of a card before it gets scheduling state.
type CardDraft struct {
	Front      string     `json:"front" validate:"required"`
	Back       string     `json:"back" validate:"required"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	// Hash is the content hash of an imported card. It becomes the card ID.
	Hash string `json:"-"`
}

// CardPatch carries the content fields a user may edit. Nil fields are left untouched.
type CardPatch struct {
	Front      *string     `json:"front,omitempty"`
	Back       *string     `json:"back,omitempty"`
	Category   *string     `json:"category,omitempty"`
	Difficulty *Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}
