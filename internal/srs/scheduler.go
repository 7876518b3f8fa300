// Package srs schedules flashcard reviews with a simplified SM-2 ease-factor model.
package srs

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/conorfennell/studynotes/internal/domain"
)

// ErrInvalidOutcome is returned when a review outcome is neither correct nor incorrect.
var ErrInvalidOutcome = errors.New("invalid review outcome")

// Params holds the parameters of the scheduler.
type Params struct {
	InitialEase        float64 // ease factor of a new card
	MinEase            float64 // floor applied after every review
	EaseBonus          float64 // added on a correct review
	EasePenalty        float64 // subtracted on an incorrect review
	SecondIntervalDays int     // interval after the second correct review
}

// DefaultParams returns the standard SM-2 starting values.
func DefaultParams() *Params {
	return &Params{
		InitialEase:        2.5,
		MinEase:            1.3,
		EaseBonus:          0.1,
		EasePenalty:        0.2,
		SecondIntervalDays: 6,
	}
}

// Review applies one review outcome to card at now and returns the updated card.
// Intervals after the second review are the current ease factor rounded to whole
// days; they do not compound on the previous interval.
func (p *Params) Review(card domain.Flashcard, outcome domain.Outcome, now time.Time) (domain.Flashcard, error) {
	if !outcome.Valid() {
		return card, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	ease := card.EaseFactor
	if ease == 0 {
		ease = p.InitialEase
	}

	var days int
	if outcome == domain.Correct {
		days = p.correctInterval(card.TimesReviewed, ease)
		ease += p.EaseBonus
		card.CorrectCount++
	} else {
		days = 1
		ease -= p.EasePenalty
		card.IncorrectCount++
	}

	card.EaseFactor = math.Max(p.MinEase, roundEase(ease))
	card.TimesReviewed++
	reviewed := now
	card.LastReviewed = &reviewed
	card.NextReview = now.AddDate(0, 0, days)
	return card, nil
}

func (p *Params) correctInterval(timesReviewed int, ease float64) int {
	switch timesReviewed {
	case 0:
		return 1
	case 1:
		return p.SecondIntervalDays
	}
	return max(1, int(math.Round(ease)))
}

// roundEase keeps repeated +/- steps from accumulating float error.
func roundEase(ease float64) float64 {
	return math.Round(ease*100) / 100
}

// NewCard turns a draft into a card that is due immediately.
func (p *Params) NewCard(draft domain.CardDraft, now time.Time) domain.Flashcard {
	id := draft.Hash
	if id == "" {
		id = domain.NewID()
	}
	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = domain.DefaultCategory
	}
	difficulty := draft.Difficulty
	if difficulty == "" {
		difficulty = domain.Medium
	}
	return domain.Flashcard{
		ID:         id,
		Front:      strings.TrimSpace(draft.Front),
		Back:       strings.TrimSpace(draft.Back),
		Category:   category,
		Difficulty: difficulty,
		Created:    now,
		EaseFactor: p.InitialEase,
		NextReview: now,
	}
}
