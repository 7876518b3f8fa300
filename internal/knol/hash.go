// Package knol gives imported cards a stable identity derived from their content.
//
// The hash of a card's front, back and category is its id in the deck, and
// sync reconciles a source against the deck by that id. Difficulty is left out
// so that re-rating a card in its markdown file updates the card in place: it
// keeps its id, ease factor and review history instead of being deleted and
// re-created as a new card.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/studynotes/internal/domain"
)

// Normalize returns the identity-bearing text of a card: front, back and
// category, lowercased with runs of whitespace collapsed, one per line.
func Normalize(card domain.CardDraft) string {
	clean := func(part string) string {
		return strings.Join(strings.Fields(strings.ToLower(part)), " ")
	}
	return clean(card.Front) + "\n" + clean(card.Back) + "\n" + clean(card.Category)
}

// Hash returns the hex SHA-256 of Normalize(card).
func Hash(card domain.CardDraft) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return hex.EncodeToString(sum[:])
}

// Stamp sets the Hash of every draft and returns the slice.
func Stamp(drafts []domain.CardDraft) []domain.CardDraft {
	for i := range drafts {
		drafts[i].Hash = Hash(drafts[i])
	}
	return drafts
}
