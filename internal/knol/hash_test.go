package knol

import (
	"testing"

	"github.com/conorfennell/studynotes/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := domain.CardDraft{
		Front:    "  What is HTMX? \r\n",
		Back:     "A library for AJAX.",
		Category: "Web Development",
	}
	expected := "what is htmx?\na library for ajax.\nweb development"
	normalized := Normalize(card)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		card := domain.CardDraft{
			Front:    "Q",
			Back:     "A",
			Category: "C",
		}
		// Hash for "q\na\nc"
		expectedHash := "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2"
		hash := Hash(card)

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		card1 := domain.CardDraft{Front: "  what is go? ", Back: "A programming language."}
		card2 := domain.CardDraft{Front: "What Is Go?", Back: "A programming language."}
		if Hash(card1) != Hash(card2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("difficulty does not change identity", func(t *testing.T) {
		card1 := domain.CardDraft{Front: "Go?", Back: "Yes", Difficulty: domain.Easy}
		card2 := domain.CardDraft{Front: "Go?", Back: "Yes", Difficulty: domain.Hard}
		if Hash(card1) != Hash(card2) {
			t.Error("Expected difficulty to be excluded from the hash")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		card1 := domain.CardDraft{Front: "Card 1"}
		card2 := domain.CardDraft{Front: "Card 2"}
		if Hash(card1) == Hash(card2) {
			t.Error("Expected hashes for different cards to be different")
		}
	})
}

func TestStamp(t *testing.T) {
	drafts := Stamp([]domain.CardDraft{{Front: "Q", Back: "A", Category: "C"}})
	if drafts[0].Hash != "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2" {
		t.Errorf("Expected Stamp to set the content hash, got '%s'", drafts[0].Hash)
	}
}
