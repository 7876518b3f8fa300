// Package parser reads flashcards out of markdown files.
//
// A card is a block of prefixed fields:
//
//	Q: front of the card, may continue on following lines
//	A: back of the card
//	C: category
//	D: easy | medium | hard
//
// A new Q: line or a "---" line ends the current card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studynotes/internal/domain"
)

// MaxLineSize is the longest line Parse accepts.
const MaxLineSize = 1 << 20

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingCategory
	readingDifficulty
)

var prefixes = []struct {
	prefix string
	state  state
}{
	{"Q:", readingFront},
	{"A:", readingBack},
	{"C:", readingCategory},
	{"D:", readingDifficulty},
}

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.CardDraft, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Cards without a front are dropped.
func Parse(r io.Reader) ([]domain.CardDraft, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	var cards []domain.CardDraft
	var current domain.CardDraft
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		case readingCategory:
			current.Category = strings.TrimSpace(content)
		case readingDifficulty:
			current.Difficulty = domain.Difficulty(strings.ToLower(strings.TrimSpace(content)))
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = domain.CardDraft{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "---" {
			finishCard()
			continue
		}

		next, content, ok := field(line)
		if !ok {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		flushBlock()
		if next == readingFront && currentState != seeking {
			finishCard() // A new question always starts a new card
		}
		currentState = next
		block = append(block, content)
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// field reports which field line starts, if any, and the content after its prefix.
func field(line string) (state, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.state, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}
