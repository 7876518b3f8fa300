package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expected      domain.CardDraft
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expected:      domain.CardDraft{Front: "What is the capital of France?", Back: "Paris"},
		},
		{
			name:          "Simple Q, A, and C",
			input:         "Q: What is 1+1?\nA: 2\nC: Basic arithmetic",
			expectedCards: 1,
			expected:      domain.CardDraft{Front: "What is 1+1?", Back: "2", Category: "Basic arithmetic"},
		},
		{
			name:          "Difficulty is lowercased",
			input:         "Q: Mitosis?\nA: Cell division\nC: Biology\nD: Hard",
			expectedCards: 1,
			expected:      domain.CardDraft{Front: "Mitosis?", Back: "Cell division", Category: "Biology", Difficulty: domain.Hard},
		},
		{
			name: "Multiline Answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expected:      domain.CardDraft{Front: "What are the primary colors?", Back: "Red\nBlue\nYellow"},
		},
		{
			name: "Two Cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name:          "Separator ends a card",
			input:         "Q: One\nA: 1\n---\nstray text\nQ: Two\nA: 2",
			expectedCards: 2,
		},
		{
			name:          "No cards, just text",
			input:         "This is a file with no questions.",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:Question\nA:Answer",
			expectedCards: 1,
			expected:      domain.CardDraft{Front: "Question", Back: "Answer"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			require.NoError(t, err)
			require.Len(t, cards, tc.expectedCards)
			if tc.expectedCards == 1 {
				assert.Equal(t, tc.expected, cards[0])
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.md")
	require.NoError(t, os.WriteFile(path, []byte("Q: Go?\nA: A language\n"), 0o644))

	cards, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "A language", cards[0].Back)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestParseLongLines(t *testing.T) {
	long := strings.Repeat("x", 100_000)
	cards, err := Parse(strings.NewReader("Q: Long?\nA: " + long + "\n"))
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, long, cards[0].Back)

	_, err = Parse(strings.NewReader("Q: Too long?\nA: " + strings.Repeat("x", MaxLineSize+1) + "\n"))
	assert.Error(t, err)
}
