package sync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/flashcard"
	"github.com/conorfennell/studynotes/internal/parser"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct{ paths []string }

func (r *recordingTracker) MarkSourceScanned(path string, _ time.Time) error {
	r.paths = append(r.paths, path)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunLocalSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bio.md"), "Q: Mitosis?\nA: Cell division\nC: Biology\n---\nQ: DNA?\nA: Deoxyribonucleic acid\nC: Biology\n")
	writeFile(t, filepath.Join(dir, "nested", "chem.md"), "Q: H2O?\nA: Water\nC: Chemistry\n")
	writeFile(t, filepath.Join(dir, "readme.txt"), "Q: ignored\nA: not markdown\n")

	deck := flashcard.New(flashcard.Options{
		Store: storage.NewMemory(),
		Clock: clock.NewFake(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	})
	tracker := &recordingTracker{}
	opts := Options{Importer: deck, Tracker: tracker, Sources: []string{dir}}

	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, 2, report.Sources[0].Files)
	assert.Equal(t, 3, report.Sources[0].Parsed)
	assert.Equal(t, 3, report.Sources[0].Inserted)
	assert.Equal(t, []string{dir}, tracker.paths)
	assert.Equal(t, []string{"Biology", "Chemistry"}, deck.Categories())

	require.NoError(t, os.Remove(filepath.Join(dir, "nested", "chem.md")))
	report, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sources[0].Inserted)
	assert.Equal(t, 1, report.Sources[0].Deleted)
	assert.Len(t, deck.List(""), 2)

	parsed, inserted, deleted, errs := report.Totals()
	assert.Equal(t, []int{2, 0, 1, 0}, []int{parsed, inserted, deleted, errs})
}

func TestRunMissingSourceKeepsCards(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cards.md"), "Q: One\nA: 1\n")
	deck := flashcard.New(flashcard.Options{Store: storage.NewMemory()})

	_, err := Run(context.Background(), Options{Importer: deck, Sources: []string{dir}})
	require.NoError(t, err)
	require.Len(t, deck.List(""), 1)

	require.NoError(t, os.RemoveAll(dir))
	report, err := Run(context.Background(), Options{Importer: deck, Sources: []string{dir}})
	require.NoError(t, err)
	assert.NotEmpty(t, report.Sources[0].Errors)
	assert.Len(t, deck.List(""), 1, "an unreadable source does not delete its cards")
}

func TestRunUnparsableFileKeepsReviewedCards(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "Q: Alpha?\nA: First\n")
	writeFile(t, filepath.Join(dir, "b.md"), "Q: Beta?\nA: Second\n")
	deck := flashcard.New(flashcard.Options{
		Store: storage.NewMemory(),
		Clock: clock.NewFake(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	opts := Options{Importer: deck, Sources: []string{dir}}

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	_, err = deck.StartSession("")
	require.NoError(t, err)
	for range 2 {
		_, err = deck.Answer(domain.Correct)
		require.NoError(t, err)
	}

	writeFile(t, filepath.Join(dir, "b.md"), "Q: Beta?\nA: "+strings.Repeat("x", parser.MaxLineSize+1)+"\n")
	report, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, 1, report.Sources[0].Files)
	assert.Equal(t, 0, report.Sources[0].Deleted)
	assert.NotEmpty(t, report.Sources[0].Errors)

	cards := deck.List("")
	require.Len(t, cards, 2)
	for _, c := range cards {
		assert.Equal(t, 1, c.TimesReviewed, c.Front)
	}

	// Once the file reads cleanly again, removed cards are pruned as usual.
	writeFile(t, filepath.Join(dir, "b.md"), "")
	report, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sources[0].Deleted)
	assert.Len(t, deck.List(""), 1)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	deck := flashcard.New(flashcard.Options{Store: storage.NewMemory()})
	_, err := Run(ctx, Options{Importer: deck, Sources: []string{t.TempDir()}})
	assert.ErrorIs(t, err, context.Canceled)
}
