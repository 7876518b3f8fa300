// Package sync reconciles card sources, local directories or git repositories, into the deck.
package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/studynotes/internal/domain"
	"github.com/conorfennell/studynotes/internal/flashcard"
	"github.com/conorfennell/studynotes/internal/gitsource"
	"github.com/conorfennell/studynotes/internal/knol"
	"github.com/conorfennell/studynotes/internal/parser"
)

// Importer receives the cards found in one source. prune is false when part
// of the source could not be read.
type Importer interface {
	Import(source string, drafts []domain.CardDraft, prune bool) (flashcard.ImportResult, error)
}

// Tracker records when a source was last scanned.
type Tracker interface {
	MarkSourceScanned(path string, at time.Time) error
}

type Options struct {
	Importer Importer
	// Tracker is optional.
	Tracker  Tracker
	Sources  []string
	ReposDir string
	// Parallel bounds how many sources are synced at once. Zero means 4.
	Parallel int
	Logger   *slog.Logger
}

// SourceReport is the outcome of reconciling one source.
type SourceReport struct {
	Source   string   `json:"source"`
	Path     string   `json:"path"`
	Files    int      `json:"files"`
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors,omitempty"`
}

type Report struct {
	Sources []SourceReport `json:"sources"`
}

// Totals sums the per-source counts.
func (r Report) Totals() (parsed, inserted, deleted, errs int) {
	for _, s := range r.Sources {
		parsed += s.Parsed
		inserted += s.Inserted
		deleted += s.Deleted
		errs += len(s.Errors)
	}
	return parsed, inserted, deleted, errs
}

// Run reconciles every source. A failing source is reported and does not stop
// the others; the returned error is non-nil only when ctx is cancelled.
func Run(ctx context.Context, opts Options) (Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("starting sync", "sources", len(opts.Sources))

	reports := make([]SourceReport, len(opts.Sources))
	var mu gosync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = 4
	}
	g.SetLimit(parallel)

	for i, source := range opts.Sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep := syncSource(ctx, opts, source, log)
			mu.Lock()
			reports[i] = rep
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{Sources: reports}, fmt.Errorf("sync cancelled: %w", err)
	}

	report := Report{Sources: reports}
	parsed, inserted, deleted, errs := report.Totals()
	log.Info("sync complete", "parsed_cards", parsed, "inserted", inserted, "orphaned_deleted", deleted, "errors", errs)
	return report, nil
}

func syncSource(ctx context.Context, opts Options, source string, log *slog.Logger) SourceReport {
	rep := SourceReport{Source: source, Path: source}
	fail := func(err error) SourceReport {
		log.Error("failed to sync source", "source", source, "error", err)
		rep.Errors = append(rep.Errors, err.Error())
		return rep
	}

	if gitsource.IsGitURL(source) {
		localPath, err := gitsource.LocalPath(opts.ReposDir, source)
		if err != nil {
			return fail(err)
		}
		if err := os.MkdirAll(filepath.Dir(localPath), os.ModePerm); err != nil {
			return fail(fmt.Errorf("failed to create repos directory: %w", err))
		}
		if err := gitsource.Sync(ctx, source, localPath, log); err != nil {
			return fail(err)
		}
		rep.Path = localPath
	}

	drafts, files, parseErrs := collect(rep.Path)
	rep.Files = files
	rep.Parsed = len(drafts)
	for _, err := range parseErrs {
		rep.Errors = append(rep.Errors, err.Error())
	}
	if files == 0 && len(parseErrs) > 0 {
		// Nothing was readable; importing an empty set would delete every card of the source.
		return fail(fmt.Errorf("no card files could be read under %s", rep.Path))
	}

	// A file that failed to parse still owns its cards; only a clean read may delete.
	prune := len(parseErrs) == 0
	if !prune {
		log.Warn("source read incompletely, keeping cards not found", "source", source, "errors", len(parseErrs))
	}
	res, err := opts.Importer.Import(source, drafts, prune)
	if err != nil {
		return fail(err)
	}
	rep.Inserted = res.Inserted
	rep.Updated = res.Updated
	rep.Deleted = res.Deleted

	if opts.Tracker != nil {
		if err := opts.Tracker.MarkSourceScanned(source, time.Now()); err != nil {
			log.Warn("failed to update last scanned for source", "source", source, "error", err)
		}
	}

	log.Info("reconciliation complete",
		"path", rep.Path,
		"parsed_cards", rep.Parsed,
		"inserted", rep.Inserted,
		"updated", rep.Updated,
		"orphaned_deleted", rep.Deleted,
		"errors", len(rep.Errors),
	)
	return rep
}

// collect parses every markdown file under root and stamps each card with its content hash.
func collect(root string) ([]domain.CardDraft, int, []error) {
	var drafts []domain.CardDraft
	var errs []error
	var files int

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Record and keep walking; the caller will not prune this source.
			errs = append(errs, fmt.Errorf("walking %s: %w", path, err))
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		files++
		drafts = append(drafts, knol.Stamp(fileCards)...)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walking %s: %w", root, walkErr))
	}
	return drafts, files, errs
}
