package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/studynotes/internal/clock"
	"github.com/conorfennell/studynotes/internal/config"
	"github.com/conorfennell/studynotes/internal/document"
	"github.com/conorfennell/studynotes/internal/flashcard"
	"github.com/conorfennell/studynotes/internal/notes"
	"github.com/conorfennell/studynotes/internal/notify"
	"github.com/conorfennell/studynotes/internal/plan"
	"github.com/conorfennell/studynotes/internal/quiz"
	"github.com/conorfennell/studynotes/internal/srs"
	"github.com/conorfennell/studynotes/internal/stats"
	"github.com/conorfennell/studynotes/internal/storage"
	"github.com/conorfennell/studynotes/internal/streak"
	"github.com/conorfennell/studynotes/internal/sync"
	"github.com/conorfennell/studynotes/internal/ticker"
	"github.com/conorfennell/studynotes/internal/timer"
	"github.com/conorfennell/studynotes/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("studynotes failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration and set up logging
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// 2. Open the database
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.Info("database opened", "path", cfg.DB)

	// 3. Wire the services
	clk := clock.System{}
	bus := notify.NewBroadcaster()
	catalog := notes.NewCatalog(cfg.Notes)

	deck := flashcard.New(flashcard.Options{
		Store:    db,
		Clock:    clk,
		Location: loc,
		Params: &srs.Params{
			InitialEase:        cfg.Review.InitialEase,
			MinEase:            cfg.Review.MinEase,
			EaseBonus:          cfg.Review.EaseBonus,
			EasePenalty:        cfg.Review.EasePenalty,
			SecondIntervalDays: cfg.Review.SecondIntervalDays,
		},
		Rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		Publisher: bus,
		Logger:    log,
	})
	if err := deck.Seed(); err != nil {
		return fmt.Errorf("failed to seed flashcards: %w", err)
	}

	if cfg.SyncOnly {
		return syncOnly(cfg, deck, db, log)
	}

	aggregator := stats.New(stats.Options{
		Store:     db,
		Clock:     clk,
		Notes:     catalog,
		Streak:    streak.New(db, clk, loc, log),
		Publisher: bus,
		Logger:    log,
	})
	tm := timer.New(timer.Options{
		Store:     db,
		Clock:     clk,
		Recorder:  aggregator,
		Publisher: bus,
		Loop:      ticker.NewLoop(time.Second, nil),
		Defaults: timer.Settings{
			StudySeconds:           int(cfg.Timer.Study / time.Second),
			ShortBreakSeconds:      int(cfg.Timer.ShortBreak / time.Second),
			LongBreakSeconds:       int(cfg.Timer.LongBreak / time.Second),
			SessionsUntilLongBreak: cfg.Timer.SessionsUntilLongBreak,
			AutoStart:              cfg.Timer.AutoStart,
		},
		Logger: log,
	})
	defer tm.Close()

	quizzes := quiz.New(quiz.Options{
		Store:     db,
		Clock:     clk,
		Loop:      ticker.NewLoop(time.Second, nil),
		Publisher: bus,
		Logger:    log,
	})
	defer quizzes.Close()
	if err := quizzes.Seed(); err != nil {
		return fmt.Errorf("failed to seed quizzes: %w", err)
	}

	srv := web.NewServer(web.Deps{
		Catalog:        catalog,
		Favorites:      notes.NewFavorites(db, clk, bus, log),
		Stats:          aggregator,
		Deck:           deck,
		Timer:          tm,
		Quizzes:        quizzes,
		Plans:          plan.New(db, clk, bus, log),
		Documents:      document.NewSource(os.DirFS(cfg.NotesDir), nil, nil, cfg.Documents.AllowedHosts),
		Events:         bus,
		Sources:        db,
		Logger:         log,
		DwellThreshold: cfg.Stats.DwellThreshold,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      cfg.RateLimit.RPS,
		Burst:          cfg.RateLimit.Burst,
	})

	// 4. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.SyncOnStart && len(cfg.Sources) > 0 {
		g.Go(func() error {
			syncAtStartup(gctx, syncOptions(cfg, deck, db, log), log)
			return nil
		})
	}
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func syncOptions(cfg *config.Config, deck *flashcard.Deck, db *storage.DB, log *slog.Logger) sync.Options {
	return sync.Options{
		Importer: deck,
		Tracker:  db,
		Sources:  cfg.Sources,
		ReposDir: cfg.ReposDir,
		Logger:   log,
	}
}

// syncOnly reconciles every source once and prints a report.
func syncOnly(cfg *config.Config, deck *flashcard.Deck, db *storage.DB, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := sync.Run(ctx, syncOptions(cfg, deck, db, log))
	if err != nil {
		return err
	}
	for _, s := range report.Sources {
		fmt.Printf("%s: %d files, %d cards parsed, %d inserted, %d deleted\n",
			s.Source, s.Files, s.Parsed, s.Inserted, s.Deleted)
		for _, e := range s.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	parsed, inserted, deleted, errs := report.Totals()
	fmt.Printf("Found %d cards, %d inserted, %d deleted, %d errors.\n", parsed, inserted, deleted, errs)
	return nil
}

// syncAtStartup runs one sync alongside the server. Its failure never stops the server.
func syncAtStartup(ctx context.Context, opts sync.Options, log *slog.Logger) {
	report, err := sync.Run(ctx, opts)
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("startup sync cancelled", "error", err)
	case err != nil:
		log.Warn("startup sync failed", "error", err)
	default:
		logReport(log, report)
	}
}

func logReport(log *slog.Logger, report sync.Report) {
	parsed, inserted, deleted, errs := report.Totals()
	log.Info("sync finished", "parsed", parsed, "inserted", inserted, "deleted", deleted, "errors", errs)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
