package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/conorfennell/knolstudy/internal/config"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/importer"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/storage"
	"github.com/conorfennell/knolstudy/internal/store"
	"github.com/conorfennell/knolstudy/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("knolstudy exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration from defaults, file, environment and flags
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the database and load the learner's decks
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Database opened successfully", "path", cfg.DB)

	st := store.Load(ctx, cfg.Learner, db, store.WithClock(now))
	defer st.Close()

	// 3. Import deck files if asked to
	im := importer.New(st, cfg.ReposDir)
	if cfg.Import.Path != "" {
		deckID, err := deckByName(st, cfg.Import.Deck)
		if err != nil {
			return err
		}
		report, err := im.Register(ctx, db, cfg.Learner, cfg.Import.Path, deckID)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", cfg.Import.Path, err)
		}
		for _, e := range report.Errors {
			slog.Warn("Skipped card", "error", e)
		}
	}
	if cfg.Import.Sync {
		if err := im.SyncAll(ctx, db, cfg.Learner); err != nil {
			return err
		}
	}

	// 4. Serve the study API
	sessions := session.NewManager(st, st,
		session.WithClock(now),
		session.WithHistoryWindow(cfg.Session.HistoryWindow),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(st, sessions, now),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", cfg.Addr, "learner", cfg.Learner, "timezone", loc.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// deckByName finds a deck by name, creating it when missing.
func deckByName(st *store.Store, name string) (string, error) {
	decks := st.Decks()
	if i := slices.IndexFunc(decks, func(d domain.Deck) bool { return d.Name == name }); i >= 0 {
		return decks[i].ID, nil
	}
	d, err := st.CreateDeck(domain.DeckInput{Name: name})
	if err != nil {
		return "", err
	}
	slog.Info("Created deck for import", "deck", name, "deck_id", d.ID)
	return d.ID, nil
}
