// Package importer adds cards from markdown deck files, kept in a local
// directory or a git repository, to a learner's decks.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/gitsource"
	"github.com/conorfennell/knolstudy/internal/knol"
	"github.com/conorfennell/knolstudy/internal/parser"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// DeckStore is the part of the store an import writes to.
type DeckStore interface {
	DeckCards(deckID string) ([]domain.Card, error)
	AddCards(deckID string, contents []domain.Content) ([]domain.Card, error)
}

// SourceRegistry remembers which sources feed which decks.
type SourceRegistry interface {
	InsertSource(ctx context.Context, learnerID, path, sourceType, deckID string) (int64, error)
	GetAllSources(ctx context.Context, learnerID string) ([]storage.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error
}

// Report summarises one import.
type Report struct {
	Files      int
	Parsed     int
	Added      int
	Duplicates int
	Errors     []error
}

// Importer reads deck sources into a store.
type Importer struct {
	store    DeckStore
	reposDir string
}

// New creates an Importer that checks git sources out under reposDir.
func New(store DeckStore, reposDir string) *Importer {
	return &Importer{store: store, reposDir: reposDir}
}

// Import reads every .md file under path into deckID. Cards whose content
// already exists in the deck are skipped.
func (im *Importer) Import(ctx context.Context, path, deckID string) (Report, error) {
	dir := path
	if gitsource.IsGitURL(path) {
		local, err := gitsource.LocalPath(im.reposDir, path)
		if err != nil {
			return Report{}, err
		}
		if err := gitsource.Sync(ctx, path, local); err != nil {
			return Report{}, err
		}
		dir = local
	}
	return im.importDir(dir, deckID)
}

func (im *Importer) importDir(dir, deckID string) (Report, error) {
	existing, err := im.store.DeckCards(deckID)
	if err != nil {
		return Report{}, err
	}
	seen := knol.NewSet(existing)

	var report Report
	var fresh []domain.Content
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
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

		report.Files++
		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, c := range cards {
			report.Parsed++
			if c.Back == "" {
				report.Errors = append(report.Errors, fmt.Errorf("%s: card %q has no answer", path, c.Front))
				continue
			}
			if !seen.Add(c) {
				report.Duplicates++
				continue
			}
			fresh = append(fresh, c)
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("failed to walk %s: %w", dir, walkErr)
	}

	if len(fresh) > 0 {
		added, err := im.store.AddCards(deckID, fresh)
		if err != nil {
			return report, err
		}
		report.Added = len(added)
	}

	slog.Info("Import complete",
		"path", dir,
		"deck_id", deckID,
		"files", report.Files,
		"parsed_cards", report.Parsed,
		"added", report.Added,
		"duplicates", report.Duplicates,
		"errors", len(report.Errors),
	)
	return report, nil
}

// Register imports path into deckID and remembers it for later syncs.
func (im *Importer) Register(ctx context.Context, reg SourceRegistry, learnerID, path, deckID string) (Report, error) {
	sourceType := "local"
	if gitsource.IsGitURL(path) {
		sourceType = "git"
	}
	id, err := reg.InsertSource(ctx, learnerID, path, sourceType, deckID)
	if err != nil {
		return Report{}, err
	}

	report, err := im.Import(ctx, path, deckID)
	if err != nil {
		return report, err
	}
	if err := reg.UpdateSourceLastScanned(ctx, id, time.Now()); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", id, "error", err)
	}
	return report, nil
}

// SyncAll re-imports every registered source of a learner. A failing source
// is logged and skipped.
func (im *Importer) SyncAll(ctx context.Context, reg SourceRegistry, learnerID string) error {
	sources, err := reg.GetAllSources(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("No deck sources registered")
		return nil
	}

	for _, src := range sources {
		slog.Info("Syncing source", "id", src.ID, "type", src.Type, "path", src.Path, "deck_id", src.DeckID)
		if _, err := im.Import(ctx, src.Path, src.DeckID); err != nil {
			slog.Error("Failed to sync source", "id", src.ID, "path", src.Path, "error", err)
			continue
		}
		if err := reg.UpdateSourceLastScanned(ctx, src.ID, time.Now()); err != nil {
			slog.Warn("Failed to update last scanned for source", "source_id", src.ID, "error", err)
		}
	}
	return nil
}
