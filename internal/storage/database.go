package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/conorfennell/knolstudy/internal/store"
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

var _ store.Persister = (*DB)(nil)

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; the snapshot mirror is the only one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Load reads a learner's snapshot. A learner with no saved data gets an
// empty snapshot.
func (db *DB) Load(ctx context.Context, learnerID string) (store.Snapshot, error) {
	var payload []byte
	err := db.conn.QueryRowContext(ctx, `
		SELECT payload FROM snapshots WHERE learner_id = ?
	`, learnerID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to load snapshot for %s: %w", learnerID, err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to decode snapshot for %s: %w", learnerID, err)
	}
	return snap, nil
}

// Save replaces a learner's snapshot.
func (db *DB) Save(ctx context.Context, learnerID string, snap store.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", learnerID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO snapshots (learner_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, learnerID, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", learnerID, err)
	}
	return nil
}

// Source is a deck file location, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	DeckID      string
	LastScanned sql.NullTime
}

// InsertSource registers a source for a learner's deck and returns its ID.
// Registering the same path for the same deck again returns the existing ID.
func (db *DB) InsertSource(ctx context.Context, learnerID, path, sourceType, deckID string) (int64, error) {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (learner_id, path, type, deck_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(learner_id, path, deck_id) DO NOTHING
	`, learnerID, path, sourceType, deckID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}

	var id int64
	err = db.conn.QueryRowContext(ctx, `
		SELECT id FROM sources WHERE learner_id = ? AND path = ? AND deck_id = ?
	`, learnerID, path, deckID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get ID for source %s: %w", path, err)
	}
	return id, nil
}

// GetAllSources retrieves a learner's sources.
func (db *DB) GetAllSources(ctx context.Context, learnerID string) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, path, type, deck_id, last_scanned
		FROM sources WHERE learner_id = ?
		ORDER BY id
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.DeckID, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source.
func (db *DB) DeleteSource(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	}
	return nil
}
