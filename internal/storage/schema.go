package storage

const schema = `
-- One row per learner holding the serialized decks, cards and study history.
CREATE TABLE IF NOT EXISTS snapshots (
    learner_id TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);

-- Deck files imported from a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    learner_id TEXT NOT NULL,
    path TEXT NOT NULL,
    type TEXT NOT NULL, -- 'local' or 'git'
    deck_id TEXT NOT NULL,
    last_scanned DATETIME,

    UNIQUE(learner_id, path, deck_id)
);
`
