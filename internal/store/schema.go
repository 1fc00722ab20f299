package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const ddl = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS files (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    path       TEXT NOT NULL UNIQUE,
    hash       TEXT NOT NULL,
    language   TEXT NOT NULL DEFAULT '',
    summary    TEXT NOT NULL DEFAULT '',
    chunks     INTEGER NOT NULL DEFAULT 0,
    lines      INTEGER NOT NULL DEFAULT 0,
    indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chunks (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id    INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT '',
    language   TEXT NOT NULL DEFAULT '',
    start_line INTEGER NOT NULL,
    end_line   INTEGER NOT NULL,
    content    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_position ON chunks(position);
CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file_id);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// schemaVersion is bumped whenever ddl changes incompatibly.
const schemaVersion = "1"

// Init creates missing tables and rejects databases written by a different
// schema version.
func Init(db *sql.DB) error {
	if _, err := db.Exec(ddl); err != nil {
		return err
	}
	var have string
	err := db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&have)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.Exec("INSERT INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
		return err
	case err != nil:
		return err
	case have != schemaVersion:
		return fmt.Errorf("index schema version %s is not supported (want %s); run 'reposcope reset' and re-index", have, schemaVersion)
	}
	return nil
}
