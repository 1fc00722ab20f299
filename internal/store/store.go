// Package store persists a built index in SQLite so later commands can
// search without re-indexing.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reposcope/internal/index"
)

// Store provides persistence for indexed files, summaries and chunks.
type Store interface {
	// Save replaces everything stored with files and chunks.
	Save(files []index.FileEntry, chunks []index.CodeChunk) error
	// Load returns the stored files in path order and chunks in arena order.
	Load() ([]index.FileEntry, []index.CodeChunk, error)
	// KnownSummary returns the stored summary of path if its hash matches.
	KnownSummary(path, hash string) (string, bool)
	// Counts reports how many files and chunks are stored.
	Counts() (Counts, error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// DeleteAll removes all files and chunks.
	DeleteAll() error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(files []index.FileEntry, chunks []index.CodeChunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM files"); err != nil {
		return err
	}

	fileStmt, err := tx.Prepare(
		"INSERT INTO files (path, hash, language, summary, chunks, lines) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	defer fileStmt.Close()

	fileIDs := make(map[string]int64, len(files))
	for _, f := range files {
		res, err := fileStmt.Exec(f.Path, f.Hash, f.Language, f.Summary, f.Chunks, f.Lines)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", f.Path, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		fileIDs[f.Path] = id
	}

	chunkStmt, err := tx.Prepare(
		"INSERT INTO chunks (file_id, position, name, kind, language, start_line, end_line, content) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	for i, c := range chunks {
		fileID, ok := fileIDs[c.FilePath]
		if !ok {
			return fmt.Errorf("chunk %s has no file record", c.Signature())
		}
		if _, err := chunkStmt.Exec(fileID, i, c.Name, c.ChunkType, c.Language, c.StartLine, c.EndLine, c.Content); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.Signature(), err)
		}
	}
	if _, err := tx.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		MetaIndexedAt, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load() ([]index.FileEntry, []index.CodeChunk, error) {
	rows, err := s.db.Query("SELECT path, hash, language, summary, chunks, lines FROM files ORDER BY path")
	if err != nil {
		return nil, nil, err
	}
	var files []index.FileEntry
	for rows.Next() {
		var f index.FileEntry
		if err := rows.Scan(&f.Path, &f.Hash, &f.Language, &f.Summary, &f.Chunks, &f.Lines); err != nil {
			rows.Close()
			return nil, nil, err
		}
		files = append(files, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = s.db.Query(`
		SELECT c.position, f.path, c.content, c.start_line, c.end_line, c.language, c.kind, c.name
		FROM chunks c
		JOIN files f ON f.id = c.file_id
		ORDER BY c.position
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var chunks []index.CodeChunk
	for rows.Next() {
		var c index.CodeChunk
		err := rows.Scan(&c.ID, &c.FilePath, &c.Content, &c.StartLine, &c.EndLine, &c.Language, &c.ChunkType, &c.Name)
		if err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, c)
	}
	return files, chunks, rows.Err()
}

func (s *SQLiteStore) KnownSummary(path, hash string) (string, bool) {
	var summary string
	err := s.db.QueryRow("SELECT summary FROM files WHERE path = ? AND hash = ?", path, hash).Scan(&summary)
	if err != nil || summary == "" {
		return "", false
	}
	return summary, true
}

func (s *SQLiteStore) Counts() (Counts, error) {
	var c Counts
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&c.Files); err != nil {
		return c, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&c.Chunks); err != nil {
		return c, err
	}
	at, err := s.GetMeta(MetaIndexedAt)
	if err != nil {
		return c, err
	}
	if at != "" {
		c.IndexedAt, _ = time.Parse(time.RFC3339, at)
	}
	return c, nil
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) DeleteAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM files"); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
