package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is a Store backed by a SQLite database.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the document stored under key.
func (db *DB) Get(key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous document.
func (db *DB) Set(key string, value []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Source is a synced card source, either a local path or a git URL.
type Source struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	LastScanned *time.Time `json:"lastScanned,omitempty"`
}

// MarkSourceScanned records that path was scanned at the given time, inserting it on first sight.
func (db *DB) MarkSourceScanned(path string, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO sources (path, last_scanned)
		VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET last_scanned = excluded.last_scanned
	`, path, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark source %s scanned: %w", path, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (Source, error) {
	var (
		s       Source
		scanned sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.Path, &scanned); err != nil {
		return Source{}, err
	}
	if scanned.Valid {
		t := scanned.Time.UTC()
		s.LastScanned = &t
	}
	return s, nil
}

// SourceByPath returns the source stored for path, or ErrNotFound.
func (db *DB) SourceByPath(path string) (Source, error) {
	s, err := scanSource(db.conn.QueryRow(`SELECT id, path, last_scanned FROM sources WHERE path = ?`, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Source{}, ErrNotFound
		}
		return Source{}, fmt.Errorf("failed to find source %s: %w", path, err)
	}
	return s, nil
}

// Sources lists every source ever synced, ordered by path.
func (db *DB) Sources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT id, path, last_scanned FROM sources ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := []Source{}
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}
