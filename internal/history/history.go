package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrEmpty is returned by Last when nothing has been saved yet.
var ErrEmpty = errors.New("no saved snapshots")

// Entry is one saved clipboard image.
type Entry struct {
	ID      int64
	Path    string
	Format  string
	Bytes   int64
	SavedAt time.Time
}

type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) history.db in dir.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	dbPath := filepath.Join(dir, "history.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		format TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		saved_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at_ms);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Record stores a saved image and returns its row id.
func (db *DB) Record(path, format string, size int64, at time.Time) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO snapshots (path, format, size_bytes, saved_at_ms) VALUES (?, ?, ?, ?)`,
		path, format, size, at.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record snapshot: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, format, size_bytes, saved_at_ms
		FROM snapshots
		ORDER BY saved_at_ms DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Last returns the most recently saved entry.
func (db *DB) Last() (Entry, error) {
	row := db.conn.QueryRow(`
		SELECT id, path, format, size_bytes, saved_at_ms
		FROM snapshots
		ORDER BY saved_at_ms DESC, id DESC
		LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEmpty
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var ms int64
	if err := s.Scan(&e.ID, &e.Path, &e.Format, &e.Bytes, &ms); err != nil {
		return Entry{}, err
	}
	e.SavedAt = time.UnixMilli(ms)
	return e, nil
}
