// Package store keeps a sqlite history of scored panel images.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Inspection is one scored image.
type Inspection struct {
	ID           int64
	Path         string
	Score        float64
	Category     string
	Tiles        int
	MaxTileScore float64
	CreatedAt    time.Time
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS inspections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		score REAL NOT NULL,
		category TEXT NOT NULL,
		tiles INTEGER NOT NULL DEFAULT 0,
		max_tile_score REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_inspections_path ON inspections(path);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record stores an inspection and returns its id. A zero CreatedAt is set to now.
func (s *Store) Record(in Inspection) (int64, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO inspections (path, score, category, tiles, max_tile_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Path, in.Score, in.Category, in.Tiles, in.MaxTileScore, in.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record inspection of %s: %w", in.Path, err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit inspections, newest first.
func (s *Store) Recent(limit int) ([]Inspection, error) {
	return s.query(`SELECT id, path, score, category, tiles, max_tile_score, created_at
		FROM inspections ORDER BY id DESC LIMIT ?`, limit)
}

// ForPath returns every inspection of path, newest first.
func (s *Store) ForPath(path string) ([]Inspection, error) {
	return s.query(`SELECT id, path, score, category, tiles, max_tile_score, created_at
		FROM inspections WHERE path = ? ORDER BY id DESC`, path)
}

func (s *Store) query(q string, args ...any) ([]Inspection, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query inspections: %w", err)
	}
	defer rows.Close()

	var out []Inspection
	for rows.Next() {
		var in Inspection
		var created string
		if err := rows.Scan(&in.ID, &in.Path, &in.Score, &in.Category, &in.Tiles, &in.MaxTileScore, &created); err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		in.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
