// Package sqlite stores input records in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DeafMist/ops-radar/backend/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS inputs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	raw_text TEXT NOT NULL,
	category TEXT NOT NULL,
	tags TEXT NOT NULL,
	created_at TEXT NOT NULL,
	status TEXT NOT NULL
);
`

// Store keeps records in the inputs table; seq preserves append order.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append inserts rec after every existing record.
func (s *Store) Append(ctx context.Context, rec models.InputRecord) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return models.NewStorageError("append", fmt.Errorf("encode tags: %w", err))
	}

	const stmt = `
INSERT INTO inputs (id, raw_text, category, tags, created_at, status)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err = s.db.ExecContext(ctx, stmt,
		rec.ID,
		rec.RawText,
		string(rec.Category),
		string(encoded),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Status,
	)
	if err != nil {
		return models.NewStorageError("append", err)
	}
	return nil
}

// LoadAll returns every record in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]models.InputRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, raw_text, category, tags, created_at, status
FROM inputs
ORDER BY seq ASC;
`)
	if err != nil {
		return nil, models.NewStorageError("load", err)
	}
	defer rows.Close()

	records := []models.InputRecord{}
	for rows.Next() {
		var (
			rec       models.InputRecord
			category  string
			tagsJSON  string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.RawText, &category, &tagsJSON, &createdAt, &rec.Status); err != nil {
			return nil, models.NewStorageError("load", err)
		}
		rec.Category = models.Category(category)

		rec.Tags = []string{}
		if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
			return nil, models.NewStorageError("load", fmt.Errorf("decode tags of %s: %w", rec.ID, err))
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, models.NewStorageError("load", fmt.Errorf("parse timestamp of %s: %w", rec.ID, err))
		}
		rec.Timestamp = ts

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStorageError("load", err)
	}
	return records, nil
}
