// Package jsonfile stores input records as one JSON array in a flat file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/DeafMist/ops-radar/backend/internal/models"
)

// Store rewrites the whole file on every Append.
// Appends from one process are serialized; separate processes sharing the
// file are last-write-wins.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by the file at path. The file is created on first Append.
func New(path string) *Store {
	return &Store{path: path}
}

// Append loads every record, adds rec and writes the collection back.
func (s *Store) Append(ctx context.Context, rec models.InputRecord) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError("append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return models.NewStorageError("append", err)
	}
	records = append(records, rec.Clone())

	if err := s.write(records); err != nil {
		return models.NewStorageError("append", err)
	}
	return nil
}

// LoadAll returns every stored record in append order.
func (s *Store) LoadAll(ctx context.Context) ([]models.InputRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, models.NewStorageError("load", err)
	}
	return records, nil
}

// Ping checks that the file is readable or, when absent, that its directory exists.
func (s *Store) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (s *Store) read() ([]models.InputRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.InputRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	records := []models.InputRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if records == nil {
		records = []models.InputRecord{}
	}
	for i := range records {
		if records[i].Tags == nil {
			records[i].Tags = []string{}
		}
	}
	return records, nil
}

// write replaces the file through a temp file in the same directory.
func (s *Store) write(records []models.InputRecord) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
