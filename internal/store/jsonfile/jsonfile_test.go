package jsonfile_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/ops-radar/backend/internal/models"
	"github.com/DeafMist/ops-radar/backend/internal/store/jsonfile"
)

func record(id, text string, category models.Category, tags ...string) models.InputRecord {
	if tags == nil {
		tags = []string{}
	}
	return models.InputRecord{
		ID:        id,
		RawText:   text,
		Category:  category,
		Tags:      tags,
		Timestamp: time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC),
		Status:    models.StatusActive,
	}
}

func TestLoadAllMissingFileIsEmpty(t *testing.T) {
	s := jsonfile.New(filepath.Join(t.TempDir(), "data.json"))

	got, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestAppendThenLoadAllKeepsOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	s := jsonfile.New(path)

	first := record("1", "Motor failed", models.CategoryIssue, "motor", "failed")
	second := record("2", "Coffee", models.CategoryNote, "coffee")
	third := record("3", "ok", models.CategoryNote)

	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))
	require.NoError(t, s.Append(ctx, third))

	got, err := jsonfile.New(path).LoadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.InputRecord{first, second, third}, got)
}

func TestFileIsIndentedJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := jsonfile.New(path)
	require.NoError(t, s.Append(context.Background(), record("1", "Motor failed", models.CategoryIssue, "motor")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[\n  {\n    \"id\": \"1\",")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	require.Equal(t, "Motor failed", raw[0]["rawText"])
	require.Equal(t, "Issue", raw[0]["category"])
	require.Equal(t, "active", raw[0]["status"])
	require.Equal(t, "2024-05-06T07:08:09.123Z", raw[0]["timestamp"])
}

func TestCorruptFileIsStorageError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := jsonfile.New(path)

	_, err := s.LoadAll(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrStorage))
	var storageErr *models.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "load", storageErr.Op)

	err = s.Append(ctx, record("1", "x", models.CategoryNote))
	require.ErrorIs(t, err, models.ErrStorage)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, "{not json", string(data))
}

func TestAppendToMissingDirectoryIsStorageError(t *testing.T) {
	s := jsonfile.New(filepath.Join(t.TempDir(), "missing", "data.json"))

	err := s.Append(context.Background(), record("1", "x", models.CategoryNote))
	require.ErrorIs(t, err, models.ErrStorage)
	require.Error(t, s.Ping(context.Background()))
}

func TestNullFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

	got, err := jsonfile.New(path).LoadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestAppendDoesNotAliasCallerTags(t *testing.T) {
	ctx := context.Background()
	s := jsonfile.New(filepath.Join(t.TempDir(), "data.json"))
	rec := record("1", "Motor failed", models.CategoryIssue, "motor", "failed")
	require.NoError(t, s.Append(ctx, rec))

	rec.Tags[0] = "changed"

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"motor", "failed"}, got[0].Tags)
}

func TestPing(t *testing.T) {
	dir := t.TempDir()
	s := jsonfile.New(filepath.Join(dir, "data.json"))
	require.NoError(t, s.Ping(context.Background()))
	require.Equal(t, filepath.Join(dir, "data.json"), s.Path())
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := jsonfile.New(filepath.Join(t.TempDir(), "data.json"))

	const writers = 50
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Append(ctx, record(strconv.Itoa(i), "Motor failed", models.CategoryIssue, "motor"))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, writers)

	seen := make(map[string]bool, writers)
	for _, rec := range got {
		seen[rec.ID] = true
	}
	require.Len(t, seen, writers)
}
