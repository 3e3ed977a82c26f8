// Package store defines the persistence contract for input records.
// Backends live in subpackages (jsonfile, sqlite) and in internal/elasticsearch.
package store

import (
	"context"

	"github.com/DeafMist/ops-radar/backend/internal/models"
)

// Store persists input records as a single ordered collection.
// Implementations return *models.StorageError on failure.
type Store interface {
	Append(ctx context.Context, rec models.InputRecord) error
	LoadAll(ctx context.Context) ([]models.InputRecord, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by stores holding resources that must be released.
type Closer interface {
	Close() error
}
