// Package factory opens the record store selected by configuration.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DeafMist/ops-radar/backend/internal/config"
	"github.com/DeafMist/ops-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ops-radar/backend/internal/store"
	"github.com/DeafMist/ops-radar/backend/internal/store/jsonfile"
	"github.com/DeafMist/ops-radar/backend/internal/store/sqlite"
)

// NewStore selects the storage adapter named by st.Backend.
// Callers should close the result when it implements store.Closer.
func NewStore(ctx context.Context, st config.Storage, es config.Elasticsearch, log *slog.Logger) (store.Store, error) {
	switch st.Backend {
	case config.BackendFile, "":
		return jsonfile.New(st.Path), nil
	case config.BackendSQLite:
		return sqlite.Open(ctx, st.SQLite)
	case config.BackendElasticsearch:
		client, err := elasticsearch.New(es.Addr, es.Index, log)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("prepare index %s: %w", es.Index, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND: %s", st.Backend)
	}
}

// Close releases st when it holds resources.
func Close(st store.Store) error {
	if c, ok := st.(store.Closer); ok {
		return c.Close()
	}
	return nil
}
