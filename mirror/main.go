package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/ops-radar/backend/internal/config"
	"github.com/DeafMist/ops-radar/backend/internal/dedupe"
	"github.com/DeafMist/ops-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/ops-radar/backend/internal/logger"
	"github.com/DeafMist/ops-radar/backend/internal/models"
	"github.com/DeafMist/ops-radar/backend/internal/store"
	"github.com/DeafMist/ops-radar/backend/internal/store/factory"
)

type inputIndexer interface {
	IndexInput(ctx context.Context, rec models.InputRecord, refresh string) error
}

func main() {
	log := logger.New("mirror")
	cfg, err := config.LoadMirror()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Retry Elasticsearch connection with backoff
	var esClient *elasticsearch.Client
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		esClient, err = elasticsearch.New(cfg.Elasticsearch.Addr, cfg.Elasticsearch.Index, log)
		if err != nil {
			log.Warn("failed to create elasticsearch client, retrying",
				slog.Any("err", err),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
			)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			healthErr := esClient.Health(pingCtx)
			cancel()
			if healthErr == nil {
				break
			}
			log.Warn("elasticsearch not healthy, retrying",
				slog.Any("err", healthErr),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
				slog.Duration("retry_in", retryDelay),
			)
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if esClient == nil || esClient.Health(pingCtx) != nil {
		log.Error("failed to connect to elasticsearch after retries")
		os.Exit(1)
	}
	if err := esClient.EnsureIndex(ctx); err != nil {
		log.Error("prepare index", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("connected to elasticsearch", slog.String("index", esClient.Index()))

	source, err := factory.NewStore(ctx, cfg.Storage, cfg.Elasticsearch, log)
	if err != nil {
		log.Error("init store", slog.Any("err", err), slog.String("backend", cfg.Storage.Backend))
		os.Exit(1)
	}
	defer func() {
		if err := factory.Close(source); err != nil {
			log.Error("close store", slog.Any("err", err))
		}
	}()

	seen := dedupe.NewCache(cfg.SeenCapacity, cfg.SeenTTL)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("mirror job running",
		slog.Duration("interval", cfg.Interval),
		slog.String("backend", cfg.Storage.Backend),
	)

	runOnce(ctx, log, source, esClient, seen)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, source, esClient, seen)
		}
	}
}

// runOnce copies records that have not been mirrored yet. Failures are logged
// and retried on the next tick; ids already indexed are skipped via seen.
func runOnce(ctx context.Context, log *slog.Logger, source store.Store, idx inputIndexer, seen *dedupe.Cache) int {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	records, err := source.LoadAll(subCtx)
	if err != nil {
		log.Warn("mirror run failed (will retry on next interval)", slog.Any("err", err))
		return 0
	}

	mirrored := 0
	for _, rec := range records {
		if seen.IsSeen(rec.ID) {
			continue
		}
		if err := idx.IndexInput(subCtx, rec, "false"); err != nil {
			log.Warn("index input failed (will retry on next interval)",
				slog.Any("err", err),
				slog.String("id", rec.ID),
			)
			break
		}
		seen.MarkSeen(rec.ID)
		mirrored++
	}

	if mirrored > 0 {
		log.Info("mirror run completed", slog.Int("mirrored", mirrored), slog.Int("total", len(records)))
	} else {
		log.Debug("mirror run completed, nothing new")
	}
	return mirrored
}
