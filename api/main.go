package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/ops-radar/backend/internal/config"
	"github.com/DeafMist/ops-radar/backend/internal/inputs"
	"github.com/DeafMist/ops-radar/backend/internal/logger"
	"github.com/DeafMist/ops-radar/backend/internal/store/factory"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st, err := factory.NewStore(ctx, cfg.Storage, cfg.Elasticsearch, log)
	if err != nil {
		log.Error("init store", slog.Any("err", err), slog.String("backend", cfg.Storage.Backend))
		os.Exit(1)
	}
	defer func() {
		if err := factory.Close(st); err != nil {
			log.Error("close store", slog.Any("err", err))
		}
	}()

	srv := &server{
		log:   log,
		svc:   inputs.NewService(st, log),
		store: st,
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr(),
		Handler:           srv.routes(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr()),
			slog.String("backend", cfg.Storage.Backend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
