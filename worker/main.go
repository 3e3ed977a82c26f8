package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/ops-radar/backend/internal/config"
	"github.com/DeafMist/ops-radar/backend/internal/dedupe"
	"github.com/DeafMist/ops-radar/backend/internal/inputs"
	"github.com/DeafMist/ops-radar/backend/internal/logger"
	"github.com/DeafMist/ops-radar/backend/internal/models"
	"github.com/DeafMist/ops-radar/backend/internal/store/factory"
)

const dlqAttempts = 5

type rawInput struct {
	Text string `json:"text"`
}

type inputSubmitter interface {
	Submit(ctx context.Context, text string) (models.InputRecord, error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
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

	svc := inputs.NewService(st, log)
	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.QueueCapacity,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqWriter := &kafka.Writer{
		Addr:        kafka.TCP(cfg.KafkaBrokers...),
		Topic:       cfg.DLQTopic(),
		MaxAttempts: 3,
	}
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.DLQTopic()),
		slog.String("backend", cfg.Storage.Backend),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, svc, cache, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if !sendToDLQ(ctx, log, dlqWriter, msg, err, time.Second) {
				if ctx.Err() != nil {
					return
				}
				// Leave uncommitted so the message is reprocessed on restart.
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// messageKey identifies a Kafka delivery; redeliveries share it.
func messageKey(msg kafka.Message) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

func processMessage(ctx context.Context, log *slog.Logger, svc inputSubmitter, cache *dedupe.Cache, msg kafka.Message) error {
	key := messageKey(msg)
	if cache.IsSeen(key) {
		log.Debug("duplicate delivery", slog.String("key", key))
		return nil
	}

	var payload rawInput
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	rec, err := svc.Submit(ctx, payload.Text)
	if err != nil {
		return err
	}

	cache.MarkSeen(key)
	log.Info("stored input",
		slog.String("id", rec.ID),
		slog.String("category", string(rec.Category)),
	)
	return nil
}

// sendToDLQ parks msg with error context, retrying with exponential backoff.
// It reports whether the write succeeded.
func sendToDLQ(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error, baseBackoff time.Duration) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header(nil), msg.Headers...),
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := 0; attempt < dlqAttempts; attempt++ {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * baseBackoff
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}
