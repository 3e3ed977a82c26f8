// Package inputs orchestrates classification, tagging and storage of operational notes.
package inputs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/ops-radar/backend/internal/analytics"
	applog "github.com/DeafMist/ops-radar/backend/internal/logger"
	"github.com/DeafMist/ops-radar/backend/internal/models"
	"github.com/DeafMist/ops-radar/backend/internal/processing"
	"github.com/DeafMist/ops-radar/backend/internal/store"
)

// Filter narrows List results. Zero values impose no constraint.
type Filter struct {
	// Category must equal the record category exactly.
	Category string
	// Tag must be one of the record tags exactly.
	Tag string
	// TagContains must be a case-insensitive substring of at least one tag.
	// Blank values are ignored.
	TagContains string
	// Limit keeps only the last Limit matches when positive.
	Limit int
}

// Service is the entry point for creating and querying input records.
type Service struct {
	store store.Store
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService wires a Service on top of st.
func NewService(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = applog.Discard()
	}
	s := &Service{
		store: st,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit classifies and tags text, stores the resulting record and returns it.
func (s *Service) Submit(ctx context.Context, text string) (models.InputRecord, error) {
	if strings.TrimSpace(text) == "" {
		return models.InputRecord{}, models.NewValidationError("text", "Text required")
	}

	rec := models.InputRecord{
		ID:        s.newID(),
		RawText:   text,
		Category:  processing.Classify(text),
		Tags:      processing.ExtractTags(text),
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
		Status:    models.StatusActive,
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return models.InputRecord{}, fmt.Errorf("submit input: %w", err)
	}

	s.log.Debug("input stored",
		slog.String("id", rec.ID),
		slog.String("category", string(rec.Category)),
		slog.Int("tags", len(rec.Tags)),
	)
	return rec, nil
}

// List returns stored records matching f, oldest first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.InputRecord, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(f.TagContains))
	out := make([]models.InputRecord, 0, len(records))
	for _, rec := range records {
		if f.Category != "" && string(rec.Category) != f.Category {
			continue
		}
		if f.Tag != "" && !rec.HasTag(f.Tag) {
			continue
		}
		if needle != "" && !tagContains(rec.Tags, needle) {
			continue
		}
		out = append(out, rec)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Analytics aggregates counts over every stored record.
func (s *Service) Analytics(ctx context.Context) (models.Analytics, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("aggregate inputs: %w", err)
	}
	return analytics.Aggregate(records), nil
}

func tagContains(tags []string, lowerNeedle string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), lowerNeedle) {
			return true
		}
	}
	return false
}
