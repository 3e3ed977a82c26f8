package inputs_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/ops-radar/backend/internal/inputs"
	"github.com/DeafMist/ops-radar/backend/internal/models"
	"github.com/DeafMist/ops-radar/backend/internal/store/jsonfile"
)

type stubStore struct {
	records   []models.InputRecord
	appendErr error
	loadErr   error
}

func (s *stubStore) Append(_ context.Context, rec models.InputRecord) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.records = append(s.records, rec.Clone())
	return nil
}

func (s *stubStore) LoadAll(_ context.Context) ([]models.InputRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]models.InputRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func newService(st *stubStore) *inputs.Service {
	clock := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	seq := 0
	return inputs.NewService(st, nil,
		inputs.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
		inputs.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
}

func TestSubmitBuildsRecord(t *testing.T) {
	st := &stubStore{}
	svc := newService(st)

	rec, err := svc.Submit(context.Background(), "Motor failed after 3 hours")
	require.NoError(t, err)

	require.Equal(t, "id-1", rec.ID)
	require.Equal(t, "Motor failed after 3 hours", rec.RawText)
	require.Equal(t, models.CategoryIssue, rec.Category)
	require.Equal(t, []string{"motor", "failed", "hours"}, rec.Tags)
	require.Equal(t, time.Date(2024, 3, 4, 5, 7, 7, 0, time.UTC), rec.Timestamp)
	require.Equal(t, models.StatusActive, rec.Status)

	require.Len(t, st.records, 1)
	require.Equal(t, rec, st.records[0])
}

func TestSubmitRejectsBlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		st := &stubStore{}
		_, err := newService(st).Submit(context.Background(), text)

		require.ErrorIs(t, err, models.ErrValidation)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "text", verr.Field)
		require.Empty(t, st.records)
	}
}

func TestSubmitKeepsRawTextUntrimmed(t *testing.T) {
	rec, err := newService(&stubStore{}).Submit(context.Background(), "  Coffee break  ")
	require.NoError(t, err)
	require.Equal(t, "  Coffee break  ", rec.RawText)
	require.Equal(t, models.CategoryNote, rec.Category)
}

func TestSubmitPropagatesStorageError(t *testing.T) {
	st := &stubStore{appendErr: models.NewStorageError("append", errors.New("disk full"))}

	_, err := newService(st).Submit(context.Background(), "Motor failed")
	require.ErrorIs(t, err, models.ErrStorage)
	require.NotErrorIs(t, err, models.ErrValidation)
}

func TestSubmitUsesUUIDByDefault(t *testing.T) {
	svc := inputs.NewService(&stubStore{}, nil)
	a, err := svc.Submit(context.Background(), "first")
	require.NoError(t, err)
	b, err := svc.Submit(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, a.ID, 36)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, time.UTC, a.Timestamp.Location())
	require.Equal(t, 0, a.Timestamp.Nanosecond()%int(time.Millisecond))
}

func seed(t *testing.T, svc *inputs.Service, texts ...string) []models.InputRecord {
	t.Helper()
	out := make([]models.InputRecord, 0, len(texts))
	for _, text := range texts {
		rec, err := svc.Submit(context.Background(), text)
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func ids(records []models.InputRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestListFilters(t *testing.T) {
	svc := newService(&stubStore{})
	seed(t, svc,
		"Motor failed after 3 hours",      // id-1 Issue [motor failed hours]
		"Shipment delayed by customs",     // id-2 Task [shipment delayed customs]
		"Motor overheating on line four",  // id-3 Issue [motor overheating line four]
		"Team meeting about the Motorway", // id-4 Event [team meeting about motorway]
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter inputs.Filter
		want   []string
	}{
		{name: "no filter", filter: inputs.Filter{}, want: []string{"id-1", "id-2", "id-3", "id-4"}},
		{name: "category", filter: inputs.Filter{Category: "Issue"}, want: []string{"id-1", "id-3"}},
		{name: "category is case sensitive", filter: inputs.Filter{Category: "issue"}, want: []string{}},
		{name: "exact tag", filter: inputs.Filter{Tag: "motor"}, want: []string{"id-1", "id-3"}},
		{name: "exact tag no substring", filter: inputs.Filter{Tag: "moto"}, want: []string{}},
		{name: "tag substring", filter: inputs.Filter{TagContains: "MOTO"}, want: []string{"id-1", "id-3", "id-4"}},
		{name: "blank tag substring", filter: inputs.Filter{TagContains: "  "}, want: []string{"id-1", "id-2", "id-3", "id-4"}},
		{name: "category and substring", filter: inputs.Filter{Category: "Event", TagContains: "moto"}, want: []string{"id-4"}},
		{name: "limit keeps newest", filter: inputs.Filter{Limit: 2}, want: []string{"id-3", "id-4"}},
		{name: "limit above count", filter: inputs.Filter{Limit: 10}, want: []string{"id-1", "id-2", "id-3", "id-4"}},
		{name: "non positive limit", filter: inputs.Filter{Limit: -1}, want: []string{"id-1", "id-2", "id-3", "id-4"}},
		{name: "category with limit", filter: inputs.Filter{Category: "Issue", Limit: 1}, want: []string{"id-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, tt.want, ids(got))
		})
	}
}

func TestListIsIdempotent(t *testing.T) {
	svc := newService(&stubStore{})
	seed(t, svc, "Motor failed", "Shipment delayed")

	first, err := svc.List(context.Background(), inputs.Filter{})
	require.NoError(t, err)
	second, err := svc.List(context.Background(), inputs.Filter{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSubmitRoundTripThroughFileStore(t *testing.T) {
	st := jsonfile.New(filepath.Join(t.TempDir(), "data.json"))
	svc := inputs.NewService(st, nil)

	created := seed(t, svc, "Motor failed after 3 hours", "Conference scheduled for May")

	got, err := svc.List(context.Background(), inputs.Filter{})
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestListAndAnalyticsPropagateLoadError(t *testing.T) {
	st := &stubStore{loadErr: models.NewStorageError("load", errors.New("corrupt"))}
	svc := newService(st)

	_, err := svc.List(context.Background(), inputs.Filter{})
	require.ErrorIs(t, err, models.ErrStorage)

	_, err = svc.Analytics(context.Background())
	require.ErrorIs(t, err, models.ErrStorage)
}

func TestAnalytics(t *testing.T) {
	svc := newService(&stubStore{})
	records := seed(t, svc, "Motor failed", "Motor overheating", "Shipment delayed", "Coffee")

	got, err := svc.Analytics(context.Background())
	require.NoError(t, err)

	require.Equal(t, len(records), got.Total)
	require.Equal(t, []string{"Issue", "Task", "Note"}, got.Categories.Keys())
	require.Equal(t, 2, got.Categories.Get("Issue"))
	require.Equal(t, 2, got.Tags.Get("motor"))
	require.Equal(t, got.Total, got.Categories.Sum())

	tagTotal := 0
	for _, r := range records {
		tagTotal += len(r.Tags)
	}
	require.Equal(t, tagTotal, got.Tags.Sum())
}
