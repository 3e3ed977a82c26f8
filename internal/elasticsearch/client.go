package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/DeafMist/ops-radar/backend/internal/models"
)

// pageSize is the number of hits fetched per search_after page in LoadAll.
const pageSize = 1000

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "keyword"},
      "rawText":   {"type": "text"},
      "category":  {"type": "keyword"},
      "tags":      {"type": "keyword"},
      "timestamp": {"type": "date"},
      "status":    {"type": "keyword"},
      "seq":       {"type": "long"}
    }
  }
}`

// document is the indexed form of a record. Seq orders documents by the time
// they were written; record timestamps are millisecond-truncated and can tie.
type document struct {
	models.InputRecord
	Seq int64 `json:"seq"`
}

// Client wraps go-elasticsearch with the input record operations.
// It satisfies store.Store so the index can serve as the primary record store.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger

	mu      sync.Mutex
	lastSeq int64
	now     func() time.Time
}

// New instantiates the Elasticsearch client.
func New(addr, index string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, index: index, log: logger, now: time.Now}, nil
}

// nextSeq returns the wall clock in nanoseconds, bumped past the previous
// value so writes from this client never share or reverse a sequence number.
func (c *Client) nextSeq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.now().UnixNano()
	if seq <= c.lastSeq {
		seq = c.lastSeq + 1
	}
	c.lastSeq = seq
	return seq
}

// Index returns the index name the client writes to.
func (c *Client) Index() string { return c.index }

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates the index with the record mapping when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index failed: %s", res.Status())
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(string(body)))
	}

	c.log.Info("created index", slog.String("index", c.index))
	return nil
}

// IndexInput writes rec using its id as the document id, so repeated calls overwrite.
// refresh is passed through to Elasticsearch ("false", "true" or "wait_for").
func (c *Client) IndexInput(ctx context.Context, rec models.InputRecord, refresh string) error {
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	payload, err := json.Marshal(document{InputRecord: rec, Seq: c.nextSeq()})
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: rec.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    refresh,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index input: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index input failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// Append stores rec and waits for it to become searchable.
func (c *Client) Append(ctx context.Context, rec models.InputRecord) error {
	if err := c.IndexInput(ctx, rec, "wait_for"); err != nil {
		return models.NewStorageError("append", err)
	}
	return nil
}

// LoadAll pages through the whole index in write order.
// A missing index is an empty collection.
func (c *Client) LoadAll(ctx context.Context) ([]models.InputRecord, error) {
	records := []models.InputRecord{}
	var after []any

	for {
		page, next, err := c.searchPage(ctx, after)
		if err != nil {
			return nil, models.NewStorageError("load", err)
		}
		records = append(records, page...)
		if len(page) < pageSize || next == nil {
			break
		}
		after = next
	}

	return records, nil
}

func (c *Client) searchPage(ctx context.Context, after []any) ([]models.InputRecord, []any, error) {
	body := map[string]any{
		"size":             pageSize,
		"track_total_hits": false,
		"query": map[string]any{
			"match_all": map[string]any{},
		},
		"sort": []map[string]any{
			{"seq": map[string]any{"order": "asc", "unmapped_type": "long"}},
			{"id": map[string]any{"order": "asc"}},
		},
	}
	if len(after) > 0 {
		body["search_after"] = after
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil, nil
	}
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	return decodePage(res.Body)
}

// decodePage extracts records and the sort key of the last hit from a search response.
func decodePage(r io.Reader) ([]models.InputRecord, []any, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
				Sort   []any    `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.InputRecord, 0, len(parsed.Hits.Hits))
	var last []any
	for _, hit := range parsed.Hits.Hits {
		rec := hit.Source.InputRecord
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		items = append(items, rec)
		last = hit.Sort
	}

	return items, last, nil
}

// Health checks cluster health. A red cluster is reported as an error.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("cluster health: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode cluster health: %w", err)
	}
	if body.Status == "red" {
		return fmt.Errorf("cluster health is red")
	}
	return nil
}
