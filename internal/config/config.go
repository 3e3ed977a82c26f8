package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage backends understood by factory.NewStore.
const (
	BackendFile          = "file"
	BackendSQLite        = "sqlite"
	BackendElasticsearch = "elasticsearch"
)

// Storage selects and locates the record store shared by every service.
type Storage struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"file"`
	Path    string `yaml:"path"    env:"STORAGE_PATH"    env-default:"data.json"`
	SQLite  string `yaml:"sqlite"  env:"SQLITE_PATH"     env-default:"inputs.db"`
}

// Elasticsearch holds search cluster parameters.
type Elasticsearch struct {
	Addr  string `yaml:"addr"  env:"ELASTICSEARCH_ADDR"  env-default:"http://elasticsearch:9200"`
	Index string `yaml:"index" env:"ELASTICSEARCH_INDEX" env-default:"inputs"`
}

// API describes HTTP-layer configuration.
type API struct {
	Port          int           `yaml:"port"         env:"PORT"         env-default:"5000"`
	Host          string        `yaml:"host"         env:"API_HOST"     env-default:"0.0.0.0"`
	CORSOrigins   []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*" env-separator:","`
	ReadTimeout   time.Duration `yaml:"read_timeout"  env:"API_READ_TIMEOUT"  env-default:"10s"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env:"API_WRITE_TIMEOUT" env-default:"15s"`
	Storage       Storage       `yaml:"storage"`
	Elasticsearch Elasticsearch `yaml:"elasticsearch"`
}

// BindAddr is the listen address derived from Host and Port.
func (c *API) BindAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Worker holds configuration for the Kafka -> record store worker.
type Worker struct {
	KafkaBrokers   []string      `yaml:"kafka_brokers"  env:"KAFKA_BROKERS"          env-default:"kafka:9092" env-separator:","`
	KafkaTopic     string        `yaml:"kafka_topic"    env:"KAFKA_TOPIC"            env-default:"inputs_raw"`
	KafkaConsumer  string        `yaml:"kafka_group"    env:"KAFKA_CONSUMER_GROUP"   env-default:"inputs-worker"`
	DedupeCapacity int           `yaml:"dedupe_capacity" env:"WORKER_DEDUPE_CAPACITY" env-default:"20000"`
	DedupeTTL      time.Duration `yaml:"dedupe_ttl"      env:"WORKER_DEDUPE_TTL"      env-default:"24h"`
	QueueCapacity  int           `yaml:"queue_capacity"  env:"WORKER_QUEUE_CAPACITY"  env-default:"10"`
	Storage        Storage       `yaml:"storage"`
	Elasticsearch  Elasticsearch `yaml:"elasticsearch"`
}

// DLQTopic is where messages that could not be stored are parked.
func (c *Worker) DLQTopic() string {
	return c.KafkaTopic + "_dlq"
}

// Mirror configures the store -> Elasticsearch copy loop.
type Mirror struct {
	Interval      time.Duration `yaml:"interval"       env:"MIRROR_INTERVAL"       env-default:"1m"`
	SeenCapacity  int           `yaml:"seen_capacity"  env:"MIRROR_SEEN_CAPACITY"  env-default:"100000"`
	SeenTTL       time.Duration `yaml:"seen_ttl"       env:"MIRROR_SEEN_TTL"       env-default:"168h"`
	Storage       Storage       `yaml:"storage"`
	Elasticsearch Elasticsearch `yaml:"elasticsearch"`
}

// LoadAPI builds an API config from CONFIG_PATH (if set) and environment variables.
func LoadAPI() (*API, error) {
	var c API
	if err := read(&c); err != nil {
		return nil, err
	}

	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535")
	}
	c.CORSOrigins = trimAll(c.CORSOrigins)
	if len(c.CORSOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ORIGINS must contain at least one origin")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return nil, fmt.Errorf("API_READ_TIMEOUT and API_WRITE_TIMEOUT must be positive")
	}
	if err := c.Storage.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWorker builds a Worker config from CONFIG_PATH (if set) and environment variables.
func LoadWorker() (*Worker, error) {
	var c Worker
	if err := read(&c); err != nil {
		return nil, err
	}

	c.KafkaBrokers = trimAll(c.KafkaBrokers)
	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if strings.TrimSpace(c.KafkaTopic) == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.DedupeTTL <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_TTL must be positive")
	}
	if c.QueueCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_QUEUE_CAPACITY must be positive")
	}
	if err := c.Storage.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadMirror builds a Mirror config from CONFIG_PATH (if set) and environment variables.
func LoadMirror() (*Mirror, error) {
	var c Mirror
	if err := read(&c); err != nil {
		return nil, err
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("MIRROR_INTERVAL must be positive")
	}
	if c.SeenCapacity <= 0 {
		return nil, fmt.Errorf("MIRROR_SEEN_CAPACITY must be positive")
	}
	if c.SeenTTL <= 0 {
		return nil, fmt.Errorf("MIRROR_SEEN_TTL must be positive")
	}
	if err := c.Storage.validate(); err != nil {
		return nil, err
	}
	if c.Storage.Backend == BackendElasticsearch {
		return nil, fmt.Errorf("STORAGE_BACKEND=elasticsearch cannot be mirrored into itself")
	}
	return &c, nil
}

func (s Storage) validate() error {
	switch s.Backend {
	case BackendFile:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("STORAGE_PATH must not be empty")
		}
	case BackendSQLite:
		if strings.TrimSpace(s.SQLite) == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	case BackendElasticsearch:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", s.Backend)
	}
	return nil
}

// read loads the YAML file named by CONFIG_PATH when present, then applies the environment.
func read(cfg any) error {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		return nil
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config: read env: %w", err)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
