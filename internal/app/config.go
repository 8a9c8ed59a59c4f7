package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/ground-catalog/internal/observability"
	"github.com/yungbote/ground-catalog/internal/platform/envutil"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendNeo4j    = "neo4j"

	IDGenUUID  = "uuid"
	IDGenRedis = "redis"
)

type Config struct {
	LogMode     string   `yaml:"log_mode"`
	HTTPAddr    string   `yaml:"http_addr"`
	MetricsAddr string   `yaml:"metrics_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	Migrate     bool     `yaml:"migrate"`

	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`

	IDGen string      `yaml:"idgen"`
	Redis RedisConfig `yaml:"redis"`

	Metrics observability.MetricsConfig `yaml:"metrics"`
	Otel    observability.OtelConfig    `yaml:"otel"`
}

type PostgresConfig struct {
	DSN           string        `yaml:"dsn"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type DynamoDBConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Table           string `yaml:"table"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type Neo4jConfig struct {
	URI      string        `yaml:"uri"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	Node     string `yaml:"node"`
}

func defaultConfig() Config {
	return Config{
		LogMode:  "development",
		HTTPAddr: ":8080",
		Migrate:  true,
		Backend:  BackendSQLite,
		SQLite:   SQLiteConfig{Path: "ground.db"},
		DynamoDB: DynamoDBConfig{Region: "us-east-1", Table: "ground"},
		Neo4j:    Neo4jConfig{User: "neo4j", Timeout: 10 * time.Second},
		IDGen:    IDGenUUID,
		Otel:     observability.OtelConfig{ServiceName: "ground-catalog", SampleRatio: 0.1},
	}
}

// LoadConfig reads the optional YAML file at path (CATALOG_CONFIG when path is empty),
// then applies environment overrides, then validates.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = envutil.String("CATALOG_CONFIG", "")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := parseConfig(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseConfig(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)
	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.PingInterval = envutil.Duration("METRICS_PING_INTERVAL", cfg.Metrics.PingInterval)
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.Migrate = envutil.Bool("CATALOG_MIGRATE", cfg.Migrate)

	cfg.Backend = strings.ToLower(envutil.String("CATALOG_BACKEND", cfg.Backend))
	cfg.Postgres.DSN = envutil.String("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", cfg.Postgres.MaxOpenConns)
	cfg.Postgres.SlowThreshold = envutil.Duration("POSTGRES_SLOW_THRESHOLD", cfg.Postgres.SlowThreshold)
	cfg.SQLite.Path = envutil.String("SQLITE_PATH", cfg.SQLite.Path)
	cfg.DynamoDB.Region = envutil.String("AWS_REGION", cfg.DynamoDB.Region)
	cfg.DynamoDB.Endpoint = envutil.String("DYNAMODB_ENDPOINT", cfg.DynamoDB.Endpoint)
	cfg.DynamoDB.Table = envutil.String("DYNAMODB_TABLE", cfg.DynamoDB.Table)
	cfg.DynamoDB.AccessKeyID = envutil.String("AWS_ACCESS_KEY_ID", cfg.DynamoDB.AccessKeyID)
	cfg.DynamoDB.SecretAccessKey = envutil.String("AWS_SECRET_ACCESS_KEY", cfg.DynamoDB.SecretAccessKey)
	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.Timeout = envutil.Duration("NEO4J_TIMEOUT", cfg.Neo4j.Timeout)

	cfg.IDGen = strings.ToLower(envutil.String("CATALOG_IDGEN", cfg.IDGen))
	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Key = envutil.String("REDIS_ID_KEY", cfg.Redis.Key)
	cfg.Redis.Node = envutil.String("REDIS_ID_NODE", cfg.Redis.Node)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Environment = envutil.String("APP_ENV", cfg.Otel.Environment)
	cfg.Otel.Version = envutil.String("APP_VERSION", cfg.Otel.Version)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return fmt.Errorf("config: postgres backend needs postgres.dsn")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLite.Path) == "" {
			return fmt.Errorf("config: sqlite backend needs sqlite.path")
		}
	case BackendDynamoDB:
		if strings.TrimSpace(c.DynamoDB.Table) == "" {
			return fmt.Errorf("config: dynamodb backend needs dynamodb.table")
		}
	case BackendNeo4j:
		if strings.TrimSpace(c.Neo4j.URI) == "" {
			return fmt.Errorf("config: neo4j backend needs neo4j.uri")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.IDGen {
	case IDGenUUID:
	case IDGenRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("config: redis id generator needs redis.addr")
		}
	default:
		return fmt.Errorf("config: unknown id generator %q", c.IDGen)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
