package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/idgen"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, cfg.Backend)
	require.Equal(t, IDGenUUID, cfg.IDGen)
	require.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
backend: neo4j
neo4j:
  uri: bolt://graph:7687
  timeout: 3s
idgen: redis
redis:
  addr: redis:6379
metrics:
  ping_interval: 30s
otel:
  enabled: true
  sample_ratio: 0.5
`)
	t.Setenv("CATALOG_CONFIG", path)
	t.Setenv("NEO4J_PASSWORD", "hunter2")
	t.Setenv("PORT", "9090")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, BackendNeo4j, cfg.Backend)
	require.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	require.Equal(t, 3*time.Second, cfg.Neo4j.Timeout)
	require.Equal(t, "hunter2", cfg.Neo4j.Password)
	require.Equal(t, IDGenRedis, cfg.IDGen)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.True(t, cfg.Otel.Enabled)
	require.Equal(t, 0.5, cfg.Otel.SampleRatio)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, 30*time.Second, cfg.Metrics.PingInterval)
}

func TestLoadConfigExplicitPathWinsOverEnv(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", writeConfig(t, "backend: neo4j\nneo4j:\n  uri: bolt://env:7687\n"))
	explicit := writeConfig(t, "http_addr: \":7070\"\n")

	cfg, err := LoadConfig(explicit)
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, cfg.Backend)
	require.Equal(t, ":7070", cfg.HTTPAddr)
}

func TestCloseReleasesPartiallyBuiltApp(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	seq := idgen.NewSequence(rdb, "ground:ids", "n1", logger.Nop())
	backend, err := OpenBackend(context.Background(), func() Config {
		cfg := defaultConfig()
		cfg.SQLite.Path = "file:app_close?mode=memory&cache=shared"
		return cfg
	}(), logger.Nop())
	require.NoError(t, err)

	a := &App{Log: logger.Nop(), Backend: backend, seq: seq}
	a.Close()
	require.ErrorIs(t, seq.Ping(context.Background()), goredis.ErrClosed)
	require.Nil(t, a.Backend)

	// closing twice is harmless
	a.Close()
}

func TestLoadConfigRejectsUnknownFieldsAndBackends(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", writeConfig(t, "bakend: postgres\n"))
	_, err := LoadConfig("")
	require.Error(t, err)

	t.Setenv("CATALOG_CONFIG", "")
	t.Setenv("CATALOG_BACKEND", "cassandra")
	_, err = LoadConfig("")
	require.ErrorContains(t, err, "unknown backend")

	t.Setenv("CATALOG_BACKEND", "postgres")
	_, err = LoadConfig("")
	require.ErrorContains(t, err, "postgres.dsn")
}

func TestOpenBackendSQLite(t *testing.T) {
	cfg := defaultConfig()
	cfg.SQLite.Path = "file:app_backend?mode=memory&cache=shared"
	b, err := OpenBackend(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer func() { _ = b.Close(context.Background()) }()
	require.Equal(t, storage.KindRelational, b.Kind())
}

func TestOpenBackendUnknown(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend = "cassandra"
	_, err := OpenBackend(context.Background(), cfg, logger.Nop())
	var be *BootstrapError
	require.True(t, errors.As(err, &be))
	require.Equal(t, BootstrapErrorInvalidBackend, be.Code)
}

func TestOpenIDGenerator(t *testing.T) {
	cfg := defaultConfig()
	gen, seq, err := OpenIDGenerator(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	require.Nil(t, seq)
	require.IsType(t, &idgen.UUID{}, gen)

	cfg.IDGen = "snowflake"
	_, _, err = OpenIDGenerator(context.Background(), cfg, logger.Nop())
	var be *BootstrapError
	require.True(t, errors.As(err, &be))
	require.Equal(t, BootstrapErrorIDGenFailed, be.Code)
}
