package app

import (
	"context"
	"fmt"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/data/storage/graphdb"
	"github.com/yungbote/ground-catalog/internal/data/storage/relational"
	"github.com/yungbote/ground-catalog/internal/data/storage/widecolumn"
	"github.com/yungbote/ground-catalog/internal/idgen"
	"github.com/yungbote/ground-catalog/internal/platform/dynamodb"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
	"github.com/yungbote/ground-catalog/internal/platform/neo4jdb"
)

type BootstrapErrorCode string

const (
	BootstrapErrorInvalidBackend BootstrapErrorCode = "invalid_backend"
	BootstrapErrorConnectFailed  BootstrapErrorCode = "connect_failed"
	BootstrapErrorMigrateFailed  BootstrapErrorCode = "migrate_failed"
	BootstrapErrorIDGenFailed    BootstrapErrorCode = "idgen_failed"
)

// BootstrapError reports which startup dependency failed and how.
type BootstrapError struct {
	Code      BootstrapErrorCode
	Component string
	Cause     error
}

func (e *BootstrapError) Error() string {
	if e == nil {
		return "catalog bootstrap failed"
	}
	return fmt.Sprintf("catalog bootstrap failed (code=%s component=%q): %v", e.Code, e.Component, e.Cause)
}

func (e *BootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// OpenBackend is the single place the storage backend is chosen.
func OpenBackend(ctx context.Context, cfg Config, log *logger.Logger) (storage.Backend, error) {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("storage backend selection failed", "backend", cfg.Backend, "error", err)
		return nil, err
	}
	if cfg.Migrate {
		if err := b.Migrate(ctx); err != nil {
			_ = b.Close(ctx)
			return nil, &BootstrapError{Code: BootstrapErrorMigrateFailed, Component: cfg.Backend, Cause: err}
		}
	}
	log.Info("storage backend ready", "backend", cfg.Backend, "kind", b.Kind(), "migrated", cfg.Migrate)
	return b, nil
}

func openBackend(ctx context.Context, cfg Config, log *logger.Logger) (storage.Backend, error) {
	connectErr := func(err error) error {
		return &BootstrapError{Code: BootstrapErrorConnectFailed, Component: cfg.Backend, Cause: err}
	}
	switch cfg.Backend {
	case BackendPostgres:
		b, err := relational.Open(relational.Config{
			Driver:        relational.DriverPostgres,
			DSN:           cfg.Postgres.DSN,
			MaxOpenConns:  cfg.Postgres.MaxOpenConns,
			SlowThreshold: cfg.Postgres.SlowThreshold,
		}, log)
		if err != nil {
			return nil, connectErr(err)
		}
		return b, nil
	case BackendSQLite:
		b, err := relational.Open(relational.Config{Driver: relational.DriverSQLite, DSN: cfg.SQLite.Path}, log)
		if err != nil {
			return nil, connectErr(err)
		}
		return b, nil
	case BackendDynamoDB:
		client, err := dynamodb.NewClient(ctx, dynamodb.Config{
			Region:          cfg.DynamoDB.Region,
			Endpoint:        cfg.DynamoDB.Endpoint,
			AccessKeyID:     cfg.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.DynamoDB.SecretAccessKey,
		}, log)
		if err != nil {
			return nil, connectErr(err)
		}
		b, err := widecolumn.New(client, cfg.DynamoDB.Table, log)
		if err != nil {
			return nil, connectErr(err)
		}
		return b, nil
	case BackendNeo4j:
		client, err := neo4jdb.New(ctx, neo4jdb.Config{
			URI:      cfg.Neo4j.URI,
			User:     cfg.Neo4j.User,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
			Timeout:  cfg.Neo4j.Timeout,
		}, log)
		if err != nil {
			return nil, connectErr(err)
		}
		b, err := graphdb.New(client, log)
		if err != nil {
			_ = client.Close(ctx)
			return nil, connectErr(err)
		}
		return b, nil
	default:
		return nil, &BootstrapError{
			Code:      BootstrapErrorInvalidBackend,
			Component: cfg.Backend,
			Cause:     fmt.Errorf("unsupported backend %q", cfg.Backend),
		}
	}
}

// OpenIDGenerator returns the configured generator. The Sequence is set only for redis
// so the caller can ping and close it.
func OpenIDGenerator(ctx context.Context, cfg Config, log *logger.Logger) (idgen.Generator, *idgen.Sequence, error) {
	switch cfg.IDGen {
	case IDGenRedis:
		seq, err := idgen.NewRedisSequence(ctx, idgen.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			Node:     cfg.Redis.Node,
		}, log)
		if err != nil {
			return nil, nil, &BootstrapError{Code: BootstrapErrorIDGenFailed, Component: IDGenRedis, Cause: err}
		}
		return seq, seq, nil
	case IDGenUUID, "":
		return idgen.NewUUID(), nil, nil
	default:
		return nil, nil, &BootstrapError{
			Code:      BootstrapErrorIDGenFailed,
			Component: cfg.IDGen,
			Cause:     fmt.Errorf("unsupported id generator %q", cfg.IDGen),
		}
	}
}
