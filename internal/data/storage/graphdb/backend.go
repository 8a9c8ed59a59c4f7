// Package graphdb realizes the storage contract on Neo4j.
//
// Each logical table maps to one vertex label and each row to one vertex
// carrying its columns as properties plus a row_key property that joins the
// key columns. Link tables additionally connect the two :Version vertices they
// name, so reachability is a variable-length path match.
package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
	"github.com/yungbote/ground-catalog/internal/platform/neo4jdb"
)

type Backend struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

var _ storage.Backend = (*Backend)(nil)

func New(client *neo4jdb.Client, log *logger.Logger) (*Backend, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("graphdb: neo4j client required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Backend{client: client, log: log.With("backend", string(storage.KindGraph))}, nil
}

func (b *Backend) Kind() storage.Kind { return storage.KindGraph }

func (b *Backend) Begin(ctx context.Context) (storage.Conn, error) {
	session := b.client.Session(ctx, neo4j.AccessModeWrite)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return nil, domain.Wrap(domain.CodeBackendFailure, "graphdb.Begin", err)
	}
	return &conn{session: session, tx: tx, log: b.log}, nil
}

// Migrate installs one uniqueness constraint per label plus a lookup index on version ids.
func (b *Backend) Migrate(ctx context.Context) error {
	session := b.client.Session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, q := range schemaStatements() {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			return mapError("graphdb.Migrate", nil, err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return mapError("graphdb.Migrate", nil, err)
		}
	}
	b.log.Info("graph constraints ready", "labels", len(storage.Tables))
	return nil
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Close(ctx)
}

func schemaStatements() []string {
	stmts := make([]string, 0, len(storage.Tables)+1)
	for _, t := range storage.Tables {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE CONSTRAINT %s_row_key IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			t.Name, t.Label, propRowKey))
	}
	stmts = append(stmts, "CREATE INDEX version_id IF NOT EXISTS FOR (v:Version) ON (v.id)")
	return stmts
}
