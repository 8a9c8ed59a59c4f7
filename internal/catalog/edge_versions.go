package catalog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type EdgeVersionFactory struct {
	c   *Catalog
	log *logger.Logger
}

// Create adds a version to an edge connecting two existing node versions.
func (f *EdgeVersionFactory) Create(ctx context.Context, edgeID, fromNodeVersionID, toNodeVersionID string, rv domain.RichVersion, parentIDs ...string) (domain.EdgeVersion, error) {
	const op = "catalog.CreateEdgeVersion"
	created, err := f.c.createVersion(ctx, versionPlan{
		kind:    domain.KindEdge,
		itemID:  edgeID,
		parents: parentIDs,
		rich:    &rv,
		validate: func(ctx context.Context, conn storage.Conn) error {
			if err := f.c.requireVersion(ctx, conn, op, "from", fromNodeVersionID, domain.KindNode); err != nil {
				return err
			}
			return f.c.requireVersion(ctx, conn, op, "to", toNodeVersionID, domain.KindNode)
		},
		write: func(ctx context.Context, conn storage.Conn, id string) error {
			return conn.Insert(ctx, storage.EdgeVersions, storage.Row{
				"id":                   id,
				"edge_id":              edgeID,
				"from_node_version_id": fromNodeVersionID,
				"to_node_version_id":   toNodeVersionID,
			})
		},
	})
	if err != nil {
		return domain.EdgeVersion{}, err
	}
	f.log.Info("created edge version", "version_id", created.id, "edge_id", edgeID)
	return domain.EdgeVersion{
		ID:                created.id,
		EdgeID:            edgeID,
		FromNodeVersionID: fromNodeVersionID,
		ToNodeVersionID:   toNodeVersionID,
		ParentIDs:         created.parents,
		RichVersion:       created.rich,
	}, nil
}

func (f *EdgeVersionFactory) Retrieve(ctx context.Context, id string) (domain.EdgeVersion, error) {
	var out domain.EdgeVersion
	err := f.c.run(ctx, "RetrieveEdgeVersion", []attribute.KeyValue{attribute.String("version_id", id)}, func(ctx context.Context, conn storage.Conn) error {
		v, err := f.c.loadVersion(ctx, conn, domain.KindEdge, storage.EdgeVersions, id)
		if err != nil {
			return err
		}
		out = domain.EdgeVersion{
			ID:                id,
			EdgeID:            v.row.String("edge_id"),
			FromNodeVersionID: v.row.String("from_node_version_id"),
			ToNodeVersionID:   v.row.String("to_node_version_id"),
			ParentIDs:         v.parents,
			RichVersion:       v.rich,
		}
		return nil
	})
	if err != nil {
		return domain.EdgeVersion{}, err
	}
	f.log.Info("retrieved edge version", "version_id", id, "edge_id", out.EdgeID)
	return out, nil
}

func (f *EdgeVersionFactory) TransitiveClosure(ctx context.Context, id string) ([]string, error) {
	return f.c.transitiveClosure(ctx, domain.KindEdge, id)
}
