package catalog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

// LineageEdgeVersionFactory records provenance between two versions of any kind.
type LineageEdgeVersionFactory struct {
	c   *Catalog
	log *logger.Logger
}

func (f *LineageEdgeVersionFactory) Create(ctx context.Context, lineageEdgeID, fromID, toID string, rv domain.RichVersion, parentIDs ...string) (domain.LineageEdgeVersion, error) {
	const op = "catalog.CreateLineageEdgeVersion"
	created, err := f.c.createVersion(ctx, versionPlan{
		kind:    domain.KindLineageEdge,
		itemID:  lineageEdgeID,
		parents: parentIDs,
		rich:    &rv,
		validate: func(ctx context.Context, conn storage.Conn) error {
			if err := f.c.requireVersion(ctx, conn, op, "from", fromID, ""); err != nil {
				return err
			}
			return f.c.requireVersion(ctx, conn, op, "to", toID, "")
		},
		write: func(ctx context.Context, conn storage.Conn, id string) error {
			return conn.Insert(ctx, storage.LineageEdgeVersions, storage.Row{
				"id": id, "lineage_edge_id": lineageEdgeID, "from_id": fromID, "to_id": toID,
			})
		},
	})
	if err != nil {
		return domain.LineageEdgeVersion{}, err
	}
	f.log.Info("created lineage edge version", "version_id", created.id, "lineage_edge_id", lineageEdgeID, "from", fromID, "to", toID)
	return domain.LineageEdgeVersion{
		ID:            created.id,
		LineageEdgeID: lineageEdgeID,
		FromID:        fromID,
		ToID:          toID,
		ParentIDs:     created.parents,
		RichVersion:   created.rich,
	}, nil
}

func (f *LineageEdgeVersionFactory) Retrieve(ctx context.Context, id string) (domain.LineageEdgeVersion, error) {
	var out domain.LineageEdgeVersion
	err := f.c.run(ctx, "RetrieveLineageEdgeVersion", []attribute.KeyValue{attribute.String("version_id", id)}, func(ctx context.Context, conn storage.Conn) error {
		v, err := f.c.loadVersion(ctx, conn, domain.KindLineageEdge, storage.LineageEdgeVersions, id)
		if err != nil {
			return err
		}
		out = domain.LineageEdgeVersion{
			ID:            id,
			LineageEdgeID: v.row.String("lineage_edge_id"),
			FromID:        v.row.String("from_id"),
			ToID:          v.row.String("to_id"),
			ParentIDs:     v.parents,
			RichVersion:   v.rich,
		}
		return nil
	})
	if err != nil {
		return domain.LineageEdgeVersion{}, err
	}
	f.log.Info("retrieved lineage edge version", "version_id", id, "lineage_edge_id", out.LineageEdgeID)
	return out, nil
}

func (f *LineageEdgeVersionFactory) TransitiveClosure(ctx context.Context, id string) ([]string, error) {
	return f.c.transitiveClosure(ctx, domain.KindLineageEdge, id)
}
