package catalog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type GraphVersionFactory struct {
	c   *Catalog
	log *logger.Logger
}

// Create snapshots the set of node versions that belong to a graph.
func (f *GraphVersionFactory) Create(ctx context.Context, graphID string, nodeVersionIDs []string, rv domain.RichVersion, parentIDs ...string) (domain.GraphVersion, error) {
	const op = "catalog.CreateGraphVersion"
	members := domain.SortedIDs(nodeVersionIDs)
	created, err := f.c.createVersion(ctx, versionPlan{
		kind:    domain.KindGraph,
		itemID:  graphID,
		parents: parentIDs,
		rich:    &rv,
		validate: func(ctx context.Context, conn storage.Conn) error {
			for _, m := range members {
				if err := f.c.requireVersion(ctx, conn, op, "member", m, domain.KindNode); err != nil {
					return err
				}
			}
			return nil
		},
		write: func(ctx context.Context, conn storage.Conn, id string) error {
			if err := conn.Insert(ctx, storage.GraphVersions, storage.Row{"id": id, "graph_id": graphID}); err != nil {
				return err
			}
			for _, m := range members {
				if err := conn.Insert(ctx, storage.GraphVersionMembers, storage.Row{"graph_version_id": id, "node_version_id": m}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return domain.GraphVersion{}, err
	}
	f.log.Info("created graph version", "version_id", created.id, "graph_id", graphID, "members", len(members))
	return domain.GraphVersion{
		ID:             created.id,
		GraphID:        graphID,
		NodeVersionIDs: members,
		ParentIDs:      created.parents,
		RichVersion:    created.rich,
	}, nil
}

func (f *GraphVersionFactory) Retrieve(ctx context.Context, id string) (domain.GraphVersion, error) {
	var out domain.GraphVersion
	err := f.c.run(ctx, "RetrieveGraphVersion", []attribute.KeyValue{attribute.String("version_id", id)}, func(ctx context.Context, conn storage.Conn) error {
		v, err := f.c.loadVersion(ctx, conn, domain.KindGraph, storage.GraphVersions, id)
		if err != nil {
			return err
		}
		rows, err := conn.Select(ctx, storage.GraphVersionMembers, storage.Row{"graph_version_id": id})
		if err != nil {
			return err
		}
		members := make([]string, 0, len(rows))
		for _, r := range rows {
			members = append(members, r.String("node_version_id"))
		}
		out = domain.GraphVersion{
			ID:             id,
			GraphID:        v.row.String("graph_id"),
			NodeVersionIDs: domain.SortedIDs(members),
			ParentIDs:      v.parents,
			RichVersion:    v.rich,
		}
		return nil
	})
	if err != nil {
		return domain.GraphVersion{}, err
	}
	f.log.Info("retrieved graph version", "version_id", id, "graph_id", out.GraphID)
	return out, nil
}

func (f *GraphVersionFactory) TransitiveClosure(ctx context.Context, id string) ([]string, error) {
	return f.c.transitiveClosure(ctx, domain.KindGraph, id)
}
