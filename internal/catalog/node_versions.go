package catalog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type NodeVersionFactory struct {
	c   *Catalog
	log *logger.Logger
}

// Create adds a version to a node. Without parents it succeeds the node's current leaves.
func (f *NodeVersionFactory) Create(ctx context.Context, nodeID string, rv domain.RichVersion, parentIDs ...string) (domain.NodeVersion, error) {
	created, err := f.c.createVersion(ctx, versionPlan{
		kind:    domain.KindNode,
		itemID:  nodeID,
		parents: parentIDs,
		rich:    &rv,
		write: func(ctx context.Context, conn storage.Conn, id string) error {
			return conn.Insert(ctx, storage.NodeVersions, storage.Row{"id": id, "node_id": nodeID})
		},
	})
	if err != nil {
		return domain.NodeVersion{}, err
	}
	f.log.Info("created node version", "version_id", created.id, "node_id", nodeID)
	return domain.NodeVersion{ID: created.id, NodeID: nodeID, ParentIDs: created.parents, RichVersion: created.rich}, nil
}

func (f *NodeVersionFactory) Retrieve(ctx context.Context, id string) (domain.NodeVersion, error) {
	var out domain.NodeVersion
	err := f.c.run(ctx, "RetrieveNodeVersion", []attribute.KeyValue{attribute.String("version_id", id)}, func(ctx context.Context, conn storage.Conn) error {
		v, err := f.c.loadVersion(ctx, conn, domain.KindNode, storage.NodeVersions, id)
		if err != nil {
			return err
		}
		out = domain.NodeVersion{ID: id, NodeID: v.row.String("node_id"), ParentIDs: v.parents, RichVersion: v.rich}
		return nil
	})
	if err != nil {
		return domain.NodeVersion{}, err
	}
	f.log.Info("retrieved node version", "version_id", id, "node_id", out.NodeID)
	return out, nil
}

// TransitiveClosure lists every version reachable from a node version, itself included.
func (f *NodeVersionFactory) TransitiveClosure(ctx context.Context, id string) ([]string, error) {
	return f.c.transitiveClosure(ctx, domain.KindNode, id)
}
