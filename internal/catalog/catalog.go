// Package catalog exposes the typed factories for items and versions of every kind.
// Each operation runs on one storage connection that is committed on success and
// aborted on failure.
package catalog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/data/versions"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/idgen"
	"github.com/yungbote/ground-catalog/internal/platform/ctxutil"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

const tracerName = "github.com/yungbote/ground-catalog/internal/catalog"

// Catalog bundles the factories over one backend.
type Catalog struct {
	tx     storage.TxRunner
	ids    idgen.Generator
	items  *versions.ItemStore
	rich   *versions.RichVersionStore
	log    *logger.Logger
	tracer trace.Tracer

	Nodes               *NodeFactory
	NodeVersions        *NodeVersionFactory
	Edges               *EdgeFactory
	EdgeVersions        *EdgeVersionFactory
	Graphs              *GraphFactory
	GraphVersions       *GraphVersionFactory
	Structures          *StructureFactory
	StructureVersions   *StructureVersionFactory
	LineageEdges        *LineageEdgeFactory
	LineageEdgeVersions *LineageEdgeVersionFactory
}

func New(tx storage.TxRunner, ids idgen.Generator, log *logger.Logger) (*Catalog, error) {
	if tx == nil {
		return nil, fmt.Errorf("catalog: tx runner required")
	}
	if ids == nil {
		return nil, fmt.Errorf("catalog: id generator required")
	}
	if log == nil {
		log = logger.Nop()
	}
	c := &Catalog{
		tx:     tx,
		ids:    ids,
		items:  versions.NewItemStore(log),
		rich:   versions.NewRichVersionStore(log),
		log:    log.With("component", "Catalog", "backend", string(tx.Backend().Kind())),
		tracer: otel.Tracer(tracerName),
	}
	c.Nodes = &NodeFactory{items: c.itemFactory(domain.KindNode)}
	c.Edges = &EdgeFactory{items: c.itemFactory(domain.KindEdge)}
	c.Graphs = &GraphFactory{items: c.itemFactory(domain.KindGraph)}
	c.Structures = &StructureFactory{items: c.itemFactory(domain.KindStructure)}
	c.LineageEdges = &LineageEdgeFactory{items: c.itemFactory(domain.KindLineageEdge)}
	c.NodeVersions = &NodeVersionFactory{c: c, log: c.log.With("factory", "NodeVersionFactory")}
	c.EdgeVersions = &EdgeVersionFactory{c: c, log: c.log.With("factory", "EdgeVersionFactory")}
	c.GraphVersions = &GraphVersionFactory{c: c, log: c.log.With("factory", "GraphVersionFactory")}
	c.StructureVersions = &StructureVersionFactory{c: c, log: c.log.With("factory", "StructureVersionFactory")}
	c.LineageEdgeVersions = &LineageEdgeVersionFactory{c: c, log: c.log.With("factory", "LineageEdgeVersionFactory")}
	return c, nil
}

// Items returns the untyped item factory for a kind.
func (c *Catalog) Items(kind domain.Kind) (*ItemFactory, error) {
	if !kind.Valid() {
		return nil, domain.Errorf(domain.CodeInvalidArgument, "catalog.Items", "unknown kind %q", kind)
	}
	return c.itemFactory(kind), nil
}

func (c *Catalog) itemFactory(kind domain.Kind) *ItemFactory {
	return &ItemFactory{c: c, kind: kind, log: c.log.With("factory", string(kind)+"Factory")}
}

// ReachableFrom returns every version reachable from versionID over successor and
// lineage links, the start included, sorted.
func (c *Catalog) ReachableFrom(ctx context.Context, versionID string) ([]string, error) {
	var ids []string
	err := c.run(ctx, "ReachableFrom", []attribute.KeyValue{attribute.String("version_id", versionID)}, func(ctx context.Context, conn storage.Conn) error {
		if _, _, err := c.items.VersionItem(ctx, conn, versionID); err != nil {
			return err
		}
		var err error
		ids, err = conn.Reachable(ctx, versionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return domain.SortedIDs(ids), nil
}

// run opens a span and a connection around fn.
func (c *Catalog) run(ctx context.Context, name string, attrs []attribute.KeyValue, fn func(ctx context.Context, conn storage.Conn) error) error {
	ctx, span := c.tracer.Start(ctx, "catalog."+name, trace.WithAttributes(attrs...))
	defer span.End()

	err := c.tx.InTx(ctx, func(conn storage.Conn) error { return fn(ctx, conn) })
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.CodeOf(err)))
		fields := append([]any{"op", name, "code", domain.CodeOf(err), "error", err}, ctxutil.LogFields(ctx)...)
		c.log.Warn("operation aborted", fields...)
	}
	return err
}
