package catalog

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

// ItemFactory creates and looks up items of one kind by name.
type ItemFactory struct {
	c    *Catalog
	kind domain.Kind
	log  *logger.Logger
}

func (f *ItemFactory) Kind() domain.Kind { return f.kind }

// Create registers a new item. The name must be unused for this kind.
func (f *ItemFactory) Create(ctx context.Context, name string) (domain.Item, error) {
	const op = "catalog.CreateItem"
	if strings.TrimSpace(name) == "" {
		return domain.Item{}, domain.Errorf(domain.CodeInvalidArgument, op, "%s name is required", f.kind)
	}
	item := domain.Item{ID: domain.ItemID(f.kind, name), Name: name}
	err := f.c.run(ctx, "Create"+string(f.kind), f.attrs(name), func(ctx context.Context, conn storage.Conn) error {
		if err := conn.Insert(ctx, storage.NameTable(f.kind), storage.Row{"name": name, "item_id": item.ID}); err != nil {
			if domain.IsCode(err, domain.CodeAlreadyExists) {
				return domain.NewError(domain.CodeAlreadyExists, op, string(f.kind)+" "+name+" already exists", err)
			}
			return err
		}
		return f.c.items.CreateItem(ctx, conn, f.kind, item.ID)
	})
	if err != nil {
		return domain.Item{}, err
	}
	f.log.Info("created item", "name", name, "item_id", item.ID)
	return item, nil
}

// Retrieve looks an item up by name.
func (f *ItemFactory) Retrieve(ctx context.Context, name string) (domain.Item, error) {
	var item domain.Item
	err := f.c.run(ctx, "Retrieve"+string(f.kind), f.attrs(name), func(ctx context.Context, conn storage.Conn) error {
		var err error
		item, err = f.lookup(ctx, conn, name)
		return err
	})
	if err != nil {
		return domain.Item{}, err
	}
	f.log.Info("retrieved item", "name", name, "item_id", item.ID)
	return item, nil
}

// Leaves returns the current frontier of the named item's history.
func (f *ItemFactory) Leaves(ctx context.Context, name string) ([]string, error) {
	var leaves []string
	err := f.c.run(ctx, "Leaves"+string(f.kind), f.attrs(name), func(ctx context.Context, conn storage.Conn) error {
		item, err := f.lookup(ctx, conn, name)
		if err != nil {
			return err
		}
		leaves, err = f.c.items.Leaves(ctx, conn, item.ID)
		return err
	})
	return leaves, err
}

func (f *ItemFactory) lookup(ctx context.Context, conn storage.Conn, name string) (domain.Item, error) {
	rows, err := conn.Select(ctx, storage.NameTable(f.kind), storage.Row{"name": name})
	if err != nil {
		return domain.Item{}, err
	}
	if len(rows) == 0 {
		return domain.Item{}, domain.Errorf(domain.CodeNotFound, "catalog.RetrieveItem", "%s %s not found", f.kind, name)
	}
	return domain.Item{ID: rows[0].String("item_id"), Name: name}, nil
}

func (f *ItemFactory) attrs(name string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("kind", string(f.kind)), attribute.String("name", name)}
}

type NodeFactory struct{ items *ItemFactory }

func (f *NodeFactory) Create(ctx context.Context, name string) (domain.Node, error) {
	it, err := f.items.Create(ctx, name)
	return domain.Node(it), err
}

func (f *NodeFactory) Retrieve(ctx context.Context, name string) (domain.Node, error) {
	it, err := f.items.Retrieve(ctx, name)
	return domain.Node(it), err
}

type EdgeFactory struct{ items *ItemFactory }

func (f *EdgeFactory) Create(ctx context.Context, name string) (domain.Edge, error) {
	it, err := f.items.Create(ctx, name)
	return domain.Edge(it), err
}

func (f *EdgeFactory) Retrieve(ctx context.Context, name string) (domain.Edge, error) {
	it, err := f.items.Retrieve(ctx, name)
	return domain.Edge(it), err
}

type GraphFactory struct{ items *ItemFactory }

func (f *GraphFactory) Create(ctx context.Context, name string) (domain.Graph, error) {
	it, err := f.items.Create(ctx, name)
	return domain.Graph(it), err
}

func (f *GraphFactory) Retrieve(ctx context.Context, name string) (domain.Graph, error) {
	it, err := f.items.Retrieve(ctx, name)
	return domain.Graph(it), err
}

type StructureFactory struct{ items *ItemFactory }

func (f *StructureFactory) Create(ctx context.Context, name string) (domain.Structure, error) {
	it, err := f.items.Create(ctx, name)
	return domain.Structure(it), err
}

func (f *StructureFactory) Retrieve(ctx context.Context, name string) (domain.Structure, error) {
	it, err := f.items.Retrieve(ctx, name)
	return domain.Structure(it), err
}

type LineageEdgeFactory struct{ items *ItemFactory }

func (f *LineageEdgeFactory) Create(ctx context.Context, name string) (domain.LineageEdge, error) {
	it, err := f.items.Create(ctx, name)
	return domain.LineageEdge(it), err
}

func (f *LineageEdgeFactory) Retrieve(ctx context.Context, name string) (domain.LineageEdge, error) {
	it, err := f.items.Retrieve(ctx, name)
	return domain.LineageEdge(it), err
}
