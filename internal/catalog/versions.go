package catalog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

// versionPlan describes one version creation. validate runs before any write;
// write persists the kind-specific rows.
type versionPlan struct {
	kind     domain.Kind
	itemID   string
	parents  []string
	rich     *domain.RichVersion
	validate func(ctx context.Context, conn storage.Conn) error
	write    func(ctx context.Context, conn storage.Conn, versionID string) error
}

type createdVersion struct {
	id      string
	parents []string
	rich    domain.RichVersion
}

// createVersion runs every check before the first write so that validation
// failures leave nothing behind even on backends without transactions.
func (c *Catalog) createVersion(ctx context.Context, p versionPlan) (createdVersion, error) {
	var out createdVersion
	attrs := []attribute.KeyValue{attribute.String("kind", string(p.kind)), attribute.String("item_id", p.itemID)}
	err := c.run(ctx, "Create"+string(p.kind)+"Version", attrs, func(ctx context.Context, conn storage.Conn) error {
		id, err := c.ids.GenerateID(ctx, p.itemID)
		if err != nil {
			return err
		}
		out.id = id

		if err := c.items.CheckVersion(ctx, conn, p.kind, p.itemID, id, p.parents); err != nil {
			return err
		}
		if p.validate != nil {
			if err := p.validate(ctx, conn); err != nil {
				return err
			}
		}
		if p.rich != nil {
			if out.rich, err = c.rich.Attach(ctx, conn, id, *p.rich); err != nil {
				return err
			}
		}
		if err := p.write(ctx, conn, id); err != nil {
			return err
		}
		out.parents, err = c.items.AddVersion(ctx, conn, p.kind, p.itemID, id, p.parents)
		return err
	})
	if err != nil {
		return createdVersion{}, err
	}
	return out, nil
}

type loadedVersion struct {
	itemID  string
	parents []string
	rich    domain.RichVersion
	row     storage.Row
}

// loadVersion reads the shared part of a version of the given kind plus its kind row.
func (c *Catalog) loadVersion(ctx context.Context, conn storage.Conn, kind domain.Kind, table *storage.Table, versionID string) (loadedVersion, error) {
	const op = "catalog.RetrieveVersion"
	itemID, gotKind, err := c.items.VersionItem(ctx, conn, versionID)
	if err != nil {
		return loadedVersion{}, err
	}
	if gotKind != kind {
		return loadedVersion{}, domain.Errorf(domain.CodeNotFound, op, "%s version %s not found", kind, versionID)
	}
	rows, err := conn.Select(ctx, table, storage.Row{"id": versionID})
	if err != nil {
		return loadedVersion{}, err
	}
	if len(rows) == 0 {
		return loadedVersion{}, domain.Errorf(domain.CodeNotFound, op, "%s version %s not found", kind, versionID)
	}
	out := loadedVersion{itemID: itemID, row: rows[0]}
	if kind.Rich() {
		if out.rich, err = c.rich.Retrieve(ctx, conn, versionID); err != nil {
			return loadedVersion{}, err
		}
	}
	if out.parents, err = c.items.Parents(ctx, conn, versionID); err != nil {
		return loadedVersion{}, err
	}
	return out, nil
}

// requireVersion checks that versionID exists and, when kind is set, is of that kind.
func (c *Catalog) requireVersion(ctx context.Context, conn storage.Conn, op, role, versionID string, kind domain.Kind) error {
	if versionID == "" {
		return domain.Errorf(domain.CodeInvalidArgument, op, "%s version id is required", role)
	}
	_, got, err := c.items.VersionItem(ctx, conn, versionID)
	if err != nil {
		if domain.IsCode(err, domain.CodeNotFound) {
			return domain.NewError(domain.CodeNotFound, op, role+" version "+versionID+" not found", err)
		}
		return err
	}
	if kind != "" && got != kind {
		return domain.Errorf(domain.CodeInvalidArgument, op, "%s version %s is a %s version, not a %s version", role, versionID, got, kind)
	}
	return nil
}

// transitiveClosure is ReachableFrom restricted to a start version of the given kind.
func (c *Catalog) transitiveClosure(ctx context.Context, kind domain.Kind, versionID string) ([]string, error) {
	var ids []string
	attrs := []attribute.KeyValue{attribute.String("kind", string(kind)), attribute.String("version_id", versionID)}
	err := c.run(ctx, "TransitiveClosure"+string(kind), attrs, func(ctx context.Context, conn storage.Conn) error {
		_, got, err := c.items.VersionItem(ctx, conn, versionID)
		if err != nil {
			return err
		}
		if got != kind {
			return domain.Errorf(domain.CodeNotFound, "catalog.TransitiveClosure", "%s version %s not found", kind, versionID)
		}
		ids, err = conn.Reachable(ctx, versionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return domain.SortedIDs(ids), nil
}
