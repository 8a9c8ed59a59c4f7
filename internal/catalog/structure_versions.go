package catalog

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/data/versions"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

// StructureVersionFactory manages schema snapshots. Structure versions carry no tags.
type StructureVersionFactory struct {
	c   *Catalog
	log *logger.Logger
}

func (f *StructureVersionFactory) Create(ctx context.Context, structureID string, attributes map[string]domain.ValueType, parentIDs ...string) (domain.StructureVersion, error) {
	const op = "catalog.CreateStructureVersion"
	attrs := make(map[string]domain.ValueType, len(attributes))
	for k, vt := range attributes {
		if strings.TrimSpace(k) == "" {
			return domain.StructureVersion{}, domain.Errorf(domain.CodeInvalidArgument, op, "attribute name is required")
		}
		parsed, err := domain.ParseValueType(string(vt))
		if err != nil {
			return domain.StructureVersion{}, err
		}
		attrs[k] = parsed
	}

	created, err := f.c.createVersion(ctx, versionPlan{
		kind:    domain.KindStructure,
		itemID:  structureID,
		parents: parentIDs,
		write: func(ctx context.Context, conn storage.Conn, id string) error {
			if err := conn.Insert(ctx, storage.StructureVersions, storage.Row{"id": id, "structure_id": structureID}); err != nil {
				return err
			}
			for _, k := range sortedAttrKeys(attrs) {
				if err := conn.Insert(ctx, storage.StructureVersionAttributes, storage.Row{
					"structure_version_id": id, "key": k, "type": string(attrs[k]),
				}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return domain.StructureVersion{}, err
	}
	f.log.Info("created structure version", "version_id", created.id, "structure_id", structureID, "attributes", len(attrs))
	return domain.StructureVersion{ID: created.id, StructureID: structureID, Attributes: attrs, ParentIDs: created.parents}, nil
}

func (f *StructureVersionFactory) Retrieve(ctx context.Context, id string) (domain.StructureVersion, error) {
	var out domain.StructureVersion
	err := f.c.run(ctx, "RetrieveStructureVersion", []attribute.KeyValue{attribute.String("version_id", id)}, func(ctx context.Context, conn storage.Conn) error {
		v, err := f.c.loadVersion(ctx, conn, domain.KindStructure, storage.StructureVersions, id)
		if err != nil {
			return err
		}
		attrs, err := versions.StructureAttributes(ctx, conn, id)
		if err != nil {
			return err
		}
		out = domain.StructureVersion{ID: id, StructureID: v.row.String("structure_id"), Attributes: attrs, ParentIDs: v.parents}
		return nil
	})
	if err != nil {
		return domain.StructureVersion{}, err
	}
	f.log.Info("retrieved structure version", "version_id", id, "structure_id", out.StructureID)
	return out, nil
}

func (f *StructureVersionFactory) TransitiveClosure(ctx context.Context, id string) ([]string, error) {
	return f.c.transitiveClosure(ctx, domain.KindStructure, id)
}

func sortedAttrKeys(m map[string]domain.ValueType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
