package versions

import (
	"context"
	"sort"
	"strings"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

const (
	flagTrue  = "true"
	flagFalse = "false"
)

// RichVersionStore persists tags, schema binding, reference and parameters of a version.
type RichVersionStore struct {
	log *logger.Logger
}

func NewRichVersionStore(log *logger.Logger) *RichVersionStore {
	if log == nil {
		log = logger.Nop()
	}
	return &RichVersionStore{log: log.With("store", "RichVersionStore")}
}

// Attach validates rv and writes it for versionID. When a structure version is bound,
// every declared attribute must appear as a tag of the declared type; nothing is written
// on a mismatch. The returned value carries normalized tags stamped with versionID.
func (s *RichVersionStore) Attach(ctx context.Context, c storage.Conn, versionID string, rv domain.RichVersion) (domain.RichVersion, error) {
	const op = "versions.AttachRichVersion"
	out := domain.RichVersion{
		StructureVersionID: rv.StructureVersionID,
		Reference:          rv.Reference,
	}
	if rv.Tags != nil {
		out.Tags = make(map[string]domain.Tag, len(rv.Tags))
		for key, tag := range rv.Tags {
			if tag.Key == "" {
				tag.Key = key
			}
			if tag.Key != key {
				return domain.RichVersion{}, domain.Errorf(domain.CodeInvalidArgument, op, "tag stored under %q is keyed %q", key, tag.Key)
			}
			tag = tag.Normalize()
			tag.VersionID = versionID
			out.Tags[key] = tag
		}
	}
	if rv.Parameters != nil {
		out.Parameters = make(map[string]string, len(rv.Parameters))
		for k, v := range rv.Parameters {
			if strings.TrimSpace(k) == "" {
				return domain.RichVersion{}, domain.Errorf(domain.CodeInvalidArgument, op, "parameter key is required")
			}
			out.Parameters[k] = v
		}
	}

	if rv.StructureVersionID != nil {
		schema, err := StructureAttributes(ctx, c, *rv.StructureVersionID)
		if err != nil {
			return domain.RichVersion{}, err
		}
		if err := checkSchema(op, *rv.StructureVersionID, schema, out.Tags); err != nil {
			return domain.RichVersion{}, err
		}
	}
	for _, key := range sortedKeys(out.Tags) {
		if err := out.Tags[key].Validate(); err != nil {
			return domain.RichVersion{}, err
		}
	}

	if err := c.Insert(ctx, storage.RichVersions, storage.Row{
		"id":                   versionID,
		"structure_version_id": rv.StructureVersionID,
		"reference":            rv.Reference,
		"has_tags":             flag(out.Tags != nil),
		"has_parameters":       flag(out.Parameters != nil),
	}); err != nil {
		return domain.RichVersion{}, err
	}
	for _, key := range sortedKeys(out.Tags) {
		tag := out.Tags[key]
		var vt *string
		if tag.ValueType != "" {
			t := string(tag.ValueType)
			vt = &t
		}
		if err := c.Insert(ctx, storage.RichVersionTags, storage.Row{
			"version_id": versionID,
			"key":        key,
			"value":      tag.EncodeValue(),
			"value_type": vt,
		}); err != nil {
			return domain.RichVersion{}, err
		}
	}
	for _, key := range sortedKeys(out.Parameters) {
		if err := c.Insert(ctx, storage.RichVersionParameters, storage.Row{
			"version_id": versionID, "key": key, "value": out.Parameters[key],
		}); err != nil {
			return domain.RichVersion{}, err
		}
	}
	return out, nil
}

// Retrieve rebuilds exactly what Attach stored: absent collections come back nil.
func (s *RichVersionStore) Retrieve(ctx context.Context, c storage.Conn, versionID string) (domain.RichVersion, error) {
	const op = "versions.RetrieveRichVersion"
	rows, err := c.Select(ctx, storage.RichVersions, storage.Row{"id": versionID})
	if err != nil {
		return domain.RichVersion{}, err
	}
	if len(rows) == 0 {
		return domain.RichVersion{}, domain.Errorf(domain.CodeNotFound, op, "rich version %s not found", versionID)
	}
	head := rows[0]
	rv := domain.RichVersion{
		StructureVersionID: head.StringPtr("structure_version_id"),
		Reference:          head.StringPtr("reference"),
	}

	if head.String("has_tags") == flagTrue {
		tagRows, err := c.Select(ctx, storage.RichVersionTags, storage.Row{"version_id": versionID})
		if err != nil {
			return domain.RichVersion{}, err
		}
		rv.Tags = make(map[string]domain.Tag, len(tagRows))
		for _, r := range tagRows {
			vt := domain.ValueType(r.String("value_type"))
			val, err := domain.DecodeTagValue(r.StringPtr("value"), vt)
			if err != nil {
				return domain.RichVersion{}, err
			}
			key := r.String("key")
			rv.Tags[key] = domain.Tag{VersionID: versionID, Key: key, Value: val, ValueType: vt}
		}
	}
	if head.String("has_parameters") == flagTrue {
		paramRows, err := c.Select(ctx, storage.RichVersionParameters, storage.Row{"version_id": versionID})
		if err != nil {
			return domain.RichVersion{}, err
		}
		rv.Parameters = make(map[string]string, len(paramRows))
		for _, r := range paramRows {
			rv.Parameters[r.String("key")] = r.String("value")
		}
	}
	return rv, nil
}

// StructureAttributes loads the declared attribute types of a structure version.
func StructureAttributes(ctx context.Context, c storage.Conn, structureVersionID string) (map[string]domain.ValueType, error) {
	const op = "versions.StructureAttributes"
	head, err := c.Select(ctx, storage.StructureVersions, storage.Row{"id": structureVersionID})
	if err != nil {
		return nil, err
	}
	if len(head) == 0 {
		return nil, domain.Errorf(domain.CodeNotFound, op, "structure version %s not found", structureVersionID)
	}
	rows, err := c.Select(ctx, storage.StructureVersionAttributes, storage.Row{"structure_version_id": structureVersionID})
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]domain.ValueType, len(rows))
	for _, r := range rows {
		attrs[r.String("key")] = domain.ValueType(r.String("type"))
	}
	return attrs, nil
}

func checkSchema(op, structureVersionID string, schema map[string]domain.ValueType, tags map[string]domain.Tag) error {
	for _, key := range sortedKeys(schema) {
		want := schema[key]
		tag, ok := tags[key]
		if !ok || tag.Value == nil {
			return domain.Errorf(domain.CodeTypeMismatch, op,
				"structure version %s requires tag %q of type %s", structureVersionID, key, want)
		}
		if tag.ValueType != want {
			return domain.Errorf(domain.CodeTypeMismatch, op,
				"tag %q declared %s but structure version %s expects %s", key, tag.ValueType, structureVersionID, want)
		}
		if err := (domain.Tag{Key: key, Value: tag.Value, ValueType: want}).Validate(); err != nil {
			return domain.NewError(domain.CodeTypeMismatch, op,
				"tag "+key+" value does not match type "+string(want), err)
		}
	}
	return nil
}

func flag(b bool) string {
	if b {
		return flagTrue
	}
	return flagFalse
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
