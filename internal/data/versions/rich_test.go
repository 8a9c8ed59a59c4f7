package versions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

func strPtr(s string) *string { return &s }

func seedSchema(t *testing.T, b storage.Backend, id string, attrs map[string]domain.ValueType) {
	t.Helper()
	inConn(t, b, func(c storage.Conn) {
		ctx := context.Background()
		require.NoError(t, c.Insert(ctx, storage.StructureVersions, storage.Row{"id": id, "structure_id": "Structures.s"}))
		for k, vt := range attrs {
			require.NoError(t, c.Insert(ctx, storage.StructureVersionAttributes, storage.Row{
				"structure_version_id": id, "key": k, "type": string(vt),
			}))
		}
	})
}

func attach(b storage.Backend, versionID string, rv domain.RichVersion) (domain.RichVersion, error) {
	ctx := context.Background()
	c, err := b.Begin(ctx)
	if err != nil {
		return domain.RichVersion{}, err
	}
	out, err := NewRichVersionStore(nil).Attach(ctx, c, versionID, rv)
	if err != nil {
		_ = c.Abort(ctx)
		return domain.RichVersion{}, err
	}
	return out, c.Commit(ctx)
}

func retrieve(t *testing.T, b storage.Backend, versionID string) domain.RichVersion {
	t.Helper()
	var rv domain.RichVersion
	inConn(t, b, func(c storage.Conn) {
		var err error
		rv, err = NewRichVersionStore(nil).Retrieve(context.Background(), c, versionID)
		require.NoError(t, err)
	})
	return rv
}

func TestRichVersionRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, b storage.Backend) {
		in := domain.RichVersion{
			Tags: map[string]domain.Tag{
				"rows":  {Key: "rows", Value: 42, ValueType: domain.TypeInteger},
				"owner": {Value: "etl", ValueType: domain.TypeString},
				"pii":   {Key: "pii", Value: false, ValueType: domain.TypeBoolean},
				"flag":  {Key: "flag"},
			},
			Reference:  strPtr("s3://bucket/part-0"),
			Parameters: map[string]string{"format": "parquet"},
		}
		out, err := attach(b, "v1", in)
		require.NoError(t, err)
		require.Equal(t, int64(42), out.Tags["rows"].Value)
		require.Equal(t, "owner", out.Tags["owner"].Key)
		require.Equal(t, "v1", out.Tags["flag"].VersionID)

		require.Equal(t, out, retrieve(t, b, "v1"))
	})
}

func TestRichVersionAbsentVersusEmpty(t *testing.T) {
	eachBackend(t, func(t *testing.T, b storage.Backend) {
		_, err := attach(b, "absent", domain.RichVersion{})
		require.NoError(t, err)
		_, err = attach(b, "empty", domain.RichVersion{Tags: map[string]domain.Tag{}, Parameters: map[string]string{}})
		require.NoError(t, err)

		absent := retrieve(t, b, "absent")
		require.Nil(t, absent.Tags)
		require.Nil(t, absent.Parameters)
		require.Nil(t, absent.Reference)
		require.Nil(t, absent.StructureVersionID)

		empty := retrieve(t, b, "empty")
		require.NotNil(t, empty.Tags)
		require.Empty(t, empty.Tags)
		require.NotNil(t, empty.Parameters)
		require.Empty(t, empty.Parameters)
	})
}

func TestSchemaValidation(t *testing.T) {
	eachBackend(t, func(t *testing.T, b storage.Backend) {
		seedSchema(t, b, "sv1", map[string]domain.ValueType{"x": domain.TypeInteger})
		sv := strPtr("sv1")

		_, err := attach(b, "bad", domain.RichVersion{
			StructureVersionID: sv,
			Tags:               map[string]domain.Tag{"x": {Key: "x", Value: int64(5), ValueType: domain.TypeString}},
		})
		require.True(t, domain.IsCode(err, domain.CodeTypeMismatch), "got %v", err)

		_, err = attach(b, "wrong-go-type", domain.RichVersion{
			StructureVersionID: sv,
			Tags:               map[string]domain.Tag{"x": {Key: "x", Value: "5", ValueType: domain.TypeInteger}},
		})
		require.True(t, domain.IsCode(err, domain.CodeTypeMismatch), "got %v", err)

		_, err = attach(b, "missing", domain.RichVersion{StructureVersionID: sv, Tags: map[string]domain.Tag{}})
		require.True(t, domain.IsCode(err, domain.CodeTypeMismatch), "got %v", err)

		// nothing was written for rejected versions
		inConn(t, b, func(c storage.Conn) {
			rows, err := c.Select(context.Background(), storage.RichVersions, storage.Row{"id": "bad"})
			require.NoError(t, err)
			require.Empty(t, rows)
		})

		good := domain.RichVersion{
			StructureVersionID: sv,
			Tags: map[string]domain.Tag{
				"x":     {Key: "x", Value: int64(5), ValueType: domain.TypeInteger},
				"extra": {Key: "extra", Value: "ok", ValueType: domain.TypeString},
			},
		}
		out, err := attach(b, "good", good)
		require.NoError(t, err)
		require.Equal(t, out, retrieve(t, b, "good"))
		require.Equal(t, "sv1", *retrieve(t, b, "good").StructureVersionID)
	})
}

func TestAttachRejectsMalformedInput(t *testing.T) {
	eachBackend(t, func(t *testing.T, b storage.Backend) {
		_, err := attach(b, "v", domain.RichVersion{StructureVersionID: strPtr("nope")})
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		_, err = attach(b, "v", domain.RichVersion{Tags: map[string]domain.Tag{"a": {Key: "b"}}})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)

		_, err = attach(b, "v", domain.RichVersion{Tags: map[string]domain.Tag{"a": {Value: "x"}}})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)
	})
}

func TestAttachRejectsBlankParameterKeyBeforeWriting(t *testing.T) {
	eachBackend(t, func(t *testing.T, b storage.Backend) {
		for _, key := range []string{"", "  "} {
			_, err := attach(b, "blank", domain.RichVersion{Parameters: map[string]string{key: "x", "ok": "y"}})
			require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "key %q: %v", key, err)
		}
		inConn(t, b, func(c storage.Conn) {
			rows, err := c.Select(context.Background(), storage.RichVersions, storage.Row{"id": "blank"})
			require.NoError(t, err)
			require.Empty(t, rows)
			rows, err = c.Select(context.Background(), storage.RichVersionParameters, storage.Row{"version_id": "blank"})
			require.NoError(t, err)
			require.Empty(t, rows)
		})
	})
}

func TestRetrieveMissingIsNotFound(t *testing.T) {
	eachBackend(t, func(t *testing.T, b storage.Backend) {
		c, err := b.Begin(context.Background())
		require.NoError(t, err)
		_, err = NewRichVersionStore(nil).Retrieve(context.Background(), c, "ghost")
		require.True(t, domain.IsCode(err, domain.CodeNotFound))
		require.NoError(t, c.Abort(context.Background()))
	})
}
