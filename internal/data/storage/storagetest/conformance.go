// Package storagetest holds the contract suite every storage backend must pass and
// fault-injection helpers for connection-discipline tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

// Capabilities describes what a backend promises beyond the common contract.
type Capabilities struct {
	// Atomic backends discard every write of an aborted connection.
	Atomic bool
	// Reachable backends answer transitive-closure queries.
	Reachable bool
}

// RunConformance exercises the storage contract against a migrated backend.
func RunConformance(t *testing.T, b storage.Backend, caps Capabilities) {
	t.Helper()
	ctx := context.Background()

	t.Run("InsertSelectRoundTrip", func(t *testing.T) {
		id := unique("v")
		ref := "s3://bucket/key"
		exec(t, b, func(c storage.Conn) {
			require.NoError(t, c.Insert(ctx, storage.RichVersions, storage.Row{
				"id": id, "reference": ref, "has_tags": "false", "has_parameters": "true",
			}))
		})
		rows := query(t, b, storage.RichVersions, storage.Row{"id": id})
		require.Len(t, rows, 1)
		require.Equal(t, id, rows[0].String("id"))
		require.Equal(t, ref, rows[0].String("reference"))
		require.Nil(t, rows[0].StringPtr("structure_version_id"))
		require.Equal(t, "true", rows[0].String("has_parameters"))
	})

	t.Run("DuplicateKeyIsAlreadyExists", func(t *testing.T) {
		id := unique("Nodes.dup")
		exec(t, b, func(c storage.Conn) {
			require.NoError(t, c.Insert(ctx, storage.Items, storage.Row{"id": id, "kind": "Node"}))
		})
		c, err := b.Begin(ctx)
		require.NoError(t, err)
		err = c.Insert(ctx, storage.Items, storage.Row{"id": id, "kind": "Node"})
		require.True(t, domain.IsCode(err, domain.CodeAlreadyExists), "got %v", err)
		require.NoError(t, c.Abort(ctx))
	})

	t.Run("MissingRequiredColumn", func(t *testing.T) {
		c, err := b.Begin(ctx)
		require.NoError(t, err)
		err = c.Insert(ctx, storage.Items, storage.Row{"id": unique("Nodes.x")})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)
		require.NoError(t, c.Abort(ctx))
	})

	t.Run("PartitionSelectOrderedByKey", func(t *testing.T) {
		vid := unique("v")
		exec(t, b, func(c storage.Conn) {
			for _, k := range []string{"b", "c", "a"} {
				require.NoError(t, c.Insert(ctx, storage.RichVersionTags, storage.Row{
					"version_id": vid, "key": k, "value": k + "-val", "value_type": "STRING",
				}))
			}
			require.NoError(t, c.Insert(ctx, storage.RichVersionTags, storage.Row{
				"version_id": vid, "key": "flag",
			}))
		})
		rows := query(t, b, storage.RichVersionTags, storage.Row{"version_id": vid})
		require.Len(t, rows, 4)
		keys := make([]string, 0, len(rows))
		for _, r := range rows {
			keys = append(keys, r.String("key"))
		}
		require.Equal(t, []string{"a", "b", "c", "flag"}, keys)
		require.Nil(t, rows[3].StringPtr("value"))

		one := query(t, b, storage.RichVersionTags, storage.Row{"version_id": vid, "key": "b"})
		require.Len(t, one, 1)
		require.Equal(t, "b-val", one[0].String("value"))
	})

	t.Run("DeleteRemovesOnlyMatchingRows", func(t *testing.T) {
		item := unique("Nodes.leafy")
		exec(t, b, func(c storage.Conn) {
			require.NoError(t, c.Insert(ctx, storage.ItemLeaves, storage.Row{"item_id": item, "version_id": "v1"}))
			require.NoError(t, c.Insert(ctx, storage.ItemLeaves, storage.Row{"item_id": item, "version_id": "v2"}))
		})
		exec(t, b, func(c storage.Conn) {
			require.NoError(t, c.Delete(ctx, storage.ItemLeaves, storage.Row{"item_id": item, "version_id": "v1"}))
			require.NoError(t, c.Delete(ctx, storage.ItemLeaves, storage.Row{"item_id": item, "version_id": "missing"}))
		})
		rows := query(t, b, storage.ItemLeaves, storage.Row{"item_id": item})
		require.Len(t, rows, 1)
		require.Equal(t, "v2", rows[0].String("version_id"))
	})

	t.Run("AbortSemantics", func(t *testing.T) {
		id := unique("Nodes.aborted")
		c, err := b.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Insert(ctx, storage.Items, storage.Row{"id": id, "kind": "Node"}))
		require.NoError(t, c.Abort(ctx))

		rows := query(t, b, storage.Items, storage.Row{"id": id})
		if caps.Atomic {
			require.Empty(t, rows)
		} else {
			// writes land immediately; abort cannot take them back
			require.Len(t, rows, 1)
		}
	})

	t.Run("Reachable", func(t *testing.T) {
		a, bb, c, d := unique("A"), unique("B"), unique("C"), unique("D")
		item := unique("Nodes.chain")
		exec(t, b, func(conn storage.Conn) {
			for _, v := range []string{a, bb, c, d} {
				require.NoError(t, conn.Insert(ctx, storage.Versions, storage.Row{"id": v, "item_id": item, "kind": "Node"}))
			}
			require.NoError(t, conn.Insert(ctx, storage.VersionSuccessors, storage.Row{"from_id": a, "to_id": bb}))
			require.NoError(t, conn.Insert(ctx, storage.VersionSuccessors, storage.Row{"from_id": bb, "to_id": c}))
			require.NoError(t, conn.Insert(ctx, storage.LineageEdgeVersions, storage.Row{
				"id": unique("L"), "lineage_edge_id": "LineageEdges.l", "from_id": c, "to_id": d,
			}))
		})

		conn, err := b.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = conn.Abort(ctx) }()

		got, err := conn.Reachable(ctx, a)
		if !caps.Reachable {
			require.True(t, domain.IsCode(err, domain.CodeUnsupported), "got %v", err)
			return
		}
		require.NoError(t, err)
		require.ElementsMatch(t, []string{a, bb, c, d}, got)

		got, err = conn.Reachable(ctx, d)
		require.NoError(t, err)
		require.Equal(t, []string{d}, got)
	})

	t.Run("ConnUnusableAfterCommit", func(t *testing.T) {
		c, err := b.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Commit(ctx))
		_, err = c.Select(ctx, storage.Items, storage.Row{"id": "x"})
		require.Error(t, err)
	})
}

func exec(t *testing.T, b storage.Backend, fn func(c storage.Conn)) {
	t.Helper()
	c, err := b.Begin(context.Background())
	require.NoError(t, err)
	fn(c)
	require.NoError(t, c.Commit(context.Background()))
}

func query(t *testing.T, b storage.Backend, table *storage.Table, where storage.Row) []storage.Row {
	t.Helper()
	c, err := b.Begin(context.Background())
	require.NoError(t, err)
	rows, err := c.Select(context.Background(), table, where)
	require.NoError(t, err)
	require.NoError(t, c.Commit(context.Background()))
	return rows
}

func unique(prefix string) string {
	return prefix + "." + uuid.NewString()
}
