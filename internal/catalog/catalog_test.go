package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/data/storage/relational"
	"github.com/yungbote/ground-catalog/internal/data/storage/storagetest"
	"github.com/yungbote/ground-catalog/internal/data/storage/widecolumn"
	"github.com/yungbote/ground-catalog/internal/data/storage/widecolumn/widecolumntest"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/idgen"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

var dbSeq atomic.Int64

func sqliteBackend(t *testing.T) storage.Backend {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_%d?mode=memory&cache=shared", dbSeq.Add(1))
	b, err := relational.Open(relational.Config{Driver: relational.DriverSQLite, DSN: dsn, Silent: true}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	require.NoError(t, b.Migrate(context.Background()))
	return b
}

func dynamoBackend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := widecolumn.New(widecolumntest.NewFake(), "ground", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Migrate(context.Background()))
	return b
}

func newCatalog(t *testing.T, b storage.Backend) *Catalog {
	t.Helper()
	c, err := New(storage.NewTxRunner(b, logger.Nop(), nil), idgen.NewUUID(), logger.Nop())
	require.NoError(t, err)
	return c
}

// eachCatalog runs fn on every backend available without external services.
func eachCatalog(t *testing.T, fn func(t *testing.T, c *Catalog, reachable bool)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newCatalog(t, sqliteBackend(t)), true) })
	t.Run("dynamodb", func(t *testing.T) { fn(t, newCatalog(t, dynamoBackend(t)), false) })
}

func strPtr(s string) *string { return &s }

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, idgen.NewUUID(), nil)
	require.Error(t, err)
	_, err = New(storage.NewTxRunner(dynamoBackend(t), nil, nil), nil, nil)
	require.Error(t, err)
}

func TestItemNameUniqueness(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, _ bool) {
		ctx := context.Background()
		n, err := c.Nodes.Create(ctx, "sales")
		require.NoError(t, err)
		require.Equal(t, domain.Node{ID: "Nodes.sales", Name: "sales"}, n)

		_, err = c.Nodes.Create(ctx, "sales")
		require.True(t, domain.IsCode(err, domain.CodeAlreadyExists), "got %v", err)

		// names are scoped per kind
		e, err := c.Edges.Create(ctx, "sales")
		require.NoError(t, err)
		require.Equal(t, "Edges.sales", e.ID)

		got, err := c.Nodes.Retrieve(ctx, "sales")
		require.NoError(t, err)
		require.Equal(t, n, got)

		_, err = c.Graphs.Retrieve(ctx, "sales")
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		_, err = c.Structures.Create(ctx, " ")
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)
	})
}

func TestNodeVersionRoundTripAndLeaves(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, _ bool) {
		ctx := context.Background()
		n, err := c.Nodes.Create(ctx, "orders")
		require.NoError(t, err)

		v1, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{
			Tags:       map[string]domain.Tag{"rows": {Key: "rows", Value: 10, ValueType: domain.TypeInteger}},
			Reference:  strPtr("s3://orders/v1"),
			Parameters: map[string]string{"format": "csv"},
		})
		require.NoError(t, err)
		require.Nil(t, v1.ParentIDs)
		require.Equal(t, n.ID, v1.NodeID)

		got, err := c.NodeVersions.Retrieve(ctx, v1.ID)
		require.NoError(t, err)
		require.Equal(t, v1, got)

		a, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{}, v1.ID)
		require.NoError(t, err)
		b, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{}, v1.ID)
		require.NoError(t, err)

		leaves, err := c.Nodes.items.Leaves(ctx, "orders")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{a.ID, b.ID}, leaves)

		// branch: naming one leaf keeps the other
		br, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{}, a.ID)
		require.NoError(t, err)
		leaves, err = c.Nodes.items.Leaves(ctx, "orders")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{br.ID, b.ID}, leaves)

		// merge: no parent succeeds the whole frontier
		m, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{br.ID, b.ID}, m.ParentIDs)
		leaves, err = c.Nodes.items.Leaves(ctx, "orders")
		require.NoError(t, err)
		require.Equal(t, []string{m.ID}, leaves)

		got, err = c.NodeVersions.Retrieve(ctx, m.ID)
		require.NoError(t, err)
		require.Equal(t, m, got)
	})
}

func TestVersionCreationFailures(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, _ bool) {
		ctx := context.Background()
		n, err := c.Nodes.Create(ctx, "n")
		require.NoError(t, err)
		other, err := c.Nodes.Create(ctx, "other")
		require.NoError(t, err)
		ov, err := c.NodeVersions.Create(ctx, other.ID, domain.RichVersion{})
		require.NoError(t, err)

		_, err = c.NodeVersions.Create(ctx, "Nodes.ghost", domain.RichVersion{})
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		_, err = c.NodeVersions.Create(ctx, "ghost", domain.RichVersion{})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)

		_, err = c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{}, "Nodes.n.missing")
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		_, err = c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{}, ov.ID)
		require.True(t, domain.IsCode(err, domain.CodeInvalidParent), "got %v", err)

		_, err = c.EdgeVersions.Create(ctx, n.ID, ov.ID, ov.ID, domain.RichVersion{})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)

		_, err = c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{Parameters: map[string]string{"": "x"}})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)

		_, err = c.NodeVersions.Retrieve(ctx, "Nodes.n.nope")
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		// rejected creations left no trace
		leaves, err := c.Nodes.items.Leaves(ctx, "n")
		require.NoError(t, err)
		require.Empty(t, leaves)
	})
}

func TestEdgeVersionEndpoints(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, _ bool) {
		ctx := context.Background()
		n, err := c.Nodes.Create(ctx, "n")
		require.NoError(t, err)
		from, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		to, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		e, err := c.Edges.Create(ctx, "flows")
		require.NoError(t, err)

		ev, err := c.EdgeVersions.Create(ctx, e.ID, from.ID, to.ID, domain.RichVersion{
			Tags: map[string]domain.Tag{"weight": {Key: "weight", Value: int64(3), ValueType: domain.TypeInteger}},
		})
		require.NoError(t, err)
		got, err := c.EdgeVersions.Retrieve(ctx, ev.ID)
		require.NoError(t, err)
		require.Equal(t, ev, got)

		_, err = c.EdgeVersions.Create(ctx, e.ID, from.ID, "Nodes.n.missing", domain.RichVersion{})
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		// an edge version is not a node version
		_, err = c.EdgeVersions.Create(ctx, e.ID, ev.ID, to.ID, domain.RichVersion{})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)

		_, err = c.NodeVersions.Retrieve(ctx, ev.ID)
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)
	})
}

func TestGraphVersionMembers(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, _ bool) {
		ctx := context.Background()
		n, err := c.Nodes.Create(ctx, "n")
		require.NoError(t, err)
		v1, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		v2, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		g, err := c.Graphs.Create(ctx, "pipeline")
		require.NoError(t, err)

		gv, err := c.GraphVersions.Create(ctx, g.ID, []string{v2.ID, v1.ID, v2.ID}, domain.RichVersion{})
		require.NoError(t, err)
		require.Equal(t, domain.SortedIDs([]string{v1.ID, v2.ID}), gv.NodeVersionIDs)

		got, err := c.GraphVersions.Retrieve(ctx, gv.ID)
		require.NoError(t, err)
		require.Equal(t, gv, got)

		_, err = c.GraphVersions.Create(ctx, g.ID, []string{"Nodes.n.missing"}, domain.RichVersion{})
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)
	})
}

func TestStructureSchemaValidation(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, _ bool) {
		ctx := context.Background()
		s, err := c.Structures.Create(ctx, "schema")
		require.NoError(t, err)
		sv, err := c.StructureVersions.Create(ctx, s.ID, map[string]domain.ValueType{"x": "integer"})
		require.NoError(t, err)
		require.Equal(t, map[string]domain.ValueType{"x": domain.TypeInteger}, sv.Attributes)

		got, err := c.StructureVersions.Retrieve(ctx, sv.ID)
		require.NoError(t, err)
		require.Equal(t, sv, got)

		_, err = c.StructureVersions.Create(ctx, s.ID, map[string]domain.ValueType{"y": "FLOAT"})
		require.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "got %v", err)

		n, err := c.Nodes.Create(ctx, "typed")
		require.NoError(t, err)
		_, err = c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{
			StructureVersionID: strPtr(sv.ID),
			Tags:               map[string]domain.Tag{"x": {Key: "x", Value: int64(5), ValueType: domain.TypeString}},
		})
		require.True(t, domain.IsCode(err, domain.CodeTypeMismatch), "got %v", err)

		ok, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{
			StructureVersionID: strPtr(sv.ID),
			Tags:               map[string]domain.Tag{"x": {Key: "x", Value: int64(5), ValueType: domain.TypeInteger}},
		})
		require.NoError(t, err)
		back, err := c.NodeVersions.Retrieve(ctx, ok.ID)
		require.NoError(t, err)
		require.Equal(t, ok, back)
		require.Equal(t, int64(5), back.Tags["x"].Value)

		// the mismatched attempt did not enter the history
		require.Nil(t, ok.ParentIDs)
	})
}

func TestReachability(t *testing.T) {
	eachCatalog(t, func(t *testing.T, c *Catalog, reachable bool) {
		ctx := context.Background()
		n, err := c.Nodes.Create(ctx, "chain")
		require.NoError(t, err)
		a, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		b, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		cv, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)

		got, err := c.NodeVersions.TransitiveClosure(ctx, a.ID)
		if !reachable {
			require.True(t, domain.IsCode(err, domain.CodeUnsupported), "got %v", err)
			return
		}
		require.NoError(t, err)
		require.Equal(t, domain.SortedIDs([]string{a.ID, b.ID, cv.ID}), got)

		got, err = c.ReachableFrom(ctx, cv.ID)
		require.NoError(t, err)
		require.Equal(t, []string{cv.ID}, got)

		// lineage extends reachability across items
		out, err := c.Nodes.Create(ctx, "report")
		require.NoError(t, err)
		r1, err := c.NodeVersions.Create(ctx, out.ID, domain.RichVersion{})
		require.NoError(t, err)
		le, err := c.LineageEdges.Create(ctx, "etl")
		require.NoError(t, err)
		lv, err := c.LineageEdgeVersions.Create(ctx, le.ID, cv.ID, r1.ID, domain.RichVersion{Reference: strPtr("job-17")})
		require.NoError(t, err)

		got, err = c.ReachableFrom(ctx, b.ID)
		require.NoError(t, err)
		require.Equal(t, domain.SortedIDs([]string{b.ID, cv.ID, r1.ID}), got)

		back, err := c.LineageEdgeVersions.Retrieve(ctx, lv.ID)
		require.NoError(t, err)
		require.Equal(t, lv, back)

		_, err = c.ReachableFrom(ctx, "Nodes.chain.missing")
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

		_, err = c.EdgeVersions.TransitiveClosure(ctx, a.ID)
		require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)
	})
}

func TestVersionIDsAreUniqueAcrossKinds(t *testing.T) {
	c := newCatalog(t, sqliteBackend(t))
	ctx := context.Background()
	n, err := c.Nodes.Create(ctx, "n")
	require.NoError(t, err)
	s, err := c.Structures.Create(ctx, "s")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		nv, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
		require.NoError(t, err)
		sv, err := c.StructureVersions.Create(ctx, s.ID, nil)
		require.NoError(t, err)
		for _, id := range []string{nv.ID, sv.ID} {
			require.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	}
}

func TestConcurrentWritersLinearizeOnRelational(t *testing.T) {
	c := newCatalog(t, sqliteBackend(t))
	ctx := context.Background()
	n, err := c.Nodes.Create(ctx, "busy")
	require.NoError(t, err)

	const writers = 8
	var eg errgroup.Group
	for i := 0; i < writers; i++ {
		eg.Go(func() error {
			_, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
			return err
		})
	}
	require.NoError(t, eg.Wait())

	leaves, err := c.Nodes.items.Leaves(ctx, "busy")
	require.NoError(t, err)
	require.Len(t, leaves, 1)

	// walking back from the single leaf visits every version exactly once
	count := 0
	cur := leaves[0]
	for {
		v, err := c.NodeVersions.Retrieve(ctx, cur)
		require.NoError(t, err)
		count++
		if len(v.ParentIDs) == 0 {
			break
		}
		require.Len(t, v.ParentIDs, 1)
		cur = v.ParentIDs[0]
	}
	require.Equal(t, writers, count)
}

func TestFailedWriteAbortsWithoutPartialState(t *testing.T) {
	fb := storagetest.NewFaultBackend(sqliteBackend(t))
	c, err := New(storage.NewTxRunner(fb, logger.Nop(), nil), idgen.NewUUID(), logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := c.Nodes.Create(ctx, "fragile")
	require.NoError(t, err)
	v1, err := c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{})
	require.NoError(t, err)

	fb.FailInsertOn = storage.ItemLeaves.Name
	_, err = c.NodeVersions.Create(ctx, n.ID, domain.RichVersion{Tags: map[string]domain.Tag{}})
	require.True(t, domain.IsCode(err, domain.CodeBackendFailure), "got %v", err)
	fb.FailInsertOn = ""

	require.Zero(t, fb.Outstanding())
	leaves, err := c.Nodes.items.Leaves(ctx, "fragile")
	require.NoError(t, err)
	require.Equal(t, []string{v1.ID}, leaves)

	fb.FailCommit = true
	_, err = c.Nodes.Create(ctx, "never")
	require.True(t, domain.IsCode(err, domain.CodeBackendFailure), "got %v", err)
	fb.FailCommit = false
	_, err = c.Nodes.Retrieve(ctx, "never")
	require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)
	require.Zero(t, fb.Outstanding())

	fb.FailBegin = true
	_, err = c.Nodes.Retrieve(ctx, "fragile")
	require.True(t, domain.IsCode(err, domain.CodeBackendFailure), "got %v", err)
}
