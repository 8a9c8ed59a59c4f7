package widecolumn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/data/storage/storagetest"
	"github.com/yungbote/ground-catalog/internal/data/storage/widecolumn/widecolumntest"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

func newFakeBackend(t *testing.T) (*Backend, *widecolumntest.Fake) {
	t.Helper()
	fake := widecolumntest.NewFake()
	b, err := New(fake, "ground", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Migrate(context.Background()))
	return b, fake
}

func TestConformance(t *testing.T) {
	b, _ := newFakeBackend(t)
	storagetest.RunConformance(t, b, storagetest.Capabilities{Atomic: false, Reachable: false})
}

func TestMigrateCreatesOnce(t *testing.T) {
	b, fake := newFakeBackend(t)
	require.NoError(t, b.Migrate(context.Background()))
	require.Equal(t, 1, fake.Calls["CreateTable"])
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, "ground", nil)
	require.Error(t, err)
	_, err = New(widecolumntest.NewFake(), " ", nil)
	require.Error(t, err)
}

func TestSelectRequiresPartition(t *testing.T) {
	b, _ := newFakeBackend(t)
	ctx := context.Background()
	c, err := b.Begin(ctx)
	require.NoError(t, err)

	_, err = c.Select(ctx, storage.Versions, storage.Row{"item_id": "Nodes.n"})
	require.True(t, domain.IsCode(err, domain.CodeUnsupported), "got %v", err)
	require.NoError(t, c.Commit(ctx))
}

func TestRowsLandUnderPrefixedPartition(t *testing.T) {
	b, fake := newFakeBackend(t)
	ctx := context.Background()
	c, err := b.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, storage.Items, storage.Row{"id": "Nodes.a", "kind": "Node"}))
	require.NoError(t, c.Insert(ctx, storage.Nodes, storage.Row{"name": "Nodes.a", "item_id": "Nodes.a"}))
	require.NoError(t, c.Commit(ctx))
	require.Equal(t, 2, fake.Len("ground"))

	c, err = b.Begin(ctx)
	require.NoError(t, err)
	rows, err := c.Select(ctx, storage.Items, storage.Row{"id": "Nodes.a"})
	require.NoError(t, err)
	require.Equal(t, []storage.Row{{"id": "Nodes.a", "kind": "Node"}}, rows)
	rows, err = c.Select(ctx, storage.Items, storage.Row{"id": "Nodes.a", "kind": "Edge"})
	require.NoError(t, err)
	require.Empty(t, rows)
	require.NoError(t, c.Commit(ctx))
}

func TestDeleteByPartitionRemovesAllMatches(t *testing.T) {
	b, fake := newFakeBackend(t)
	ctx := context.Background()
	c, err := b.Begin(ctx)
	require.NoError(t, err)
	for _, k := range []string{"a", "b"} {
		require.NoError(t, c.Insert(ctx, storage.RichVersionParameters, storage.Row{"version_id": "v", "key": k, "value": "1"}))
	}
	require.NoError(t, c.Insert(ctx, storage.RichVersionParameters, storage.Row{"version_id": "w", "key": "a", "value": "1"}))
	require.NoError(t, c.Delete(ctx, storage.RichVersionParameters, storage.Row{"version_id": "v"}))
	require.NoError(t, c.Commit(ctx))
	require.Equal(t, 1, fake.Len("ground"))
}

func TestClientErrorsMapToBackendFailure(t *testing.T) {
	b, fake := newFakeBackend(t)
	fake.Fail["GetItem"] = errors.New("throttled")
	ctx := context.Background()
	c, err := b.Begin(ctx)
	require.NoError(t, err)
	_, err = c.Select(ctx, storage.Items, storage.Row{"id": "x"})
	require.True(t, domain.IsCode(err, domain.CodeBackendFailure), "got %v", err)
}

func TestMissingTableIsBackendFailure(t *testing.T) {
	b, err := New(widecolumntest.NewFake(), "absent", logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	c, err := b.Begin(ctx)
	require.NoError(t, err)
	err = c.Insert(ctx, storage.Items, storage.Row{"id": "Nodes.a", "kind": "Node"})
	require.True(t, domain.IsCode(err, domain.CodeBackendFailure), "got %v", err)
}
