package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/ground-catalog/internal/domain"
)

func TestTablesKeyColumnsLeadColumns(t *testing.T) {
	seen := map[string]bool{}
	for _, tbl := range Tables {
		require.False(t, seen[tbl.Name], "duplicate table %s", tbl.Name)
		seen[tbl.Name] = true
		require.NotEmpty(t, tbl.Label, tbl.Name)
		for i, k := range tbl.Key {
			require.Equal(t, k, tbl.Columns[i], "table %s", tbl.Name)
			require.False(t, tbl.IsOptional(k), "table %s key %s optional", tbl.Name, k)
		}
	}
}

func TestLinkTables(t *testing.T) {
	links := LinkTables()
	require.Equal(t, []*Table{VersionSuccessors, LineageEdgeVersions}, links)
}

func TestNameTable(t *testing.T) {
	for _, k := range domain.Kinds {
		require.NotNil(t, NameTable(k), k)
	}
	require.Nil(t, NameTable("Widget"))
}

func TestCheckInsert(t *testing.T) {
	require.NoError(t, RichVersionTags.CheckInsert(Row{"version_id": "v", "key": "k"}))
	err := RichVersionTags.CheckInsert(Row{"version_id": "v"})
	require.True(t, domain.IsCode(err, domain.CodeInvalidArgument))
	err = Items.CheckInsert(Row{"id": "x", "kind": "Node", "extra": "y"})
	require.True(t, domain.IsCode(err, domain.CodeInvalidArgument))
}

func TestMatchesTreatsNilAsNull(t *testing.T) {
	row := Row{"version_id": "v", "key": "k", "value": nil}
	require.True(t, Matches(row, Row{"version_id": "v"}))
	require.True(t, Matches(row, Row{"value": nil}))
	require.False(t, Matches(row, Row{"value": "x"}))
	require.False(t, Matches(row, Row{"key": "other"}))
}

func TestSortRowsAndProject(t *testing.T) {
	rows := []Row{
		{"to_id": "b", "from_id": "2"},
		{"to_id": "a", "from_id": "9"},
		{"to_id": "b", "from_id": "1"},
	}
	SortRows(VersionSuccessors, rows)
	require.Equal(t, "a", rows[0].String("to_id"))
	require.Equal(t, "1", rows[1].String("from_id"))
	require.Equal(t, "2", rows[2].String("from_id"))

	p := Project(Items, map[string]any{"id": "Nodes.n", "kind": "Node", "PK": "items#Nodes.n"})
	require.Equal(t, Row{"id": "Nodes.n", "kind": "Node"}, p)
}
