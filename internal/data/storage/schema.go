package storage

import (
	"sort"

	"github.com/yungbote/ground-catalog/internal/domain"
)

// Link marks a table whose rows connect two versions. Reachability follows From to To.
type Link struct {
	From     string
	To       string
	Relation string
}

// Table is the backend-neutral description of one logical table.
// Key columns come first in Columns; the first key column is the partition column
// for backends that need one.
type Table struct {
	Name     string
	Label    string
	Key      []string
	Columns  []string
	Optional []string
	Link     *Link
}

func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func (t *Table) IsOptional(col string) bool {
	for _, c := range t.Optional {
		if c == col {
			return true
		}
	}
	return false
}

func (t *Table) IsKey(col string) bool {
	for _, c := range t.Key {
		if c == col {
			return true
		}
	}
	return false
}

// PartitionColumn is the first key column.
func (t *Table) PartitionColumn() string { return t.Key[0] }

// CheckInsert rejects rows with unknown columns or missing required values.
func (t *Table) CheckInsert(row Row) error {
	const op = "storage.CheckInsert"
	for col := range row {
		if !t.HasColumn(col) {
			return domain.Errorf(domain.CodeInvalidArgument, op, "table %s has no column %q", t.Name, col)
		}
	}
	for _, col := range t.Columns {
		if t.IsOptional(col) {
			continue
		}
		if row.StringPtr(col) == nil {
			return domain.Errorf(domain.CodeInvalidArgument, op, "table %s requires column %q", t.Name, col)
		}
	}
	return nil
}

// CheckWhere rejects predicates on unknown columns.
func (t *Table) CheckWhere(where Row) error {
	for col := range where {
		if !t.HasColumn(col) {
			return domain.Errorf(domain.CodeInvalidArgument, "storage.CheckWhere", "table %s has no column %q", t.Name, col)
		}
	}
	return nil
}

// Matches reports whether row satisfies every equality predicate in where.
func Matches(row, where Row) bool {
	for col := range where {
		want := where.StringPtr(col)
		got := row.StringPtr(col)
		if want == nil || got == nil {
			if want != got {
				return false
			}
			continue
		}
		if *want != *got {
			return false
		}
	}
	return true
}

// SortRows orders rows by the table's key columns.
func SortRows(t *Table, rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, col := range t.Key {
			a, b := rows[i].String(col), rows[j].String(col)
			if a != b {
				return a < b
			}
		}
		return false
	})
}

// Project copies the table's columns out of a raw record, dropping anything else.
func Project(t *Table, raw map[string]any) Row {
	src := Row(raw)
	row := make(Row, len(t.Columns))
	for _, col := range t.Columns {
		if p := src.StringPtr(col); p != nil {
			row[col] = *p
		} else {
			row[col] = nil
		}
	}
	return row
}

var (
	Items = &Table{
		Name: "items", Label: "Item",
		Key: []string{"id"}, Columns: []string{"id", "kind"},
	}
	Nodes        = nameTable("nodes", "NodeName")
	Edges        = nameTable("edges", "EdgeName")
	Graphs       = nameTable("graphs", "GraphName")
	Structures   = nameTable("structures", "StructureName")
	LineageEdges = nameTable("lineage_edges", "LineageEdgeName")

	Versions = &Table{
		Name: "versions", Label: "Version",
		Key: []string{"id"}, Columns: []string{"id", "item_id", "kind"},
	}
	VersionSuccessors = &Table{
		Name: "version_successors", Label: "VersionSuccessor",
		Key: []string{"to_id", "from_id"}, Columns: []string{"to_id", "from_id"},
		Link: &Link{From: "from_id", To: "to_id", Relation: "SUCCEEDED_BY"},
	}
	ItemLeaves = &Table{
		Name: "item_leaves", Label: "ItemLeaf",
		Key: []string{"item_id", "version_id"}, Columns: []string{"item_id", "version_id"},
	}

	RichVersions = &Table{
		Name: "rich_versions", Label: "RichVersion",
		Key:      []string{"id"},
		Columns:  []string{"id", "structure_version_id", "reference", "has_tags", "has_parameters"},
		Optional: []string{"structure_version_id", "reference"},
	}
	RichVersionTags = &Table{
		Name: "rich_version_tags", Label: "RichVersionTag",
		Key:      []string{"version_id", "key"},
		Columns:  []string{"version_id", "key", "value", "value_type"},
		Optional: []string{"value", "value_type"},
	}
	RichVersionParameters = &Table{
		Name: "rich_version_parameters", Label: "RichVersionParameter",
		Key: []string{"version_id", "key"}, Columns: []string{"version_id", "key", "value"},
	}

	NodeVersions = &Table{
		Name: "node_versions", Label: "NodeVersion",
		Key: []string{"id"}, Columns: []string{"id", "node_id"},
	}
	EdgeVersions = &Table{
		Name: "edge_versions", Label: "EdgeVersion",
		Key:     []string{"id"},
		Columns: []string{"id", "edge_id", "from_node_version_id", "to_node_version_id"},
	}
	GraphVersions = &Table{
		Name: "graph_versions", Label: "GraphVersion",
		Key: []string{"id"}, Columns: []string{"id", "graph_id"},
	}
	GraphVersionMembers = &Table{
		Name: "graph_version_members", Label: "GraphVersionMember",
		Key: []string{"graph_version_id", "node_version_id"}, Columns: []string{"graph_version_id", "node_version_id"},
	}
	StructureVersions = &Table{
		Name: "structure_versions", Label: "StructureVersion",
		Key: []string{"id"}, Columns: []string{"id", "structure_id"},
	}
	StructureVersionAttributes = &Table{
		Name: "structure_version_attributes", Label: "StructureVersionAttribute",
		Key: []string{"structure_version_id", "key"}, Columns: []string{"structure_version_id", "key", "type"},
	}
	LineageEdgeVersions = &Table{
		Name: "lineage_edge_versions", Label: "LineageEdgeVersion",
		Key:     []string{"id"},
		Columns: []string{"id", "lineage_edge_id", "from_id", "to_id"},
		Link:    &Link{From: "from_id", To: "to_id", Relation: "LINEAGE"},
	}
)

// Tables lists every table in creation order.
var Tables = []*Table{
	Items, Nodes, Edges, Graphs, Structures, LineageEdges,
	Versions, VersionSuccessors, ItemLeaves,
	RichVersions, RichVersionTags, RichVersionParameters,
	NodeVersions, EdgeVersions, GraphVersions, GraphVersionMembers,
	StructureVersions, StructureVersionAttributes, LineageEdgeVersions,
}

// LinkTables lists the tables reachability walks over.
func LinkTables() []*Table {
	var out []*Table
	for _, t := range Tables {
		if t.Link != nil {
			out = append(out, t)
		}
	}
	return out
}

// NameTable returns the per-kind name index table.
func NameTable(kind domain.Kind) *Table {
	switch kind {
	case domain.KindNode:
		return Nodes
	case domain.KindEdge:
		return Edges
	case domain.KindGraph:
		return Graphs
	case domain.KindStructure:
		return Structures
	case domain.KindLineageEdge:
		return LineageEdges
	default:
		return nil
	}
}

func nameTable(name, label string) *Table {
	return &Table{
		Name: name, Label: label,
		Key: []string{"name"}, Columns: []string{"name", "item_id"},
	}
}
