package domain

import "sort"

// Item is the identity and history container shared by every kind.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type (
	Node        Item
	Edge        Item
	Graph       Item
	Structure   Item
	LineageEdge Item
)

// RichVersion is the tag, schema and reference payload carried by every non-structure version.
// Nil maps and pointers mean "not present"; an empty map is a present, empty collection.
type RichVersion struct {
	Tags               map[string]Tag    `json:"tags"`
	StructureVersionID *string           `json:"structureVersionId,omitempty"`
	Reference          *string           `json:"reference,omitempty"`
	Parameters         map[string]string `json:"parameters"`
}

type NodeVersion struct {
	ID        string   `json:"id"`
	NodeID    string   `json:"nodeId"`
	ParentIDs []string `json:"parentIds,omitempty"`
	RichVersion
}

type EdgeVersion struct {
	ID                string   `json:"id"`
	EdgeID            string   `json:"edgeId"`
	FromNodeVersionID string   `json:"fromNodeVersionId"`
	ToNodeVersionID   string   `json:"toNodeVersionId"`
	ParentIDs         []string `json:"parentIds,omitempty"`
	RichVersion
}

type GraphVersion struct {
	ID             string   `json:"id"`
	GraphID        string   `json:"graphId"`
	NodeVersionIDs []string `json:"nodeVersionIds"`
	ParentIDs      []string `json:"parentIds,omitempty"`
	RichVersion
}

// StructureVersion is an immutable schema: attribute name to declared type.
type StructureVersion struct {
	ID          string               `json:"id"`
	StructureID string               `json:"structureId"`
	Attributes  map[string]ValueType `json:"attributes"`
	ParentIDs   []string             `json:"parentIds,omitempty"`
}

// LineageEdgeVersion records provenance between two versions of any kind.
type LineageEdgeVersion struct {
	ID            string   `json:"id"`
	LineageEdgeID string   `json:"lineageEdgeId"`
	FromID        string   `json:"fromId"`
	ToID          string   `json:"toId"`
	ParentIDs     []string `json:"parentIds,omitempty"`
	RichVersion
}

// SortedIDs returns a sorted, de-duplicated copy; nil when ids is empty.
func SortedIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
