package domain

import "strings"

// Kind names one of the catalog item families.
type Kind string

const (
	KindNode        Kind = "Node"
	KindEdge        Kind = "Edge"
	KindGraph       Kind = "Graph"
	KindStructure   Kind = "Structure"
	KindLineageEdge Kind = "LineageEdge"
)

var Kinds = []Kind{KindNode, KindEdge, KindGraph, KindStructure, KindLineageEdge}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Plural is the item id prefix for the kind ("Nodes", "LineageEdges").
func (k Kind) Plural() string { return string(k) + "s" }

// Rich reports whether versions of this kind carry tags and references.
func (k Kind) Rich() bool { return k != KindStructure }

// ItemID derives the item id for a name. Lookups by name rely on this being deterministic.
func ItemID(kind Kind, name string) string {
	return kind.Plural() + "." + name
}

// ParseItemID splits an item id into its kind and name.
func ParseItemID(itemID string) (Kind, string, error) {
	const op = "domain.ParseItemID"
	prefix, name, ok := strings.Cut(itemID, ".")
	if !ok || name == "" {
		return "", "", Errorf(CodeInvalidArgument, op, "malformed item id %q", itemID)
	}
	for _, k := range Kinds {
		if k.Plural() == prefix {
			return k, name, nil
		}
	}
	return "", "", Errorf(CodeInvalidArgument, op, "unknown kind in item id %q", itemID)
}
