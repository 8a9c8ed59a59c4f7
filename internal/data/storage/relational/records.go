package relational

import "github.com/yungbote/ground-catalog/internal/data/storage"

// GORM records mirror the logical tables column for column. Every value is TEXT;
// pointer fields are the nullable columns.

type itemRecord struct {
	ID   string `gorm:"column:id;type:text;primaryKey"`
	Kind string `gorm:"column:kind;type:text;not null"`
}

func (itemRecord) TableName() string { return storage.Items.Name }

// nameRecord backs every per-kind name index; the table is chosen at migration time.
type nameRecord struct {
	Name   string `gorm:"column:name;type:text;primaryKey"`
	ItemID string `gorm:"column:item_id;type:text;not null"`
}

type versionRecord struct {
	ID     string `gorm:"column:id;type:text;primaryKey"`
	ItemID string `gorm:"column:item_id;type:text;not null;index:idx_versions_item_id"`
	Kind   string `gorm:"column:kind;type:text;not null"`
}

func (versionRecord) TableName() string { return storage.Versions.Name }

type versionSuccessorRecord struct {
	ToID   string `gorm:"column:to_id;type:text;primaryKey"`
	FromID string `gorm:"column:from_id;type:text;primaryKey;index:idx_version_successors_from_id"`
}

func (versionSuccessorRecord) TableName() string { return storage.VersionSuccessors.Name }

type itemLeafRecord struct {
	ItemID    string `gorm:"column:item_id;type:text;primaryKey"`
	VersionID string `gorm:"column:version_id;type:text;primaryKey"`
}

func (itemLeafRecord) TableName() string { return storage.ItemLeaves.Name }

type richVersionRecord struct {
	ID                 string  `gorm:"column:id;type:text;primaryKey"`
	StructureVersionID *string `gorm:"column:structure_version_id;type:text"`
	Reference          *string `gorm:"column:reference;type:text"`
	HasTags            string  `gorm:"column:has_tags;type:text;not null"`
	HasParameters      string  `gorm:"column:has_parameters;type:text;not null"`
}

func (richVersionRecord) TableName() string { return storage.RichVersions.Name }

type richVersionTagRecord struct {
	VersionID string  `gorm:"column:version_id;type:text;primaryKey"`
	Key       string  `gorm:"column:key;type:text;primaryKey"`
	Value     *string `gorm:"column:value;type:text"`
	ValueType *string `gorm:"column:value_type;type:text"`
}

func (richVersionTagRecord) TableName() string { return storage.RichVersionTags.Name }

type richVersionParameterRecord struct {
	VersionID string `gorm:"column:version_id;type:text;primaryKey"`
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
}

func (richVersionParameterRecord) TableName() string { return storage.RichVersionParameters.Name }

type nodeVersionRecord struct {
	ID     string `gorm:"column:id;type:text;primaryKey"`
	NodeID string `gorm:"column:node_id;type:text;not null"`
}

func (nodeVersionRecord) TableName() string { return storage.NodeVersions.Name }

type edgeVersionRecord struct {
	ID                string `gorm:"column:id;type:text;primaryKey"`
	EdgeID            string `gorm:"column:edge_id;type:text;not null"`
	FromNodeVersionID string `gorm:"column:from_node_version_id;type:text;not null"`
	ToNodeVersionID   string `gorm:"column:to_node_version_id;type:text;not null"`
}

func (edgeVersionRecord) TableName() string { return storage.EdgeVersions.Name }

type graphVersionRecord struct {
	ID      string `gorm:"column:id;type:text;primaryKey"`
	GraphID string `gorm:"column:graph_id;type:text;not null"`
}

func (graphVersionRecord) TableName() string { return storage.GraphVersions.Name }

type graphVersionMemberRecord struct {
	GraphVersionID string `gorm:"column:graph_version_id;type:text;primaryKey"`
	NodeVersionID  string `gorm:"column:node_version_id;type:text;primaryKey"`
}

func (graphVersionMemberRecord) TableName() string { return storage.GraphVersionMembers.Name }

type structureVersionRecord struct {
	ID          string `gorm:"column:id;type:text;primaryKey"`
	StructureID string `gorm:"column:structure_id;type:text;not null"`
}

func (structureVersionRecord) TableName() string { return storage.StructureVersions.Name }

type structureVersionAttributeRecord struct {
	StructureVersionID string `gorm:"column:structure_version_id;type:text;primaryKey"`
	Key                string `gorm:"column:key;type:text;primaryKey"`
	Type               string `gorm:"column:type;type:text;not null"`
}

func (structureVersionAttributeRecord) TableName() string {
	return storage.StructureVersionAttributes.Name
}

type lineageEdgeVersionRecord struct {
	ID            string `gorm:"column:id;type:text;primaryKey"`
	LineageEdgeID string `gorm:"column:lineage_edge_id;type:text;not null"`
	FromID        string `gorm:"column:from_id;type:text;not null;index:idx_lineage_edge_versions_from_id"`
	ToID          string `gorm:"column:to_id;type:text;not null"`
}

func (lineageEdgeVersionRecord) TableName() string { return storage.LineageEdgeVersions.Name }

// recordFor returns the GORM model that declares table.
func recordFor(table *storage.Table) any {
	switch table {
	case storage.Items:
		return &itemRecord{}
	case storage.Nodes, storage.Edges, storage.Graphs, storage.Structures, storage.LineageEdges:
		return &nameRecord{}
	case storage.Versions:
		return &versionRecord{}
	case storage.VersionSuccessors:
		return &versionSuccessorRecord{}
	case storage.ItemLeaves:
		return &itemLeafRecord{}
	case storage.RichVersions:
		return &richVersionRecord{}
	case storage.RichVersionTags:
		return &richVersionTagRecord{}
	case storage.RichVersionParameters:
		return &richVersionParameterRecord{}
	case storage.NodeVersions:
		return &nodeVersionRecord{}
	case storage.EdgeVersions:
		return &edgeVersionRecord{}
	case storage.GraphVersions:
		return &graphVersionRecord{}
	case storage.GraphVersionMembers:
		return &graphVersionMemberRecord{}
	case storage.StructureVersions:
		return &structureVersionRecord{}
	case storage.StructureVersionAttributes:
		return &structureVersionAttributeRecord{}
	case storage.LineageEdgeVersions:
		return &lineageEdgeVersionRecord{}
	default:
		return nil
	}
}
