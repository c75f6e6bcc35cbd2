package core

import "strings"

// RelationType is the kind of warehouse object a relation represents.
type RelationType string

// Relation kinds.
const (
	RelationTable            RelationType = "table"
	RelationView             RelationType = "view"
	RelationExternal         RelationType = "external"
	RelationMaterializedView RelationType = "materialized_view"
	RelationDynamicTable     RelationType = "dynamic_table"
)

// Materialization constants understood by copy and options helpers.
const (
	MaterializationTable       = "table"
	MaterializationView        = "view"
	MaterializationIncremental = "incremental"
)

// RelationTypes lists every supported kind in declaration order.
func RelationTypes() []RelationType {
	return []RelationType{
		RelationTable,
		RelationView,
		RelationExternal,
		RelationMaterializedView,
		RelationDynamicTable,
	}
}

// ParseRelationType lower-cases s and maps it onto a known kind.
func ParseRelationType(s string) (RelationType, error) {
	t := RelationType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RelationTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", &ValidationError{
		Field:    "relation_type",
		Value:    s,
		Expected: oneOf(relationTypeNames()),
	}
}

// AlterableInPlace reports whether changes to this kind can be applied with
// ALTER statements. Every other kind is recreated on any change.
func (t RelationType) AlterableInPlace() bool {
	return t == RelationTable || t == RelationDynamicTable
}

func (t RelationType) String() string {
	return string(t)
}

func relationTypeNames() []string {
	types := RelationTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
