// Package changeset diffs a desired relation configuration against the
// observed one and describes the alterations needed to reconcile them.
package changeset

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// Action is what a change does to its attribute.
type Action string

// Change actions.
const (
	ActionAlter Action = "alter"
	ActionAdd   Action = "add"
	ActionDrop  Action = "drop"
)

// Kind is the attribute a change applies to.
type Kind string

// Change kinds, in the order the builder emits them.
const (
	KindRebuild      Kind = "rebuild"
	KindPartitioning Kind = "partitioning"
	KindClustering   Kind = "clustering"
	KindRefreshMode  Kind = "refresh_mode"
	KindTargetLag    Kind = "target_lag"
	KindWarehouse    Kind = "warehouse"
	KindLabels       Kind = "labels"
	KindOptions      Kind = "options"
)

// Option names carried by KindOptions changes.
const (
	OptionDescription         = relconfig.KeyDescription
	OptionExpirationTimestamp = relconfig.KeyExpirationTimestamp
	OptionKMSKeyName          = relconfig.KeyKMSKeyName
)

// OptionValue is the payload of an options change. Value is empty when the
// option is dropped.
type OptionValue struct {
	Name  string
	Value string
}

// ConfigChange is one typed delta. Only the payload field that matches Kind
// is set.
type ConfigChange struct {
	Kind   Kind
	Action Action

	// KindPartitioning: the desired partition, nil when partitioning is removed.
	Partition *partition.Config
	// KindClustering: the desired columns, nil when clustering is removed.
	Cluster []string
	// KindRebuild: the relation type to create.
	// KindRefreshMode, KindTargetLag, KindWarehouse: the desired value.
	Value string
	// KindRebuild: why the relation has to be recreated.
	Reason string
	// KindLabels: the label being added, altered or dropped.
	Label *relconfig.Label
	// KindOptions: the option being set or cleared.
	Option *OptionValue
}

// Rebuild marks a relation for recreation as type t.
func Rebuild(t core.RelationType, reason string) ConfigChange {
	return ConfigChange{Kind: KindRebuild, Action: ActionAlter, Value: string(t), Reason: reason}
}

// Partitioning changes the partition spec. cfg is nil when partitioning is removed.
func Partitioning(cfg *partition.Config) ConfigChange {
	return ConfigChange{Kind: KindPartitioning, Action: ActionAlter, Partition: cfg}
}

// Clustering changes the cluster columns. cols is nil when clustering is removed.
func Clustering(cols []string) ConfigChange {
	return ConfigChange{Kind: KindClustering, Action: ActionAlter, Cluster: cols}
}

// RefreshMode changes a dynamic table's refresh mode.
func RefreshMode(mode relconfig.RefreshMode) ConfigChange {
	return ConfigChange{Kind: KindRefreshMode, Action: ActionAlter, Value: string(mode)}
}

// TargetLag changes a dynamic table's target lag.
func TargetLag(lag string) ConfigChange {
	return ConfigChange{Kind: KindTargetLag, Action: ActionAlter, Value: lag}
}

// Warehouse changes the warehouse that refreshes a dynamic table.
func Warehouse(name string) ConfigChange {
	return ConfigChange{Kind: KindWarehouse, Action: ActionAlter, Value: name}
}

// LabelChange adds, alters or drops one label.
func LabelChange(action Action, key, value string) ConfigChange {
	if action == ActionDrop {
		value = ""
	}
	return ConfigChange{Kind: KindLabels, Action: action, Label: &relconfig.Label{Key: key, Value: value}}
}

// OptionChange sets or clears one relation option.
func OptionChange(action Action, name, value string) ConfigChange {
	if action == ActionDrop {
		value = ""
	}
	return ConfigChange{Kind: KindOptions, Action: action, Option: &OptionValue{Name: name, Value: value}}
}

// RequiresFullRefresh reports whether the change can only be applied by
// recreating the relation.
func (c ConfigChange) RequiresFullRefresh() bool {
	switch c.Kind {
	case KindRebuild, KindPartitioning, KindRefreshMode:
		return true
	default:
		return false
	}
}

// Clause renders the SQL fragment for the change.
func (c ConfigChange) Clause() string {
	switch c.Kind {
	case KindRebuild:
		return "create or replace " + CreateKeyword(core.RelationType(c.Value))
	case KindPartitioning:
		return c.Partition.Clause()
	case KindClustering:
		if len(c.Cluster) == 0 {
			return ""
		}
		return "cluster by " + strings.Join(c.Cluster, ", ")
	case KindRefreshMode:
		return "refresh_mode = " + c.Value
	case KindTargetLag:
		return "target_lag = '" + strings.ReplaceAll(c.Value, "'", "''") + "'"
	case KindWarehouse:
		return "warehouse = " + c.Value
	case KindLabels:
		if c.Label == nil {
			return ""
		}
		if c.Action == ActionDrop {
			return c.Label.Key
		}
		return fmt.Sprintf("(%s, %s)", relconfig.QuoteString(c.Label.Key), relconfig.QuoteString(c.Label.Value))
	case KindOptions:
		if c.Option == nil {
			return ""
		}
		return c.Option.Name + "=" + renderOption(c.Action, c.Option)
	default:
		return ""
	}
}

func (c ConfigChange) String() string {
	switch c.Kind {
	case KindRebuild:
		return fmt.Sprintf("rebuild %s (%s)", c.Value, c.Reason)
	case KindLabels:
		return fmt.Sprintf("%s label %s", c.Action, c.Clause())
	case KindOptions:
		return fmt.Sprintf("%s option %s", c.Action, c.Clause())
	case KindPartitioning, KindClustering:
		if clause := c.Clause(); clause != "" {
			return fmt.Sprintf("%s %s: %s", c.Action, c.Kind, clause)
		}
		return fmt.Sprintf("drop %s", c.Kind)
	default:
		return fmt.Sprintf("%s %s", c.Action, c.Clause())
	}
}

func renderOption(action Action, o *OptionValue) string {
	if action == ActionDrop {
		return "NULL"
	}
	switch o.Name {
	case OptionDescription:
		return relconfig.QuoteDescription(o.Value)
	case OptionExpirationTimestamp:
		return relconfig.ExpirationLiteral(o.Value)
	case OptionKMSKeyName:
		return relconfig.QuoteSingle(o.Value)
	default:
		return relconfig.QuoteString(o.Value)
	}
}

// CreateKeyword returns the object keyword used in CREATE statements for t.
func CreateKeyword(t core.RelationType) string {
	switch t {
	case core.RelationMaterializedView:
		return "materialized view"
	case core.RelationExternal:
		return "external table"
	case core.RelationDynamicTable:
		return "dynamic table"
	default:
		return string(t)
	}
}
