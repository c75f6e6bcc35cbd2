// Package relconfig models the configuration of a warehouse relation, either
// as declared by a user or as observed in the warehouse.
//
// Both sides are parsed into the same RelationConfig so the changeset builder
// can compare them attribute by attribute. Configs are values: constructors
// copy their slice and map inputs and nothing in this module mutates a config
// after it is returned.
package relconfig

import (
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
)

// RefreshMode is how a dynamic table refreshes.
type RefreshMode string

// Dynamic table refresh modes.
const (
	RefreshAuto        RefreshMode = "AUTO"
	RefreshFull        RefreshMode = "FULL"
	RefreshIncremental RefreshMode = "INCREMENTAL"
)

// ParseRefreshMode upper-cases s and maps it onto a known mode.
func ParseRefreshMode(s string) (RefreshMode, error) {
	m := RefreshMode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case RefreshAuto, RefreshFull, RefreshIncremental:
		return m, nil
	}
	return "", &core.ValidationError{
		Field:    KeyRefreshMode,
		Value:    s,
		Expected: core.OneOf(string(RefreshAuto), string(RefreshFull), string(RefreshIncremental)),
	}
}

// Options holds the non-structural attributes of a relation.
// Unset pointer fields and empty strings mean "not configured".
type Options struct {
	ExpirationTimestamp *string
	KMSKeyName          *string
	Description         *string
	Labels              map[string]string

	// Dynamic tables only.
	RefreshMode RefreshMode
	TargetLag   string
	Warehouse   string
}

// RelationConfig is the full configuration of one relation.
type RelationConfig struct {
	Type      core.RelationType
	Partition *partition.Config
	Cluster   []string
	Options   Options
}

// Clone returns a deep copy of c.
func (c *RelationConfig) Clone() *RelationConfig {
	if c == nil {
		return nil
	}
	out := &RelationConfig{
		Type:    c.Type,
		Cluster: cloneCluster(c.Cluster),
		Options: c.Options.clone(),
	}
	if c.Partition != nil {
		p := *c.Partition
		if p.Range != nil {
			r := *p.Range
			p.Range = &r
		}
		out.Partition = &p
	}
	return out
}

func (o Options) clone() Options {
	out := o
	out.ExpirationTimestamp = cloneString(o.ExpirationTimestamp)
	out.KMSKeyName = cloneString(o.KMSKeyName)
	out.Description = cloneString(o.Description)
	out.Labels = cloneLabels(o.Labels)
	return out
}

// Equal reports whether a and b describe the same relation configuration.
// Partition fields and cluster columns are compared the way the warehouse
// compares identifiers, ignoring case.
func Equal(a, b *RelationConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || !partition.Equal(a.Partition, b.Partition) {
		return false
	}
	if !ClusterEqual(a.Cluster, b.Cluster) {
		return false
	}
	return a.Options.Equal(b.Options)
}

// Equal compares two option sets.
func (o Options) Equal(other Options) bool {
	return equalExpiration(o.ExpirationTimestamp, other.ExpirationTimestamp) &&
		equalString(o.KMSKeyName, other.KMSKeyName) &&
		equalString(o.Description, other.Description) &&
		maps.Equal(o.Labels, other.Labels) &&
		strings.EqualFold(string(o.RefreshMode), string(other.RefreshMode)) &&
		NormalizeTargetLag(o.TargetLag) == NormalizeTargetLag(other.TargetLag) &&
		strings.EqualFold(o.Warehouse, other.Warehouse)
}

// ClusterEqual compares cluster column lists in order. Nil and empty are
// equal, column names ignore case.
func ClusterEqual(a, b []string) bool {
	return slices.EqualFunc(a, b, strings.EqualFold)
}

// NormalizeTargetLag collapses whitespace and case so "5  Minutes" and
// "5 minutes" compare equal.
func NormalizeTargetLag(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalExpiration(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return SameExpiration(*a, *b)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneCluster(cols []string) []string {
	if len(cols) == 0 {
		return nil
	}
	return slices.Clone(cols)
}

func cloneLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	return maps.Clone(labels)
}

func stringPtr(s string) *string {
	return &s
}
