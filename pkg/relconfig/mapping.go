package relconfig

import (
	"maps"
	"slices"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
	"github.com/spf13/cast"
)

// ToMap renders c in the declared configuration format accepted by
// FromMap. Unset optional fields are omitted.
func (c *RelationConfig) ToMap() map[string]any {
	if c == nil {
		return nil
	}
	m := map[string]any{KeyRelationType: string(c.Type)}
	if c.Partition != nil {
		m[KeyPartitionBy] = c.Partition.ToMap()
	}
	if len(c.Cluster) > 0 {
		m[KeyClusterBy] = slices.Clone(c.Cluster)
	}

	o := c.Options
	if o.ExpirationTimestamp != nil {
		m[KeyExpirationTimestamp] = *o.ExpirationTimestamp
	}
	if o.KMSKeyName != nil {
		m[KeyKMSKeyName] = *o.KMSKeyName
	}
	if o.Description != nil {
		m[KeyDescription] = *o.Description
	}
	if len(o.Labels) > 0 {
		m[KeyLabels] = maps.Clone(o.Labels)
	}
	if o.RefreshMode != "" {
		m[KeyRefreshMode] = string(o.RefreshMode)
	}
	if o.TargetLag != "" {
		m[KeyTargetLag] = o.TargetLag
	}
	if o.Warehouse != "" {
		m[KeyWarehouse] = o.Warehouse
	}
	return m
}

// FromMap is the inverse of ToMap.
//
// It decodes the mapping as is: no defaults are filled in, the per-kind key
// rules are not applied and labels are not validated. Configs read from the
// warehouse therefore survive a ToMap/FromMap cycle. Use FromUserConfig for
// declared input.
func FromMap(m map[string]any) (*RelationConfig, error) {
	if m == nil {
		return nil, nil
	}
	typ, err := relationType(m)
	if err != nil {
		return nil, err
	}
	flat, err := flatten(m)
	if err != nil {
		return nil, err
	}
	if wh, ok := flat[KeySnowflakeWarehouse]; ok {
		if _, dup := flat[KeyWarehouse]; !dup {
			flat[KeyWarehouse] = wh
		}
		delete(flat, KeySnowflakeWarehouse)
	}

	var decoded rawUserConfig
	if err := decode(flat, &decoded); err != nil {
		return nil, &core.ValidationError{Field: "relation config", Value: err.Error()}
	}

	cfg := &RelationConfig{Type: typ}
	if cfg.Partition, err = partition.Decode(decoded.PartitionBy); err != nil {
		return nil, err
	}
	if cfg.Cluster, err = decodeCluster(decoded.ClusterBy); err != nil {
		return nil, err
	}
	cfg.Options = Options{
		ExpirationTimestamp: cloneString(decoded.ExpirationTimestamp),
		KMSKeyName:          cloneString(decoded.KMSKeyName),
		Description:         cloneString(decoded.Description),
		Labels:              cloneLabels(decoded.Labels),
	}
	if decoded.RefreshMode != nil {
		cfg.Options.RefreshMode = RefreshMode(*decoded.RefreshMode)
	}
	if decoded.TargetLag != nil {
		cfg.Options.TargetLag = *decoded.TargetLag
	}
	if decoded.Warehouse != nil {
		cfg.Options.Warehouse = *decoded.Warehouse
	}
	return cfg, nil
}

func decodeCluster(v any) ([]string, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{c}, nil
	}
	cols, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, &core.ValidationError{Field: KeyClusterBy, Value: v, Expected: "a list of column names"}
	}
	return cloneCluster(cols), nil
}
