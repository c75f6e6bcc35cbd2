package relconfig

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
	"github.com/spf13/cast"
)

// KindDynamicTable is the "kind" value adapters put on Snowflake dynamic
// table rows.
const KindDynamicTable = "dynamic_table"

// FromWarehouseMetadata builds the observed configuration of an existing
// relation. It accepts either a BigQuery table resource (camelCase REST
// field names) or a Snowflake SHOW DYNAMIC TABLES row carrying a "kind" key.
//
// Unknown fields are ignored and absent ones stay unset. Observed configs are
// not checked against the per-kind key rules.
func FromWarehouseMetadata(raw map[string]any) (*RelationConfig, error) {
	if raw == nil {
		return nil, core.ErrRelationNotFound
	}
	if _, ok := raw["kind"]; ok {
		return fromSnowflakeRow(raw)
	}
	return fromBigQueryResource(raw)
}

func fromBigQueryResource(raw map[string]any) (*RelationConfig, error) {
	typ, err := bigQueryType(cast.ToString(raw["type"]))
	if err != nil {
		return nil, err
	}
	cfg := &RelationConfig{Type: typ}

	observed, err := observedPartition(raw)
	if err != nil {
		return nil, err
	}
	if !observed.IsZero() {
		cfg.Partition = observed.ToConfig("")
	}

	if clustering, ok := partition.AsMapping(raw["clustering"]); ok {
		cols, err := cast.ToStringSliceE(clustering["fields"])
		if err != nil {
			return nil, &core.ValidationError{Field: "clustering.fields", Value: clustering["fields"], Expected: "a list of column names"}
		}
		cfg.Cluster = cloneCluster(cols)
	}

	if labels, ok := raw["labels"]; ok && labels != nil {
		m, err := cast.ToStringMapStringE(labels)
		if err != nil {
			return nil, &core.ValidationError{Field: "labels", Value: labels, Expected: "a mapping of strings"}
		}
		cfg.Options.Labels = cloneLabels(m)
	}

	if d, ok := raw["description"]; ok && d != nil {
		cfg.Options.Description = stringPtr(cast.ToString(d))
	}

	if exp, ok := raw["expirationTime"]; ok && exp != nil {
		ms, err := cast.ToInt64E(exp)
		if err != nil {
			return nil, &core.ValidationError{Field: "expirationTime", Value: exp, Expected: "milliseconds since the epoch"}
		}
		cfg.Options.ExpirationTimestamp = stringPtr(FormatExpiration(time.UnixMilli(ms)))
	}

	if enc, ok := partition.AsMapping(raw["encryptionConfiguration"]); ok {
		if key := cast.ToString(enc["kmsKeyName"]); key != "" {
			cfg.Options.KMSKeyName = stringPtr(key)
		}
	}
	return cfg, nil
}

func bigQueryType(s string) (core.RelationType, error) {
	switch strings.ToUpper(s) {
	case "", "TABLE":
		return core.RelationTable, nil
	case "VIEW":
		return core.RelationView, nil
	case "EXTERNAL":
		return core.RelationExternal, nil
	case "MATERIALIZED_VIEW":
		return core.RelationMaterializedView, nil
	}
	return "", &core.ValidationError{
		Field:    "type",
		Value:    s,
		Expected: core.OneOf("TABLE", "VIEW", "EXTERNAL", "MATERIALIZED_VIEW"),
	}
}

func observedPartition(raw map[string]any) (partition.Observed, error) {
	var o partition.Observed
	if tp, ok := partition.AsMapping(raw["timePartitioning"]); ok {
		o.Time = &partition.TimePartitioning{
			Type:  cast.ToString(tp["type"]),
			Field: cast.ToString(tp["field"]),
		}
	}
	if rp, ok := partition.AsMapping(raw["rangePartitioning"]); ok {
		r, _ := partition.AsMapping(rp["range"])
		var bounds [3]int64
		for i, key := range []string{"start", "end", "interval"} {
			v, err := cast.ToInt64E(r[key])
			if err != nil {
				return o, &core.ValidationError{
					Field:    "rangePartitioning.range." + key,
					Value:    r[key],
					Expected: "an integer",
				}
			}
			bounds[i] = v
		}
		o.Range = &partition.RangePartitioning{
			Field:    cast.ToString(rp["field"]),
			Start:    bounds[0],
			End:      bounds[1],
			Interval: bounds[2],
		}
	}
	return o, nil
}

func fromSnowflakeRow(raw map[string]any) (*RelationConfig, error) {
	kind := strings.ToLower(strings.ReplaceAll(cast.ToString(raw["kind"]), " ", "_"))
	if kind != KindDynamicTable {
		return nil, &core.ValidationError{Field: "kind", Value: raw["kind"], Expected: core.OneOf(KindDynamicTable)}
	}
	cfg := &RelationConfig{
		Type: core.RelationDynamicTable,
		Options: Options{
			TargetLag: strings.TrimSpace(cast.ToString(raw["target_lag"])),
			Warehouse: strings.TrimSpace(cast.ToString(raw["warehouse"])),
		},
	}
	if mode := cast.ToString(raw["refresh_mode"]); mode != "" {
		m, err := ParseRefreshMode(mode)
		if err != nil {
			return nil, err
		}
		cfg.Options.RefreshMode = m
	}
	if comment := cast.ToString(raw["comment"]); comment != "" {
		cfg.Options.Description = stringPtr(comment)
	}
	cfg.Cluster = parseClusterKey(cast.ToString(raw["cluster_by"]))
	return cfg, nil
}

// parseClusterKey reads Snowflake's "LINEAR(a, b)" clustering key format.
func parseClusterKey(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if open := strings.IndexByte(s, '('); open >= 0 && strings.HasSuffix(s, ")") {
		s = s[open+1 : len(s)-1]
	}
	var cols []string
	for _, part := range strings.Split(s, ",") {
		if col := strings.TrimSpace(part); col != "" {
			cols = append(cols, col)
		}
	}
	return cloneCluster(cols)
}

// FormatExpiration renders an expiration instant the way observed configs
// carry it.
func FormatExpiration(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SameExpiration compares two expiration values. When both parse as
// timestamps the instants are compared, otherwise the raw strings are.
func SameExpiration(a, b string) bool {
	ta, errA := cast.ToTimeE(a)
	tb, errB := cast.ToTimeE(b)
	if errA == nil && errB == nil {
		return ta.Equal(tb)
	}
	return a == b
}
