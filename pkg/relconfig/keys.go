package relconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/core"
)

// Configuration keys.
const (
	KeyRelationType        = "relation_type"
	KeyMaterialized        = "materialized"
	KeyPartitionBy         = "partition_by"
	KeyClusterBy           = "cluster_by"
	KeyExpirationTimestamp = "expiration_timestamp"
	KeyKMSKeyName          = "kms_key_name"
	KeyLabels              = "labels"
	KeyDescription         = "description"
	KeyRefreshMode         = "refresh_mode"
	KeyTargetLag           = "target_lag"
	KeyWarehouse           = "warehouse"
	KeySnowflakeWarehouse  = "snowflake_warehouse"
	KeyOptions             = "options"
)

// optionKeys may appear at the top level or nested under "options".
func optionKeys() []string {
	return []string{
		KeyExpirationTimestamp,
		KeyKMSKeyName,
		KeyLabels,
		KeyDescription,
		KeyRefreshMode,
		KeyTargetLag,
		KeyWarehouse,
		KeySnowflakeWarehouse,
	}
}

// AllowedKeys returns the attribute keys relations of type t may declare.
func AllowedKeys(t core.RelationType) []string {
	switch t {
	case core.RelationTable, core.RelationMaterializedView:
		return []string{KeyPartitionBy, KeyClusterBy, KeyExpirationTimestamp, KeyKMSKeyName, KeyLabels, KeyDescription}
	case core.RelationView:
		return []string{KeyExpirationTimestamp, KeyLabels, KeyDescription}
	case core.RelationExternal:
		return []string{KeyLabels, KeyDescription}
	case core.RelationDynamicTable:
		return []string{KeyClusterBy, KeyDescription, KeyRefreshMode, KeyTargetLag, KeyWarehouse}
	default:
		return nil
	}
}

func isKnownKey(k string) bool {
	return k == KeyPartitionBy || k == KeyClusterBy || slices.Contains(optionKeys(), k)
}

func canonicalKey(k string) string {
	if k == KeySnowflakeWarehouse {
		return KeyWarehouse
	}
	return k
}

// checkKeys rejects keys that are unknown or that do not apply to t.
// Null values count as unset.
func checkKeys(t core.RelationType, flat map[string]any) error {
	allowed := AllowedKeys(t)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if !isKnownKey(k) {
			return &core.ValidationError{
				Field:    k,
				Value:    flat[k],
				Expected: "a known relation config key",
			}
		}
		if flat[k] == nil {
			continue
		}
		if !slices.Contains(allowed, canonicalKey(k)) {
			return &core.ValidationError{
				Field: k,
				Value: flat[k],
				Expected: fmt.Sprintf("no %s on a %s (allowed: %s)",
					k, t, strings.Join(allowed, ", ")),
			}
		}
	}
	return nil
}
