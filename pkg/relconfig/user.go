package relconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/partition"
	"github.com/spf13/cast"
)

// Parser turns declared configuration into RelationConfigs.
type Parser struct {
	// LabelLengthLimit bounds label keys and values. Zero disables the check.
	LabelLengthLimit int
}

// FromUserConfig parses a declared configuration with the default label
// length limit.
func FromUserConfig(raw map[string]any) (*RelationConfig, error) {
	return Parser{LabelLengthLimit: catalog.DefaultLabelLengthLimit}.FromUserConfig(raw)
}

type rawUserConfig struct {
	PartitionBy         any               `mapstructure:"partition_by"`
	ClusterBy           any               `mapstructure:"cluster_by"`
	ExpirationTimestamp *string           `mapstructure:"expiration_timestamp"`
	KMSKeyName          *string           `mapstructure:"kms_key_name"`
	Labels              map[string]string `mapstructure:"labels"`
	Description         *string           `mapstructure:"description"`
	RefreshMode         *string           `mapstructure:"refresh_mode"`
	TargetLag           *string           `mapstructure:"target_lag"`
	Warehouse           *string           `mapstructure:"warehouse"`
}

// FromUserConfig validates a declared configuration mapping.
//
// The relation kind comes from "relation_type" or its alias "materialized".
// Option keys may be given at the top level or nested under "options", but
// not both. Keys that are unknown, or that do not apply to the declared kind,
// are rejected.
func (p Parser) FromUserConfig(raw map[string]any) (*RelationConfig, error) {
	typ, err := relationType(raw)
	if err != nil {
		return nil, err
	}
	flat, err := flatten(raw)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(typ, flat); err != nil {
		return nil, err
	}
	if wh, ok := flat[KeySnowflakeWarehouse]; ok {
		if _, dup := flat[KeyWarehouse]; dup {
			return nil, &core.ValidationError{
				Field:    KeySnowflakeWarehouse,
				Value:    wh,
				Expected: "either warehouse or snowflake_warehouse, not both",
			}
		}
		flat[KeyWarehouse] = wh
		delete(flat, KeySnowflakeWarehouse)
	}

	var decoded rawUserConfig
	if err := decode(flat, &decoded); err != nil {
		return nil, &core.ValidationError{Field: "relation config", Value: err.Error()}
	}

	cfg := &RelationConfig{Type: typ}

	if cfg.Partition, err = partition.Parse(decoded.PartitionBy); err != nil {
		return nil, err
	}
	if cfg.Cluster, err = parseCluster(decoded.ClusterBy); err != nil {
		return nil, err
	}

	cfg.Options = Options{
		ExpirationTimestamp: decoded.ExpirationTimestamp,
		KMSKeyName:          decoded.KMSKeyName,
		Description:         decoded.Description,
		Labels:              cloneLabels(decoded.Labels),
	}
	if err := catalog.ValidateLabels(KeyLabels, cfg.Options.Labels, p.LabelLengthLimit); err != nil {
		return nil, err
	}

	if typ == core.RelationDynamicTable {
		if err := parseDynamic(decoded, &cfg.Options); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func parseDynamic(decoded rawUserConfig, opts *Options) error {
	if decoded.TargetLag == nil || strings.TrimSpace(*decoded.TargetLag) == "" {
		return &core.ValidationError{
			Field:    KeyTargetLag,
			Value:    nil,
			Expected: `a lag such as "5 minutes" or "downstream" for a dynamic_table`,
		}
	}
	if decoded.Warehouse == nil || strings.TrimSpace(*decoded.Warehouse) == "" {
		return &core.ValidationError{
			Field:    KeyWarehouse,
			Value:    nil,
			Expected: "a warehouse name (snowflake_warehouse) for a dynamic_table",
		}
	}
	opts.TargetLag = strings.TrimSpace(*decoded.TargetLag)
	opts.Warehouse = strings.TrimSpace(*decoded.Warehouse)
	opts.RefreshMode = RefreshAuto
	if decoded.RefreshMode != nil {
		mode, err := ParseRefreshMode(*decoded.RefreshMode)
		if err != nil {
			return err
		}
		opts.RefreshMode = mode
	}
	return nil
}

// relationType reads the kind from relation_type or materialized.
func relationType(raw map[string]any) (core.RelationType, error) {
	rt, hasType := raw[KeyRelationType]
	mat, hasMat := raw[KeyMaterialized]
	if !hasType && !hasMat {
		return "", &core.ValidationError{
			Field:    KeyRelationType,
			Value:    nil,
			Expected: "a relation_type (or materialized) key",
		}
	}

	var fromType, fromMat core.RelationType
	if hasType {
		s, err := cast.ToStringE(rt)
		if err != nil {
			return "", &core.ValidationError{Field: KeyRelationType, Value: rt, Expected: "a string"}
		}
		if fromType, err = core.ParseRelationType(s); err != nil {
			return "", err
		}
	}
	if hasMat {
		s, err := cast.ToStringE(mat)
		if err != nil {
			return "", &core.ValidationError{Field: KeyMaterialized, Value: mat, Expected: "a string"}
		}
		if strings.EqualFold(strings.TrimSpace(s), core.MaterializationIncremental) {
			s = core.MaterializationTable
		}
		if fromMat, err = core.ParseRelationType(s); err != nil {
			return "", err
		}
	}

	switch {
	case hasType && hasMat && fromType != fromMat:
		return "", &core.ValidationError{
			Field:    KeyMaterialized,
			Value:    mat,
			Expected: fmt.Sprintf("the same kind as relation_type %q", fromType),
		}
	case hasType:
		return fromType, nil
	default:
		return fromMat, nil
	}
}

// flatten merges the "options" sub-mapping into the top level and drops the
// kind keys.
func flatten(raw map[string]any) (map[string]any, error) {
	flat := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case KeyRelationType, KeyMaterialized, KeyOptions:
			continue
		}
		flat[k] = v
	}

	nested, ok := raw[KeyOptions]
	if !ok || nested == nil {
		return flat, nil
	}
	opts, ok := partition.AsMapping(nested)
	if !ok {
		return nil, &core.ValidationError{Field: KeyOptions, Value: nested, Expected: "a mapping"}
	}
	for k, v := range opts {
		if !slices.Contains(optionKeys(), k) {
			return nil, &core.ValidationError{
				Field:    KeyOptions + "." + k,
				Value:    v,
				Expected: "an option key (" + strings.Join(optionKeys(), ", ") + ")",
			}
		}
		if _, dup := flat[k]; dup {
			return nil, &core.ValidationError{
				Field:    KeyOptions + "." + k,
				Value:    v,
				Expected: "each option declared once, at the top level or under options",
			}
		}
		flat[k] = v
	}
	return flat, nil
}

// parseCluster accepts a single column or a list of columns.
func parseCluster(v any) ([]string, error) {
	invalid := &core.ValidationError{
		Field:    KeyClusterBy,
		Value:    v,
		Expected: "a column name or a list of column names",
	}

	var cols []string
	switch c := v.(type) {
	case nil:
		return nil, nil
	case string:
		cols = []string{c}
	case []string:
		cols = c
	case []any:
		cols = make([]string, 0, len(c))
		for _, item := range c {
			s, ok := item.(string)
			if !ok {
				return nil, invalid
			}
			cols = append(cols, s)
		}
	default:
		return nil, invalid
	}

	out := make([]string, 0, len(cols))
	for _, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, invalid
		}
		out = append(out, col)
	}
	return cloneCluster(out), nil
}

func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
