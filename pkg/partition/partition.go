// Package partition parses, validates and compares table partition specs.
package partition

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdw/pkg/core"
)

// DataType is the type of the partitioning column.
type DataType string

// Supported partition column types.
const (
	DataTypeDate      DataType = "date"
	DataTypeTimestamp DataType = "timestamp"
	DataTypeDatetime  DataType = "datetime"
	DataTypeInt64     DataType = "int64"
)

// Granularity is the time bucket of a time-based partition.
type Granularity string

// Supported granularities.
const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Pseudo-columns of ingestion-time partitioned tables.
const (
	PartitionDate = "_PARTITIONDATE"
	PartitionTime = "_PARTITIONTIME"
)

const fieldPrefix = "partition_by"

// Range bounds an integer-range partition.
type Range struct {
	Start    int64
	End      int64
	Interval int64
}

// Config is a validated partition specification.
type Config struct {
	Field                     string
	DataType                  DataType
	Granularity               Granularity
	Range                     *Range
	TimeIngestionPartitioning bool
	CopyPartitions            bool
}

type rawRange struct {
	Start    *int64 `mapstructure:"start"`
	End      *int64 `mapstructure:"end"`
	Interval *int64 `mapstructure:"interval"`
}

type rawConfig struct {
	Field                     string         `mapstructure:"field"`
	DataType                  string         `mapstructure:"data_type"`
	Granularity               string         `mapstructure:"granularity"`
	Range                     map[string]any `mapstructure:"range"`
	TimeIngestionPartitioning bool           `mapstructure:"time_ingestion_partitioning"`
	CopyPartitions            bool           `mapstructure:"copy_partitions"`
}

// Parse validates a raw partition mapping and applies defaults.
//
// A nil input means "not partitioned" and yields (nil, nil). Any non-mapping
// input, including the legacy bare-column shorthand, is rejected.
func Parse(raw any) (*Config, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := AsMapping(raw)
	if !ok {
		return nil, &core.ValidationError{
			Field:    fieldPrefix,
			Value:    raw,
			Expected: `a mapping such as {"field": "created_at", "data_type": "date"}`,
		}
	}

	var decoded rawConfig
	if err := decode(m, &decoded); err != nil {
		return nil, &core.ValidationError{
			Field:    fieldPrefix,
			Value:    raw,
			Expected: "keys field, data_type, granularity, range, time_ingestion_partitioning, copy_partitions (" + err.Error() + ")",
		}
	}

	if strings.TrimSpace(decoded.Field) == "" {
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".field",
			Value:    decoded.Field,
			Expected: "a non-empty column name",
		}
	}

	cfg := &Config{
		Field:                     decoded.Field,
		DataType:                  DataTypeDate,
		Granularity:               GranularityDay,
		TimeIngestionPartitioning: decoded.TimeIngestionPartitioning,
		CopyPartitions:            decoded.CopyPartitions,
	}

	if decoded.DataType != "" {
		dt, err := parseDataType(decoded.DataType)
		if err != nil {
			return nil, err
		}
		cfg.DataType = dt
	}
	if decoded.Granularity != "" {
		g, err := parseGranularity(decoded.Granularity)
		if err != nil {
			return nil, err
		}
		cfg.Granularity = g
	}
	if cfg.DataType == DataTypeDate && cfg.Granularity == GranularityHour {
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".granularity",
			Value:    decoded.Granularity,
			Expected: core.OneOf("day", "month", "year") + " for data_type \"date\"",
		}
	}

	switch {
	case cfg.DataType == DataTypeInt64 && decoded.Range == nil:
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".range",
			Value:    nil,
			Expected: `{"start": int, "end": int, "interval": int} when data_type is "int64"`,
		}
	case cfg.DataType != DataTypeInt64 && decoded.Range != nil:
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".range",
			Value:    decoded.Range,
			Expected: fmt.Sprintf("no range for data_type %q", cfg.DataType),
		}
	case decoded.Range != nil:
		r, err := parseRange(decoded.Range)
		if err != nil {
			return nil, err
		}
		cfg.Range = r
	}

	return cfg, nil
}

// Decode reads back a mapping produced by ToMap. Unlike Parse it applies no
// defaults and no per-type rules, so observed partitions survive unchanged.
func Decode(raw any) (*Config, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := AsMapping(raw)
	if !ok {
		return nil, &core.ValidationError{Field: fieldPrefix, Value: raw, Expected: "a mapping"}
	}
	var decoded rawConfig
	if err := decode(m, &decoded); err != nil {
		return nil, &core.ValidationError{Field: fieldPrefix, Value: raw, Expected: err.Error()}
	}
	cfg := &Config{
		Field:                     decoded.Field,
		DataType:                  DataType(decoded.DataType),
		Granularity:               Granularity(decoded.Granularity),
		TimeIngestionPartitioning: decoded.TimeIngestionPartitioning,
		CopyPartitions:            decoded.CopyPartitions,
	}
	if decoded.Range != nil {
		var rr rawRange
		if err := decode(decoded.Range, &rr); err != nil || rr.Start == nil || rr.End == nil || rr.Interval == nil {
			return nil, &core.ValidationError{
				Field:    fieldPrefix + ".range",
				Value:    decoded.Range,
				Expected: "start, end and interval to all be set",
			}
		}
		cfg.Range = &Range{Start: *rr.Start, End: *rr.End, Interval: *rr.Interval}
	}
	return cfg, nil
}

func parseRange(m map[string]any) (*Range, error) {
	var rr rawRange
	if err := decode(m, &rr); err != nil {
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".range",
			Value:    m,
			Expected: `{"start": int, "end": int, "interval": int} (` + err.Error() + ")",
		}
	}
	if rr.Start == nil || rr.End == nil || rr.Interval == nil {
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".range",
			Value:    m,
			Expected: "start, end and interval to all be set",
		}
	}
	if *rr.Interval <= 0 {
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".range.interval",
			Value:    *rr.Interval,
			Expected: "a positive integer",
		}
	}
	if *rr.End <= *rr.Start {
		return nil, &core.ValidationError{
			Field:    fieldPrefix + ".range.end",
			Value:    *rr.End,
			Expected: fmt.Sprintf("a value greater than start (%d)", *rr.Start),
		}
	}
	return &Range{Start: *rr.Start, End: *rr.End, Interval: *rr.Interval}, nil
}

func parseDataType(s string) (DataType, error) {
	dt := DataType(strings.ToLower(strings.TrimSpace(s)))
	switch dt {
	case DataTypeDate, DataTypeTimestamp, DataTypeDatetime, DataTypeInt64:
		return dt, nil
	}
	return "", &core.ValidationError{
		Field:    fieldPrefix + ".data_type",
		Value:    s,
		Expected: core.OneOf("date", "timestamp", "datetime", "int64"),
	}
}

func parseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GranularityHour, GranularityDay, GranularityMonth, GranularityYear:
		return g, nil
	}
	return "", &core.ValidationError{
		Field:    fieldPrefix + ".granularity",
		Value:    s,
		Expected: core.OneOf("hour", "day", "month", "year"),
	}
}

// decode strictly maps raw onto out. String inputs are accepted for numeric
// and boolean fields since declared configs often arrive as string maps.
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

// AsMapping normalizes the mapping shapes produced by YAML and JSON decoders.
func AsMapping(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// ToMap serializes c, omitting the range when it is unset.
func (c *Config) ToMap() map[string]any {
	if c == nil {
		return nil
	}
	m := map[string]any{
		"field":                       c.Field,
		"data_type":                   string(c.DataType),
		"granularity":                 string(c.Granularity),
		"time_ingestion_partitioning": c.TimeIngestionPartitioning,
		"copy_partitions":             c.CopyPartitions,
	}
	if c.Range != nil {
		m["range"] = map[string]any{
			"start":    c.Range.Start,
			"end":      c.Range.End,
			"interval": c.Range.Interval,
		}
	}
	return m
}

// Equal reports whether a and b describe the same partitioning. The field is
// compared case-insensitively.
func Equal(a, b *Config) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !strings.EqualFold(a.Field, b.Field) ||
		a.DataType != b.DataType ||
		a.Granularity != b.Granularity ||
		a.TimeIngestionPartitioning != b.TimeIngestionPartitioning ||
		a.CopyPartitions != b.CopyPartitions {
		return false
	}
	if a.Range == nil || b.Range == nil {
		return a.Range == nil && b.Range == nil
	}
	return *a.Range == *b.Range
}
