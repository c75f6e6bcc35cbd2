package partition

import "strings"

// TimePartitioning is the time partitioning reported by the warehouse.
type TimePartitioning struct {
	// Type is the granularity as reported by the warehouse ("DAY", "HOUR", ...).
	Type string
	// Field is empty for ingestion-time partitioned tables.
	Field string
}

// RangePartitioning is the integer-range partitioning reported by the warehouse.
type RangePartitioning struct {
	Field    string
	Start    int64
	End      int64
	Interval int64
}

// Observed is the partitioning of an existing table. At most one of the two
// fields is set.
type Observed struct {
	Time  *TimePartitioning
	Range *RangePartitioning
}

// IsZero reports whether the observed table is unpartitioned.
func (o Observed) IsZero() bool {
	return o.Time == nil && o.Range == nil
}

// Matches reports whether an observed table's partitioning already satisfies
// cfg. Field names are compared case-insensitively because the warehouse API
// does not preserve the declared casing.
func Matches(observed Observed, cfg *Config) bool {
	if cfg == nil {
		return observed.IsZero()
	}

	switch {
	case observed.Time != nil:
		if cfg.DataType == DataTypeInt64 {
			return false
		}
		observedField := observed.Time.Field
		if observedField == "" {
			observedField = PartitionTime
		}
		wantField := cfg.Field
		if cfg.TimeIngestionPartitioning {
			wantField = cfg.TimePartitioningField()
		}
		return strings.EqualFold(wantField, observedField) &&
			strings.EqualFold(string(cfg.Granularity), observed.Time.Type)

	case observed.Range != nil:
		if cfg.DataType != DataTypeInt64 || cfg.Range == nil {
			return false
		}
		return strings.EqualFold(cfg.Field, observed.Range.Field) &&
			cfg.Range.Start == observed.Range.Start &&
			cfg.Range.End == observed.Range.End &&
			cfg.Range.Interval == observed.Range.Interval

	default:
		return false
	}
}

// ToConfig converts observed partitioning into a Config so it can be diffed
// against a declared one. Time-partitioned tables report no column type, so
// the declared type hint is used when the granularity allows it.
func (o Observed) ToConfig(dataTypeHint DataType) *Config {
	switch {
	case o.Time != nil:
		g := Granularity(strings.ToLower(o.Time.Type))
		if g == "" {
			g = GranularityDay
		}
		cfg := &Config{
			Field:       o.Time.Field,
			DataType:    DataTypeDate,
			Granularity: g,
		}
		if o.Time.Field == "" {
			cfg.Field = PartitionTime
			cfg.TimeIngestionPartitioning = true
		}
		switch {
		case dataTypeHint == DataTypeTimestamp || dataTypeHint == DataTypeDatetime:
			cfg.DataType = dataTypeHint
		case g == GranularityHour:
			cfg.DataType = DataTypeTimestamp
		}
		return cfg
	case o.Range != nil:
		return &Config{
			Field:       o.Range.Field,
			DataType:    DataTypeInt64,
			Granularity: GranularityDay,
			Range: &Range{
				Start:    o.Range.Start,
				End:      o.Range.End,
				Interval: o.Range.Interval,
			},
		}
	default:
		return nil
	}
}

// Observed returns the physical partitioning a table created from c would
// report back.
func (c *Config) Observed() Observed {
	if c == nil {
		return Observed{}
	}
	if c.DataType == DataTypeInt64 {
		o := Observed{Range: &RangePartitioning{Field: c.Field}}
		if c.Range != nil {
			o.Range.Start = c.Range.Start
			o.Range.End = c.Range.End
			o.Range.Interval = c.Range.Interval
		}
		return o
	}
	field := c.Field
	if c.TimeIngestionPartitioning {
		field = ""
	}
	return Observed{Time: &TimePartitioning{
		Type:  strings.ToUpper(string(c.Granularity)),
		Field: field,
	}}
}
