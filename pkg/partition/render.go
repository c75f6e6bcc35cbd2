package partition

import (
	"fmt"
	"strings"
)

// DataTypeForPartition returns the column type used in the partition
// expression. Ingestion-time partitions on non-date types use timestamps.
func (c *Config) DataTypeForPartition() DataType {
	if !c.TimeIngestionPartitioning || c.DataType == DataTypeDate {
		return c.DataType
	}
	return DataTypeTimestamp
}

// DataTypeShouldBeTruncated reports whether the column needs a *_trunc call.
func (c *Config) DataTypeShouldBeTruncated() bool {
	return !(c.DataType == DataTypeInt64 ||
		(c.DataType == DataTypeDate && c.Granularity == GranularityDay))
}

// TimePartitioningField is the column the table is physically partitioned on.
func (c *Config) TimePartitioningField() string {
	if c.TimeIngestionPartitioning {
		return PartitionTime
	}
	return c.Field
}

// InsertableTimePartitioningField is the pseudo-column written on insert
// into an ingestion-time partitioned table.
func (c *Config) InsertableTimePartitioningField() string {
	if c.DataType == DataTypeDate {
		return PartitionDate
	}
	return PartitionTime
}

// Render returns the partition expression, optionally qualified with alias.
func (c *Config) Render(alias string) string {
	column := c.Field
	if c.TimeIngestionPartitioning {
		column = c.TimePartitioningField()
	}
	if alias != "" {
		column = alias + "." + column
	}
	if c.DataTypeShouldBeTruncated() {
		return fmt.Sprintf("%s_trunc(%s, %s)", c.DataType, column, c.Granularity)
	}
	return column
}

// RenderWrapped casts the partition expression to its time type when it is
// not already truncated.
func (c *Config) RenderWrapped(alias string) string {
	isTime := c.DataType == DataTypeDate || c.DataType == DataTypeTimestamp || c.DataType == DataTypeDatetime
	// _PARTITIONDATE is already a date
	if isTime && !c.DataTypeShouldBeTruncated() &&
		!(c.TimeIngestionPartitioning && c.DataType == DataTypeDate) {
		return fmt.Sprintf("%s(%s)", c.DataType, c.Render(alias))
	}
	return c.Render(alias)
}

// RejectPartitionFieldColumn drops the partition column from columns.
func (c *Config) RejectPartitionFieldColumn(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		if !strings.EqualFold(col, c.Field) {
			out = append(out, col)
		}
	}
	return out
}

// Clause renders the PARTITION BY clause of a CREATE statement.
func (c *Config) Clause() string {
	if c == nil {
		return ""
	}
	if c.DataType == DataTypeInt64 && c.Range != nil {
		return fmt.Sprintf("partition by range_bucket(%s, generate_array(%d, %d, %d))",
			c.Field, c.Range.Start, c.Range.End, c.Range.Interval)
	}
	return "partition by " + c.Render("")
}
