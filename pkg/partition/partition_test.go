package partition

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(extra map[string]any) map[string]any {
	m := map[string]any{
		"field":                       "ts",
		"data_type":                   "date",
		"granularity":                 "day",
		"time_ingestion_partitioning": false,
		"copy_partitions":             false,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  map[string]any
	}{
		{
			name:  "field only applies defaults",
			input: map[string]any{"field": "ts"},
			want:  defaults(nil),
		},
		{
			name:  "explicit date",
			input: map[string]any{"field": "ts", "data_type": "date"},
			want:  defaults(nil),
		},
		{
			name:  "date month upper-case",
			input: map[string]any{"field": "ts", "data_type": "date", "granularity": "MONTH"},
			want:  defaults(map[string]any{"granularity": "month"}),
		},
		{
			name:  "date year upper-case",
			input: map[string]any{"field": "ts", "data_type": "date", "granularity": "YEAR"},
			want:  defaults(map[string]any{"granularity": "year"}),
		},
		{
			name:  "timestamp hour",
			input: map[string]any{"field": "ts", "data_type": "timestamp", "granularity": "HOUR"},
			want:  defaults(map[string]any{"data_type": "timestamp", "granularity": "hour"}),
		},
		{
			name:  "timestamp month",
			input: map[string]any{"field": "ts", "data_type": "timestamp", "granularity": "MONTH"},
			want:  defaults(map[string]any{"data_type": "timestamp", "granularity": "month"}),
		},
		{
			name:  "timestamp year",
			input: map[string]any{"field": "ts", "data_type": "timestamp", "granularity": "YEAR"},
			want:  defaults(map[string]any{"data_type": "timestamp", "granularity": "year"}),
		},
		{
			name:  "datetime hour",
			input: map[string]any{"field": "ts", "data_type": "datetime", "granularity": "HOUR"},
			want:  defaults(map[string]any{"data_type": "datetime", "granularity": "hour"}),
		},
		{
			name:  "datetime month",
			input: map[string]any{"field": "ts", "data_type": "datetime", "granularity": "MONTH"},
			want:  defaults(map[string]any{"data_type": "datetime", "granularity": "month"}),
		},
		{
			name:  "datetime year",
			input: map[string]any{"field": "ts", "data_type": "DATETIME", "granularity": "YEAR"},
			want:  defaults(map[string]any{"data_type": "datetime", "granularity": "year"}),
		},
		{
			name:  "ingestion time with copy partitions",
			input: map[string]any{"field": "ts", "time_ingestion_partitioning": true, "copy_partitions": true},
			want:  defaults(map[string]any{"time_ingestion_partitioning": true, "copy_partitions": true}),
		},
		{
			name:  "string flags from a string map",
			input: map[string]string{"field": "ts", "copy_partitions": "true"},
			want:  defaults(map[string]any{"copy_partitions": true}),
		},
		{
			name: "int64 range passthrough",
			input: map[string]any{
				"field":     "id",
				"data_type": "int64",
				"range":     map[string]any{"start": 1, "end": 100, "interval": 20},
			},
			want: map[string]any{
				"field":                       "id",
				"data_type":                   "int64",
				"granularity":                 "day",
				"range":                       map[string]any{"start": int64(1), "end": int64(100), "interval": int64(20)},
				"time_ingestion_partitioning": false,
				"copy_partitions":             false,
			},
		},
		{
			name:  "field casing is preserved",
			input: map[string]any{"field": "CreatedAt"},
			want:  defaults(map[string]any{"field": "CreatedAt"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ToMap())
		})
	}
}

func TestParse_Nil(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Nil(t, cfg.ToMap())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantField string
	}{
		{"bare column shorthand", "ts", "partition_by"},
		{"function shorthand", "date(ts)", "partition_by"},
		{"list", []any{"ts"}, "partition_by"},
		{"empty mapping", map[string]any{}, "partition_by.field"},
		{"blank field", map[string]any{"field": "  "}, "partition_by.field"},
		{"unknown data type", map[string]any{"field": "ts", "data_type": "string"}, "partition_by.data_type"},
		{"unknown granularity", map[string]any{"field": "ts", "granularity": "week"}, "partition_by.granularity"},
		{"date by hour", map[string]any{"field": "ts", "data_type": "date", "granularity": "hour"}, "partition_by.granularity"},
		{"default date by hour", map[string]any{"field": "ts", "granularity": "HOUR"}, "partition_by.granularity"},
		{"int64 without range", map[string]any{"field": "id", "data_type": "int64"}, "partition_by.range"},
		{
			"date with range",
			map[string]any{"field": "ts", "data_type": "date", "range": map[string]any{"start": 1, "end": 10, "interval": 1}},
			"partition_by.range",
		},
		{
			"range missing interval",
			map[string]any{"field": "id", "data_type": "int64", "range": map[string]any{"start": 1, "end": 10}},
			"partition_by.range",
		},
		{
			"range with zero interval",
			map[string]any{"field": "id", "data_type": "int64", "range": map[string]any{"start": 1, "end": 10, "interval": 0}},
			"partition_by.range.interval",
		},
		{
			"range end before start",
			map[string]any{"field": "id", "data_type": "int64", "range": map[string]any{"start": 10, "end": 1, "interval": 1}},
			"partition_by.range.end",
		},
		{"unknown key", map[string]any{"field": "ts", "bucket": "x"}, "partition_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, cfg)

			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestParse_ErrorIncludesRejectedValue(t *testing.T) {
	_, err := Parse(map[string]any{"field": "ts", "granularity": "fortnight"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortnight")
	assert.Contains(t, err.Error(), `"hour"`)
}

func TestParse_DefaultCompleteness(t *testing.T) {
	for _, field := range []string{"ts", "created_at", "ID", "_loaded"} {
		cfg, err := Parse(map[string]any{"field": field})
		require.NoError(t, err)
		assert.Equal(t, DataTypeDate, cfg.DataType)
		assert.Equal(t, GranularityDay, cfg.Granularity)
		assert.False(t, cfg.TimeIngestionPartitioning)
		assert.False(t, cfg.CopyPartitions)
		assert.Nil(t, cfg.Range)
	}
}

func TestParse_CaseNormalization(t *testing.T) {
	upper, err := Parse(map[string]any{"field": "ts", "granularity": "MONTH"})
	require.NoError(t, err)
	lower, err := Parse(map[string]any{"field": "ts", "granularity": "month"})
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
	assert.True(t, Equal(lower, upper))
}

func TestEqual(t *testing.T) {
	a := &Config{Field: "TS", DataType: DataTypeDate, Granularity: GranularityDay}
	b := &Config{Field: "ts", DataType: DataTypeDate, Granularity: GranularityDay}
	c := &Config{Field: "id", DataType: DataTypeInt64, Granularity: GranularityDay, Range: &Range{1, 10, 1}}
	d := &Config{Field: "id", DataType: DataTypeInt64, Granularity: GranularityDay, Range: &Range{1, 10, 2}}

	assert.True(t, Equal(a, b))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(c, d))
	assert.True(t, Equal(c, c))
}
