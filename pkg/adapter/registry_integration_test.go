package adapter_test

import (
	"testing"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapdw/pkg/adapters/bigquery"
	_ "github.com/leapstack-labs/leapdw/pkg/adapters/snowflake"
)

func TestListAdapters(t *testing.T) {
	adapters := adapter.ListAdapters()

	assert.Contains(t, adapters, "bigquery", "bigquery should be in adapter list")
	assert.Contains(t, adapters, "snowflake", "snowflake should be in adapter list")
}

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name        string
		adapterName string
		expected    bool
	}{
		{"bigquery registered", "bigquery", true},
		{"snowflake registered", "snowflake", true},
		{"duckdb not registered", "duckdb", false},
		{"unknown not registered", "unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.IsRegistered(tt.adapterName)
			assert.Equal(t, tt.expected, got, "IsRegistered(%q)", tt.adapterName)
		})
	}
}

func TestNewAdapter_Success(t *testing.T) {
	tests := []struct {
		adapterType string
		policy      relation.Policy
	}{
		{"bigquery", relation.BigQueryPolicy()},
		{"snowflake", relation.SnowflakePolicy()},
	}

	for _, tt := range tests {
		t.Run(tt.adapterType, func(t *testing.T) {
			adp, err := adapter.NewAdapter(core.TargetConfig{Type: tt.adapterType}, nil)
			require.NoError(t, err)
			require.NotNil(t, adp)
			assert.Equal(t, tt.policy, adp.Policy())
			assert.NoError(t, adp.Close(), "closing an unconnected adapter is a no-op")
		})
	}
}

func TestNewAdapter_UnknownType(t *testing.T) {
	_, err := adapter.NewAdapter(core.TargetConfig{Type: "unknown_adapter"}, nil)
	require.Error(t, err, "NewAdapter(unknown_adapter) should fail")

	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "unknown_adapter", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "bigquery")
}

func TestRegistrations(t *testing.T) {
	tests := []struct {
		name          string
		policy        relation.Policy
		labelLimit    int
		defaultSchema string
	}{
		{name: "bigquery", policy: relation.BigQueryPolicy(), labelLimit: 63},
		{name: "snowflake", policy: relation.SnowflakePolicy(), defaultSchema: "PUBLIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, ok := adapter.Get(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.policy, reg.Policy)
			assert.Equal(t, tt.labelLimit, reg.LabelLengthLimit)
			assert.Equal(t, tt.defaultSchema, reg.DefaultSchema)

			adp := reg.Factory(nil)
			assert.Equal(t, reg.Policy, adp.Policy(), "registered policy matches the adapter's")
		})
	}
}
