// Package main provides tests for the leapdw CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdw/internal/cli"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapdw v")
	assert.Contains(t, out, "bigquery, snowflake")
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, expected := range []string{"plan", "apply", "list", "copy", "grant", "label", "version", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestPlanCommand_Offline(t *testing.T) {
	dir := t.TempDir()
	desired := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(desired, []byte(`
materialized: dynamic_table
target_lag: 5 minutes
snowflake_warehouse: transforming
`), 0o600))
	existing := filepath.Join(dir, "observed.yaml")
	require.NoError(t, os.WriteFile(existing, []byte(`
kind: dynamic_table
target_lag: 1 hour
warehouse: TRANSFORMING
refresh_mode: INCREMENTAL
`), 0o600))
	cfgFile := filepath.Join(dir, "leapdw.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("target:\n  type: snowflake\n  account: acme\n"), 0o600))

	out, err := run(t, "--config", cfgFile, "-o", "markdown", "plan", "--existing", existing, "--desired", desired)
	require.NoError(t, err)
	assert.Contains(t, out, "target_lag = '5 minutes'")
	assert.NotContains(t, out, "warehouse = ")
}

func TestLabelCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "leapdw.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("target:\n  type: duckdb\n"), 0o600))

	_, err := run(t, "--config", cfgFile, "label", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")
}
