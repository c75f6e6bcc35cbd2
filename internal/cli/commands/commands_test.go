package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdw/internal/cli/output"
	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/leapstack-labs/leapdw/pkg/core"
)

// execute runs cmd with args under cfg and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	ctx := context.Background()
	if cfg != nil {
		ctx = config.WithConfig(ctx, cfg)
	}
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func outputConfig(format string) *config.Config {
	cfg := config.FromContext(context.Background())
	cfg.OutputFormat = format
	return cfg
}

func TestPlanCommand_Offline(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "observed.yaml", `
type: TABLE
clustering:
  fields: [customer_id]
labels:
  team: data-eng
  stale: "yes"
`)
	desired := writeFile(t, dir, "orders.yaml", `
materialized: table
cluster_by: [customer_id, order_date]
labels:
  team: data-eng
description: Orders fact
`)

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, NewPlanCommand(), outputConfig("json"), "--existing", existing, "--desired", desired)
		require.NoError(t, err)

		var v planView
		require.NoError(t, json.Unmarshal([]byte(out), &v))
		require.Len(t, v.Relations, 1)
		rel := v.Relations[0]
		assert.Equal(t, "orders", rel.Relation)
		assert.Equal(t, "alter", rel.Action)
		assert.False(t, rel.FullRefresh)

		var kinds []string
		for _, c := range rel.Changes {
			kinds = append(kinds, c.Kind)
		}
		assert.Equal(t, []string{"clustering", "labels", "options"}, kinds)
	})

	t.Run("markdown", func(t *testing.T) {
		out, _, err := execute(t, NewPlanCommand(), outputConfig("markdown"), "--existing", existing, "--desired", desired, "--name", "proj.analytics.orders")
		require.NoError(t, err)
		assert.Contains(t, out, "| Relation | Action | Kind | Change |")
		assert.Contains(t, out, "proj.analytics.orders")
		assert.Contains(t, out, "drop label stale")
		assert.Contains(t, out, "1 of 1 relations change")
	})

	t.Run("new relation", func(t *testing.T) {
		out, _, err := execute(t, NewPlanCommand(), outputConfig("yaml"), "--desired", desired)
		require.NoError(t, err)
		assert.Contains(t, out, "action: add")
		assert.Contains(t, out, "full_refresh: true")
	})

	t.Run("no changes", func(t *testing.T) {
		same := writeFile(t, dir, "same.yaml", "materialized: table\ncluster_by: customer_id\nlabels: {team: data-eng, stale: \"yes\"}\n")
		out, _, err := execute(t, NewPlanCommand(), outputConfig("text"), "--existing", existing, "--desired", same)
		require.NoError(t, err)
		assert.Contains(t, out, "No changes")
	})
}

func TestPlanCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "materialized: table\npartition_by: ts\n")

	_, _, err := execute(t, NewPlanCommand(), nil, "--desired", bad)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	_, _, err = execute(t, NewPlanCommand(), nil, "--desired", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")

	_, _, err = execute(t, NewPlanCommand(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target configured")
}

func TestLabelCommand(t *testing.T) {
	out, _, err := execute(t, NewLabelCommand(), outputConfig("json"), "Data Eng", "ok-label")
	require.NoError(t, err)

	var views []labelView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.Equal(t, []labelView{
		{Input: "Data Eng", Label: "data_eng"},
		{Input: "ok-label", Label: "ok-label"},
	}, views)

	cfg := outputConfig("markdown")
	limit := 5
	cfg.Target = &core.TargetConfig{Type: "bigquery", LabelLengthLimit: &limit}
	out, _, err = execute(t, NewLabelCommand(), cfg, "short", "much too long")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 labels are invalid")
	assert.Contains(t, out, "much_too_long")
	assert.Contains(t, out, "at most 5 characters")
}

func TestNewVersionCommand(t *testing.T) {
	out, _, err := execute(t, NewVersionCommand("1.2.3"), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "leapdw v1.2.3\n"))
	assert.Contains(t, out, "Adapters:")
}

func TestWarehouseCommands_RequireTarget(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		args []string
	}{
		{"list", NewListCommand(), nil},
		{"copy", NewCopyCommand(), []string{"a.b", "a.c"}},
		{"grant", NewGrantCommand(), []string{"a.v", "proj.raw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.cmd, outputConfig("text"), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no target configured")
		})
	}
}

func TestRenderCatalog(t *testing.T) {
	tbl := &catalog.Table{
		Columns: []string{catalog.ColumnDatabase, catalog.ColumnSchema, catalog.ColumnName, "row_count"},
		Rows: [][]any{
			{"proj", "analytics", "orders", decimal.NewFromInt(42)},
			{"proj", "analytics", "customers", nil},
		},
	}

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		r := output.NewRenderer(&out, &out, output.ModeJSON)
		require.NoError(t, renderCatalog(r, tbl, 1))

		var rows []map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
		assert.Equal(t, []map[string]string{
			{"table_database": "proj", "table_schema": "analytics", "table_name": "orders", "row_count": "42"},
			{"table_database": "proj", "table_schema": "analytics", "table_name": "customers"},
		}, rows)
	})

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		r := output.NewRenderer(&out, &out, output.ModeMarkdown)
		require.NoError(t, renderCatalog(r, tbl, 1))
		assert.Contains(t, out.String(), "| table_database | table_schema | table_name | row_count |")
		assert.Contains(t, out.String(), "2 relations in 1 schemas")
	})

	t.Run("empty", func(t *testing.T) {
		var out bytes.Buffer
		r := output.NewRenderer(&out, &out, output.ModeText)
		require.NoError(t, renderCatalog(r, &catalog.Table{}, 3))
		assert.Contains(t, out.String(), "No relations found in 3 schemas")
	})
}

func TestSplitSchema(t *testing.T) {
	tests := []struct {
		in, def      string
		wantDatabase string
		wantSchema   string
		wantErr      bool
	}{
		{in: "proj.raw", wantDatabase: "proj", wantSchema: "raw"},
		{in: "raw", def: "proj", wantDatabase: "proj", wantSchema: "raw"},
		{in: "raw", wantErr: true},
		{in: "a.b.c", def: "proj", wantErr: true},
		{in: ".raw", def: "proj", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			db, schema, err := splitSchema(tt.in, tt.def)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDatabase, db)
			assert.Equal(t, tt.wantSchema, schema)
		})
	}
}
