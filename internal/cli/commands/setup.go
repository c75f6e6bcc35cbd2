// Package commands implements the leapdw subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdw/internal/cli/output"
	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/internal/engine"
	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
)

// newRenderer creates a renderer for the configured output mode.
func newRenderer(cmd *cobra.Command) *output.Renderer {
	cfg := config.FromContext(cmd.Context())
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// newParser returns the declaration parser for the configured target.
func newParser(cfg *config.Config) relconfig.Parser {
	return relconfig.Parser{LabelLengthLimit: cfg.Target.LabelLimit()}
}

// connect creates and connects the adapter for the configured target.
// Callers must Close the returned adapter.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("no target configured\nHint: add a target section to %s", config.ConfigFileName)
	}
	a, err := adapter.NewAdapter(*cfg.Target, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, *cfg.Target); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Target.Type, err)
	}
	return a, nil
}

// resolveRelation parses a dotted relation name. Two-part names take the
// target's database.
func resolveRelation(name string, cfg *config.Config, a adapter.Adapter) (relation.Relation, error) {
	rel, err := relation.ParseName(name, a.Policy())
	if err != nil {
		return relation.Relation{}, err
	}
	if rel.Database == "" && cfg.Target != nil {
		rel.Database = cfg.Target.Database
	}
	return rel, nil
}

// planWarehouse plans every declared relation against the live warehouse.
func planWarehouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Planner, *engine.Plan, func(), error) {
	a, err := connect(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { _ = a.Close() }

	targets, err := engine.LoadTargets(cfg.RelationsDir, a.Policy())
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	logger.Debug("loaded declarations", slog.String("dir", cfg.RelationsDir), slog.Int("count", len(targets)))

	p := engine.New(engine.Config{
		Adapter:     a,
		Parser:      newParser(cfg),
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	})
	plan, err := p.Plan(ctx, targets)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return p, plan, closeFn, nil
}

// readMapping decodes a YAML (or JSON) file holding a single mapping.
func readMapping(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
