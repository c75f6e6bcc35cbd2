package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/core"
	"github.com/leapstack-labs/leapdw/pkg/relation"
	"github.com/leapstack-labs/leapdw/pkg/relconfig"
	"github.com/snowflakedb/gosnowflake"
	"github.com/spf13/cast"
)

// Adapter implements the adapter.Adapter interface for Snowflake.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Snowflake adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect establishes a connection to Snowflake.
func (a *Adapter) Connect(ctx context.Context, cfg core.TargetConfig) error {
	sfCfg, err := buildConfig(cfg)
	if err != nil {
		return err
	}
	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return fmt.Errorf("failed to build snowflake DSN: %w", err)
	}

	a.Logger.Debug("connecting to snowflake",
		slog.String("account", cfg.Account),
		slog.String("database", cfg.Database),
		slog.String("warehouse", cfg.Warehouse))

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping snowflake: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Policy returns the Snowflake identifier policy.
func (a *Adapter) Policy() relation.Policy {
	return relation.SnowflakePolicy()
}

// DescribeRelation reads the dynamic table definition of rel.
func (a *Adapter) DescribeRelation(ctx context.Context, rel relation.Relation) (map[string]any, error) {
	rows, err := a.QueryMaps(ctx, describeQuery(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", rel.Render(), err)
	}
	// LIKE treats "_" as a wildcard, so confirm the name.
	for _, row := range rows {
		if strings.EqualFold(cast.ToString(row["name"]), rel.Identifier) {
			return observedRow(row), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", rel.Render(), core.ErrRelationNotFound)
}

func describeQuery(rel relation.Relation) string {
	scope := rel.Database + "." + rel.Schema
	if rel.Database == "" {
		scope = rel.Schema
	}
	return fmt.Sprintf("show dynamic tables like '%s' in schema %s",
		strings.ReplaceAll(rel.Identifier, "'", "''"), scope)
}

// observedRow keeps the SHOW columns relconfig reads and tags the row as a
// dynamic table.
func observedRow(row map[string]any) map[string]any {
	out := map[string]any{"kind": relconfig.KindDynamicTable}
	for _, col := range []string{"name", "target_lag", "warehouse", "refresh_mode", "cluster_by", "comment", "text"} {
		if v, ok := row[col]; ok && v != nil {
			out[col] = cast.ToString(v)
		}
	}
	return out
}
