package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdw/pkg/adapter"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
	"github.com/leapstack-labs/leapdw/pkg/relation"
)

// UsedSchemas returns the distinct (database, schema) pairs of targets in
// first-seen order. Pairs that differ only in case count once.
func UsedSchemas(targets []Target) []catalog.SchemaKey {
	seen := make(map[catalog.SchemaKey]struct{}, len(targets))
	var keys []catalog.SchemaKey
	for _, t := range targets {
		key := catalog.SchemaKey{Database: t.Relation.Database, Schema: t.Relation.Schema}
		folded := catalog.SchemaKey{Database: relation.Fold(key.Database), Schema: relation.Fold(key.Schema)}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// Catalog lists the relations of every schema the targets use and keeps
// only the rows that belong to those schemas.
func (p *Planner) Catalog(ctx context.Context, targets []Target) (*catalog.Table, error) {
	if p.adapter == nil {
		return nil, fmt.Errorf("catalog requires a connected adapter")
	}
	lister, ok := p.adapter.(adapter.RelationLister)
	if !ok {
		return nil, &adapter.UnsupportedError{Adapter: fmt.Sprintf("%T", p.adapter), Capability: "listing relations"}
	}

	keys := UsedSchemas(targets)
	if len(keys) == 0 {
		return &catalog.Table{}, nil
	}
	p.logger.Debug("listing schemas", slog.Int("schemas", len(keys)))

	tables := make([]*catalog.Table, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, k := range keys {
		g.Go(func() error {
			t, err := lister.ListRelations(gctx, k.Database, k.Schema)
			if err != nil {
				return fmt.Errorf("list %s.%s: %w", k.Database, k.Schema, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged, err := mergeTables(tables)
	if err != nil {
		return nil, err
	}
	return catalog.FilterTable(merged, keys)
}

// mergeTables concatenates the rows of tables that share the same columns.
func mergeTables(tables []*catalog.Table) (*catalog.Table, error) {
	var out *catalog.Table
	for _, t := range tables {
		if t == nil {
			continue
		}
		if out == nil {
			out = &catalog.Table{Columns: slices.Clone(t.Columns)}
		} else if !slices.Equal(out.Columns, t.Columns) {
			return nil, fmt.Errorf("catalog columns differ: %v and %v", out.Columns, t.Columns)
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	if out == nil {
		out = &catalog.Table{Columns: []string{catalog.ColumnDatabase, catalog.ColumnSchema, catalog.ColumnName}}
	}
	return out, nil
}

// Copy copies src into dst server-side. Materialization "table" replaces the
// destination and "incremental" appends to it.
func (p *Planner) Copy(ctx context.Context, src, dst relation.Relation, materialization string) error {
	if p.adapter == nil {
		return fmt.Errorf("copy requires a connected adapter")
	}
	copier, ok := p.adapter.(adapter.TableCopier)
	if !ok {
		return &adapter.UnsupportedError{Adapter: fmt.Sprintf("%T", p.adapter), Capability: "table copies"}
	}
	if err := copier.CopyTable(ctx, src, dst, materialization); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src.Render(), dst.Render(), err)
	}
	p.logger.Info("copied table", slog.String("source", src.Render()), slog.String("destination", dst.Render()))
	return nil
}

// Grant authorizes view to read from database.schema.
func (p *Planner) Grant(ctx context.Context, view relation.Relation, database, schema string) error {
	if p.adapter == nil {
		return fmt.Errorf("grant requires a connected adapter")
	}
	granter, ok := p.adapter.(adapter.AccessGranter)
	if !ok {
		return &adapter.UnsupportedError{Adapter: fmt.Sprintf("%T", p.adapter), Capability: "view access grants"}
	}
	if err := granter.GrantAccessTo(ctx, view, database, schema); err != nil {
		return fmt.Errorf("grant %s on %s.%s: %w", view.Render(), database, schema, err)
	}
	return nil
}
