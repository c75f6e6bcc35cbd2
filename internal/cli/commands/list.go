package commands

import (
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdw/internal/cli/output"
	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/internal/engine"
	"github.com/leapstack-labs/leapdw/pkg/catalog"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"catalog"},
		Short:   "List warehouse relations in the declared schemas",
		Long: `List the relations of every schema used by the declarations under
relations_dir. Rows from other schemas are dropped; schema names are matched
case-insensitively.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown table

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # List relations in the declared schemas
  leapdw list

  # As JSON
  leapdw catalog -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)

			a, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			targets, err := engine.LoadTargets(cfg.RelationsDir, a.Policy())
			if err != nil {
				return err
			}
			logger.Debug("loaded declarations", slog.String("dir", cfg.RelationsDir), slog.Int("count", len(targets)))

			p := engine.New(engine.Config{Adapter: a, Concurrency: cfg.Concurrency, Logger: logger})
			t, err := p.Catalog(ctx, targets)
			if err != nil {
				return fmt.Errorf("failed to list relations: %w", err)
			}
			return renderCatalog(newRenderer(cmd), t, len(engine.UsedSchemas(targets)))
		},
	}
}

// catalogRows converts t into one string map per row.
func catalogRows(t *catalog.Table) []map[string]string {
	rows := make([]map[string]string, 0, t.Len())
	for _, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) && row[i] != nil {
				m[col] = cast.ToString(row[i])
			}
		}
		rows = append(rows, m)
	}
	return rows
}

func renderCatalog(r *output.Renderer, t *catalog.Table, schemas int) error {
	switch r.Mode() {
	case output.ModeJSON:
		return r.JSON(catalogRows(t))
	case output.ModeYAML:
		return r.YAML(catalogRows(t))
	}

	if t.Len() == 0 {
		r.Println(r.Styles().Muted.Render(fmt.Sprintf("No relations found in %d schemas", schemas)))
		return nil
	}

	w := table.NewWriter()
	w.SetOutputMirror(r.Out())
	w.SetStyle(table.StyleLight)
	header := make(table.Row, 0, len(t.Columns))
	for _, c := range t.Columns {
		header = append(header, c)
	}
	w.AppendHeader(header)
	for _, row := range catalogRows(t) {
		cells := make(table.Row, 0, len(t.Columns))
		for _, c := range t.Columns {
			cells = append(cells, row[c])
		}
		w.AppendRow(cells)
	}
	if r.Mode() == output.ModeMarkdown {
		w.RenderMarkdown()
	} else {
		w.Render()
	}
	r.Printf("%d relations in %d schemas\n", t.Len(), schemas)
	return nil
}
