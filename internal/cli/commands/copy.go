package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdw/internal/config"
	"github.com/leapstack-labs/leapdw/internal/engine"
	"github.com/leapstack-labs/leapdw/pkg/core"
)

// CopyOptions holds options for the copy command.
type CopyOptions struct {
	Materialization string
}

// NewCopyCommand creates the copy command.
func NewCopyCommand() *cobra.Command {
	opts := &CopyOptions{}

	cmd := &cobra.Command{
		Use:   "copy <source> <destination>",
		Short: "Copy a table server-side",
		Long: `Copy a table into another with a warehouse copy job.

With --materialized table (the default) the destination is replaced; with
--materialized incremental the rows are appended. Names are
database.schema.identifier or schema.identifier, the latter using the
target's database.`,
		Example: `  leapdw copy analytics.orders backup.orders
  leapdw copy proj.analytics.events proj.archive.events --materialized incremental`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := config.GetLogger(ctx)

			a, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			src, err := resolveRelation(args[0], cfg, a)
			if err != nil {
				return err
			}
			dst, err := resolveRelation(args[1], cfg, a)
			if err != nil {
				return err
			}

			p := engine.New(engine.Config{Adapter: a, Logger: logger})
			if err := p.Copy(ctx, src, dst, opts.Materialization); err != nil {
				return err
			}
			r := newRenderer(cmd)
			r.Println(r.Styles().Success.Render("Copied " + src.Render() + " to " + dst.Render()))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Materialization, "materialized", core.MaterializationTable, "table (replace) or incremental (append)")
	_ = cmd.RegisterFlagCompletionFunc("materialized", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{core.MaterializationTable, core.MaterializationIncremental}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
